package ledger

import (
	"vertexd/pkg/feed"
	"vertexd/pkg/storage"
)

func castStorageState(st storage.State) State {
	state := State{
		Account: Account{
			Username: st.Account.Username,
			Name:     st.Account.Name,
			CashUsd:  st.Account.CashUsd,
		},
		Positions: make(map[string]Position, len(st.Positions)),
		Orders:    make([]Order, 0, len(st.Orders)),
		Snapshots: make(map[string]feed.Snapshot, len(st.Snapshots)),
		Settings:  Settings{Theme: st.Settings.Theme},
	}

	for symbolID, p := range st.Positions {
		state.Positions[symbolID] = Position{
			SymbolID:     p.SymbolID,
			CostBasisUsd: p.CostBasisUsd,
			AvgPrice:     p.AvgPrice,
		}
	}

	for _, o := range st.Orders {
		state.Orders = append(state.Orders, Order{
			ID:        o.ID,
			Time:      o.Time,
			SymbolID:  o.SymbolID,
			Side:      o.Side,
			AmountUsd: o.AmountUsd,
			Price:     o.Price,
			Status:    o.Status,
		})
	}

	for symbolID, s := range st.Snapshots {
		state.Snapshots[symbolID] = feed.Snapshot{
			SymbolID:   s.SymbolID,
			Price:      s.Price,
			ObservedAt: s.ObservedAt,
		}
	}

	return state
}

func castToStorageState(state State) storage.State {
	st := storage.State{
		Account: storage.Account{
			Username: state.Account.Username,
			Name:     state.Account.Name,
			CashUsd:  state.Account.CashUsd,
		},
		Positions: make(map[string]storage.Position, len(state.Positions)),
		Orders:    make([]storage.Order, 0, len(state.Orders)),
		Snapshots: make(map[string]storage.Snapshot, len(state.Snapshots)),
		Settings:  storage.Settings{Theme: state.Settings.Theme},
	}

	for symbolID, p := range state.Positions {
		st.Positions[symbolID] = storage.Position{
			SymbolID:     p.SymbolID,
			CostBasisUsd: p.CostBasisUsd,
			AvgPrice:     p.AvgPrice,
		}
	}

	for _, o := range state.Orders {
		st.Orders = append(st.Orders, storage.Order{
			ID:        o.ID,
			Time:      o.Time,
			SymbolID:  o.SymbolID,
			Side:      o.Side,
			AmountUsd: o.AmountUsd,
			Price:     o.Price,
			Status:    o.Status,
		})
	}

	for symbolID, s := range state.Snapshots {
		st.Snapshots[symbolID] = storage.Snapshot{
			SymbolID:   s.SymbolID,
			Price:      s.Price,
			ObservedAt: s.ObservedAt,
		}
	}

	return st
}
