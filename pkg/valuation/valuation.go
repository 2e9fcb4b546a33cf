package valuation

import "vertexd/pkg/ledger"

// Valuation is the mark-to-market view of a state, derived and never
// stored.
type Valuation struct {
	PerPosition   map[string]float64
	TotalNetWorth float64
}

// Valuate prices every position at its current snapshot and sums cash
// plus market values into the net worth. A position whose instrument
// has no snapshot is valued at its average price, a missing quote is
// never an error here.
func Valuate(state ledger.State) Valuation {
	v := Valuation{
		PerPosition:   make(map[string]float64, len(state.Positions)),
		TotalNetWorth: state.Account.CashUsd,
	}

	for symbolID, pos := range state.Positions {
		price := pos.AvgPrice
		if snap, ok := state.Snapshots[symbolID]; ok && snap.Price > 0 {
			price = snap.Price
		}

		marketValue := pos.Units() * price
		v.PerPosition[symbolID] = marketValue
		v.TotalNetWorth += marketValue
	}

	return v
}
