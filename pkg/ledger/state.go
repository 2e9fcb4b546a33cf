package ledger

import (
	"time"

	"vertexd/pkg/feed"
)

const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"

	OrderStatusExecuted = "executed"
	OrderStatusPending  = "pending"
	OrderStatusDeclined = "declined"
)

const (
	// orders at or above this amount are parked as pending,
	// cosmetic large-order friction with no settlement behind it
	PendingAmountThreshold = 100000

	// positions whose cost basis falls to or below this are closed
	positionEpsilon = 0.01
)

type Account struct {
	Username string
	Name     string
	CashUsd  float64
}

// Position tracks one held instrument. CostBasisUsd is the USD ever
// committed net of USD withdrawn by sells, AvgPrice the cost weighted
// average entry price.
type Position struct {
	SymbolID     string
	CostBasisUsd float64
	AvgPrice     float64
}

// Units is the implied holding size at the average entry price.
func (p Position) Units() float64 {
	if p.AvgPrice <= 0 {
		return 0
	}
	return p.CostBasisUsd / p.AvgPrice
}

// Order is an immutable audit record, one per trade attempt including
// declined ones. Never mutated or deleted after append.
type Order struct {
	ID        string
	Time      time.Time
	SymbolID  string
	Side      string
	AmountUsd float64
	Price     float64
	Status    string
}

type Settings struct {
	Theme string
}

// State is the aggregate root, loaded whole, mutated in memory and
// saved whole.
type State struct {
	Account   Account
	Positions map[string]Position
	Orders    []Order
	Snapshots map[string]feed.Snapshot
	Settings  Settings
}

func defaultState(startCash float64) State {
	return State{
		Account: Account{
			Username: "user",
			Name:     "Trader",
			CashUsd:  startCash,
		},
		Positions: map[string]Position{},
		Orders:    []Order{},
		Snapshots: map[string]feed.Snapshot{},
		Settings:  Settings{Theme: "light"},
	}
}
