package storage

import (
	"errors"
	"time"
)

// StateKey versions the persisted blob. Bump it when the shape changes
// in an incompatible way, old blobs will then be discarded on load.
const StateKey = "vertex_state_v3"

// ErrNoState is returned by Load when no snapshot exists yet, or when
// the stored blob is unreadable. Callers recover by initializing a
// default state and saving it back.
var ErrNoState = errors.New("storage: no usable state")

type Storer interface {
	// Load returns the last saved state, or ErrNoState.
	Load() (State, error)
	// Save durably persists the full state, overwriting any prior value.
	// Save followed by Load must return the saved value.
	Save(State) error
}

// State is the persisted aggregate, stored and loaded as one blob.
type State struct {
	Account   Account             `json:"account"`
	Positions map[string]Position `json:"positions"`
	Orders    []Order             `json:"orders"`
	Snapshots map[string]Snapshot `json:"snapshots"`
	Settings  Settings            `json:"settings"`
}

type Account struct {
	Username string  `json:"username"`
	Name     string  `json:"name"`
	CashUsd  float64 `json:"cash"`
}

type Position struct {
	SymbolID     string  `json:"symbol"`
	CostBasisUsd float64 `json:"sizeUsd"`
	AvgPrice     float64 `json:"avgPrice"`
}

type Order struct {
	ID        string    `json:"id"`
	Time      time.Time `json:"time"`
	SymbolID  string    `json:"symbol"`
	Side      string    `json:"type"`
	AmountUsd float64   `json:"amount"`
	Price     float64   `json:"price"`
	Status    string    `json:"status"`
}

type Snapshot struct {
	SymbolID   string    `json:"symbol"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observedAt"`
}

type Settings struct {
	Theme string `json:"theme"`
}
