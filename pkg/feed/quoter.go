package feed

import (
	"context"
	"errors"
)

// ErrUnavailable signals that no live quote source is configured or
// reachable. The feed recovers with synthetic pricing, it is never
// surfaced to the user.
var ErrUnavailable = errors.New("feed: quote source unavailable")

// Quoter fetches current spot prices for a batch of feed ids in one
// call. A missing entry in the result is a per instrument soft failure.
type Quoter interface {
	Quotes(ctx context.Context, feedIDs []string) (map[string]float64, error)
}

// None is the quoter used when the daemon runs fully offline, every
// instrument falls back to the synthetic walk.
type None struct{}

func (None) Quotes(_ context.Context, _ []string) (map[string]float64, error) {
	return nil, ErrUnavailable
}
