package feed

import (
	"context"
	"math"
	"math/rand"
	"time"

	"vertexd/pkg/instrument"

	"github.com/sirupsen/logrus"
)

// MinPrice is the floor applied to every price, a snapshot is never
// zero or negative.
const MinPrice = 0.01

// Snapshot is the current price of one instrument, replaced each tick.
type Snapshot struct {
	SymbolID   string
	Price      float64
	ObservedAt time.Time
}

type ConfigFeed struct {
	Quoter Quoter
}

// Feed produces a fresh snapshot per instrument on every refresh,
// from the live quoter when possible, else via bounded random walk.
type Feed struct {
	logger logrus.FieldLogger
	quoter Quoter
}

func New(cfg *ConfigFeed, logger logrus.FieldLogger) *Feed {
	quoter := cfg.Quoter
	if quoter == nil {
		quoter = None{}
	}

	return &Feed{
		logger: logger.WithField("module", "feed"),
		quoter: quoter,
	}
}

// Refresh returns a new snapshot for every instrument in the catalog.
// A failed or partial live fetch degrades to synthetic pricing for the
// affected instruments only, it never aborts the refresh.
func (f *Feed) Refresh(ctx context.Context, instruments []instrument.Instrument, prev map[string]Snapshot) map[string]Snapshot {
	var feedIDs []string
	for _, ins := range instruments {
		if ins.FeedID != "" {
			feedIDs = append(feedIDs, ins.FeedID)
		}
	}

	quotes := map[string]float64{}
	if len(feedIDs) > 0 {
		q, err := f.quoter.Quotes(ctx, feedIDs)
		if err != nil {
			f.logger.WithError(err).Warn("live quotes unavailable, falling back to synthetic prices")
		} else {
			quotes = q
		}
	}

	observedAt := time.Now().UTC()
	snapshots := make(map[string]Snapshot, len(instruments))

	for _, ins := range instruments {
		price, ok := quotes[ins.FeedID]
		if !ok || price <= 0 {
			price = f.synthesize(ins, prev)
		}

		snapshots[ins.SymbolID] = Snapshot{
			SymbolID:   ins.SymbolID,
			Price:      math.Max(MinPrice, price),
			ObservedAt: observedAt,
		}
	}

	return snapshots
}

// synthesize draws the next price as prev * (1 + U), U uniform within
// ±0.5% of prev, floored at MinPrice and rounded to 2 decimals.
func (f *Feed) synthesize(ins instrument.Instrument, prev map[string]Snapshot) float64 {
	base := ins.SeedPrice()
	if s, ok := prev[ins.SymbolID]; ok && s.Price > 0 {
		base = s.Price
	}

	change := (rand.Float64() - 0.5) * base * 0.01

	return math.Max(MinPrice, toFixed(base+change, 2))
}

func round(num float64) int {
	return int(num + math.Copysign(0.5, num))
}

func toFixed(num float64, precision int) float64 {
	output := math.Pow(10, float64(precision))
	return float64(round(num*output)) / output
}
