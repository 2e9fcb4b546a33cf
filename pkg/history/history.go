package history

import "sync"

// DefaultLimit is the number of past prices kept per instrument.
const DefaultLimit = 30

// Buffer keeps a fixed capacity rolling window of recent prices per
// instrument, oldest first. Display only, trading logic never reads it.
type Buffer struct {
	m      sync.Mutex
	limit  int
	series map[string][]float64
}

func NewBuffer(limit int) *Buffer {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Buffer{
		limit:  limit,
		series: make(map[string][]float64),
	}
}

// Append pushes a price for the instrument, evicting the oldest entry
// once the window is full.
func (b *Buffer) Append(symbolID string, price float64) {
	b.m.Lock()
	defer b.m.Unlock()

	s := append(b.series[symbolID], price)
	if len(s) > b.limit {
		s = s[len(s)-b.limit:]
	}
	b.series[symbolID] = s
}

// Series returns a copy of the recorded prices, oldest first. An
// unknown instrument yields an empty series.
func (b *Buffer) Series(symbolID string) []float64 {
	b.m.Lock()
	defer b.m.Unlock()

	out := make([]float64, len(b.series[symbolID]))
	copy(out, b.series[symbolID])

	return out
}
