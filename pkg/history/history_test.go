package history

import (
	"reflect"
	"strings"
	"testing"
)

func TestBuffer_AppendEvictsOldest(t *testing.T) {
	b := NewBuffer(3)

	for _, p := range []float64{1, 2, 3, 4, 5} {
		b.Append("bitcoin", p)
	}

	got := b.Series("bitcoin")
	want := []float64{3, 4, 5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("series = %v, want %v", got, want)
	}
}

func TestBuffer_SeriesIsACopy(t *testing.T) {
	b := NewBuffer(5)
	b.Append("bitcoin", 10)
	b.Append("bitcoin", 20)

	s := b.Series("bitcoin")
	s[0] = 999

	if got := b.Series("bitcoin"); got[0] != 10 {
		t.Errorf("mutating the returned series leaked into the buffer: %v", got)
	}
}

func TestBuffer_UnknownSymbol(t *testing.T) {
	b := NewBuffer(5)

	if got := b.Series("nope"); len(got) != 0 {
		t.Errorf("series = %v, want empty", got)
	}
}

func TestBuffer_DefaultLimit(t *testing.T) {
	b := NewBuffer(0)

	for i := 0; i < DefaultLimit+10; i++ {
		b.Append("aapl", float64(i))
	}

	got := b.Series("aapl")
	if len(got) != DefaultLimit {
		t.Fatalf("series length = %d, want %d", len(got), DefaultLimit)
	}
	if got[0] != 10 {
		t.Errorf("oldest kept = %v, want 10", got[0])
	}
}

func TestSparklineSVG(t *testing.T) {
	testCases := []struct {
		name      string
		points    []float64
		wantColor string
	}{
		{name: "rising series", points: []float64{100, 105, 110}, wantColor: sparkUpColor},
		{name: "falling series", points: []float64{110, 105, 100}, wantColor: sparkDnColor},
		{name: "flat series", points: []float64{100, 100}, wantColor: sparkUpColor},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svg := SparklineSVG(tc.points, 100)

			if !strings.HasPrefix(svg, "<svg ") || !strings.Contains(svg, "<polyline ") {
				t.Errorf("unexpected svg: %s", svg)
			}
			if !strings.Contains(svg, tc.wantColor) {
				t.Errorf("svg color, want %s in: %s", tc.wantColor, svg)
			}
		})
	}
}

func TestSparklineSVG_ShortSeriesIsPadded(t *testing.T) {
	svg := SparklineSVG(nil, 100)

	if !strings.Contains(svg, "<polyline ") {
		t.Errorf("short series should render a synthetic polyline, got: %s", svg)
	}
}
