// Package synthetic produces deterministic placeholder OHLC series. It stands in
// for every data source until a real integration is injected.
package synthetic

import (
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
)

const (
	// BasePrice is the open of the first bar.
	BasePrice = 100.0
	// PriceIncrement is added to the baseline for each subsequent bar.
	PriceIncrement = 0.1
	// HighOffset and LowOffset place high and low symmetrically around the open.
	HighOffset = 0.5
	LowOffset  = 0.5
	// CloseOffset places the close above the open.
	CloseOffset = 0.2
)

// Generate builds the placeholder series for [startDate, endDate] inclusive.
// Both dates are reduced to their calendar day at 00:00 UTC. Bars are spaced by
// resolution; unrecognized resolutions step daily. A start after the end yields
// an empty series.
func Generate(startDate time.Time, endDate time.Time, resolution types.Resolution) types.Series {
	start := Date(startDate)
	end := Date(endDate)

	if start.After(end) {
		return types.Series{}
	}

	series := make(types.Series, 0, Count(start, end, resolution))

	i := 0
	for t := start; !t.After(end); t = resolution.Step(t) {
		series = append(series, Bar(i, t))
		i++
	}

	return series
}

// Bar returns the i-th (0-indexed) placeholder bar at time t.
func Bar(i int, t time.Time) types.MarketData {
	// explicit conversions keep the compiler from fusing multiply-add, so values
	// are bit-identical on every architecture
	baseline := float64(BasePrice + float64(float64(i)*PriceIncrement))

	return types.MarketData{
		Symbol: "",
		Time:   t,
		Open:   baseline,
		High:   float64(baseline + HighOffset),
		Low:    float64(baseline - LowOffset),
		Close:  float64(baseline + CloseOffset),
	}
}

// Count returns how many bars Generate produces for the range without building them.
func Count(startDate time.Time, endDate time.Time, resolution types.Resolution) int {
	start := Date(startDate)
	end := Date(endDate)

	if start.After(end) {
		return 0
	}

	if step, ok := resolution.Intraday(); ok {
		return int(end.Sub(start)/step) + 1
	}

	// dates are UTC midnights, so whole days divide evenly
	return int(end.Sub(start)/(24*time.Hour)) + 1
}

// Date truncates t to midnight UTC of its calendar day.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
