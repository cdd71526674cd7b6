package types

import "time"

// MarketData is a single OHLC bar.
type MarketData struct {
	Symbol string    `yaml:"symbol" json:"symbol"`
	Time   time.Time `yaml:"time" json:"time"`
	Open   float64   `yaml:"open" json:"open"`
	High   float64   `yaml:"high" json:"high"`
	Low    float64   `yaml:"low" json:"low"`
	Close  float64   `yaml:"close" json:"close"`
}

// Timestamp returns the bar time in milliseconds since the Unix epoch.
func (m MarketData) Timestamp() int64 {
	return m.Time.UnixMilli()
}

// Series is an ordered run of bars at a fixed resolution.
// Insertion order is chronological order.
type Series []MarketData

// IsEmpty reports whether the series holds no bars.
func (s Series) IsEmpty() bool {
	return len(s) == 0
}

// WithSymbol returns a copy of the series with every bar tagged with symbol.
func (s Series) WithSymbol(symbol string) Series {
	out := make(Series, len(s))
	for i, bar := range s {
		bar.Symbol = symbol
		out[i] = bar
	}

	return out
}
