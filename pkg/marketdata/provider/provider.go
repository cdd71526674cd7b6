package provider

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
)

// Source names a market data source.
type Source string

const (
	SourceAlphaVantage Source = "alphavantage"
	SourcePolygon      Source = "polygon"
	SourceFinnhub      Source = "finnhub"
	SourceBinance      Source = "binance"
	SourceSynthetic    Source = "synthetic"
)

// Sources lists every known source. The first entry is the default selector.
func Sources() []Source {
	return []Source{SourceAlphaVantage, SourcePolygon, SourceFinnhub, SourceBinance, SourceSynthetic}
}

// IsKnown reports whether s is one of the enumerated sources.
func (s Source) IsKnown() bool {
	for _, known := range Sources() {
		if s == known {
			return true
		}
	}

	return false
}

// Request describes a single series fetch.
type Request struct {
	Instrument string
	Resolution types.Resolution
	// StartDate and EndDate are calendar dates; the range is inclusive.
	StartDate time.Time
	EndDate   time.Time
	// Credentials is an opaque API key passed through to the source.
	Credentials string
}

// Fetcher retrieves a series from one data source.
//
// A fetch either succeeds with a series (possibly empty) or fails with an error
// whose code (see pkg/errors) names the failure kind: ErrCodeNetwork, ErrCodeAuth,
// ErrCodeRateLimit or ErrCodeMarketDataFetchFailed. What happens on failure is
// decided by the caller, not the fetcher.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) (types.Series, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, req Request) (types.Series, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, req Request) (types.Series, error) {
	return f(ctx, req)
}
