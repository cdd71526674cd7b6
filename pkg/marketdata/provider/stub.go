package provider

import (
	"context"

	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
	"go.uber.org/zap"
)

// StubFetcher stands in for a named source that has no live integration wired.
// It logs the request as the source would see it and serves synthetic data.
type StubFetcher struct {
	source Source
	logger *logger.Logger
}

// NewStubFetcher creates a placeholder fetcher for source.
func NewStubFetcher(source Source, logger *logger.Logger) *StubFetcher {
	return &StubFetcher{
		source: source,
		logger: logger,
	}
}

// Source returns the source this stub stands in for.
func (f *StubFetcher) Source() Source {
	return f.source
}

// Fetch implements Fetcher.
func (f *StubFetcher) Fetch(_ context.Context, req Request) (types.Series, error) {
	f.logger.Info("Downloading market data",
		zap.String("source", string(f.source)),
		zap.String("instrument", req.Instrument),
		zap.String("resolution", string(req.Resolution)),
		zap.String("interval", Interval(f.source, req.Resolution)),
		zap.Bool("placeholder", true),
	)

	return synthetic.Generate(req.StartDate, req.EndDate, req.Resolution).WithSymbol(req.Instrument), nil
}

var intervalNames = map[Source]map[types.Resolution]string{
	SourceAlphaVantage: {
		types.ResolutionOneMinute:      "1min",
		types.ResolutionFiveMinutes:    "5min",
		types.ResolutionFifteenMinutes: "15min",
		types.ResolutionThirtyMinutes:  "30min",
		types.ResolutionOneHour:        "60min",
		types.ResolutionOneDay:         "daily",
	},
	SourcePolygon: {
		types.ResolutionOneMinute:      "minute",
		types.ResolutionFiveMinutes:    "5minute",
		types.ResolutionFifteenMinutes: "15minute",
		types.ResolutionThirtyMinutes:  "30minute",
		types.ResolutionOneHour:        "hour",
		types.ResolutionOneDay:         "day",
	},
	SourceFinnhub: {
		types.ResolutionOneMinute:      "1",
		types.ResolutionFiveMinutes:    "5",
		types.ResolutionFifteenMinutes: "15",
		types.ResolutionThirtyMinutes:  "30",
		types.ResolutionOneHour:        "60",
		types.ResolutionOneDay:         "D",
	},
	SourceBinance: {
		types.ResolutionOneMinute:      "1m",
		types.ResolutionFiveMinutes:    "5m",
		types.ResolutionFifteenMinutes: "15m",
		types.ResolutionThirtyMinutes:  "30m",
		types.ResolutionOneHour:        "1h",
		types.ResolutionOneDay:         "1d",
	},
}

// Interval returns the source's own name for a resolution. Unrecognized
// resolutions map to the source's daily interval; unknown sources echo the
// resolution unchanged.
func Interval(source Source, resolution types.Resolution) string {
	names, ok := intervalNames[source]
	if !ok {
		return string(resolution)
	}

	if name, ok := names[resolution]; ok {
		return name
	}

	return names[types.ResolutionOneDay]
}
