package mocks

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
)

// DataGenerator generates random-walk market data for tests that need a
// source whose output differs from the synthetic generator.
type DataGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDataGenerator creates a new DataGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GeneratorConfig configures how market data is generated.
type GeneratorConfig struct {
	Symbol     string
	StartTime  time.Time
	Resolution types.Resolution
	Count      int
	// InitialPrice is the open of the first bar
	InitialPrice float64
	// Volatility controls price movement (0.01 = 1% per bar)
	Volatility float64
	// Trend is the total drift spread across the series
	Trend float64
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:       "EURUSD",
		StartTime:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Resolution:   types.ResolutionOneMinute,
		Count:        10000,
		InitialPrice: 1.1,
		Volatility:   0.002,
		Trend:        0.0,
	}
}

// Generate creates a series based on the configuration.
// Prices follow a geometric Brownian motion; low <= open, close <= high holds for every bar.
func (g *DataGenerator) Generate(config GeneratorConfig) types.Series {
	g.mu.Lock()
	defer g.mu.Unlock()

	data := make(types.Series, config.Count)
	currentPrice := config.InitialPrice
	currentTime := config.StartTime

	for i := 0; i < config.Count; i++ {
		open := currentPrice

		// Box-Muller transform for a normal sample
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		drift := config.Trend / float64(config.Count)

		close := open * (1 + config.Volatility*z + drift)
		if close <= 0 {
			close = open * 0.99
		}

		highExtension := g.rng.Float64() * config.Volatility * open * 0.5
		lowExtension := g.rng.Float64() * config.Volatility * open * 0.5

		high := math.Max(open, close) + highExtension

		low := math.Min(open, close) - lowExtension
		if low <= 0 {
			low = math.Min(open, close) * 0.99
		}

		data[i] = types.MarketData{
			Symbol: config.Symbol,
			Time:   currentTime,
			Open:   roundToDecimals(open, 5),
			High:   roundToDecimals(high, 5),
			Low:    roundToDecimals(low, 5),
			Close:  roundToDecimals(close, 5),
		}

		currentPrice = close
		currentTime = config.Resolution.Step(currentTime)
	}

	return data
}

// Fetcher returns a provider.Fetcher serving random-walk series covering the
// requested range, with the same timestamps the synthetic generator would use.
func (g *DataGenerator) Fetcher(initialPrice float64) provider.Fetcher {
	return provider.FetcherFunc(func(_ context.Context, req provider.Request) (types.Series, error) {
		config := DefaultConfig()
		config.Symbol = req.Instrument
		config.StartTime = synthetic.Date(req.StartDate)
		config.Resolution = req.Resolution
		config.Count = synthetic.Count(req.StartDate, req.EndDate, req.Resolution)
		config.InitialPrice = initialPrice

		return g.Generate(config), nil
	})
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
