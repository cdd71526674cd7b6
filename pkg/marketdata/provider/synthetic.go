package provider

import (
	"context"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
)

// SyntheticFetcher serves the deterministic placeholder series. It never fails.
type SyntheticFetcher struct{}

// NewSyntheticFetcher creates a SyntheticFetcher.
func NewSyntheticFetcher() *SyntheticFetcher {
	return &SyntheticFetcher{}
}

// Fetch implements Fetcher.
func (f *SyntheticFetcher) Fetch(_ context.Context, req Request) (types.Series, error) {
	return synthetic.Generate(req.StartDate, req.EndDate, req.Resolution).WithSymbol(req.Instrument), nil
}
