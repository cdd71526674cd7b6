package marketdata

import (
	"context"
	"fmt"
	"sync"

	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"go.uber.org/zap"
)

// FallbackPolicy decides what the dispatcher does when a source fails.
type FallbackPolicy string

const (
	// FallbackDegrade serves synthetic data in place of a failed fetch.
	FallbackDegrade FallbackPolicy = "degrade"
	// FallbackFailFast returns the fetch error to the caller.
	FallbackFailFast FallbackPolicy = "fail-fast"
)

// Outcome is the result of a dispatched fetch.
type Outcome struct {
	Series types.Series
	// Source is the source that produced Series.
	Source provider.Source
	// Fallback is true when Series is synthetic data standing in for the
	// requested source.
	Fallback bool
	// Cause is why the fallback happened. Nil unless Fallback is set.
	Cause error
}

// Dispatcher routes fetch requests to the fetcher registered for a source.
type Dispatcher struct {
	mu        sync.RWMutex
	fetchers  map[provider.Source]provider.Fetcher
	synthetic provider.Fetcher
	policy    FallbackPolicy
	logger    *logger.Logger
}

// NewDispatcher creates a dispatcher with every named source wired to a
// placeholder fetcher and "synthetic" wired to the generator.
func NewDispatcher(policy FallbackPolicy, log *logger.Logger) *Dispatcher {
	if policy == "" {
		policy = FallbackDegrade
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	synth := provider.NewSyntheticFetcher()

	d := &Dispatcher{
		fetchers:  make(map[provider.Source]provider.Fetcher),
		synthetic: synth,
		policy:    policy,
		logger:    log,
	}

	for _, source := range provider.Sources() {
		if source == provider.SourceSynthetic {
			d.fetchers[source] = synth

			continue
		}

		d.fetchers[source] = provider.NewStubFetcher(source, log)
	}

	return d
}

// Register replaces the fetcher for source.
func (d *Dispatcher) Register(source provider.Source, fetcher provider.Fetcher) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.fetchers[source] = fetcher
}

// Policy returns the dispatcher's fallback policy.
func (d *Dispatcher) Policy() FallbackPolicy {
	return d.policy
}

// Fetch retrieves the series for req from source.
//
// An unrecognized source always falls back to synthetic data. A failing
// source falls back too under FallbackDegrade and returns the error under
// FallbackFailFast. Context cancellation is returned under either policy.
func (d *Dispatcher) Fetch(ctx context.Context, req provider.Request, source provider.Source) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, err
	}

	d.mu.RLock()
	fetcher, ok := d.fetchers[source]
	d.mu.RUnlock()

	if !ok {
		cause := errors.Newf(errors.ErrCodeInvalidProvider, "unknown data source: %s", source)
		d.logger.Warn("Unknown data source, using synthetic data",
			zap.String("source", string(source)),
			zap.String("instrument", req.Instrument),
		)

		return d.fallback(ctx, req, cause)
	}

	series, err := safeFetch(ctx, fetcher, req)
	if err == nil {
		return Outcome{
			Series:   series,
			Source:   source,
			Fallback: false,
			Cause:    nil,
		}, nil
	}

	if ctx.Err() != nil || d.policy == FallbackFailFast {
		return Outcome{}, err
	}

	d.logger.Warn("Fetch failed, using synthetic data",
		zap.String("source", string(source)),
		zap.String("instrument", req.Instrument),
		zap.String("resolution", string(req.Resolution)),
		zap.String("kind", errors.GetCode(err).String()),
		zap.Error(err),
	)

	return d.fallback(ctx, req, err)
}

func (d *Dispatcher) fallback(ctx context.Context, req provider.Request, cause error) (Outcome, error) {
	series, err := d.synthetic.Fetch(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	return Outcome{
		Series:   series,
		Source:   provider.SourceSynthetic,
		Fallback: true,
		Cause:    cause,
	}, nil
}

// safeFetch calls fetcher, turning a panic into an error and tagging
// uncoded errors as generic fetch failures.
func safeFetch(ctx context.Context, fetcher provider.Fetcher, req provider.Request) (series types.Series, err error) {
	defer func() {
		if r := recover(); r != nil {
			series = nil
			err = errors.New(errors.ErrCodeMarketDataFetchPanicked, fmt.Sprintf("fetcher panicked: %v", r))
		}
	}()

	series, err = fetcher.Fetch(ctx, req)
	if err != nil && !errors.IsFetchError(err) && ctx.Err() == nil {
		err = errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "fetch failed", err)
	}

	return series, err
}
