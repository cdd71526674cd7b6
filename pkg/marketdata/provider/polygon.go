package provider

import (
	"context"
	"net/http"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
)

// polygonPageLimit is the largest page the aggregates endpoint serves.
const polygonPageLimit = 50000

// PolygonAggsIterator is the subset of the polygon aggregates iterator we use.
type PolygonAggsIterator interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// PolygonAPIClient is the subset of the polygon REST client we use.
type PolygonAPIClient interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator
}

type polygonClientWrapper struct {
	client *polygon.Client
}

func (w *polygonClientWrapper) ListAggs(ctx context.Context, params *models.ListAggsParams, options ...models.RequestOption) PolygonAggsIterator {
	return w.client.ListAggs(ctx, params, options...)
}

// PolygonFetcher fetches aggregates from Polygon.io. The API key is taken from
// Request.Credentials on every call.
type PolygonFetcher struct {
	newClient func(apiKey string) PolygonAPIClient
	logger    *logger.Logger
}

// NewPolygonFetcher creates a fetcher backed by the Polygon.io REST API.
func NewPolygonFetcher(logger *logger.Logger) *PolygonFetcher {
	return &PolygonFetcher{
		newClient: func(apiKey string) PolygonAPIClient {
			return &polygonClientWrapper{client: polygon.New(apiKey)}
		},
		logger: logger,
	}
}

// NewPolygonFetcherWithAPI creates a fetcher that always talks to api.
func NewPolygonFetcherWithAPI(api PolygonAPIClient, logger *logger.Logger) *PolygonFetcher {
	return &PolygonFetcher{
		newClient: func(string) PolygonAPIClient { return api },
		logger:    logger,
	}
}

// Fetch implements Fetcher.
func (f *PolygonFetcher) Fetch(ctx context.Context, req Request) (types.Series, error) {
	if req.Credentials == "" {
		return nil, errors.New(errors.ErrCodeAuth, "polygon requires an API key")
	}

	multiplier, timespan := PolygonTimespan(req.Resolution)

	//nolint:exhaustruct // third-party struct with many optional fields
	params := models.ListAggsParams{
		Ticker:     req.Instrument,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(synthetic.Date(req.StartDate)),
		To:         models.Millis(synthetic.Date(req.EndDate)),
	}.WithLimit(polygonPageLimit)

	iter := f.newClient(req.Credentials).ListAggs(ctx, params)

	series := types.Series{}

	for iter.Next() {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "polygon download cancelled", err)
		}

		agg := iter.Item()
		series = append(series, types.MarketData{
			Symbol: req.Instrument,
			Time:   time.Time(agg.Timestamp).UTC(),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
		})
	}

	if err := iter.Err(); err != nil {
		return nil, classifyPolygonError(err)
	}

	f.logger.Debug("Finished polygon download",
		zap.String("instrument", req.Instrument),
		zap.Int("bars", len(series)),
	)

	return series, nil
}

// PolygonTimespan returns the aggregate multiplier and timespan for a resolution.
func PolygonTimespan(resolution types.Resolution) (int, models.Timespan) {
	switch resolution {
	case types.ResolutionOneMinute:
		return 1, models.Minute
	case types.ResolutionFiveMinutes:
		return 5, models.Minute
	case types.ResolutionFifteenMinutes:
		return 15, models.Minute
	case types.ResolutionThirtyMinutes:
		return 30, models.Minute
	case types.ResolutionOneHour:
		return 1, models.Hour
	default:
		return 1, models.Day
	}
}

func classifyPolygonError(err error) error {
	var resp *models.ErrorResponse
	if errors.As(err, &resp) {
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrap(errors.ErrCodeAuth, "polygon rejected the API key", err)
		case http.StatusTooManyRequests:
			return errors.Wrap(errors.ErrCodeRateLimit, "polygon rate limit exceeded", err)
		}
	}

	return errors.Wrap(errors.ErrCodeNetwork, "polygon aggregates request failed", err)
}
