package provider

import (
	"context"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
)

// binancePageLimit is the default page size of the klines endpoint.
const binancePageLimit = 500

// Binance API error codes we map to fetch error kinds.
// Ref: https://developers.binance.com/docs/binance-spot-api-docs/errors
const (
	binanceCodeTooManyRequests  int64 = -1003
	binanceCodeInvalidSignature int64 = -1022
	binanceCodeBadAPIKeyFormat  int64 = -2014
	binanceCodeRejectedAPIKey   int64 = -2015
)

// BinanceKlinesService is the subset of the klines service builder we use.
type BinanceKlinesService interface {
	Symbol(symbol string) BinanceKlinesService
	Interval(interval string) BinanceKlinesService
	StartTime(startTime int64) BinanceKlinesService
	EndTime(endTime int64) BinanceKlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// BinanceAPIClient is the subset of the Binance client we use.
type BinanceAPIClient interface {
	NewKlinesService() BinanceKlinesService
}

type binanceClientWrapper struct {
	client *binance.Client
}

func (w *binanceClientWrapper) NewKlinesService() BinanceKlinesService {
	return &binanceKlinesServiceWrapper{service: w.client.NewKlinesService()}
}

type binanceKlinesServiceWrapper struct {
	service *binance.KlinesService
}

func (w *binanceKlinesServiceWrapper) Symbol(symbol string) BinanceKlinesService {
	w.service = w.service.Symbol(symbol)

	return w
}

func (w *binanceKlinesServiceWrapper) Interval(interval string) BinanceKlinesService {
	w.service = w.service.Interval(interval)

	return w
}

func (w *binanceKlinesServiceWrapper) StartTime(startTime int64) BinanceKlinesService {
	w.service = w.service.StartTime(startTime)

	return w
}

func (w *binanceKlinesServiceWrapper) EndTime(endTime int64) BinanceKlinesService {
	w.service = w.service.EndTime(endTime)

	return w
}

func (w *binanceKlinesServiceWrapper) Do(ctx context.Context) ([]*binance.Kline, error) {
	return w.service.Do(ctx)
}

// BinanceFetcher fetches klines from the Binance public market data API.
// No credentials are required.
type BinanceFetcher struct {
	apiClient BinanceAPIClient
	logger    *logger.Logger
}

// NewBinanceFetcher creates a fetcher backed by the public Binance API.
func NewBinanceFetcher(logger *logger.Logger) *BinanceFetcher {
	return &BinanceFetcher{
		apiClient: &binanceClientWrapper{client: binance.NewClient("", "")},
		logger:    logger,
	}
}

// NewBinanceFetcherWithAPI creates a fetcher that talks to api.
func NewBinanceFetcherWithAPI(api BinanceAPIClient, logger *logger.Logger) *BinanceFetcher {
	return &BinanceFetcher{
		apiClient: api,
		logger:    logger,
	}
}

// Fetch implements Fetcher. Pages are requested until a short page is returned
// or the end of the range is reached.
func (f *BinanceFetcher) Fetch(ctx context.Context, req Request) (types.Series, error) {
	interval := Interval(SourceBinance, req.Resolution)
	startMillis := synthetic.Date(req.StartDate).UnixMilli()
	endMillis := synthetic.Date(req.EndDate).UnixMilli()

	series := types.Series{}
	currentStart := startMillis

	for {
		klines, err := f.apiClient.NewKlinesService().
			Symbol(req.Instrument).
			Interval(interval).
			StartTime(currentStart).
			EndTime(endMillis).
			Do(ctx)
		if err != nil {
			return nil, classifyBinanceError(err)
		}

		page, err := convertKlines(req.Instrument, klines)
		if err != nil {
			return nil, err
		}

		series = append(series, page...)

		if len(klines) < binancePageLimit {
			break
		}

		// next page starts just after the close of the last kline
		currentStart = klines[len(klines)-1].CloseTime + 1
		if currentStart > endMillis {
			break
		}
	}

	f.logger.Debug("Finished binance download",
		zap.String("instrument", req.Instrument),
		zap.String("interval", interval),
		zap.Int("bars", len(series)),
	)

	return series, nil
}

// convertKlines maps Binance klines to bars keyed by their open time.
func convertKlines(symbol string, klines []*binance.Kline) (types.Series, error) {
	series := make(types.Series, 0, len(klines))

	for _, k := range klines {
		var prices [4]float64

		for i, value := range []string{k.Open, k.High, k.Low, k.Close} {
			price, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err,
					"invalid price %q in %s kline at %d", value, symbol, k.OpenTime)
			}

			prices[i] = price
		}

		series = append(series, types.MarketData{
			Symbol: symbol,
			Time:   time.UnixMilli(k.OpenTime).UTC(),
			Open:   prices[0],
			High:   prices[1],
			Low:    prices[2],
			Close:  prices[3],
		})
	}

	return series, nil
}

func classifyBinanceError(err error) error {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case binanceCodeTooManyRequests:
			return errors.Wrap(errors.ErrCodeRateLimit, "binance rate limit exceeded", err)
		case binanceCodeInvalidSignature, binanceCodeBadAPIKeyFormat, binanceCodeRejectedAPIKey:
			return errors.Wrap(errors.ErrCodeAuth, "binance rejected the credentials", err)
		default:
			return errors.Wrap(errors.ErrCodeMarketDataFetchFailed, "binance klines request failed", err)
		}
	}

	return errors.Wrap(errors.ErrCodeNetwork, "binance klines request failed", err)
}
