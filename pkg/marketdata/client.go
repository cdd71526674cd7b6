package marketdata

import (
	"context"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"go.uber.org/zap"
)

// DateLayout is the calendar date form accepted for start and end dates.
const DateLayout = "2006-01-02"

// ClientConfig holds the configuration for the market data client.
type ClientConfig struct {
	// Source selects the data source. Unrecognized or empty values fall back to synthetic data.
	Source   provider.Source
	Format   writer.Format   `validate:"required,oneof=csv parquet"`
	DataDir  string          `validate:"required"`
	APIKey   string
	Fallback FallbackPolicy `validate:"omitempty,oneof=degrade fail-fast"`
	// Live wires the Polygon and Binance integrations in place of their placeholders.
	Live bool
}

// DefaultClientConfig returns a configuration writing CSV files to ./data.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Source:   provider.SourceAlphaVantage,
		Format:   writer.FormatCSV,
		DataDir:  "data",
		APIKey:   "",
		Fallback: FallbackDegrade,
		Live:     false,
	}
}

// DownloadParams holds the parameters for a market data download request.
type DownloadParams struct {
	Instrument string `validate:"required"`
	// Resolution defaults to daily when empty. Unrecognized values are also
	// generated daily but keep their label in the file name.
	Resolution types.Resolution
	StartDate  time.Time        `validate:"required"`
	EndDate    time.Time        `validate:"required,gtefield=StartDate"`
}

// ParseDate parses a YYYY-MM-DD calendar date as UTC midnight.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.Wrapf(errors.ErrCodeInvalidDate, err, "invalid date %q, expected YYYY-MM-DD", value)
	}

	return t, nil
}

// Client fetches series through a Dispatcher and exports them to files.
type Client struct {
	config     ClientConfig
	dispatcher *Dispatcher
	validate   *validator.Validate
	logger     *logger.Logger
}

// NewClient creates a new market data client with the given configuration.
func NewClient(config ClientConfig, log *logger.Logger) (*Client, error) {
	validate := validator.New()
	if err := validate.Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid client configuration", err)
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	dispatcher := NewDispatcher(config.Fallback, log)

	if config.Live {
		dispatcher.Register(provider.SourcePolygon, provider.NewPolygonFetcher(log))
		dispatcher.Register(provider.SourceBinance, provider.NewBinanceFetcher(log))
	}

	return &Client{
		config:     config,
		dispatcher: dispatcher,
		validate:   validate,
		logger:     log,
	}, nil
}

// Config returns the client's configuration.
func (c *Client) Config() ClientConfig {
	return c.config
}

// Dispatcher returns the dispatcher used by the client, for registering fetchers.
func (c *Client) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// Download fetches one series and exports it under the data directory.
//
// It returns None when the source produced no rows; nothing is written in that
// case. Fetch failures only surface as errors under FallbackFailFast.
func (c *Client) Download(ctx context.Context, params DownloadParams) (optional.Option[string], error) {
	if err := c.validate.Struct(params); err != nil {
		return optional.None[string](), errors.Wrap(errors.ErrCodeInvalidParameter, "invalid download parameters", err)
	}

	if params.Resolution == "" {
		params.Resolution = types.ResolutionOneDay
	}

	if err := os.MkdirAll(c.config.DataDir, 0755); err != nil {
		return optional.None[string](), errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create data directory %s", c.config.DataDir)
	}

	outcome, err := c.dispatcher.Fetch(ctx, provider.Request{
		Instrument:  params.Instrument,
		Resolution:  params.Resolution,
		StartDate:   params.StartDate,
		EndDate:     params.EndDate,
		Credentials: c.config.APIKey,
	}, c.config.Source)
	if err != nil {
		return optional.None[string](), err
	}

	if outcome.Series.IsEmpty() {
		c.logger.Warn("No data returned, nothing written",
			zap.String("instrument", params.Instrument),
			zap.String("resolution", string(params.Resolution)),
			zap.String("source", string(c.config.Source)),
		)

		return optional.None[string](), nil
	}

	target := writer.Target{
		Dir:        c.config.DataDir,
		Instrument: params.Instrument,
		Resolution: params.Resolution,
	}

	w, err := writer.New(c.config.Format, target)
	if err != nil {
		return optional.None[string](), err
	}

	path, err := writer.Export(w, outcome.Series)
	if err != nil {
		return optional.None[string](), err
	}

	c.logger.Info("Saved market data",
		zap.String("path", path),
		zap.Int("rows", len(outcome.Series)),
		zap.String("source", string(outcome.Source)),
		zap.Bool("fallback", outcome.Fallback),
	)

	return optional.Some(path), nil
}
