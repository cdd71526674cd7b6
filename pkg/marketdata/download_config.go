package marketdata

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
)

// DownloadConfig is the JSON form of a single download request.
type DownloadConfig struct {
	Source     string `json:"source" jsonschema:"title=Source,description=Data source to download from,required,enum=alphavantage,enum=polygon,enum=finnhub,enum=binance,enum=synthetic" validate:"required"`
	Instrument string `json:"instrument" jsonschema:"title=Instrument,description=Instrument symbol (e.g. EURUSD or XAUUSD),required" validate:"required"`
	Resolution string `json:"resolution" jsonschema:"title=Resolution,description=Sampling interval,required,enum=1min,enum=5min,enum=15min,enum=30min,enum=1H,enum=1D" validate:"required"`
	StartDate  string `json:"startDate" jsonschema:"title=Start Date,description=First calendar day (YYYY-MM-DD),format=date,required" validate:"required"`
	EndDate    string `json:"endDate" jsonschema:"title=End Date,description=Last calendar day (YYYY-MM-DD),format=date,required" validate:"required"`
	Format     string `json:"format,omitempty" jsonschema:"title=Format,description=Output file format,enum=csv,enum=parquet,default=csv" validate:"omitempty,oneof=csv parquet"`
	ApiKey     string `json:"apiKey,omitempty" jsonschema:"title=API Key,description=Credentials passed to the data source"`
}

// Validate checks required fields and date formats.
func (c *DownloadConfig) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	start, err := ParseDate(c.StartDate)
	if err != nil {
		return err
	}

	end, err := ParseDate(c.EndDate)
	if err != nil {
		return err
	}

	if end.Before(start) {
		return errors.Newf(errors.ErrCodeInvalidDate, "endDate %s is before startDate %s", c.EndDate, c.StartDate)
	}

	return nil
}

// ToDownloadParams converts the config to DownloadParams.
func (c *DownloadConfig) ToDownloadParams() (DownloadParams, error) {
	start, err := ParseDate(c.StartDate)
	if err != nil {
		return DownloadParams{}, err
	}

	end, err := ParseDate(c.EndDate)
	if err != nil {
		return DownloadParams{}, err
	}

	return DownloadParams{
		Instrument: c.Instrument,
		Resolution: types.Resolution(c.Resolution),
		StartDate:  start,
		EndDate:    end,
	}, nil
}

// ToClientConfig converts the config to a ClientConfig writing to dataDir.
func (c *DownloadConfig) ToClientConfig(dataDir string) ClientConfig {
	format := writer.Format(c.Format)
	if format == "" {
		format = writer.FormatCSV
	}

	return ClientConfig{
		Source:   provider.Source(c.Source),
		Format:   format,
		DataDir:  dataDir,
		APIKey:   c.ApiKey,
		Fallback: FallbackDegrade,
		Live:     false,
	}
}

// ParseDownloadConfig parses and validates a JSON download config.
func ParseDownloadConfig(jsonConfig string) (*DownloadConfig, error) {
	var config DownloadConfig
	if err := json.Unmarshal([]byte(jsonConfig), &config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse JSON config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}
