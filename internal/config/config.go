package config

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes environment overrides, e.g. ARGO_DATA_DIR or ARGO_BATCH_CONCURRENCY.
const EnvPrefix = "ARGO"

// Config is the file and environment configuration of the CLI.
type Config struct {
	Source   string `mapstructure:"source" yaml:"source" jsonschema:"description=Data source to download from"`
	Format   string `mapstructure:"format" yaml:"format" jsonschema:"enum=csv,enum=parquet" validate:"required,oneof=csv parquet"`
	DataDir  string `mapstructure:"data_dir" yaml:"data_dir" jsonschema:"description=Directory exported files are written to" validate:"required"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key,omitempty" jsonschema:"description=Credentials passed to the data source"`
	Fallback string `mapstructure:"fallback" yaml:"fallback" jsonschema:"enum=degrade,enum=fail-fast" validate:"required,oneof=degrade fail-fast"`
	Live     bool   `mapstructure:"live" yaml:"live" jsonschema:"description=Use the Polygon and Binance integrations"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error" validate:"required,oneof=debug info warn error"`
	Batch    Batch  `mapstructure:"batch" yaml:"batch"`
	// Schedule is a cron expression with a seconds field used by the schedule command.
	Schedule string `mapstructure:"schedule" yaml:"schedule" jsonschema:"description=Cron expression with a seconds field" validate:"required"`
}

// Batch configures the batch matrix.
type Batch struct {
	Instruments []string `mapstructure:"instruments" yaml:"instruments" validate:"required,min=1,dive,required"`
	Resolutions []string `mapstructure:"resolutions" yaml:"resolutions" validate:"required,min=1"`
	StartDate   string   `mapstructure:"start_date" yaml:"start_date" jsonschema:"format=date" validate:"required"`
	EndDate     string   `mapstructure:"end_date" yaml:"end_date" jsonschema:"format=date" validate:"required"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency" jsonschema:"minimum=0" validate:"gte=0"`
}

// Default returns the configuration used when neither a file nor the
// environment sets a key.
func Default() Config {
	client := marketdata.DefaultClientConfig()
	batch := marketdata.DefaultBatchConfig()

	resolutions := make([]string, 0, len(batch.Resolutions))
	for _, r := range batch.Resolutions {
		resolutions = append(resolutions, string(r))
	}

	return Config{
		Source:   string(client.Source),
		Format:   string(client.Format),
		DataDir:  client.DataDir,
		Fallback: string(client.Fallback),
		LogLevel: "info",
		Batch: Batch{
			Instruments: batch.Instruments,
			Resolutions: resolutions,
			StartDate:   batch.StartDate.Format(marketdata.DateLayout),
			EndDate:     batch.EndDate.Format(marketdata.DateLayout),
			Concurrency: batch.Concurrency,
		},
		Schedule: "0 0 1 * * *",
	}
}

func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("source", defaults.Source)
	v.SetDefault("format", defaults.Format)
	v.SetDefault("data_dir", defaults.DataDir)
	v.SetDefault("api_key", defaults.APIKey)
	v.SetDefault("fallback", defaults.Fallback)
	v.SetDefault("live", defaults.Live)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("schedule", defaults.Schedule)
	v.SetDefault("batch.instruments", defaults.Batch.Instruments)
	v.SetDefault("batch.resolutions", defaults.Batch.Resolutions)
	v.SetDefault("batch.start_date", defaults.Batch.StartDate)
	v.SetDefault("batch.end_date", defaults.Batch.EndDate)
	v.SetDefault("batch.concurrency", defaults.Batch.Concurrency)
}

// Load reads the YAML file at path, if any, applies ARGO_* environment
// overrides and validates the result. An empty path uses defaults only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "reading config file failed (%s)", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "parsing config failed", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints and date formats.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if _, err := c.BatchConfig(); err != nil {
		return err
	}

	return nil
}

// ClientConfig returns the client settings.
func (c *Config) ClientConfig() marketdata.ClientConfig {
	return marketdata.ClientConfig{
		Source:   provider.Source(c.Source),
		Format:   writer.Format(c.Format),
		DataDir:  c.DataDir,
		APIKey:   c.APIKey,
		Fallback: marketdata.FallbackPolicy(c.Fallback),
		Live:     c.Live,
	}
}

// BatchConfig returns the batch matrix with parsed dates.
func (c *Config) BatchConfig() (marketdata.BatchConfig, error) {
	start, err := marketdata.ParseDate(c.Batch.StartDate)
	if err != nil {
		return marketdata.BatchConfig{}, err
	}

	end, err := marketdata.ParseDate(c.Batch.EndDate)
	if err != nil {
		return marketdata.BatchConfig{}, err
	}

	if end.Before(start) {
		return marketdata.BatchConfig{}, errors.Newf(errors.ErrCodeInvalidDate, "batch end_date %s is before start_date %s", c.Batch.EndDate, c.Batch.StartDate)
	}

	resolutions := make([]types.Resolution, 0, len(c.Batch.Resolutions))
	for _, r := range c.Batch.Resolutions {
		resolutions = append(resolutions, types.Resolution(r))
	}

	return marketdata.BatchConfig{
		Instruments: c.Batch.Instruments,
		Resolutions: resolutions,
		StartDate:   start,
		EndDate:     end,
		Concurrency: c.Batch.Concurrency,
	}, nil
}

// Level returns the zap level named by LogLevel.
func (c *Config) Level() zapcore.Level {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel
	}

	return level
}

// Schema returns the JSON schema of the config file, keyed by YAML field names.
func Schema() (string, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
	}

	schema := reflector.Reflect(&Config{})

	bytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(bytes), nil
}
