package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/config"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}

	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}

	if cmd.IsSet("source") {
		cfg.Source = cmd.String("source")
	}

	if cmd.IsSet("format") {
		cfg.Format = cmd.String("format")
	}

	if cmd.IsSet("data") {
		cfg.DataDir = cmd.String("data")
	}

	if cmd.IsSet("api-key") {
		cfg.APIKey = cmd.String("api-key")
	}

	if cmd.Bool("fail-fast") {
		cfg.Fallback = string(marketdata.FallbackFailFast)
	}

	if cmd.Bool("live") {
		cfg.Live = true
	}

	if cmd.IsSet("concurrency") {
		cfg.Batch.Concurrency = int(cmd.Int("concurrency"))
	}

	if cmd.IsSet("cron") {
		cfg.Schedule = cmd.String("cron")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setup(cmd *cli.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.NewLoggerWithLevel(cfg.Level())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, log, nil
}

func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}

	return os.Stdout
}

func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}

	return os.Stderr
}

// fetchAction downloads a single series and prints the written path.
func fetchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	defer log.Sync()

	clientConfig := cfg.ClientConfig()

	var params marketdata.DownloadParams

	if raw := cmd.String("json"); raw != "" {
		downloadConfig, err := marketdata.ParseDownloadConfig(raw)
		if err != nil {
			return err
		}

		params, err = downloadConfig.ToDownloadParams()
		if err != nil {
			return err
		}

		fromJSON := downloadConfig.ToClientConfig(clientConfig.DataDir)
		clientConfig.Source = fromJSON.Source
		clientConfig.Format = fromJSON.Format

		if fromJSON.APIKey != "" {
			clientConfig.APIKey = fromJSON.APIKey
		}
	} else {
		params, err = paramsFromFlags(cmd)
		if err != nil {
			return err
		}
	}

	client, err := marketdata.NewClient(clientConfig, log)
	if err != nil {
		return err
	}

	path, err := client.Download(ctx, params)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if path.IsNone() {
		fmt.Fprintf(stdout(cmd), "no data for %s %s, nothing written\n", params.Instrument, params.Resolution)

		return nil
	}

	fmt.Fprintln(stdout(cmd), path.Unwrap())

	return nil
}

func paramsFromFlags(cmd *cli.Command) (marketdata.DownloadParams, error) {
	instrument := cmd.String("instrument")
	if instrument == "" {
		return marketdata.DownloadParams{}, errors.New(errors.ErrCodeMissingParameter, "--instrument is required")
	}

	if cmd.String("start") == "" {
		return marketdata.DownloadParams{}, errors.New(errors.ErrCodeMissingParameter, "--start is required")
	}

	start, err := marketdata.ParseDate(cmd.String("start"))
	if err != nil {
		return marketdata.DownloadParams{}, err
	}

	end := start

	if cmd.String("end") != "" {
		end, err = marketdata.ParseDate(cmd.String("end"))
		if err != nil {
			return marketdata.DownloadParams{}, err
		}
	}

	return marketdata.DownloadParams{
		Instrument: instrument,
		Resolution: types.Resolution(cmd.String("resolution")),
		StartDate:  start,
		EndDate:    end,
	}, nil
}

func newBatch(cfg *config.Config, log *logger.Logger, onProgress marketdata.OnBatchProgress) (*marketdata.Batch, error) {
	client, err := marketdata.NewClient(cfg.ClientConfig(), log)
	if err != nil {
		return nil, err
	}

	batchConfig, err := cfg.BatchConfig()
	if err != nil {
		return nil, err
	}

	return marketdata.NewBatch(client, batchConfig, onProgress)
}

func runBatch(ctx context.Context, batch *marketdata.Batch, dataDir string) (*marketdata.BatchReport, error) {
	report, err := batch.Run(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := report.WriteManifest(dataDir); err != nil {
		return nil, err
	}

	return report, nil
}

// batchAction runs the configured matrix once with a progress bar.
func batchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	defer log.Sync()

	batchConfig, err := cfg.BatchConfig()
	if err != nil {
		return err
	}

	var onProgress marketdata.OnBatchProgress

	if !cmd.Bool("no-progress") {
		bar := progressbar.NewOptions(len(batchConfig.Pairs()),
			progressbar.OptionSetWriter(stderr(cmd)),
			progressbar.OptionSetDescription("downloading"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		defer bar.Finish()

		onProgress = func(_ int, _ int, message string) {
			bar.Describe(message)
			bar.Add(1)
		}
	}

	batch, err := newBatch(cfg, log, onProgress)
	if err != nil {
		return err
	}

	report, err := runBatch(ctx, batch, cfg.DataDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout(cmd), "wrote %d of %d files to %s (run %s)\n", len(report.Files), report.Total(), cfg.DataDir, report.RunID)

	for _, failure := range report.Failures {
		fmt.Fprintf(stdout(cmd), "failed %s %s: %s\n", failure.Instrument, failure.Resolution, failure.Error)
	}

	return nil
}

// scheduleAction runs the batch on the configured cron schedule until ctx is cancelled.
func scheduleAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}

	defer log.Sync()

	batch, err := newBatch(cfg, log, nil)
	if err != nil {
		return err
	}

	run := func() {
		if _, err := runBatch(ctx, batch, cfg.DataDir); err != nil {
			log.Error("Scheduled batch failed", zap.Error(err))
		}
	}

	scheduler := newScheduler(log)

	if _, err := scheduler.AddFunc(cfg.Schedule, run); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid schedule %q", cfg.Schedule)
	}

	if cmd.Bool("run-now") {
		run()
	}

	scheduler.Start()
	log.Info("Scheduler started", zap.String("schedule", cfg.Schedule))

	<-ctx.Done()

	<-scheduler.Stop().Done()
	log.Info("Scheduler stopped")

	return nil
}

func parseOptionalDate(value string) (optional.Option[time.Time], error) {
	if value == "" {
		return optional.None[time.Time](), nil
	}

	t, err := marketdata.ParseDate(value)
	if err != nil {
		return optional.None[time.Time](), err
	}

	return optional.Some(t), nil
}

// inspectAction prints a summary line per file.
func inspectAction(_ context.Context, cmd *cli.Command) error {
	paths := cmd.Args().Slice()

	if dir := cmd.String("manifest"); dir != "" {
		manifest, err := marketdata.ReadManifest(dir)
		if err != nil {
			return err
		}

		paths = append(paths, manifest.Files...)
	}

	if len(paths) == 0 {
		return errors.New(errors.ErrCodeMissingParameter, "at least one file or --manifest is required")
	}

	from, err := parseOptionalDate(cmd.String("from"))
	if err != nil {
		return err
	}

	to, err := parseOptionalDate(cmd.String("to"))
	if err != nil {
		return err
	}

	// --to is a calendar day, so include every bar on it
	if to.IsSome() {
		to = optional.Some(to.Unwrap().Add(24*time.Hour - time.Minute))
	}

	inspector, err := marketdata.NewInspector(logger.NewNopLogger())
	if err != nil {
		return err
	}
	defer inspector.Close()

	t := newTable(stdout(cmd), "FILE", "ROWS", "FIRST", "LAST", "LOW", "HIGH")

	for _, path := range paths {
		stats, err := inspector.Stats(path, from, to)
		if err != nil {
			return err
		}

		t.Row(
			stats.Path,
			strconv.Itoa(stats.Rows),
			formatOptionalTime(stats.First),
			formatOptionalTime(stats.Last),
			writer.FormatFloat(stats.Low),
			writer.FormatFloat(stats.High),
		)
	}

	printTable(stdout(cmd), t)

	return nil
}

func formatOptionalTime(t optional.Option[time.Time]) string {
	if t.IsNone() {
		return "-"
	}

	return t.Unwrap().Format(writer.TimestampLayout)
}

// providersAction lists the registry or prints the download config schema.
func providersAction(_ context.Context, cmd *cli.Command) error {
	if cmd.Bool("schema") {
		schema, err := marketdata.GetDownloadConfigSchema()
		if err != nil {
			return err
		}

		fmt.Fprintln(stdout(cmd), schema)

		return nil
	}

	t := newTable(stdout(cmd), "NAME", "DISPLAY NAME", "AUTH", "LIVE", "INTERVAL (1H)")

	for _, name := range marketdata.GetSupportedProviders() {
		info, err := marketdata.GetProviderInfo(name)
		if err != nil {
			return err
		}

		t.Row(
			info.Name,
			info.DisplayName,
			strconv.FormatBool(info.RequiresAuth),
			strconv.FormatBool(info.Live),
			provider.Interval(provider.Source(name), types.ResolutionOneHour),
		)
	}

	printTable(stdout(cmd), t)

	return nil
}
