package marketdata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/internal/version"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// ManifestFileName is the name of the batch manifest written by WriteManifest.
const ManifestFileName = "manifest.yaml"

// BatchConfig is the instrument × resolution matrix a batch covers.
type BatchConfig struct {
	Instruments []string           `yaml:"instruments" validate:"required,min=1,dive,required"`
	Resolutions []types.Resolution `yaml:"resolutions" validate:"required,min=1"`
	StartDate   time.Time          `yaml:"start_date" validate:"required"`
	EndDate     time.Time          `yaml:"end_date" validate:"required,gtefield=StartDate"`
	// Concurrency is the number of pairs processed at once. Zero or one runs sequentially.
	Concurrency int `yaml:"concurrency" validate:"gte=0"`
}

// DefaultBatchConfig returns the standard matrix: three instruments at every
// intraday resolution over the first three quarters of 2025.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Instruments: []string{"EURUSD", "XAUUSD", "US30"},
		Resolutions: []types.Resolution{
			types.ResolutionOneMinute,
			types.ResolutionFiveMinutes,
			types.ResolutionFifteenMinutes,
			types.ResolutionThirtyMinutes,
			types.ResolutionOneHour,
		},
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 9, 30, 0, 0, 0, 0, time.UTC),
		Concurrency: 1,
	}
}

// Pairs returns the matrix in iteration order: instruments outer, resolutions inner.
func (c BatchConfig) Pairs() []DownloadParams {
	pairs := make([]DownloadParams, 0, len(c.Instruments)*len(c.Resolutions))

	for _, instrument := range c.Instruments {
		for _, resolution := range c.Resolutions {
			pairs = append(pairs, DownloadParams{
				Instrument: instrument,
				Resolution: resolution,
				StartDate:  c.StartDate,
				EndDate:    c.EndDate,
			})
		}
	}

	return pairs
}

// BatchFailure records a pair that returned an error.
type BatchFailure struct {
	Instrument string           `yaml:"instrument"`
	Resolution types.Resolution `yaml:"resolution"`
	Error      string           `yaml:"error"`
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	RunID      uuid.UUID
	StartedAt  time.Time
	FinishedAt time.Time
	// Files lists the written paths in matrix order.
	Files []string
	// Skipped counts pairs that produced no file, including failures.
	Skipped  int
	Failures []BatchFailure
}

// Total returns the number of pairs the batch covered.
func (r *BatchReport) Total() int {
	return len(r.Files) + r.Skipped
}

// Manifest is the YAML record a batch run leaves next to its files.
type Manifest struct {
	// Version is the tool version that wrote the files.
	Version    string         `yaml:"version"`
	RunID      string         `yaml:"run_id"`
	StartedAt  string         `yaml:"started_at"`
	FinishedAt string         `yaml:"finished_at"`
	Files      []string       `yaml:"files"`
	Skipped    int            `yaml:"skipped"`
	Failures   []BatchFailure `yaml:"failures,omitempty"`
}

// WriteManifest writes the report as manifest.yaml in dir and returns its path.
func (r *BatchReport) WriteManifest(dir string) (string, error) {
	data, err := yaml.Marshal(Manifest{
		Version:    version.GetVersion(),
		RunID:      r.RunID.String(),
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: r.FinishedAt.UTC().Format(time.RFC3339),
		Files:      r.Files,
		Skipped:    r.Skipped,
		Failures:   r.Failures,
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to encode manifest", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create manifest directory", err)
	}

	path := filepath.Join(dir, ManifestFileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write manifest", err)
	}

	return path, nil
}

// ReadManifest loads manifest.yaml from dir and checks that this version can
// read the files it lists.
func ReadManifest(dir string) (*Manifest, error) {
	path := filepath.Join(dir, ManifestFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataNotFound, err, "failed to read manifest %s", path)
	}

	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeMarketDataParseFailed, err, "failed to parse manifest %s", path)
	}

	if manifest.Version == "" {
		return nil, errors.Newf(errors.ErrCodeInvalidVersion, "manifest %s has no version", path)
	}

	if err := version.CheckCompatibility(manifest.Version, version.GetVersion()); err != nil {
		return nil, err
	}

	return &manifest, nil
}

// OnBatchProgress is called after each pair completes.
type OnBatchProgress func(done int, total int, message string)

// Batch runs the download pipeline over an instrument × resolution matrix.
type Batch struct {
	client     *Client
	config     BatchConfig
	onProgress OnBatchProgress
	logger     *logger.Logger
}

// NewBatch creates a batch over config. onProgress may be nil.
func NewBatch(client *Client, config BatchConfig, onProgress OnBatchProgress) (*Batch, error) {
	if err := validator.New().Struct(config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid batch configuration", err)
	}

	return &Batch{
		client:     client,
		config:     config,
		onProgress: onProgress,
		logger:     client.logger,
	}, nil
}

type pairResult struct {
	path string
	err  error
}

// Run downloads every pair. A pair that yields no data or fails is skipped and
// the batch continues; only context cancellation stops the run early.
func (b *Batch) Run(ctx context.Context) (*BatchReport, error) {
	pairs := b.config.Pairs()
	results := make([]pairResult, len(pairs))
	report := &BatchReport{
		RunID:      uuid.New(),
		StartedAt:  time.Now(),
		FinishedAt: time.Time{},
		Files:      []string{},
		Skipped:    0,
		Failures:   []BatchFailure{},
	}

	limit := b.config.Concurrency
	if limit < 1 {
		limit = 1
	}

	b.logger.Info("Starting batch",
		zap.String("run_id", report.RunID.String()),
		zap.Int("pairs", len(pairs)),
		zap.Int("concurrency", limit),
	)

	var (
		mu   sync.Mutex
		done int
	)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(limit)

	for i, params := range pairs {
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			path, err := b.client.Download(gctx, params)
			if err != nil && gctx.Err() != nil {
				return gctx.Err()
			}

			results[i] = pairResult{path: path.TakeOr(""), err: err}

			mu.Lock()
			done++
			current := done
			mu.Unlock()

			if b.onProgress != nil {
				b.onProgress(current, len(pairs), fmt.Sprintf("%s %s", params.Instrument, params.Resolution))
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	for i, result := range results {
		switch {
		case result.err != nil:
			report.Skipped++
			report.Failures = append(report.Failures, BatchFailure{
				Instrument: pairs[i].Instrument,
				Resolution: pairs[i].Resolution,
				Error:      result.err.Error(),
			})
			b.logger.Warn("Batch pair failed",
				zap.String("instrument", pairs[i].Instrument),
				zap.String("resolution", string(pairs[i].Resolution)),
				zap.Error(result.err),
			)
		case result.path == "":
			report.Skipped++
		default:
			report.Files = append(report.Files, result.path)
		}
	}

	report.FinishedAt = time.Now()

	b.logger.Info("Batch finished",
		zap.String("run_id", report.RunID.String()),
		zap.Int("files", len(report.Files)),
		zap.Int("skipped", report.Skipped),
		zap.Int("failures", len(report.Failures)),
	)

	return report, nil
}
