package writer

import (
	"fmt"
	"path/filepath"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
)

// Format is the on-disk format of an exported series.
type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// Column names shared by every format, in output order.
var Columns = []string{"timestamp", "open", "high", "low", "close"}

// TimestampLayout is the minute-precision display form of bar timestamps.
const TimestampLayout = "2006-01-02 15:04"

// MarketDataWriter defines the interface for writing market data to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single market data point.
	Write(data types.MarketData) error
	// Finalize completes the writing process and makes the output visible at its path.
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}

// Target is where a series for one (instrument, resolution) pair is exported.
type Target struct {
	Dir        string
	Instrument string
	Resolution types.Resolution
}

// FileName returns {instrument}_{resolution}.{ext}.
func (t Target) FileName(format Format) string {
	return fmt.Sprintf("%s_%s.%s", t.Instrument, t.Resolution, format)
}

// Path returns the full output path of the target.
func (t Target) Path(format Format) string {
	return filepath.Join(t.Dir, t.FileName(format))
}

// New creates a writer for format writing to the target's path.
func New(format Format, target Target) (MarketDataWriter, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(target.Path(format)), nil
	case FormatParquet:
		return NewDuckDBWriter(target.Path(format)), nil
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported export format: %s", format)
	}
}

// Export writes series through w and returns the finalized output path.
// The writer is always closed.
func Export(w MarketDataWriter, series types.Series) (outputPath string, err error) {
	if err = w.Initialize(); err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to initialize writer", err)
	}

	defer func() {
		if cerr := w.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to close writer", cerr)
		}
	}()

	for _, bar := range series {
		if err = w.Write(bar); err != nil {
			return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to write data", err)
		}
	}

	outputPath, err = w.Finalize()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to finalize writer", err)
	}

	return outputPath, nil
}
