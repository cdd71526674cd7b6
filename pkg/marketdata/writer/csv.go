package writer

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
)

// csvTime renders a bar time with TimestampLayout in UTC.
type csvTime struct {
	time.Time
}

// MarshalCSV implements gocsv.TypeMarshaller.
func (t csvTime) MarshalCSV() (string, error) {
	return t.UTC().Format(TimestampLayout), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (t *csvTime) UnmarshalCSV(value string) error {
	parsed, err := time.ParseInLocation(TimestampLayout, value, time.UTC)
	if err != nil {
		return err
	}

	t.Time = parsed

	return nil
}

// csvFloat renders prices with FormatFloat. An empty field reads as zero.
type csvFloat float64

// MarshalCSV implements gocsv.TypeMarshaller.
func (f csvFloat) MarshalCSV() (string, error) {
	return FormatFloat(float64(f)), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (f *csvFloat) UnmarshalCSV(value string) error {
	if value == "" {
		*f = 0

		return nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}

	*f = csvFloat(parsed)

	return nil
}

// csvRow is one line of an exported file. Field order is column order.
type csvRow struct {
	Timestamp csvTime  `csv:"timestamp"`
	Open      csvFloat `csv:"open"`
	High      csvFloat `csv:"high"`
	Low       csvFloat `csv:"low"`
	Close     csvFloat `csv:"close"`
}

func newCSVRow(data types.MarketData) csvRow {
	return csvRow{
		Timestamp: csvTime{Time: data.Time},
		Open:      csvFloat(data.Open),
		High:      csvFloat(data.High),
		Low:       csvFloat(data.Low),
		Close:     csvFloat(data.Close),
	}
}

func (r csvRow) marketData() types.MarketData {
	return types.MarketData{
		Symbol: "",
		Time:   r.Timestamp.Time,
		Open:   float64(r.Open),
		High:   float64(r.High),
		Low:    float64(r.Low),
		Close:  float64(r.Close),
	}
}

// CSVWriter writes bars to a CSV file with the header timestamp,open,high,low,close.
//
// Rows go to a temporary file next to the destination, which replaces the
// destination on Finalize. An existing file is overwritten, never appended to.
type CSVWriter struct {
	outputPath string
	file       *os.File
	buffer     *bufio.Writer
	csv        *gocsv.SafeCSVWriter
}

// NewCSVWriter creates a CSV writer for outputPath.
func NewCSVWriter(outputPath string) MarketDataWriter {
	return &CSVWriter{
		outputPath: outputPath,
	}
}

// Initialize creates the output directory if needed and opens the temporary file.
func (w *CSVWriter) Initialize() error {
	dir := filepath.Dir(w.outputPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	file, err := os.CreateTemp(dir, "."+filepath.Base(w.outputPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	w.file = file
	w.buffer = bufio.NewWriter(file)
	w.csv = gocsv.DefaultCSVWriter(w.buffer)

	// CreateTemp opens with 0600; exported files are meant to be shared
	if err := file.Chmod(0644); err != nil {
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	// an empty slice writes the header line only
	if err := gocsv.MarshalCSV([]csvRow{}, w.csv); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	return nil
}

// Write appends one row.
func (w *CSVWriter) Write(data types.MarketData) error {
	if w.csv == nil {
		return fmt.Errorf("writer not initialized")
	}

	return gocsv.MarshalCSVWithoutHeaders([]csvRow{newCSVRow(data)}, w.csv)
}

// Finalize flushes the rows and moves the file into place.
func (w *CSVWriter) Finalize() (string, error) {
	if w.csv == nil {
		return "", fmt.Errorf("writer not initialized")
	}

	w.csv.Flush()

	if err := w.csv.Error(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	if err := w.buffer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush csv: %w", err)
	}

	tmpPath := w.file.Name()

	if err := w.file.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary file: %w", err)
	}

	w.file = nil
	w.buffer = nil
	w.csv = nil

	if err := os.Rename(tmpPath, w.outputPath); err != nil {
		os.Remove(tmpPath)

		return "", fmt.Errorf("failed to move csv into place: %w", err)
	}

	return w.outputPath, nil
}

// Close discards the temporary file if Finalize was not reached.
func (w *CSVWriter) Close() error {
	if w.file == nil {
		return nil
	}

	tmpPath := w.file.Name()
	err := w.file.Close()

	w.file = nil
	w.buffer = nil
	w.csv = nil

	if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
		return fmt.Errorf("failed to remove temporary file: %w", rmErr)
	}

	return err
}

// GetOutputPath returns the destination path.
func (w *CSVWriter) GetOutputPath() string {
	return w.outputPath
}

// FormatFloat renders v in its shortest round-trip form, keeping a trailing
// ".0" on integral values (100 -> "100.0"). NaN is written as an empty field.
func FormatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}

	if math.IsInf(v, 0) {
		if v > 0 {
			return "inf"
		}

		return "-inf"
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}

	return s
}
