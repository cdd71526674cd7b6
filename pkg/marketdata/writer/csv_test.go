package writer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
	"github.com/stretchr/testify/suite"
)

type CSVWriterTestSuite struct {
	suite.Suite
	tempDir string
}

func TestCSVWriterSuite(t *testing.T) {
	suite.Run(t, new(CSVWriterTestSuite))
}

func (suite *CSVWriterTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()
}

func (suite *CSVWriterTestSuite) readFile(path string) string {
	content, err := os.ReadFile(path)
	suite.Require().NoError(err)

	return string(content)
}

func (suite *CSVWriterTestSuite) TestSingleDailyBar() {
	series := synthetic.Generate(
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		types.ResolutionOneDay,
	)
	outputPath := filepath.Join(suite.tempDir, "EURUSD_1D.csv")

	path, err := Export(NewCSVWriter(outputPath), series)
	suite.NoError(err)
	suite.Equal(outputPath, path)

	suite.Equal("timestamp,open,high,low,close\n2025-01-01 00:00,100.0,100.5,99.5,100.2\n", suite.readFile(path))
}

func (suite *CSVWriterTestSuite) TestSecondsAreTruncated() {
	series := types.Series{
		{Time: time.Date(2025, 1, 1, 9, 30, 59, 999000000, time.UTC), Open: 1, High: 2, Low: 0.5, Close: 1.5},
	}
	outputPath := filepath.Join(suite.tempDir, "X_1min.csv")

	_, err := Export(NewCSVWriter(outputPath), series)
	suite.NoError(err)

	suite.Contains(suite.readFile(outputPath), "2025-01-01 09:30,1.0,2.0,0.5,1.5\n")
}

func (suite *CSVWriterTestSuite) TestTimestampIsRenderedInUTC() {
	loc := time.FixedZone("UTC+2", 2*60*60)
	series := types.Series{
		{Time: time.Date(2025, 1, 1, 2, 0, 0, 0, loc), Open: 1, High: 1, Low: 1, Close: 1},
	}
	outputPath := filepath.Join(suite.tempDir, "X_1H.csv")

	_, err := Export(NewCSVWriter(outputPath), series)
	suite.NoError(err)

	suite.Contains(suite.readFile(outputPath), "2025-01-01 00:00,")
}

func (suite *CSVWriterTestSuite) TestOverwritesExistingFile() {
	outputPath := filepath.Join(suite.tempDir, "US30_5min.csv")
	suite.Require().NoError(os.WriteFile(outputPath, []byte("stale content that is longer than the new file\n"+strings.Repeat("x", 4096)), 0644))

	series := types.Series{{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Open: 1, High: 2, Low: 0, Close: 1}}
	_, err := Export(NewCSVWriter(outputPath), series)
	suite.NoError(err)

	suite.Equal("timestamp,open,high,low,close\n2025-01-01 00:00,1.0,2.0,0.0,1.0\n", suite.readFile(outputPath))
}

func (suite *CSVWriterTestSuite) TestCreatesMissingDirectory() {
	outputPath := filepath.Join(suite.tempDir, "nested", "data", "XAUUSD_1H.csv")

	_, err := Export(NewCSVWriter(outputPath), types.Series{{Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}})
	suite.NoError(err)

	info, err := os.Stat(outputPath)
	suite.NoError(err)
	suite.Equal(os.FileMode(0644), info.Mode().Perm())
}

func (suite *CSVWriterTestSuite) TestNoTemporaryFilesLeft() {
	outputPath := filepath.Join(suite.tempDir, "EURUSD_1H.csv")

	_, err := Export(NewCSVWriter(outputPath), types.Series{{Time: time.Now(), Open: 1, High: 1, Low: 1, Close: 1}})
	suite.NoError(err)

	entries, err := os.ReadDir(suite.tempDir)
	suite.NoError(err)
	suite.Len(entries, 1)
	suite.Equal("EURUSD_1H.csv", entries[0].Name())
}

func (suite *CSVWriterTestSuite) TestCloseWithoutFinalizeDiscardsOutput() {
	outputPath := filepath.Join(suite.tempDir, "EURUSD_1D.csv")
	writer := NewCSVWriter(outputPath)

	suite.Require().NoError(writer.Initialize())
	suite.Require().NoError(writer.Write(types.MarketData{Time: time.Now(), Open: 1}))
	suite.NoError(writer.Close())

	entries, err := os.ReadDir(suite.tempDir)
	suite.NoError(err)
	suite.Empty(entries)
}

func (suite *CSVWriterTestSuite) TestWriteWithoutInitialize() {
	writer := NewCSVWriter(filepath.Join(suite.tempDir, "x.csv"))

	err := writer.Write(types.MarketData{})
	suite.Error(err)
	suite.Contains(err.Error(), "not initialized")

	_, err = writer.Finalize()
	suite.Error(err)
	suite.NoError(writer.Close())
}

func (suite *CSVWriterTestSuite) TestGetOutputPath() {
	writer := NewCSVWriter("/data/EURUSD_1D.csv")
	suite.Equal("/data/EURUSD_1D.csv", writer.GetOutputPath())
}

func (suite *CSVWriterTestSuite) TestRoundTrip() {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	series := synthetic.Generate(start, start.AddDate(0, 0, 3), types.ResolutionFifteenMinutes)
	outputPath := filepath.Join(suite.tempDir, "EURUSD_15min.csv")

	_, err := Export(NewCSVWriter(outputPath), series)
	suite.Require().NoError(err)

	parsed, err := ReadCSV(outputPath)
	suite.Require().NoError(err)
	suite.Require().Len(parsed, len(series))

	for i := range series {
		suite.Equal(series[i].Time.Truncate(time.Minute), parsed[i].Time)
		suite.Equal(series[i].Open, parsed[i].Open)
		suite.Equal(series[i].High, parsed[i].High)
		suite.Equal(series[i].Low, parsed[i].Low)
		suite.Equal(series[i].Close, parsed[i].Close)
	}
}

func (suite *CSVWriterTestSuite) TestFormatFloat() {
	tests := []struct {
		value    float64
		expected string
	}{
		{100, "100.0"},
		{100.5, "100.5"},
		{99.5, "99.5"},
		{100 + 3*0.1, "100.3"},
		{0, "0.0"},
		{-1.25, "-1.25"},
		{1.0 / 3, "0.3333333333333333"},
	}

	for _, tc := range tests {
		suite.Run(tc.expected, func() {
			suite.Equal(tc.expected, FormatFloat(tc.value))
		})
	}
}

func (suite *CSVWriterTestSuite) TestEmptySeriesWritesHeaderOnly() {
	outputPath := filepath.Join(suite.tempDir, "EURUSD_1D.csv")

	_, err := Export(NewCSVWriter(outputPath), types.Series{})
	suite.Require().NoError(err)
	suite.Equal("timestamp,open,high,low,close\n", suite.readFile(outputPath))

	parsed, err := ReadCSV(outputPath)
	suite.Require().NoError(err)
	suite.Empty(parsed)
}

func (suite *CSVWriterTestSuite) TestReadCSV() {
	tests := []struct {
		name     string
		content  string
		expected types.Series
		code     errors.ErrorCode
	}{
		{
			name:    "rows",
			content: "timestamp,open,high,low,close\n2025-01-01 09:30,1.0,2.5,0.5,1.5\n2025-01-01 09:31,1.5,,1.25,2.0\n",
			expected: types.Series{
				{Time: time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC), Open: 1, High: 2.5, Low: 0.5, Close: 1.5},
				{Time: time.Date(2025, 1, 1, 9, 31, 0, 0, time.UTC), Open: 1.5, High: 0, Low: 1.25, Close: 2},
			},
		},
		{
			name:    "crlf line endings",
			content: "timestamp,open,high,low,close\r\n2025-01-01 00:00,100.0,100.5,99.5,100.2\r\n",
			expected: types.Series{
				{Time: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), Open: 100, High: 100.5, Low: 99.5, Close: 100.2},
			},
		},
		{name: "empty file", content: "", code: errors.ErrCodeMarketDataParseFailed},
		{name: "wrong header", content: "time,open,high,low,close\n", code: errors.ErrCodeMarketDataParseFailed},
		{name: "missing column", content: "timestamp,open,high,low\n2025-01-01 00:00,1,1,1\n", code: errors.ErrCodeMarketDataParseFailed},
		{name: "bad timestamp", content: "timestamp,open,high,low,close\n2025-01-01T00:00:00Z,1,1,1,1\n", code: errors.ErrCodeMarketDataParseFailed},
		{name: "bad price", content: "timestamp,open,high,low,close\n2025-01-01 00:00,one,1,1,1\n", code: errors.ErrCodeMarketDataParseFailed},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			path := filepath.Join(suite.tempDir, "input.csv")
			suite.Require().NoError(os.WriteFile(path, []byte(tc.content), 0644))

			parsed, err := ReadCSV(path)
			if tc.code != 0 {
				suite.Error(err)
				suite.True(errors.HasCode(err, tc.code), err.Error())

				return
			}

			suite.Require().NoError(err)
			suite.Equal(tc.expected, parsed)
		})
	}
}

func (suite *CSVWriterTestSuite) TestReadCSVMissingFile() {
	_, err := ReadCSV(filepath.Join(suite.tempDir, "missing.csv"))
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}
