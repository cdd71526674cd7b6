package marketdata

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer"
	"github.com/stretchr/testify/suite"
)

type StatsTestSuite struct {
	suite.Suite
	tempDir   string
	inspector *Inspector
	series    types.Series
}

func TestStatsSuite(t *testing.T) {
	suite.Run(t, new(StatsTestSuite))
}

func (suite *StatsTestSuite) SetupTest() {
	suite.tempDir = suite.T().TempDir()

	inspector, err := NewInspector(logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.inspector = inspector

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	suite.series = synthetic.Generate(start, start.AddDate(0, 0, 1), types.ResolutionOneHour)
}

func (suite *StatsTestSuite) TearDownTest() {
	suite.NoError(suite.inspector.Close())
}

func (suite *StatsTestSuite) export(format writer.Format) string {
	w, err := writer.New(format, writer.Target{Dir: suite.tempDir, Instrument: "EURUSD", Resolution: types.ResolutionOneHour})
	suite.Require().NoError(err)

	path, err := writer.Export(w, suite.series)
	suite.Require().NoError(err)

	return path
}

func (suite *StatsTestSuite) TestStats() {
	for _, format := range []writer.Format{writer.FormatCSV, writer.FormatParquet} {
		suite.Run(string(format), func() {
			path := suite.export(format)

			stats, err := suite.inspector.Stats(path, optional.None[time.Time](), optional.None[time.Time]())
			suite.Require().NoError(err)

			suite.Equal(format, stats.Format)
			suite.Equal(25, stats.Rows)
			suite.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), stats.First.Unwrap())
			suite.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), stats.Last.Unwrap())
			suite.Equal(suite.series[0].Low, stats.Low)
			suite.Equal(suite.series[24].High, stats.High)
		})
	}
}

func (suite *StatsTestSuite) TestStatsWithRange() {
	path := suite.export(writer.FormatCSV)

	stats, err := suite.inspector.Stats(path,
		optional.Some(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)),
		optional.Some(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
	)
	suite.Require().NoError(err)

	suite.Equal(3, stats.Rows)
	suite.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC), stats.First.Unwrap())
	suite.Equal(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), stats.Last.Unwrap())
}

func (suite *StatsTestSuite) TestStatsEmptyRange() {
	path := suite.export(writer.FormatParquet)

	stats, err := suite.inspector.Stats(path, optional.Some(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)), optional.None[time.Time]())
	suite.Require().NoError(err)

	suite.Zero(stats.Rows)
	suite.True(stats.First.IsNone())
	suite.True(stats.Last.IsNone())
}

func (suite *StatsTestSuite) TestStatsMissingFile() {
	_, err := suite.inspector.Stats(filepath.Join(suite.tempDir, "missing.csv"), optional.None[time.Time](), optional.None[time.Time]())
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeDataNotFound))
}

func (suite *StatsTestSuite) TestFormatOf() {
	format, err := FormatOf("data/EURUSD_1H.csv")
	suite.NoError(err)
	suite.Equal(writer.FormatCSV, format)

	format, err = FormatOf("data/EURUSD_1H.PARQUET")
	suite.NoError(err)
	suite.Equal(writer.FormatParquet, format)

	_, err = FormatOf("data/EURUSD_1H.json")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
