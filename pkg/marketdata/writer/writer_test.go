package writer

import (
	stderrors "errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/mocks"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type WriterTestSuite struct {
	suite.Suite
}

func TestWriterSuite(t *testing.T) {
	suite.Run(t, new(WriterTestSuite))
}

func (suite *WriterTestSuite) series() types.Series {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	return types.Series{
		{Time: base, Open: 1, High: 2, Low: 0, Close: 1},
		{Time: base.AddDate(0, 0, 1), Open: 2, High: 3, Low: 1, Close: 2},
	}
}

func (suite *WriterTestSuite) TestExport() {
	ctrl := gomock.NewController(suite.T())
	w := mocks.NewMockMarketDataWriter(ctrl)
	series := suite.series()

	gomock.InOrder(
		w.EXPECT().Initialize().Return(nil),
		w.EXPECT().Write(series[0]).Return(nil),
		w.EXPECT().Write(series[1]).Return(nil),
		w.EXPECT().Finalize().Return("/out/file.csv", nil),
		w.EXPECT().Close().Return(nil),
	)

	path, err := Export(w, series)
	suite.NoError(err)
	suite.Equal("/out/file.csv", path)
}

func (suite *WriterTestSuite) TestExportErrors() {
	boom := stderrors.New("boom")

	tests := []struct {
		name   string
		expect func(w *mocks.MockMarketDataWriter)
	}{
		{
			name: "initialize fails",
			expect: func(w *mocks.MockMarketDataWriter) {
				w.EXPECT().Initialize().Return(boom)
			},
		},
		{
			name: "write fails",
			expect: func(w *mocks.MockMarketDataWriter) {
				gomock.InOrder(
					w.EXPECT().Initialize().Return(nil),
					w.EXPECT().Write(gomock.Any()).Return(boom),
					w.EXPECT().Close().Return(nil),
				)
			},
		},
		{
			name: "finalize fails",
			expect: func(w *mocks.MockMarketDataWriter) {
				gomock.InOrder(
					w.EXPECT().Initialize().Return(nil),
					w.EXPECT().Write(gomock.Any()).Return(nil).Times(2),
					w.EXPECT().Finalize().Return("", boom),
					w.EXPECT().Close().Return(nil),
				)
			},
		},
		{
			name: "close fails",
			expect: func(w *mocks.MockMarketDataWriter) {
				gomock.InOrder(
					w.EXPECT().Initialize().Return(nil),
					w.EXPECT().Write(gomock.Any()).Return(nil).Times(2),
					w.EXPECT().Finalize().Return("/out/file.csv", nil),
					w.EXPECT().Close().Return(boom),
				)
			},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			ctrl := gomock.NewController(suite.T())
			w := mocks.NewMockMarketDataWriter(ctrl)
			tc.expect(w)

			_, err := Export(w, suite.series())
			suite.Error(err)
			suite.True(errors.HasCode(err, errors.ErrCodeMarketDataWriteFailed))
			suite.ErrorIs(err, boom)
		})
	}
}

func (suite *WriterTestSuite) TestTarget() {
	target := Target{Dir: "data", Instrument: "EURUSD", Resolution: types.ResolutionFiveMinutes}

	suite.Equal("EURUSD_5min.csv", target.FileName(FormatCSV))
	suite.Equal("EURUSD_5min.parquet", target.FileName(FormatParquet))
	suite.Equal(filepath.Join("data", "EURUSD_5min.csv"), target.Path(FormatCSV))
}

func (suite *WriterTestSuite) TestNew() {
	target := Target{Dir: "data", Instrument: "XAUUSD", Resolution: types.ResolutionOneHour}

	csvWriter, err := New(FormatCSV, target)
	suite.NoError(err)
	suite.IsType(&CSVWriter{}, csvWriter)
	suite.Equal(filepath.Join("data", "XAUUSD_1H.csv"), csvWriter.GetOutputPath())

	parquetWriter, err := New(FormatParquet, target)
	suite.NoError(err)
	suite.IsType(&DuckDBWriter{}, parquetWriter)
	suite.Equal(filepath.Join("data", "XAUUSD_1H.parquet"), parquetWriter.GetOutputPath())

	_, err = New(Format("xlsx"), target)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
