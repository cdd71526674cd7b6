package marketdata

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-marketdata/internal/logger"
	"github.com/rxtech-lab/argo-marketdata/internal/types"
	"github.com/rxtech-lab/argo-marketdata/mocks"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/synthetic"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type DispatcherTestSuite struct {
	suite.Suite
	logs   *observer.ObservedLogs
	logger *logger.Logger
	req    provider.Request
}

func TestDispatcherSuite(t *testing.T) {
	suite.Run(t, new(DispatcherTestSuite))
}

func (suite *DispatcherTestSuite) SetupTest() {
	core, logs := observer.New(zapcore.DebugLevel)
	suite.logs = logs
	suite.logger = logger.FromZap(zap.New(core))
	suite.req = provider.Request{
		Instrument:  "EURUSD",
		Resolution:  types.ResolutionOneHour,
		StartDate:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
		Credentials: "key",
	}
}

func (suite *DispatcherTestSuite) expectedSeries() types.Series {
	return synthetic.Generate(suite.req.StartDate, suite.req.EndDate, suite.req.Resolution).WithSymbol(suite.req.Instrument)
}

func (suite *DispatcherTestSuite) TestDefaultSourcesServeSyntheticData() {
	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)

	for _, source := range provider.Sources() {
		suite.Run(string(source), func() {
			outcome, err := dispatcher.Fetch(context.Background(), suite.req, source)
			suite.NoError(err)
			suite.False(outcome.Fallback)
			suite.Nil(outcome.Cause)
			suite.Equal(source, outcome.Source)
			suite.Equal(suite.expectedSeries(), outcome.Series)
		})
	}
}

func (suite *DispatcherTestSuite) TestUnknownSourceMatchesSynthetic() {
	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)

	expected, err := dispatcher.Fetch(context.Background(), suite.req, provider.SourceSynthetic)
	suite.Require().NoError(err)

	outcome, err := dispatcher.Fetch(context.Background(), suite.req, provider.Source("bloomberg"))
	suite.NoError(err)
	suite.Equal(expected.Series, outcome.Series)
	suite.True(outcome.Fallback)
	suite.Equal(provider.SourceSynthetic, outcome.Source)
	suite.True(errors.HasCode(outcome.Cause, errors.ErrCodeInvalidProvider))

	warnings := suite.logs.FilterLevelExact(zapcore.WarnLevel).FilterMessage("Unknown data source, using synthetic data").All()
	suite.Require().Len(warnings, 1)
	suite.Equal("bloomberg", warnings[0].ContextMap()["source"])
}

func (suite *DispatcherTestSuite) TestUnknownSourceFallsBackUnderFailFast() {
	dispatcher := NewDispatcher(FallbackFailFast, suite.logger)

	outcome, err := dispatcher.Fetch(context.Background(), suite.req, provider.Source(""))
	suite.NoError(err)
	suite.True(outcome.Fallback)
	suite.Equal(suite.expectedSeries(), outcome.Series)
}

func (suite *DispatcherTestSuite) TestFetchErrorDegradesToSynthetic() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)
	fetchErr := errors.New(errors.ErrCodeRateLimit, "too many requests")
	fetcher.EXPECT().Fetch(gomock.Any(), suite.req).Return(nil, fetchErr)

	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)
	dispatcher.Register(provider.SourcePolygon, fetcher)

	outcome, err := dispatcher.Fetch(context.Background(), suite.req, provider.SourcePolygon)
	suite.NoError(err)
	suite.True(outcome.Fallback)
	suite.Equal(provider.SourceSynthetic, outcome.Source)
	suite.ErrorIs(outcome.Cause, fetchErr)
	suite.Equal(suite.expectedSeries(), outcome.Series)

	warnings := suite.logs.FilterMessage("Fetch failed, using synthetic data").All()
	suite.Require().Len(warnings, 1)
	suite.Equal("rate_limit", warnings[0].ContextMap()["kind"])
}

func (suite *DispatcherTestSuite) TestFetchErrorFailFast() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, errors.New(errors.ErrCodeAuth, "bad key"))

	dispatcher := NewDispatcher(FallbackFailFast, suite.logger)
	dispatcher.Register(provider.SourceBinance, fetcher)

	_, err := dispatcher.Fetch(context.Background(), suite.req, provider.SourceBinance)
	suite.Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeAuth))
	suite.Empty(suite.logs.FilterMessage("Fetch failed, using synthetic data").All())
}

func (suite *DispatcherTestSuite) TestUncodedErrorIsTaggedAsFetchFailure() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)
	cause := stderrors.New("connection reset")
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, cause)

	dispatcher := NewDispatcher(FallbackFailFast, suite.logger)
	dispatcher.Register(provider.SourceFinnhub, fetcher)

	_, err := dispatcher.Fetch(context.Background(), suite.req, provider.SourceFinnhub)
	suite.True(errors.HasCode(err, errors.ErrCodeMarketDataFetchFailed))
	suite.ErrorIs(err, cause)
}

func (suite *DispatcherTestSuite) TestPanickingFetcherIsRecovered() {
	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)
	dispatcher.Register(provider.SourceAlphaVantage, provider.FetcherFunc(func(context.Context, provider.Request) (types.Series, error) {
		panic("nil map")
	}))

	outcome, err := dispatcher.Fetch(context.Background(), suite.req, provider.SourceAlphaVantage)
	suite.NoError(err)
	suite.True(outcome.Fallback)
	suite.True(errors.HasCode(outcome.Cause, errors.ErrCodeMarketDataFetchPanicked))
	suite.Equal(suite.expectedSeries(), outcome.Series)
}

func (suite *DispatcherTestSuite) TestRegisteredFetcherIsUsed() {
	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)
	dispatcher.Register(provider.SourcePolygon, mocks.NewDataGenerator(1).Fetcher(1.25))

	outcome, err := dispatcher.Fetch(context.Background(), suite.req, provider.SourcePolygon)
	suite.NoError(err)
	suite.False(outcome.Fallback)
	suite.Len(outcome.Series, 25)
	suite.Equal(1.25, outcome.Series[0].Open)
}

func (suite *DispatcherTestSuite) TestEmptySeriesIsNotAFailure() {
	ctrl := gomock.NewController(suite.T())
	fetcher := mocks.NewMockFetcher(ctrl)
	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(types.Series{}, nil)

	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)
	dispatcher.Register(provider.SourcePolygon, fetcher)

	outcome, err := dispatcher.Fetch(context.Background(), suite.req, provider.SourcePolygon)
	suite.NoError(err)
	suite.False(outcome.Fallback)
	suite.True(outcome.Series.IsEmpty())
}

func (suite *DispatcherTestSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)

	_, err := dispatcher.Fetch(ctx, suite.req, provider.SourceSynthetic)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *DispatcherTestSuite) TestCancellationDuringFetchIsNotDegraded() {
	ctx, cancel := context.WithCancel(context.Background())

	dispatcher := NewDispatcher(FallbackDegrade, suite.logger)
	dispatcher.Register(provider.SourcePolygon, provider.FetcherFunc(func(ctx context.Context, _ provider.Request) (types.Series, error) {
		cancel()

		return nil, ctx.Err()
	}))

	_, err := dispatcher.Fetch(ctx, suite.req, provider.SourcePolygon)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *DispatcherTestSuite) TestDefaultPolicy() {
	suite.Equal(FallbackDegrade, NewDispatcher("", nil).Policy())
}
