package mocks

//go:generate mockgen -destination=./mock_fetcher.go -package=mocks github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider Fetcher
//go:generate mockgen -destination=./mock_market_data_writer.go -package=mocks github.com/rxtech-lab/argo-marketdata/pkg/marketdata/writer MarketDataWriter
