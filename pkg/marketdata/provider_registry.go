package marketdata

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
	"github.com/rxtech-lab/argo-marketdata/pkg/errors"
	"github.com/rxtech-lab/argo-marketdata/pkg/marketdata/provider"
)

// ProviderInfo contains metadata about a market data source.
type ProviderInfo struct {
	Name         string `json:"name"`
	DisplayName  string `json:"displayName"`
	Description  string `json:"description"`
	RequiresAuth bool   `json:"requiresAuth"`
	// Live is true when a real integration exists for the source.
	Live bool `json:"live"`
}

// providerRegistry holds metadata about all supported sources.
var providerRegistry = map[provider.Source]ProviderInfo{
	provider.SourceAlphaVantage: {
		Name:         string(provider.SourceAlphaVantage),
		DisplayName:  "Alpha Vantage",
		Description:  "Forex, commodity and index time series",
		RequiresAuth: true,
		Live:         false,
	},
	provider.SourcePolygon: {
		Name:         string(provider.SourcePolygon),
		DisplayName:  "Polygon.io",
		Description:  "US stock market data provider with real-time and historical OHLCV data",
		RequiresAuth: true,
		Live:         true,
	},
	provider.SourceFinnhub: {
		Name:         string(provider.SourceFinnhub),
		DisplayName:  "Finnhub",
		Description:  "Stock, forex and crypto candles",
		RequiresAuth: true,
		Live:         false,
	},
	provider.SourceBinance: {
		Name:         string(provider.SourceBinance),
		DisplayName:  "Binance",
		Description:  "Cryptocurrency exchange with extensive market data for crypto trading pairs",
		RequiresAuth: false,
		Live:         true,
	},
	provider.SourceSynthetic: {
		Name:         string(provider.SourceSynthetic),
		DisplayName:  "Synthetic",
		Description:  "Deterministic placeholder series, no network access",
		RequiresAuth: false,
		Live:         false,
	},
}

// GetSupportedProviders returns every source name in canonical order.
func GetSupportedProviders() []string {
	sources := provider.Sources()
	providers := make([]string, 0, len(sources))

	for _, source := range sources {
		providers = append(providers, string(source))
	}

	return providers
}

// GetProviderInfo returns metadata for a specific source.
func GetProviderInfo(providerName string) (ProviderInfo, error) {
	info, exists := providerRegistry[provider.Source(providerName)]
	if !exists {
		return ProviderInfo{}, errors.Newf(errors.ErrCodeInvalidProvider, "unsupported provider: %s", providerName)
	}

	return info, nil
}

// GetDownloadConfigSchema returns the JSON schema of DownloadConfig.
func GetDownloadConfigSchema() (string, error) {
	r := new(jsonschema.Reflector)
	r.DoNotReference = true
	//nolint:exhaustruct // Empty struct is intentional for schema generation
	schema := r.Reflect(DownloadConfig{})

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}
