package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidDate          ErrorCode = 120

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204

	// Compatibility errors (400-499)
	ErrCodeVersionMismatch ErrorCode = 404

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed   ErrorCode = 700
	ErrCodeMarketDataWriteFailed   ErrorCode = 701
	ErrCodeMarketDataParseFailed   ErrorCode = 702
	ErrCodeInvalidProvider         ErrorCode = 704
	ErrCodeNetwork                 ErrorCode = 710
	ErrCodeAuth                    ErrorCode = 711
	ErrCodeRateLimit               ErrorCode = 712
	ErrCodeMarketDataEmptyResult   ErrorCode = 713
	ErrCodeMarketDataFetchPanicked ErrorCode = 714
)

// String returns a short name for the code, used as a structured log field.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeInvalidParameter:
		return "invalid_parameter"
	case ErrCodeInvalidConfiguration:
		return "invalid_configuration"
	case ErrCodeMissingParameter:
		return "missing_parameter"
	case ErrCodeInvalidVersion:
		return "invalid_version"
	case ErrCodeInvalidDate:
		return "invalid_date"
	case ErrCodeDataNotFound:
		return "data_not_found"
	case ErrCodeDataSourceUnavailable:
		return "data_source_unavailable"
	case ErrCodeQueryFailed:
		return "query_failed"
	case ErrCodeNoDataFound:
		return "no_data_found"
	case ErrCodeVersionMismatch:
		return "version_mismatch"
	case ErrCodeMarketDataFetchFailed:
		return "fetch_failed"
	case ErrCodeMarketDataWriteFailed:
		return "write_failed"
	case ErrCodeMarketDataParseFailed:
		return "parse_failed"
	case ErrCodeInvalidProvider:
		return "invalid_provider"
	case ErrCodeNetwork:
		return "network"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeMarketDataEmptyResult:
		return "empty_result"
	case ErrCodeMarketDataFetchPanicked:
		return "fetch_panicked"
	default:
		return "unknown"
	}
}
