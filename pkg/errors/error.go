// Package errors provides structured error handling with typed error codes.
//
// Error codes are organized into categories:
//   - General errors (1-99): Unknown and general errors
//   - Validation errors (100-199): Invalid parameters, dates and configuration
//   - Data/Resource errors (200-299): Data not found, query failures, unavailable resources
//   - Compatibility errors (400-499): Files written by an incompatible version
//   - Market data errors (700-799): Fetching, parsing and writing market data
//
// Data source integrations report failures with one of the fetch kinds
// (ErrCodeNetwork, ErrCodeAuth, ErrCodeRateLimit). Callers decide what to do
// with them; the dispatcher in pkg/marketdata degrades to synthetic data by default.
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidProvider, "unknown data source %q", name)
//	err := errors.Wrap(errors.ErrCodeNetwork, "polygon aggregates request failed", cause)
//	if errors.IsFetchError(err) { ... }
package errors

import (
	"errors"
	"fmt"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsFetchError reports whether err was raised by a data source integration.
func IsFetchError(err error) bool {
	switch GetCode(err) {
	case ErrCodeNetwork, ErrCodeAuth, ErrCodeRateLimit, ErrCodeMarketDataFetchFailed, ErrCodeMarketDataFetchPanicked:
		return true
	default:
		return false
	}
}
