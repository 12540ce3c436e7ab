package gateway

import (
	"errors"
	"fmt"
)

// ErrorCategory defines the normalized failure taxonomy for upstream calls.
type ErrorCategory string

const (
	// ErrorTimeout indicates the source did not answer within the fetch budget
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorTransport indicates the request never produced an HTTP response
	ErrorTransport ErrorCategory = "transport"

	// ErrorBadStatus indicates a non-2xx response
	ErrorBadStatus ErrorCategory = "bad_status"

	// ErrorBadData indicates the body could not be decoded into the expected shape
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorInternal indicates an unexpected local failure
	ErrorInternal ErrorCategory = "internal"
)

// SourceError is the single error kind returned by the gateway. Raw transport
// errors are only reachable through Unwrap.
type SourceError struct {
	Source     string
	Category   ErrorCategory
	StatusCode int
	Message    string
	Underlying error
}

// Error implements the error interface
func (e *SourceError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("source %s [%s]: %s: %v", e.Source, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("source %s [%s]: %s", e.Source, e.Category, e.Message)
}

// Unwrap supports error unwrapping
func (e *SourceError) Unwrap() error {
	return e.Underlying
}

func newSourceError(category ErrorCategory, source string, statusCode int, underlying error) *SourceError {
	return &SourceError{
		Source:     source,
		Category:   category,
		StatusCode: statusCode,
		Message:    "Could not fetch data from " + source,
		Underlying: underlying,
	}
}

// AsSourceError extracts a SourceError from err.
func AsSourceError(err error) (*SourceError, bool) {
	var se *SourceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	if se, ok := AsSourceError(err); ok {
		return se.Category
	}
	return ErrorInternal
}
