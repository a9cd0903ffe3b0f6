// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Indicator errors. Insufficient data skips the whole symbol, an undefined
	// indicator only skips the rules that read it.
	ErrInsufficientData   = &Error{Code: "INSUFFICIENT_DATA", Message: "insufficient data for indicator"}
	ErrUndefinedIndicator = &Error{Code: "UNDEFINED_INDICATOR", Message: "indicator undefined for input"}

	// Data errors
	ErrNoData       = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrInvalidPrice = &Error{Code: "INVALID_PRICE", Message: "price is not a positive finite number"}

	// Collaborator errors
	ErrCollectorFailed = &Error{Code: "COLLECTOR_FAILED", Message: "collector failed"}
	ErrNotifierFailed  = &Error{Code: "NOTIFIER_FAILED", Message: "notifier failed"}
	ErrStorageFailed   = &Error{Code: "STORAGE_FAILED", Message: "storage failed"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
