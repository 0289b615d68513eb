// internal/acquire/errors.go
package acquire

import (
	"context"
	"errors"
	"fmt"

	"github.com/law-makers/taxcert/internal/browser"
)

// Common acquisition errors
var (
	ErrExtraction         = errors.New("expected page structure missing")
	ErrInvalidAccount     = errors.New("invalid account number")
	ErrTimeout            = browser.ErrTimeout
	ErrBrowserUnavailable = browser.ErrUnavailable
)

// Code names a failure class.
type Code string

const (
	CodeNotFound           Code = "NOT_FOUND"
	CodeNoTaxHistory       Code = "NO_TAX_HISTORY"
	CodeTimeout            Code = "TIMEOUT"
	CodeExtraction         Code = "EXTRACTION_ERROR"
	CodeBrowserUnavailable Code = "BROWSER_UNAVAILABLE"
	CodeInvalidAccount     Code = "INVALID_ACCOUNT"
	CodeTransient          Code = "TRANSIENT_FAILURE"
)

// Error wraps an acquisition failure with its class and whether another
// attempt from a fresh session could succeed.
type Error struct {
	Code       Code
	Message    string
	Underlying error
	Retry      bool
	Details    map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches another *Error by code, or the underlying error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return errors.Is(e.Underlying, target)
}

// Retryable reports whether the retry loop should try again.
func (e *Error) Retryable() bool {
	return e.Retry
}

// NewError creates a new non-retryable Error
func NewError(code Code, message string, err error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Details:    make(map[string]interface{}),
	}
}

// WithRetry marks the error as retryable
func (e *Error) WithRetry() *Error {
	e.Retry = true
	return e
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	e.Details[key] = value
	return e
}

// Extraction reports page structure that is missing or changed. It is
// retryable: a half-rendered page often looks like a changed one.
func Extraction(format string, args ...interface{}) *Error {
	return NewError(CodeExtraction, fmt.Sprintf(format, args...), ErrExtraction).WithRetry()
}

// InvalidAccount reports an account the jurisdiction's format rejects. It is
// terminal.
func InvalidAccount(account, reason string) *Error {
	return NewError(CodeInvalidAccount, reason, ErrInvalidAccount).WithDetail("account", account)
}

// classify maps any error from an attempt onto the taxonomy.
func classify(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	switch {
	case errors.Is(err, context.Canceled):
		return NewError(CodeTransient, "request cancelled", err)
	case errors.Is(err, browser.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return NewError(CodeTimeout, "navigation or element wait exceeded its bound", err).WithRetry()
	case errors.Is(err, browser.ErrUnavailable), errors.Is(err, browser.ErrClosed):
		return NewError(CodeBrowserUnavailable, "browser engine could not be reached", err).WithRetry()
	default:
		return NewError(CodeTransient, "acquisition step failed", err).WithRetry()
	}
}

// CodeOf returns the failure class of err, or "" if it carries none.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
