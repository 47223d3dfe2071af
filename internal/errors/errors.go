package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
)

// Error is the structured error type for rtfm.
// It carries a stable code so callers can branch on the error kind
// while the message stays human-readable.
type Error struct {
	// Code is the unique error code (e.g., "ERR_401_RFC_NOT_FOUND").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches another *Error by code, so sentinel values work with errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *Error) WithDetail(key, value string) *Error {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *Error) WithSuggestion(suggestion string) *Error {
	e.Suggestion = suggestion
	return e
}

// New creates a new Error with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an Error from an existing error.
func Wrap(code string, err error) *Error {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound    = &Error{Code: ErrCodeRFCNotFound}
	ErrFetch       = &Error{Code: ErrCodeFetchFailed}
	ErrIndexUpdate = &Error{Code: ErrCodeIndexUpdateFailed}
	ErrSearch      = &Error{Code: ErrCodeSearchFailed}
	ErrQueryEmpty  = &Error{Code: ErrCodeQueryEmpty}
	ErrLocked      = &Error{Code: ErrCodeCacheLocked}
)

// FetchError reports a failed document download.
func FetchError(number int, cause error) *Error {
	return New(ErrCodeFetchFailed, fmt.Sprintf("error downloading RFC %d: %v", number, cause), cause).
		WithDetail("rfc", strconv.Itoa(number))
}

// IndexUpdateError reports a failed sync against the remote index.
func IndexUpdateError(message string, cause error) *Error {
	msg := message
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", message, cause)
	}
	return New(ErrCodeIndexUpdateFailed, msg, cause).
		WithSuggestion("check network access to the RFC index URL; the local cache was left unchanged")
}

// NotFoundError reports a lookup of an RFC number the catalog does not know.
func NotFoundError(number int) *Error {
	return New(ErrCodeRFCNotFound, fmt.Sprintf("RFC %04d not found in local cache", number), nil).
		WithDetail("rfc", strconv.Itoa(number)).
		WithSuggestion("run 'rtfm update' to refresh the RFC index")
}

// InvalidNumberError reports an RFC number that cannot exist.
func InvalidNumberError(raw string) *Error {
	return New(ErrCodeInvalidRFCNumber, fmt.Sprintf("invalid RFC number: %s", raw), nil)
}

// InvalidOptionError reports a command-line option value that is not accepted.
func InvalidOptionError(option, value, suggestion string, cause error) *Error {
	msg := fmt.Sprintf("invalid %s %q", option, value)
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return New(ErrCodeInvalidOption, msg, cause).
		WithDetail("option", option).
		WithSuggestion(suggestion)
}

// SearchError reports a failure of the underlying search engine.
func SearchError(message string, cause error) *Error {
	msg := message
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", message, cause)
	}
	return New(ErrCodeSearchFailed, msg, cause)
}

// IOError creates a cache I/O error.
func IOError(message string, cause error) *Error {
	msg := message
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", message, cause)
	}
	return New(ErrCodeIO, msg, cause)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *Error {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
func IsFatal(err error) bool {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from an Error anywhere in the chain.
// Returns empty string if there is none.
func GetCode(err error) string {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return ""
}
