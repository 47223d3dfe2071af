// Package errors provides structured error handling for rtfm.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (cache directory, files, persisted indexes)
//   - 3XX: Network errors (remote index and document mirrors)
//   - 4XX: Validation errors (lookups, queries)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryNetwork indicates network-related errors.
	CategoryNetwork Category = "NETWORK"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeIO           = "ERR_201_IO"
	ErrCodeFileNotFound = "ERR_202_FILE_NOT_FOUND"
	ErrCodeCorruptIndex = "ERR_203_CORRUPT_INDEX"
	ErrCodeCacheLocked  = "ERR_204_CACHE_LOCKED"

	// Network errors (300-399)
	ErrCodeFetchFailed       = "ERR_301_FETCH_FAILED"
	ErrCodeIndexUpdateFailed = "ERR_302_INDEX_UPDATE_FAILED"

	// Validation errors (400-499)
	ErrCodeRFCNotFound      = "ERR_401_RFC_NOT_FOUND"
	ErrCodeInvalidRFCNumber = "ERR_402_INVALID_RFC_NUMBER"
	ErrCodeQueryEmpty       = "ERR_403_QUERY_EMPTY"
	ErrCodeInvalidOption    = "ERR_404_INVALID_OPTION"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '3':
		return CategoryNetwork
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeCorruptIndex:
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode reports whether a failure with this code may succeed on a later attempt.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeFetchFailed, ErrCodeIndexUpdateFailed, ErrCodeCacheLocked:
		return true
	default:
		return false
	}
}
