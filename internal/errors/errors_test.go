package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Unwrap_PreservesOriginalError(t *testing.T) {
	// Given: an original error
	originalErr := errors.New("connection refused")

	// When: wrapping it as a fetch failure
	err := FetchError(1000, originalErr)

	// Then: unwrapping returns the original error
	require.NotNil(t, err)
	assert.Equal(t, originalErr, errors.Unwrap(err))
	assert.True(t, errors.Is(err, originalErr))
}

func TestError_Error_ReturnsFormattedMessage(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		message  string
		expected string
	}{
		{"config error", ErrCodeConfigInvalid, "bad backend", "[ERR_102_CONFIG_INVALID] bad backend"},
		{"not found", ErrCodeRFCNotFound, "RFC 9999 missing", "[ERR_401_RFC_NOT_FOUND] RFC 9999 missing"},
		{"fetch", ErrCodeFetchFailed, "timeout", "[ERR_301_FETCH_FAILED] timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, tt.message, nil).Error())
		})
	}
}

func TestError_Is_MatchesSentinelsByCode(t *testing.T) {
	assert.True(t, errors.Is(NotFoundError(9999), ErrNotFound))
	assert.True(t, errors.Is(FetchError(1, nil), ErrFetch))
	assert.True(t, errors.Is(IndexUpdateError("down", nil), ErrIndexUpdate))
	assert.True(t, errors.Is(SearchError("boom", nil), ErrSearch))
	assert.False(t, errors.Is(NotFoundError(1), ErrFetch))
}

func TestError_Is_WorksThroughFmtWrapping(t *testing.T) {
	// Given: a coded error wrapped by fmt.Errorf
	err := fmt.Errorf("show: %w", NotFoundError(42))

	// Then: predicates still see the code
	assert.True(t, IsNotFound(err))
	assert.Equal(t, ErrCodeRFCNotFound, GetCode(err))
}

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{ErrCodeCorruptIndex, CategoryIO, SeverityFatal, false},
		{ErrCodeFetchFailed, CategoryNetwork, SeverityWarning, true},
		{ErrCodeIndexUpdateFailed, CategoryNetwork, SeverityWarning, true},
		{ErrCodeRFCNotFound, CategoryValidation, SeverityError, false},
		{ErrCodeSearchFailed, CategoryInternal, SeverityError, false},
		{"BOGUS", CategoryInternal, SeverityError, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := New(tt.code, "msg", nil)
			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.severity, err.Severity)
			assert.Equal(t, tt.retryable, err.Retryable)
			assert.Equal(t, tt.retryable, IsRetryable(err))
		})
	}
}

func TestNotFoundError_CarriesNumberAndSuggestion(t *testing.T) {
	err := NotFoundError(9999)

	assert.Contains(t, err.Message, "RFC 9999")
	assert.Equal(t, "9999", err.Details["rfc"])
	assert.NotEmpty(t, err.Suggestion)
}

func TestInvalidOptionError(t *testing.T) {
	cause := errors.New("missing closing )")
	err := InvalidOptionError("--filter", "rfc_(", "use a regular expression", cause)

	assert.Equal(t, ErrCodeInvalidOption, err.Code)
	assert.Equal(t, CategoryValidation, err.Category)
	assert.Equal(t, `[ERR_404_INVALID_OPTION] invalid --filter "rfc_(": missing closing )`, err.Error())
	assert.Equal(t, "--filter", err.Details["option"])
	assert.Equal(t, "use a regular expression", err.Suggestion)
	assert.ErrorIs(t, err, cause)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeCorruptIndex, "bad", nil)))
	assert.False(t, IsFatal(NotFoundError(1)))
	assert.False(t, IsFatal(errors.New("plain")))
}
