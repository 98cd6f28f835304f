package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError(t *testing.T) {
	t.Run("formats message with and without cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		assert.Equal(t, "store_unavailable: document store unavailable (connection refused)",
			NewDomainError(ErrorTypeStoreUnavailable, "document store unavailable", cause).Error())
		assert.Equal(t, "validation: missing query text", ErrMissingQuery.Error())
	})

	t.Run("unwraps to the cause", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := WrapStoreUnavailable("document store unavailable", cause)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("Is matches on error type", func(t *testing.T) {
		assert.ErrorIs(t, ErrQuotaStoreUnavailable, ErrQuotaExceeded)
		assert.NotErrorIs(t, ErrMissingQuery, ErrQuotaExceeded)
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("search failed: %w", ErrQuotaExceeded)
		assert.True(t, IsRateLimitError(wrapped))
		assert.Equal(t, ErrorTypeRateLimit, GetErrorType(wrapped))
	})

	t.Run("WithDetail accumulates details", func(t *testing.T) {
		err := NewDomainError(ErrorTypeValidation, "bad parameter", nil).
			WithDetail("param", "top_k").
			WithDetail("value", -1)
		assert.Equal(t, "top_k", err.Details["param"])
		assert.Equal(t, -1, err.Details["value"])
	})
}

func TestErrorTypeHelpers(t *testing.T) {
	assert.True(t, IsValidationError(ErrMissingCallerID))
	assert.True(t, IsValidationError(ErrInvalidTopK))
	assert.True(t, IsRateLimitError(ErrQuotaExceeded))
	assert.True(t, IsRateLimitError(ErrQuotaStoreUnavailable), "quota store failures deny admission")
	assert.True(t, IsStoreUnavailableError(ErrDocumentStoreUnavailable))
	assert.True(t, IsScoringError(ErrScoringFailed))

	assert.False(t, IsValidationError(errors.New("plain")))
	assert.Equal(t, ErrorType(""), GetErrorType(errors.New("plain")))
}
