package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation       ErrorType = "validation"
	ErrorTypeRateLimit        ErrorType = "rate_limit"
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
	ErrorTypeScoring          ErrorType = "scoring"
	ErrorTypeNotFound         ErrorType = "not_found"
	ErrorTypeInternal         ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Validation errors - rejected before any side effect
	ErrMissingCallerID = NewDomainError(ErrorTypeValidation, "missing caller identifier", nil)
	ErrMissingQuery    = NewDomainError(ErrorTypeValidation, "missing query text", nil)
	ErrInvalidTopK     = NewDomainError(ErrorTypeValidation, "top_k must be a positive integer", nil)

	// Rate limit errors - not a system fault
	ErrQuotaExceeded = NewDomainError(ErrorTypeRateLimit, "quota exceeded", nil)

	// Store errors - quota admission fails closed, retrieval aborts the request
	ErrQuotaStoreUnavailable    = NewDomainError(ErrorTypeRateLimit, "quota store unavailable, admission denied", nil)
	ErrDocumentStoreUnavailable = NewDomainError(ErrorTypeStoreUnavailable, "document store unavailable", nil)

	// Scoring errors - abort the request, cache left unmodified
	ErrScoringFailed = NewDomainError(ErrorTypeScoring, "scoring failed", nil)

	// Internal errors
	ErrInternal    = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrCacheFailed = NewDomainError(ErrorTypeInternal, "cache operation failed", nil)
)

// Error type checking helper functions

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeRateLimit
	}
	return false
}

// IsStoreUnavailableError checks if an error is a store availability error
func IsStoreUnavailableError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeStoreUnavailable
	}
	return false
}

// IsScoringError checks if an error is a scoring error
func IsScoringError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeScoring
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapStoreUnavailable wraps an error as a store availability error
func WrapStoreUnavailable(message string, err error) error {
	return NewDomainError(ErrorTypeStoreUnavailable, message, err)
}
