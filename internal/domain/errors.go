package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Lifecycle integration errors (LIFECYCLE_*)
	ErrorCodeInvalidPendingOnType ErrorCode = "InvalidPendingOnType"

	// Configuration errors (CONFIG_*)
	ErrorCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Validation errors (VALIDATION_*)
	ErrorCodeValidationFailed       ErrorCode = "VALIDATION_FAILED"
	ErrorCodeValidationMissingField ErrorCode = "VALIDATION_MISSING_FIELD"

	// Upstream accessor errors (ACCESSOR_*)
	ErrorCodeAccessorUnavailable ErrorCode = "ACCESSOR_UNAVAILABLE"
	ErrorCodeAccessorTimeout     ErrorCode = "ACCESSOR_TIMEOUT"

	// Internal errors (INTERNAL_*)
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeDatabaseError ErrorCode = "INTERNAL_DATABASE_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not recognized
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	var integrationErr *IntegrationError
	if errors.As(err, &integrationErr) {
		return integrationErr.Code
	}
	return ""
}

// IntegrationError signals a contract violation between this service and
// an upstream dependency: the upstream returned a resource in a shape the
// lifecycle rules do not recognize. It is not retriable and should fail
// the request loudly rather than be mapped to a client-facing error.
type IntegrationError struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewIntegrationError creates a new integration error
func NewIntegrationError(code ErrorCode, message string) *IntegrationError {
	return &IntegrationError{Code: code, Message: message}
}

// IsIntegrationError checks if an error is an IntegrationError
func IsIntegrationError(err error) bool {
	var integrationErr *IntegrationError
	return errors.As(err, &integrationErr)
}

// Common domain errors
var (
	ErrValidationFailed       = NewDomainError(ErrorCodeValidationFailed, "validation failed")
	ErrValidationMissingField = NewDomainError(ErrorCodeValidationMissingField, "required field missing")

	ErrAccessorUnavailable = NewDomainError(ErrorCodeAccessorUnavailable, "upstream accessor unavailable")
	ErrAccessorTimedOut    = NewDomainError(ErrorCodeAccessorTimeout, "upstream accessor timed out")

	ErrInternalError = NewDomainError(ErrorCodeInternalError, "internal server error")
	ErrDatabaseError = NewDomainError(ErrorCodeDatabaseError, "database error")
)
