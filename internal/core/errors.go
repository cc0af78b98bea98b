package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation  ErrorCategory = "validation"  // Invalid input or config
	ErrCatGateway     ErrorCategory = "gateway"     // LLM gateway call failed
	ErrCatTimeout     ErrorCategory = "timeout"     // Gateway call timed out
	ErrCatEvaluation  ErrorCategory = "evaluation"  // Complexity score unparsable
	ErrCatAggregation ErrorCategory = "aggregation" // Result bookkeeping inconsistency
	ErrCatCancelled   ErrorCategory = "cancelled"   // Run cancelled by caller
	ErrCatState       ErrorCategory = "state"       // Persistence failure
	ErrCatInternal    ErrorCategory = "internal"    // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrGateway creates a gateway error.
func ErrGateway(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatGateway,
		Code:      CodeGatewayFailed,
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrAggregation creates an aggregation consistency error.
// This indicates an orchestrator bookkeeping bug and is fatal for the run.
func ErrAggregation(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAggregation,
		Code:      CodeMissingSection,
		Message:   message,
		Retryable: false,
	}
}

// ErrCancelled creates a cancellation error.
func ErrCancelled(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCancelled,
		Code:      "CANCELLED",
		Message:   message,
		Retryable: false,
	}
}

// ErrState creates a persistence error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeGatewayFailed   = "GATEWAY_FAILED"
	CodeMissingSection  = "MISSING_SECTION"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeEmptyDocument   = "EMPTY_DOCUMENT"
	CodeSessionNotFound = "SESSION_NOT_FOUND"
	CodeStoreCorrupted  = "STORE_CORRUPTED"
)
