package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the kind of failure a ledger operation ran into
type ErrorCategory string

const (
	// Caller mistakes, surfaced as-is
	ErrorCategoryNotFound   ErrorCategory = "NOT_FOUND"
	ErrorCategoryValidation ErrorCategory = "VALIDATION"
	ErrorCategoryRiskLimit  ErrorCategory = "RISK_LIMIT"

	// Stale write, reload and recompute
	ErrorCategoryConflict ErrorCategory = "CONFLICT"

	// Environment problems around the core
	ErrorCategoryStorage       ErrorCategory = "STORAGE"
	ErrorCategoryConfiguration ErrorCategory = "CONFIG"
)

// LedgerError represents a categorized error with context
type LedgerError struct {
	Category   ErrorCategory
	Component  string
	Operation  string
	Message    string
	Underlying error
	Context    map[string]interface{}
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("[%s:%s] %s: %s: %v", e.Category, e.Component, e.Operation, e.Message, e.Underlying)
	}
	return fmt.Sprintf("[%s:%s] %s: %s", e.Category, e.Component, e.Operation, e.Message)
}

// Unwrap returns the underlying error for error unwrapping
func (e *LedgerError) Unwrap() error {
	return e.Underlying
}

// IsRetryable reports whether repeating the operation on fresh state can succeed
func (e *LedgerError) IsRetryable() bool {
	return e.Category == ErrorCategoryConflict
}

// WithContext adds context information to the error
func (e *LedgerError) WithContext(key string, value interface{}) *LedgerError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewLedgerError creates a new categorized error
func NewLedgerError(category ErrorCategory, component, operation, message string) *LedgerError {
	return &LedgerError{
		Category:  category,
		Component: component,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with ledger error context
func WrapError(err error, category ErrorCategory, component, operation string) *LedgerError {
	if err == nil {
		return nil
	}

	return &LedgerError{
		Category:   category,
		Component:  component,
		Operation:  operation,
		Message:    "operation failed",
		Underlying: err,
		Context:    make(map[string]interface{}),
	}
}

// CategoryOf returns the category of the first LedgerError in the chain, or "" if there is none
func CategoryOf(err error) ErrorCategory {
	if le := AsLedgerError(err); le != nil {
		return le.Category
	}
	return ""
}

// AsLedgerError returns the first LedgerError in err's chain, or nil
func AsLedgerError(err error) *LedgerError {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le
	}
	return nil
}

// IsCategory reports whether err carries the given category anywhere in its chain
func IsCategory(err error, category ErrorCategory) bool {
	return err != nil && CategoryOf(err) == category
}

func IsNotFound(err error) bool   { return IsCategory(err, ErrorCategoryNotFound) }
func IsValidation(err error) bool { return IsCategory(err, ErrorCategoryValidation) }
func IsConflict(err error) bool   { return IsCategory(err, ErrorCategoryConflict) }
func IsRiskLimit(err error) bool  { return IsCategory(err, ErrorCategoryRiskLimit) }

// Common error constructors
func NewNotFoundError(component, operation, message string) *LedgerError {
	return NewLedgerError(ErrorCategoryNotFound, component, operation, message)
}

func NewValidationError(component, operation, message string) *LedgerError {
	return NewLedgerError(ErrorCategoryValidation, component, operation, message)
}

func NewConflictError(component, operation, message string) *LedgerError {
	return NewLedgerError(ErrorCategoryConflict, component, operation, message)
}

func NewRiskLimitError(component, operation, message string) *LedgerError {
	return NewLedgerError(ErrorCategoryRiskLimit, component, operation, message)
}

func NewConfigurationError(component, operation, message string) *LedgerError {
	return NewLedgerError(ErrorCategoryConfiguration, component, operation, message)
}

func NewStorageError(component, operation string, err error) *LedgerError {
	return WrapError(err, ErrorCategoryStorage, component, operation)
}
