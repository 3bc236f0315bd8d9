// Package errors provides a lightweight structured error type (EngineError)
// for category-based classification and retry semantics in HTTP adapters and CLI.
package errors

import (
	"fmt"
)

// ErrorCategory represents the category of an engine error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Policy errors: the request is well-formed but currently not allowed
	// (rain delay active). Callers distinguish these from validation failures.
	CategoryPolicy ErrorCategory = "policy"

	// External system integration errors
	CategoryHardware ErrorCategory = "hardware"
	CategoryNetwork  ErrorCategory = "network"

	// Persistence and infrastructure errors
	CategoryPersistence ErrorCategory = "persistence"
	CategoryScheduler   ErrorCategory = "scheduler"
	CategoryDaemon      ErrorCategory = "daemon"
	CategoryInternal    ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// EngineError is a structured error with category, retryability, and context
type EngineError struct {
	Category  ErrorCategory `json:"category"`
	Severity  ErrorSeverity `json:"severity"`
	Message   string        `json:"message"`
	Cause     error         `json:"cause,omitempty"`
	Retryable bool          `json:"retryable"`
	Context   ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for EngineError
type ContextFields map[string]any

// Error implements the error interface
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *EngineError) WithContext(key string, value any) *EngineError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new EngineError
func New(category ErrorCategory, severity ErrorSeverity, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Retryable: false,
	}
}

// Wrap creates a new EngineError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: false,
	}
}

// WrapRetryable creates a new retryable EngineError that wraps an existing error
func WrapRetryable(err error, category ErrorCategory, severity ErrorSeverity, message string) *EngineError {
	return &EngineError{
		Category:  category,
		Severity:  severity,
		Message:   message,
		Cause:     err,
		Retryable: true,
	}
}

// IsCategory checks if an error belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ee, ok := err.(*EngineError); ok {
		return ee.Category == category
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if ee, ok := err.(*EngineError); ok {
		return ee.Retryable
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an EngineError
func GetCategory(err error) ErrorCategory {
	if ee, ok := err.(*EngineError); ok {
		return ee.Category
	}
	return CategoryInternal
}
