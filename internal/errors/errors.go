// Package errors provides structured error types for the Cowrite pipeline.
// All errors include a category, code, message, and fatality flag so the
// cohort loop can decide between skipping one user and aborting the run.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline concern.
type ErrorCategory string

const (
	ErrCategoryValidation ErrorCategory = "VALIDATION"
	ErrCategoryIntegrity  ErrorCategory = "INTEGRITY"
	ErrCategoryInvariant  ErrorCategory = "INVARIANT"
	ErrCategoryStore      ErrorCategory = "STORE"
	ErrCategorySurvey     ErrorCategory = "SURVEY"
	ErrCategoryStats      ErrorCategory = "STATS"
	ErrCategoryInternal   ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Validation codes
	CodeMalformedEvent   = "MALFORMED_EVENT"
	CodeMissingField     = "MISSING_FIELD"
	CodeUnknownEventName = "UNKNOWN_EVENT_NAME"

	// Integrity codes
	CodeCompletionConflict = "DUPLICATE_COMPLETION_CONFLICT"

	// Invariant codes
	CodeMixedTasks       = "MIXED_TASK_SUGGESTIONS"
	CodeOverlappingTasks = "OVERLAPPING_TASK_INTERVALS"

	// Store codes
	CodeEventsNotFound = "EVENTS_NOT_FOUND"
	CodeFetchFailed    = "FETCH_FAILED"
	CodeCacheFailed    = "CACHE_FAILED"

	// Survey codes
	CodeBadSurveyFile = "BAD_SURVEY_FILE"
	CodeMissingColumn = "MISSING_COLUMN"

	// Stats codes
	CodeTooFewSamples = "TOO_FEW_SAMPLES"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// PipelineError is the structured error type used throughout the system.
type PipelineError struct {
	Category ErrorCategory
	Code     string
	Message  string
	Details  map[string]interface{}
	Cause    error

	// Fatal marks errors that indicate log corruption or a programmer
	// error; these must never be silently swallowed.
	Fatal bool
}

// Error returns a formatted error string.
func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *PipelineError) Is(target error) bool {
	var t *PipelineError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new PipelineError.
func New(category ErrorCategory, code, message string) *PipelineError {
	return &PipelineError{
		Category: category,
		Code:     code,
		Message:  message,
		Fatal:    isFatal(category),
	}
}

// Wrap creates a new PipelineError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *PipelineError {
	return &PipelineError{
		Category: category,
		Code:     code,
		Message:  message,
		Cause:    cause,
		Fatal:    isFatal(category),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *PipelineError) WithDetails(details map[string]interface{}) *PipelineError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsFatal checks whether an error (or its chain) signals corruption or a
// caller bug rather than a recoverable per-user condition.
func IsFatal(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Fatal
	}
	return false
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a PipelineError.
func GetCategory(err error) ErrorCategory {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a PipelineError.
func GetCode(err error) string {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// isFatal determines whether a category aborts the user's processing
// unconditionally per the error-handling design.
func isFatal(category ErrorCategory) bool {
	switch category {
	case ErrCategoryIntegrity, ErrCategoryInvariant:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

// NewMalformedEvent reports an event record missing required fields or
// carrying an unrecognized name.
func NewMalformedEvent(code, message string) *PipelineError {
	return New(ErrCategoryValidation, code, message)
}

// NewIntegrityError reports a failed duplicate-completion sanity check.
func NewIntegrityError(message string) *PipelineError {
	return New(ErrCategoryIntegrity, CodeCompletionConflict, message)
}

// NewInvariantViolation reports a precondition violated by the caller.
func NewInvariantViolation(code, message string) *PipelineError {
	return New(ErrCategoryInvariant, code, message)
}

func NewStoreError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryStore, code, message, cause)
}

func NewSurveyError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategorySurvey, code, message, cause)
}

func NewInternalError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
