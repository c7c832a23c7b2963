// Package errors provides structured error types for the Moonwalk pipeline.
// All errors include a category, code, message, and retryable flag for
// consistent error handling across components.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by pipeline component.
type ErrorCategory string

const (
	ErrCategoryInput    ErrorCategory = "INPUT"
	ErrCategoryCast     ErrorCategory = "CAST"
	ErrCategoryStore    ErrorCategory = "STORE"
	ErrCategoryArchive  ErrorCategory = "ARCHIVE"
	ErrCategoryExtract  ErrorCategory = "EXTRACT"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Input codes (structural failures: fatal, nothing is published)
	CodeFileNotFound    = "FILE_NOT_FOUND"
	CodeUnreadableInput = "UNREADABLE_INPUT"
	CodeMissingColumn   = "MISSING_COLUMN"
	CodeAmbiguousKey    = "AMBIGUOUS_KEY"

	// Cast codes
	CodeUnknownKind   = "UNKNOWN_KIND"
	CodeInvalidSpec   = "INVALID_SPEC"
	CodeUndeclaredCol = "UNDECLARED_COLUMN"

	// Store codes
	CodeBuildFailed   = "BUILD_FAILED"
	CodePublishFailed = "PUBLISH_FAILED"

	// Archive codes
	CodeUploadFailed   = "UPLOAD_FAILED"
	CodeDownloadFailed = "DOWNLOAD_FAILED"
	CodeObjectNotFound = "OBJECT_NOT_FOUND"

	// Extract codes
	CodeMissingNaturalKey = "MISSING_NATURAL_KEY"
	CodeQueueWriteFailed  = "QUEUE_WRITE_FAILED"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// PipelineError is the structured error type used throughout the system.
type PipelineError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Details   map[string]interface{}
	Cause     error
	Retryable bool
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
		Category:  category,
		Code:      code,
		Message:   message,
		Retryable: isRetryable(category, code),
	}
}

// Wrap creates a new PipelineError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *PipelineError {
	return &PipelineError{
		Category:  category,
		Code:      code,
		Message:   message,
		Cause:     cause,
		Retryable: isRetryable(category, code),
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *PipelineError) WithDetails(details map[string]interface{}) *PipelineError {
	cp := *e
	cp.Details = details
	return &cp
}

// IsRetryable checks whether an error (or its chain) is retryable.
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Retryable
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

// isRetryable determines if an error code is retryable. Archive
// transfers are the only retryable operations: a failed archive never
// un-publishes a snapshot, so the caller may simply try again.
func isRetryable(category ErrorCategory, code string) bool {
	switch {
	case category == ErrCategoryArchive && code == CodeUploadFailed:
		return true
	case category == ErrCategoryArchive && code == CodeDownloadFailed:
		return true
	default:
		return false
	}
}

// Convenience constructors for common errors.

func NewInputError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryInput, code, message, cause)
}

func NewCastError(code, message string) *PipelineError {
	return New(ErrCategoryCast, code, message)
}

func NewStoreError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryStore, code, message, cause)
}

func NewArchiveError(code, message string, cause error) *PipelineError {
	return Wrap(ErrCategoryArchive, code, message, cause)
}

func NewExtractError(code, message string) *PipelineError {
	return New(ErrCategoryExtract, code, message)
}

func NewInternalError(message string, cause error) *PipelineError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
