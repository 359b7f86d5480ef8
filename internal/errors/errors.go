// Package errors provides structured error types for the Filemark harness.
// All errors include a category, code, and message for consistent handling
// across components; worker failures additionally carry the index of the
// work item that failed.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors by harness component.
type ErrorCategory string

const (
	ErrCategoryConfig   ErrorCategory = "CONFIG"
	ErrCategoryStorage  ErrorCategory = "STORAGE"
	ErrCategoryManifest ErrorCategory = "MANIFEST"
	ErrCategoryWorker   ErrorCategory = "WORKER"
	ErrCategorySession  ErrorCategory = "SESSION"
	ErrCategoryInternal ErrorCategory = "INTERNAL"
)

// Error codes for each category.
const (
	// Config codes
	CodeInvalidConfig = "INVALID_CONFIG"

	// Storage codes
	CodeObjectNotFound = "OBJECT_NOT_FOUND"
	CodeFetchFailed    = "FETCH_FAILED"

	// Manifest codes
	CodeCatalogFailed = "CATALOG_FAILED"

	// Worker codes
	CodeReadFailed     = "READ_FAILED"
	CodeDoubleStart    = "DOUBLE_START"
	CodeLengthMismatch = "LENGTH_MISMATCH"

	// Session codes
	CodeWorkerFailed  = "WORKER_FAILED"
	CodeUndefinedRate = "UNDEFINED_RATE"
	CodeEmptySession  = "EMPTY_SESSION"

	// Internal codes
	CodeUnexpected = "UNEXPECTED"
)

// HarnessError is the structured error type used throughout the harness.
type HarnessError struct {
	Category ErrorCategory
	Code     string
	Message  string
	// WorkerIndex identifies which work item failed. -1 when the error is
	// not attributable to a single worker.
	WorkerIndex int
	Cause       error
}

// Error returns a formatted error string. The Message of a worker failure is
// the worker's own error text, preserved verbatim; the index qualifies which
// input or pair it belongs to.
func (e *HarnessError) Error() string {
	if e.WorkerIndex >= 0 {
		return fmt.Sprintf("[%s:%s] worker %d: %s", e.Category, e.Code, e.WorkerIndex, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *HarnessError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's category and code.
func (e *HarnessError) Is(target error) bool {
	var t *HarnessError
	if errors.As(target, &t) {
		return e.Category == t.Category && e.Code == t.Code
	}
	return false
}

// New creates a new HarnessError.
func New(category ErrorCategory, code, message string) *HarnessError {
	return &HarnessError{
		Category:    category,
		Code:        code,
		Message:     message,
		WorkerIndex: -1,
	}
}

// Wrap creates a new HarnessError wrapping an existing error.
func Wrap(category ErrorCategory, code, message string, cause error) *HarnessError {
	return &HarnessError{
		Category:    category,
		Code:        code,
		Message:     message,
		WorkerIndex: -1,
		Cause:       cause,
	}
}

// WithWorkerIndex returns a copy of the error qualified with a worker index.
func (e *HarnessError) WithWorkerIndex(index int) *HarnessError {
	cp := *e
	cp.WorkerIndex = index
	return &cp
}

// GetCategory extracts the error category from an error chain.
// Returns empty string if the error is not a HarnessError.
func GetCategory(err error) ErrorCategory {
	var he *HarnessError
	if errors.As(err, &he) {
		return he.Category
	}
	return ""
}

// GetCode extracts the error code from an error chain.
// Returns empty string if the error is not a HarnessError.
func GetCode(err error) string {
	var he *HarnessError
	if errors.As(err, &he) {
		return he.Code
	}
	return ""
}

// GetWorkerIndex extracts the failed worker index from an error chain.
// Returns -1 if the error is not index-qualified.
func GetWorkerIndex(err error) int {
	var he *HarnessError
	if errors.As(err, &he) {
		return he.WorkerIndex
	}
	return -1
}

// Convenience constructors for common errors.

func NewConfigError(message string) *HarnessError {
	return New(ErrCategoryConfig, CodeInvalidConfig, message)
}

func NewStorageError(code, message string, cause error) *HarnessError {
	return Wrap(ErrCategoryStorage, code, message, cause)
}

func NewManifestError(message string, cause error) *HarnessError {
	return Wrap(ErrCategoryManifest, CodeCatalogFailed, message, cause)
}

// NewWorkerFailure builds the index-qualified session error for a failed
// worker. The cause's message is carried verbatim in Message so nothing is
// lost when callers print the error.
func NewWorkerFailure(index int, cause error) *HarnessError {
	return &HarnessError{
		Category:    ErrCategorySession,
		Code:        CodeWorkerFailed,
		Message:     cause.Error(),
		WorkerIndex: index,
		Cause:       cause,
	}
}

func NewInternalError(message string, cause error) *HarnessError {
	return Wrap(ErrCategoryInternal, CodeUnexpected, message, cause)
}
