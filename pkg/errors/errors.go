// Package errors defines the error taxonomy for the settlement engine.
//
// Errors are classified by category and code so the CLI can map them to
// exit codes and user-facing help. Only a small set of conditions abort a
// run: a missing critical column on the orders table and invalid
// configuration. Everything else (unparseable values, missing optional
// ledgers, ambiguous column matches) is recovered locally and surfaced as
// a warning on the run result.
package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryFile          ErrorCategory = "file"
	CategoryParse         ErrorCategory = "parse"
	CategorySchema        ErrorCategory = "schema"
	CategoryConfiguration ErrorCategory = "configuration"
	CategorySettlement    ErrorCategory = "settlement"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// File errors
	CodeFileNotFound   ErrorCode = "file_not_found"
	CodeFilePermission ErrorCode = "file_permission"
	CodeFileCorrupted  ErrorCode = "file_corrupted"

	// Parse errors
	CodeInvalidFormat    ErrorCode = "invalid_format"
	CodeEncodingError    ErrorCode = "encoding_error"
	CodeUnparseableValue ErrorCode = "unparseable_value"

	// Schema errors
	CodeMissingCriticalField ErrorCode = "missing_critical_field"
	CodeAmbiguousColumnMatch ErrorCode = "ambiguous_column_match"

	// Configuration errors
	CodeInvalidConfig ErrorCode = "invalid_config"
	CodeMissingConfig ErrorCode = "missing_config"

	// Settlement errors
	CodeNoMatchingRows  ErrorCode = "no_matching_rows"
	CodeProcessingError ErrorCode = "processing_error"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
)

// SettlementError is the base error type for all application errors
type SettlementError struct {
	Category   ErrorCategory     `json:"category"`
	Code       ErrorCode         `json:"code"`
	Message    string            `json:"message"`
	Suggestion string            `json:"suggestion,omitempty"`
	Context    Context           `json:"context,omitempty"`
	Cause      error             `json:"-"`
	StackTrace errors.StackTrace `json:"-"`
}

// Context provides additional information about the error
type Context map[string]interface{}

// Error implements the error interface
func (e *SettlementError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *SettlementError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the error
func (e *SettlementError) GetExitCode() int {
	switch e.Category {
	case CategoryFile:
		return 2
	case CategoryParse, CategorySchema:
		return 3
	case CategoryConfiguration:
		return 4
	case CategorySettlement, CategoryInternal:
		return 5
	default:
		return 1
	}
}

// WithContext adds context information to the error
func (e *SettlementError) WithContext(key string, value interface{}) *SettlementError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *SettlementError) WithSuggestion(suggestion string) *SettlementError {
	e.Suggestion = suggestion
	return e
}

// New creates a new SettlementError
func New(category ErrorCategory, code ErrorCode, message string) *SettlementError {
	return &SettlementError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with SettlementError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *SettlementError {
	if err == nil {
		return nil
	}

	return &SettlementError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

// stackTracer interface for extracting stack traces
type stackTracer interface {
	StackTrace() errors.StackTrace
}

// Specific error constructors

// FileError creates a file-related error
func FileError(code ErrorCode, path string, err error) *SettlementError {
	var message string
	var suggestion string

	switch code {
	case CodeFileNotFound:
		message = fmt.Sprintf("file not found: %s", path)
		suggestion = "check if the file path is correct and the file exists"
	case CodeFilePermission:
		message = fmt.Sprintf("permission denied accessing file: %s", path)
		suggestion = "check file permissions and ensure you have read access"
	case CodeFileCorrupted:
		message = fmt.Sprintf("file could not be read as CSV: %s", path)
		suggestion = "verify the file is a valid CSV export"
	default:
		message = fmt.Sprintf("file error: %s", path)
		suggestion = "check the file and try again"
	}

	var result *SettlementError
	if err != nil {
		result = Wrap(err, CategoryFile, code, message)
	} else {
		result = New(CategoryFile, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("file_path", path)
}

// MissingCriticalFieldError reports that a required semantic field could not
// be resolved on the orders table. The run must abort: settlement cannot
// proceed without a way to identify the driver or the amount. The message
// names the field and lists the columns that were actually present.
func MissingCriticalFieldError(field string, available []string) *SettlementError {
	return New(CategorySchema, CodeMissingCriticalField,
		fmt.Sprintf("required column for '%s' not found; available columns: [%s]",
			field, strings.Join(available, ", "))).
		WithSuggestion(fmt.Sprintf("rename or add a column the engine can recognize as '%s'", field)).
		WithContext("field", field).
		WithContext("available_columns", available)
}

// AmbiguousColumnError reports that several columns matched a semantic
// field. The first match is used; the error is recorded for audit, not
// raised.
func AmbiguousColumnError(field, chosen string, candidates []string) *SettlementError {
	return New(CategorySchema, CodeAmbiguousColumnMatch,
		fmt.Sprintf("multiple columns match '%s': [%s]; using '%s'",
			field, strings.Join(candidates, ", "), chosen)).
		WithContext("field", field).
		WithContext("chosen", chosen).
		WithContext("candidates", candidates)
}

// NoMatchingRowsError reports that the orders table yielded no rows after
// filtering. Recovered with an empty report.
func NoMatchingRowsError(reason string) *SettlementError {
	return New(CategorySettlement, CodeNoMatchingRows,
		fmt.Sprintf("no order rows to settle: %s", reason)).
		WithSuggestion("check the date range and the contents of the orders file")
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *SettlementError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	var result *SettlementError
	if err != nil {
		result = Wrap(err, CategoryConfiguration, code, message)
	} else {
		result = New(CategoryConfiguration, code, message)
	}

	return result.
		WithSuggestion(suggestion).
		WithContext("setting", setting).
		WithContext("value", value)
}

// SettlementProcessingError creates a settlement-related error
func SettlementProcessingError(operation string, err error) *SettlementError {
	message := fmt.Sprintf("processing error during %s", operation)

	var result *SettlementError
	if err != nil {
		result = Wrap(err, CategorySettlement, CodeProcessingError, message)
	} else {
		result = New(CategorySettlement, CodeProcessingError, message)
	}

	return result.
		WithSuggestion("review the input data and configuration").
		WithContext("operation", operation)
}

// Utility functions

// IsSettlementError checks if an error is a SettlementError
func IsSettlementError(err error) bool {
	_, ok := err.(*SettlementError)
	return ok
}

// AsSettlementError extracts a SettlementError from an error chain
func AsSettlementError(err error) (*SettlementError, bool) {
	var settlementErr *SettlementError
	if errors.As(err, &settlementErr) {
		return settlementErr, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a SettlementError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *SettlementError {
	if err == nil {
		return nil
	}

	if settlementErr, ok := AsSettlementError(err); ok {
		return settlementErr
	}

	return Wrap(err, category, code, message)
}
