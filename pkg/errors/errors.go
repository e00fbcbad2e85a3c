package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCategory represents different categories of errors
type ErrorCategory string

const (
	CategoryInput         ErrorCategory = "input"
	CategoryFixture       ErrorCategory = "fixture"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryStore         ErrorCategory = "store"
	CategoryLinking       ErrorCategory = "linking"
	CategoryNetwork       ErrorCategory = "network"
	CategoryInternal      ErrorCategory = "internal"
)

// ErrorCode represents specific error codes within categories
type ErrorCode string

const (
	// Input errors
	CodeMissingField  ErrorCode = "missing_field"
	CodeInvalidValue  ErrorCode = "invalid_value"
	CodeInvalidDate   ErrorCode = "invalid_date"
	CodeBatchTooLarge ErrorCode = "batch_too_large"
	CodeMissingOwner  ErrorCode = "missing_owner"

	// Fixture errors
	CodeFixtureUnreadable ErrorCode = "fixture_unreadable"
	CodeFixtureMalformed  ErrorCode = "fixture_malformed"
	CodeFixtureReference  ErrorCode = "fixture_reference"

	// Configuration errors
	CodeInvalidConfig  ErrorCode = "invalid_config"
	CodeMissingConfig  ErrorCode = "missing_config"
	CodeConfigConflict ErrorCode = "config_conflict"

	// Store errors
	CodeNotFound      ErrorCode = "not_found"
	CodeQueryFailed   ErrorCode = "query_failed"
	CodeUpdateFailed  ErrorCode = "update_failed"
	CodeMigrateFailed ErrorCode = "migrate_failed"
	CodeStoreConnect  ErrorCode = "store_connect"

	// Linking errors
	CodeRetrievalFailed ErrorCode = "retrieval_failed"
	CodeLinkRejected    ErrorCode = "link_rejected"
	CodeForeignTrade    ErrorCode = "foreign_trade"

	// Network errors
	CodeServerFailed ErrorCode = "server_failed"
	CodeTimeout      ErrorCode = "timeout"

	// Internal errors
	CodeUnexpectedError ErrorCode = "unexpected_error"
	CodePanic           ErrorCode = "panic"
)

// LinkerError is the base error type for all application errors
type LinkerError struct {
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
func (e *LinkerError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("%s (suggestion: %s)", e.Message, e.Suggestion)
	}
	return e.Message
}

// Unwrap returns the underlying cause error
func (e *LinkerError) Unwrap() error {
	return e.Cause
}

// GetExitCode returns an appropriate exit code for the CLI
func (e *LinkerError) GetExitCode() int {
	switch e.Category {
	case CategoryInput, CategoryFixture:
		return 2
	case CategoryConfiguration:
		return 3
	case CategoryStore:
		return 4
	case CategoryLinking, CategoryInternal:
		return 5
	case CategoryNetwork:
		return 6
	default:
		return 1
	}
}

// HTTPStatus maps the error onto a response status for the API layer.
func (e *LinkerError) HTTPStatus() int {
	switch e.Category {
	case CategoryInput:
		if e.Code == CodeMissingOwner {
			return http.StatusUnauthorized
		}
		return http.StatusBadRequest
	case CategoryStore:
		if e.Code == CodeNotFound {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case CategoryLinking:
		if e.Code == CodeLinkRejected {
			return http.StatusConflict
		}
		if e.Code == CodeForeignTrade {
			return http.StatusNotFound
		}
		return http.StatusUnprocessableEntity
	case CategoryNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// WithContext adds context information to the error
func (e *LinkerError) WithContext(key string, value interface{}) *LinkerError {
	if e.Context == nil {
		e.Context = make(Context)
	}
	e.Context[key] = value
	return e
}

// WithSuggestion adds a suggestion for fixing the error
func (e *LinkerError) WithSuggestion(suggestion string) *LinkerError {
	e.Suggestion = suggestion
	return e
}

// New creates a new LinkerError
func New(category ErrorCategory, code ErrorCode, message string) *LinkerError {
	return &LinkerError{
		Category:   category,
		Code:       code,
		Message:    message,
		StackTrace: errors.New("").(stackTracer).StackTrace(),
	}
}

// Wrap wraps an existing error with LinkerError context
func Wrap(err error, category ErrorCategory, code ErrorCode, message string) *LinkerError {
	if err == nil {
		return nil
	}

	return &LinkerError{
		Category:   category,
		Code:       code,
		Message:    message,
		Cause:      err,
		StackTrace: errors.WithStack(err).(stackTracer).StackTrace(),
	}
}

type stackTracer interface {
	StackTrace() errors.StackTrace
}

func build(category ErrorCategory, code ErrorCode, message, suggestion string, err error) *LinkerError {
	var result *LinkerError
	if err != nil {
		result = Wrap(err, category, code, message)
	} else {
		result = New(category, code, message)
	}
	return result.WithSuggestion(suggestion)
}

// InputError creates an error for a malformed request or argument
func InputError(code ErrorCode, field string, value interface{}) *LinkerError {
	var message string
	var suggestion string

	switch code {
	case CodeMissingField:
		message = fmt.Sprintf("required field '%s' is missing or empty", field)
		suggestion = "provide a value for this required field"
	case CodeInvalidDate:
		message = fmt.Sprintf("invalid date in field '%s': %v", field, value)
		suggestion = "use date format YYYY-MM-DD or RFC3339"
	case CodeBatchTooLarge:
		message = fmt.Sprintf("batch in field '%s' exceeds the maximum of %v entries", field, value)
		suggestion = "split the request into smaller batches"
	case CodeMissingOwner:
		message = "request does not identify an owner"
		suggestion = "send the owner id in the X-User-ID header"
	default:
		message = fmt.Sprintf("invalid value in field '%s': %v", field, value)
		suggestion = "check the field value and format"
	}

	return build(CategoryInput, code, message, suggestion, nil).
		WithContext("field", field).
		WithContext("value", value)
}

// ConfigurationError creates a configuration-related error
func ConfigurationError(code ErrorCode, setting string, value interface{}, err error) *LinkerError {
	var message string
	var suggestion string

	switch code {
	case CodeInvalidConfig:
		message = fmt.Sprintf("invalid configuration for '%s': %v", setting, value)
		suggestion = "check the configuration documentation for valid values"
	case CodeMissingConfig:
		message = fmt.Sprintf("missing required configuration: %s", setting)
		suggestion = "provide this configuration setting or use a config file"
	case CodeConfigConflict:
		message = fmt.Sprintf("configuration conflict with setting '%s': %v", setting, value)
		suggestion = "resolve the conflicting settings or use default values"
	default:
		message = fmt.Sprintf("configuration error: %s", setting)
		suggestion = "check your configuration and try again"
	}

	return build(CategoryConfiguration, code, message, suggestion, err).
		WithContext("setting", setting).
		WithContext("value", value)
}

// StoreError creates a persistence-related error
func StoreError(code ErrorCode, operation string, err error) *LinkerError {
	var message string
	var suggestion string

	switch code {
	case CodeNotFound:
		message = fmt.Sprintf("record not found during %s", operation)
		suggestion = "check the identifier and that it belongs to the requesting owner"
	case CodeQueryFailed:
		message = fmt.Sprintf("query failed during %s", operation)
		suggestion = "check database connectivity and schema migrations"
	case CodeUpdateFailed:
		message = fmt.Sprintf("update failed during %s", operation)
		suggestion = "retry the operation; linking is idempotent"
	case CodeMigrateFailed:
		message = fmt.Sprintf("schema migration failed during %s", operation)
		suggestion = "check database permissions"
	case CodeStoreConnect:
		message = fmt.Sprintf("could not connect to store during %s", operation)
		suggestion = "check the db.dsn setting and that the database is reachable"
	default:
		message = fmt.Sprintf("store error during %s", operation)
		suggestion = "check the store and try again"
	}

	return build(CategoryStore, code, message, suggestion, err).
		WithContext("operation", operation)
}

// LinkingError creates an error raised while suggesting or applying a link
func LinkingError(code ErrorCode, entryID string, err error) *LinkerError {
	var message string
	var suggestion string

	switch code {
	case CodeRetrievalFailed:
		message = fmt.Sprintf("candidate retrieval failed for entry %s", entryID)
		suggestion = "check store health and retry"
	case CodeLinkRejected:
		message = fmt.Sprintf("entry %s is already linked to a trade", entryID)
		suggestion = "unlink the entry before linking it again"
	case CodeForeignTrade:
		message = fmt.Sprintf("trade for entry %s not found", entryID)
		suggestion = "link only trades owned by the same user"
	default:
		message = fmt.Sprintf("linking error for entry %s", entryID)
		suggestion = "review the entry and try again"
	}

	return build(CategoryLinking, code, message, suggestion, err).
		WithContext("entry_id", entryID)
}

// NetworkError creates a network-related error
func NetworkError(code ErrorCode, endpoint string, err error) *LinkerError {
	var message string
	var suggestion string

	switch code {
	case CodeServerFailed:
		message = fmt.Sprintf("server failed on %s", endpoint)
		suggestion = "check that the address is free and reachable"
	case CodeTimeout:
		message = fmt.Sprintf("timeout on %s", endpoint)
		suggestion = "increase the timeout setting"
	default:
		message = fmt.Sprintf("network error: %s", endpoint)
		suggestion = "check network connection and try again"
	}

	return build(CategoryNetwork, code, message, suggestion, err).
		WithContext("endpoint", endpoint)
}

// InternalError creates an internal error
func InternalError(code ErrorCode, operation string, err error) *LinkerError {
	var message string
	var suggestion string

	switch code {
	case CodeUnexpectedError:
		message = fmt.Sprintf("unexpected error during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	case CodePanic:
		message = fmt.Sprintf("recovered from panic during %s", operation)
		suggestion = "this is likely a bug - please report it with the error details"
	default:
		message = fmt.Sprintf("internal error during %s", operation)
		suggestion = "try again or contact support if the problem persists"
	}

	return build(CategoryInternal, code, message, suggestion, err).
		WithContext("operation", operation)
}

// ErrorSummary provides a summary of multiple errors
type ErrorSummary struct {
	Total        int                   `json:"total"`
	ByCategory   map[ErrorCategory]int `json:"by_category"`
	ByCode       map[ErrorCode]int     `json:"by_code"`
	Errors       []*LinkerError        `json:"errors"`
	SampleErrors []*LinkerError        `json:"sample_errors,omitempty"`
}

// NewErrorSummary creates a new error summary
func NewErrorSummary(errs []*LinkerError) *ErrorSummary {
	summary := &ErrorSummary{
		Total:      len(errs),
		ByCategory: make(map[ErrorCategory]int),
		ByCode:     make(map[ErrorCode]int),
		Errors:     errs,
	}
	if len(errs) == 0 {
		summary.Errors = []*LinkerError{}
		return summary
	}

	for _, err := range errs {
		summary.ByCategory[err.Category]++
		summary.ByCode[err.Code]++
	}

	maxSamples := 5
	if len(errs) > maxSamples {
		summary.SampleErrors = errs[:maxSamples]
	} else {
		summary.SampleErrors = errs
	}

	return summary
}

// Error returns a formatted error message for the summary
func (es *ErrorSummary) Error() string {
	if es.Total == 0 {
		return "no errors"
	}

	if es.Total == 1 {
		return es.Errors[0].Error()
	}

	var categories []string
	for category, count := range es.ByCategory {
		categories = append(categories, fmt.Sprintf("%s: %d", category, count))
	}

	return fmt.Sprintf("%d errors occurred (%s)", es.Total, strings.Join(categories, ", "))
}

// HasCategory checks if the summary contains errors of the given category
func (es *ErrorSummary) HasCategory(category ErrorCategory) bool {
	return es.ByCategory[category] > 0
}

// HasCode checks if the summary contains errors with the given code
func (es *ErrorSummary) HasCode(code ErrorCode) bool {
	return es.ByCode[code] > 0
}

// GetExitCode returns the highest priority exit code from all errors
func (es *ErrorSummary) GetExitCode() int {
	if es.Total == 0 {
		return 0
	}

	maxCode := 1
	for _, err := range es.Errors {
		if code := err.GetExitCode(); code > maxCode {
			maxCode = code
		}
	}

	return maxCode
}

// IsLinkerError checks if an error is a LinkerError
func IsLinkerError(err error) bool {
	_, ok := err.(*LinkerError)
	return ok
}

// AsLinkerError extracts a LinkerError from an error chain
func AsLinkerError(err error) (*LinkerError, bool) {
	var linkerErr *LinkerError
	if errors.As(err, &linkerErr) {
		return linkerErr, true
	}
	var fixtureErr *FixtureError
	if errors.As(err, &fixtureErr) && fixtureErr.LinkerError != nil {
		return fixtureErr.LinkerError, true
	}
	return nil, false
}

// WrapIfNeeded wraps an error if it's not already a LinkerError
func WrapIfNeeded(err error, category ErrorCategory, code ErrorCode, message string) *LinkerError {
	if err == nil {
		return nil
	}

	if linkerErr, ok := AsLinkerError(err); ok {
		return linkerErr
	}

	return Wrap(err, category, code, message)
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code ErrorCode) bool {
	linkerErr, ok := AsLinkerError(err)
	return ok && linkerErr.Code == code
}
