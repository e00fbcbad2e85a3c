package errors

import (
	"fmt"
	"path/filepath"
	"strings"
)

// FixtureContext locates a problem inside a fixture file
type FixtureContext struct {
	File     string `json:"file"`
	Line     int    `json:"line,omitempty"`
	Section  string `json:"section,omitempty"`
	Record   int    `json:"record"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value,omitempty"`
	Expected string `json:"expected,omitempty"`
}

// FixtureError is raised while loading journal/trade fixtures for the memory store
type FixtureError struct {
	*LinkerError
	Location    *FixtureContext `json:"location"`
	Recoverable bool            `json:"recoverable"`
	Examples    []string        `json:"examples,omitempty"`
}

// Error implements the error interface with the fixture location appended
func (e *FixtureError) Error() string {
	parts := []string{e.LinkerError.Error()}

	if e.Location != nil {
		location := fmt.Sprintf("at %s", filepath.Base(e.Location.File))
		if e.Location.Line > 0 {
			location += fmt.Sprintf(":%d", e.Location.Line)
		}
		if e.Location.Section != "" {
			location += fmt.Sprintf(" %s[%d]", e.Location.Section, e.Location.Record)
		}
		if e.Location.Field != "" {
			location += fmt.Sprintf(".%s", e.Location.Field)
		}
		parts = append(parts, location)
	}

	return strings.Join(parts, " ")
}

// GetDetailedError returns a detailed multi-line error description
func (e *FixtureError) GetDetailedError() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("ERROR: %s", e.Message))

	if e.Location != nil {
		lines = append(lines, fmt.Sprintf("  → File: %s", e.Location.File))
		if e.Location.Line > 0 {
			lines = append(lines, fmt.Sprintf("  → Line: %d", e.Location.Line))
		}
		if e.Location.Section != "" {
			lines = append(lines, fmt.Sprintf("  → Record: %s[%d]", e.Location.Section, e.Location.Record))
		}
		if e.Location.Field != "" {
			lines = append(lines, fmt.Sprintf("  → Field: %s", e.Location.Field))
		}
		if e.Location.Value != "" {
			lines = append(lines, fmt.Sprintf("  → Value: '%s'", e.Location.Value))
		}
		if e.Location.Expected != "" {
			lines = append(lines, fmt.Sprintf("  → Expected: %s", e.Location.Expected))
		}
	}

	if e.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("  → Suggestion: %s", e.Suggestion))
	}

	if len(e.Examples) > 0 {
		lines = append(lines, "  → Examples:")
		for _, example := range e.Examples {
			lines = append(lines, fmt.Sprintf("    • %s", example))
		}
	}

	return strings.Join(lines, "\n")
}

// NewFixtureError creates a new fixture error
func NewFixtureError(code ErrorCode, location *FixtureContext, message string, cause error) *FixtureError {
	var base *LinkerError
	if cause != nil {
		base = Wrap(cause, CategoryFixture, code, message)
	} else {
		base = New(CategoryFixture, code, message)
	}

	if location != nil {
		base.WithContext("file", location.File).
			WithContext("section", location.Section).
			WithContext("record", location.Record).
			WithContext("field", location.Field)
	}

	return &FixtureError{
		LinkerError: base,
		Location:    location,
		Recoverable: true,
	}
}

// WithExamples adds example values to help fix the error
func (e *FixtureError) WithExamples(examples ...string) *FixtureError {
	e.Examples = examples
	return e
}

// WithSuggestion adds a suggestion and returns the FixtureError
func (e *FixtureError) WithSuggestion(suggestion string) *FixtureError {
	e.LinkerError.WithSuggestion(suggestion)
	return e
}

// UnreadableFixtureError is returned when the fixture file cannot be opened or decoded
func UnreadableFixtureError(file string, cause error) *FixtureError {
	err := NewFixtureError(CodeFixtureUnreadable, &FixtureContext{File: file}, "fixture file could not be read", cause).
		WithSuggestion("check the store.fixture path and that the file is valid YAML")
	err.Recoverable = false
	return err
}

// MissingFixtureFieldError creates an error for an empty required field in a record
func MissingFixtureFieldError(file, section string, record int, field string) *FixtureError {
	location := &FixtureContext{
		File:     file,
		Section:  section,
		Record:   record,
		Field:    field,
		Expected: "non-empty value",
	}
	return NewFixtureError(CodeFixtureMalformed, location, "required fixture field is empty", nil).
		WithSuggestion("provide a value for this field")
}

// InvalidFixtureValueError creates an error for a value that does not parse
func InvalidFixtureValueError(file, section string, record int, field, value, expected string, examples ...string) *FixtureError {
	location := &FixtureContext{
		File:     file,
		Section:  section,
		Record:   record,
		Field:    field,
		Value:    value,
		Expected: expected,
	}
	return NewFixtureError(CodeFixtureMalformed, location, "invalid fixture value", nil).
		WithExamples(examples...).
		WithSuggestion(fmt.Sprintf("use %s", expected))
}

// DanglingReferenceError creates an error for a record pointing at an unknown id
func DanglingReferenceError(file, section string, record int, field, id string) *FixtureError {
	location := &FixtureContext{
		File:     file,
		Section:  section,
		Record:   record,
		Field:    field,
		Value:    id,
		Expected: "id of a record defined in the same fixture",
	}
	err := NewFixtureError(CodeFixtureReference, location, "fixture references an unknown record", nil).
		WithSuggestion("define the referenced record or fix the id")
	err.Recoverable = false
	return err
}

// FixtureErrorCollector collects multiple fixture errors during loading
type FixtureErrorCollector struct {
	errors          []*FixtureError
	maxErrors       int
	continueOnError bool
}

// NewFixtureErrorCollector creates a new error collector
func NewFixtureErrorCollector(maxErrors int, continueOnError bool) *FixtureErrorCollector {
	return &FixtureErrorCollector{
		errors:          make([]*FixtureError, 0),
		maxErrors:       maxErrors,
		continueOnError: continueOnError,
	}
}

// Add adds an error to the collector and reports whether loading should continue
func (c *FixtureErrorCollector) Add(err *FixtureError) bool {
	if err == nil {
		return true
	}

	c.errors = append(c.errors, err)

	if c.maxErrors > 0 && len(c.errors) >= c.maxErrors {
		return false
	}

	return c.continueOnError || err.Recoverable
}

// HasErrors returns true if any errors have been collected
func (c *FixtureErrorCollector) HasErrors() bool {
	return len(c.errors) > 0
}

// GetErrors returns all collected errors
func (c *FixtureErrorCollector) GetErrors() []*FixtureError {
	return c.errors
}

// GetSummary returns an error summary for all collected errors
func (c *FixtureErrorCollector) GetSummary() *ErrorSummary {
	result := make([]*LinkerError, len(c.errors))
	for i, err := range c.errors {
		result[i] = err.LinkerError
	}
	return NewErrorSummary(result)
}

// Err returns nil when nothing was collected, the single error, or the summary
func (c *FixtureErrorCollector) Err() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return fmt.Errorf("%s\n%s", c.GetSummary().Error(), FormatFixtureErrors(c.errors))
	}
}

// FormatFixtureErrors formats multiple fixture errors in a user-friendly way
func FormatFixtureErrors(errs []*FixtureError) string {
	if len(errs) == 0 {
		return "No fixture errors"
	}

	if len(errs) == 1 {
		return errs[0].GetDetailedError()
	}

	lines := []string{fmt.Sprintf("Found %d fixture errors:", len(errs))}

	maxDetailed := 3
	for i, err := range errs {
		if i == maxDetailed {
			lines = append(lines, "", fmt.Sprintf("... and %d more errors", len(errs)-maxDetailed))
			break
		}
		lines = append(lines, "", err.GetDetailedError())
	}

	return strings.Join(lines, "\n")
}
