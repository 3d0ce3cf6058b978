package errors

import (
	"bufio"
	stderrors "errors"
	"fmt"
	"os"
	"strings"
)

// Category represents the type of error.
type Category string

const (
	CategoryUsage  Category = "usage"
	CategoryConfig Category = "config"
	CategoryCLI    Category = "cli"
)

// Severity distinguishes advisory diagnostics from hard failures.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Location represents a source code location.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ReactiveError is a coded error with optional source location and hints.
type ReactiveError struct {
	// Code is a unique error identifier (e.g., "R002").
	Code string

	Category Category
	Severity Severity

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is where the offending call was made, when known.
	Location *Location

	// Context contains surrounding source code lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Example is code showing the correct approach.
	Example string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *ReactiveError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return e.Code + ": " + msg
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *ReactiveError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds source location to the error.
func (e *ReactiveError) WithLocation(file string, line, column int) *ReactiveError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, contextRadius)
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *ReactiveError) WithSuggestion(s string) *ReactiveError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *ReactiveError) WithDetail(d string) *ReactiveError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *ReactiveError) WithDetailf(format string, args ...any) *ReactiveError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *ReactiveError) Wrap(err error) *ReactiveError {
	e.Wrapped = err
	return e
}

// readContextLines returns the lines of filename from radius lines before
// target to radius lines after it, clipped to the file.
func readContextLines(filename string, target, radius int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	first := max(1, target-radius)
	last := target + radius
	var lines []string
	scanner := bufio.NewScanner(file)
	for n := 1; n <= last && scanner.Scan(); n++ {
		if n >= first {
			lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
		}
	}
	return lines
}

// New creates a ReactiveError from a registered error code.
func New(code string) *ReactiveError {
	template, ok := registry[code]
	if !ok {
		return &ReactiveError{
			Code:     code,
			Severity: SeverityError,
			Message:  "Unknown error",
		}
	}
	return &ReactiveError{
		Code:       code,
		Category:   template.Category,
		Severity:   template.Severity,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
		Example:    template.Example,
		DocURL:     template.DocURL,
	}
}

// Newf creates a new ReactiveError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *ReactiveError {
	return &ReactiveError{
		Category: category,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError returns err as a ReactiveError, wrapping it under code when it
// is not one already. A ReactiveError anywhere in err's chain is returned
// as is.
func FromError(err error, code string) *ReactiveError {
	if err == nil {
		return nil
	}
	var re *ReactiveError
	if stderrors.As(err, &re) {
		return re
	}
	return New(code).Wrap(err)
}
