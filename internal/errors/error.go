package errors

import (
	"bufio"
	"fmt"
	"os"
)

// Category represents the type of error.
type Category string

const (
	CategoryConfig     Category = "config"
	CategoryConnection Category = "connection"
	CategoryTranscript Category = "transcript"
	CategoryCLI        Category = "cli"
)

// Location is a position in a file, such as a config syntax error.
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

// WstaskError is a structured error with a code, an optional file location
// and a suggestion.
type WstaskError struct {
	// Code is a unique error identifier (e.g., "W101").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Location is the file position where the error occurred.
	Location *Location

	// Context contains the file lines surrounding Location.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *WstaskError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *WstaskError) Unwrap() error {
	return e.Wrapped
}

// WithLocation adds a file location and the lines around it.
func (e *WstaskError) WithLocation(file string, line, column int) *WstaskError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line)
	return e
}

// WithOffset converts a byte offset in data, as reported by encoding/json,
// into a line and column location.
func (e *WstaskError) WithOffset(file string, data []byte, offset int64) *WstaskError {
	line, col := 1, 1
	for i := int64(0); i < offset && i < int64(len(data)); i++ {
		if data[i] == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return e.WithLocation(file, line, col)
}

// WithSuggestion adds a fix suggestion to the error.
func (e *WstaskError) WithSuggestion(s string) *WstaskError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the registered explanation.
func (e *WstaskError) WithDetail(d string) *WstaskError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *WstaskError) Wrap(err error) *WstaskError {
	e.Wrapped = err
	return e
}

// contextRadius is the number of lines shown on each side of a location.
const contextRadius = 2

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextRadius
	endLine := targetLine + contextRadius

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a WstaskError from a registered error code.
func New(code string) *WstaskError {
	template, ok := registry[code]
	if !ok {
		return &WstaskError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &WstaskError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a WstaskError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *WstaskError {
	return &WstaskError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps err in a WstaskError with the given code. Errors that
// already are WstaskErrors are returned unchanged.
func FromError(err error, code string) *WstaskError {
	if err == nil {
		return nil
	}
	if we, ok := err.(*WstaskError); ok {
		return we
	}
	return New(code).Wrap(err)
}
