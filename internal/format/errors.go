package format

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat is returned when no adapter is registered for an ID.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrMalformed marks low-level syntax or structure failures.
	ErrMalformed = errors.New("malformed input")

	// ErrInvalidField marks a structurally present field whose value is
	// corrupt (hard validation failure).
	ErrInvalidField = errors.New("invalid field")
)

// ParseError reports a syntax or structural failure in a source stream.
// It matches ErrMalformed with errors.Is.
type ParseError struct {
	// Line is the 1-based line of the failure, or 0 if unknown.
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed input: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformed.
func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// FieldError reports a column value that fails hard validation.
// It matches ErrInvalidField with errors.Is.
type FieldError struct {
	// Line is the 1-based source line for line-oriented formats.
	Line int
	// Record is the 1-based record index for document formats.
	Record int

	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	var where string
	switch {
	case e.Line > 0:
		where = fmt.Sprintf("line %d: ", e.Line)
	case e.Record > 0:
		where = fmt.Sprintf("record %d: ", e.Record)
	}
	return fmt.Sprintf("%scolumn %q: invalid value %q: %v", where, e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Is reports whether target is ErrInvalidField.
func (e *FieldError) Is(target error) bool { return target == ErrInvalidField }

func malformed(line int, format string, args ...any) error {
	return &ParseError{Line: line, Err: fmt.Errorf(format, args...)}
}
