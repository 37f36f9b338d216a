package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/wallet/internal/exchange"
	"github.com/roach88/wallet/internal/format"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Transfer rejected (corrupt input, sink write failure)
	ExitCommandError = 2 // Bad flags, unknown format, missing card or group
)

// ExitError carries the process exit code for a command failure.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and message to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from err. Errors that carry no code are
// transfer failures.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter renders command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool

	// ErrWriter receives verbose diagnostics. Nil means Writer.
	ErrWriter io.Writer
}

// CLIResponse is the JSON envelope written with --format json.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError describes a failed command. Code is stable across releases.
type CLIError struct {
	Code    string        `json:"code"`
	Message string        `json:"message"`
	Details *ErrorDetails `json:"details,omitempty"`
}

// ErrorDetails locates a transfer failure in its source.
type ErrorDetails struct {
	Kind   string `json:"kind"`
	Line   int    `json:"line,omitempty"`
	Record int    `json:"record,omitempty"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
}

// Success writes data. Text mode prints it with fmt.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Fail reports err. Text mode prints details only when verbose.
func (f *OutputFormatter) Fail(err error) error {
	cliErr := &CLIError{
		Code:    errorCode(err),
		Message: err.Error(),
		Details: errorDetails(err),
	}
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: cliErr})
	}

	if _, werr := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", cliErr.Code, cliErr.Message); werr != nil {
		return werr
	}
	if f.Verbose && cliErr.Details != nil {
		d := cliErr.Details
		fmt.Fprintf(f.Writer, "Kind: %s\n", d.Kind)
		if d.Column != "" {
			fmt.Fprintf(f.Writer, "Column: %s (value %q)\n", d.Column, d.Value)
		}
	}
	return nil
}

// VerboseLog writes a diagnostic line when verbose mode is on. It never
// touches Writer when ErrWriter is set, so JSON output stays parseable.
func (f *OutputFormatter) VerboseLog(msg string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.diagnostics(), msg+"\n", args...)
}

func (f *OutputFormatter) diagnostics() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// errorCode maps a command error to a stable code.
func errorCode(err error) string {
	switch exchange.KindOf(err) {
	case exchange.KindFormat:
		return "E001"
	case exchange.KindParse:
		return "E002"
	case exchange.KindValidation:
		return "E003"
	case exchange.KindStore:
		return "E004"
	case exchange.KindSink:
		return "E005"
	}
	if GetExitCode(err) == ExitCommandError {
		return "E100"
	}
	return "E000"
}

// errorDetails is nil for errors outside the transfer taxonomy.
func errorDetails(err error) *ErrorDetails {
	kind := exchange.KindOf(err)
	if kind == exchange.KindUnknown {
		return nil
	}
	d := &ErrorDetails{Kind: kind.String()}

	var fieldErr *format.FieldError
	var parseErr *format.ParseError
	switch {
	case errors.As(err, &fieldErr):
		d.Line = fieldErr.Line
		d.Record = fieldErr.Record
		d.Column = fieldErr.Column
		d.Value = fieldErr.Value
	case errors.As(err, &parseErr):
		d.Line = parseErr.Line
	}
	return d
}
