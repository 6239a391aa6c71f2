package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcwdsi/rt2n4j/internal/config"
	"github.com/mcwdsi/rt2n4j/internal/ir"
	"github.com/mcwdsi/rt2n4j/internal/mapper"
	"github.com/mcwdsi/rt2n4j/internal/tuplefile"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Operation failed (not found, dangling reference, failed scenarios)
	ExitCommandError = 2 // Command error (bad arguments, unreadable files, unreachable backend)
)

// CLI error codes for failures that are not mapper errors.
const (
	ErrCodeGeneric = "E001"
	ErrCodeConfig  = "E002"
	ErrCodeInput   = "E003"
	ErrCodeBackend = "E004"
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
	ErrCode string // Reported error code (optional, see ErrorCode)

	printed bool // already reported in the command's own output
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// inputError reports an unreadable or malformed input file.
func inputError(message string, err error) *ExitError {
	return &ExitError{Code: ExitCommandError, Message: message, Err: err, ErrCode: ErrCodeInput}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// ErrorCode returns the code reported for err: the mapper error code for
// mapping failures, ErrCodeConfig for configuration errors, the code an
// ExitError carries, and ErrCodeGeneric otherwise.
func ErrorCode(err error) string {
	var me *mapper.MappingError
	if errors.As(err, &me) {
		return string(me.Code)
	}
	var le *config.LoadError
	if errors.As(err, &le) {
		return ErrCodeConfig
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) && exitErr.ErrCode != "" {
		return exitErr.ErrCode
	}
	return ErrCodeGeneric
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format  string
	Writer  io.Writer
	Verbose bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // mapper code or "E001", "E002", ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Tuples outputs tuples as YAML documents (text) or a JSON list.
func (f *OutputFormatter) Tuples(tuples []ir.Tuple) error {
	if f.Format != "json" {
		if len(tuples) == 0 {
			fmt.Fprintln(f.Writer, "No tuples found.")
			return nil
		}
		return tuplefile.Encode(f.Writer, tuples)
	}

	docs := make([]map[string]any, 0, len(tuples))
	for _, t := range tuples {
		doc, err := tuplefile.Fields(t)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
	}
	return f.Success(docs)
}

// Ruis outputs identifiers, one per line in text mode.
func (f *OutputFormatter) Ruis(ruis []ir.Rui) error {
	out := make([]string, 0, len(ruis))
	for _, r := range ruis {
		out = append(out, r.String())
	}
	if f.Format == "json" {
		return f.Success(out)
	}
	for _, s := range out {
		fmt.Fprintln(f.Writer, s)
	}
	return nil
}

// newLogger builds the process logger: JSON records for --format json,
// text otherwise, at debug level when verbose.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
