package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/pwm/internal/manager"
	"github.com/roach88/pwm/internal/record"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Lookup failure (no such record, empty search, duplicate name)
	ExitCommandError = 2 // Command error (bad config, store not initialised, storage fault)
)

// Error codes reported in CLI output.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeConfig        = "E002" // Config file unreadable or invalid
	ErrCodeNotReady      = "E003" // Store not initialised
	ErrCodeDuplicateName = "E004" // Record name already taken
	ErrCodeNoSuchRecord  = "E005" // Record not found
	ErrCodeStorage       = "E006" // Storage fault
	ErrCodeInvalidInput  = "E007" // Invalid record options
	ErrCodePassword      = "E008" // Master password could not be read
	ErrCodeNoMatches     = "E009" // Search matched nothing
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
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

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`          // "ok" or "error"
	Data   interface{} `json:"data,omitempty"`  // success payload
	Error  *CLIError   `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string      `json:"code"`              // "E001", "E002", etc.
	Message string      `json:"message"`           // human-readable message
	Details interface{} `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data interface{}) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details interface{}) error {
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

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Fail reports err through the formatter and returns the ExitError the
// command should return. Record-level failures exit 1, everything else 2.
func (f *OutputFormatter) Fail(err error) error {
	code, exit := classifyError(err)
	return f.FailWith(code, exit, err)
}

// FailWith reports err under an explicit error code and exit code.
func (f *OutputFormatter) FailWith(code string, exit int, err error) error {
	_ = f.Error(code, errorMessage(err), nil)
	return WrapExitError(exit, code, err)
}

// classifyError maps an error to its CLI error code and exit code.
func classifyError(err error) (string, int) {
	switch manager.KindOf(err) {
	case manager.KindDuplicateName:
		return ErrCodeDuplicateName, ExitFailure
	case manager.KindNoSuchRecord:
		return ErrCodeNoSuchRecord, ExitFailure
	case manager.KindNotReady:
		return ErrCodeNotReady, ExitCommandError
	case manager.KindStorageFailure:
		return ErrCodeStorage, ExitCommandError
	}

	switch {
	case errors.Is(err, record.ErrEmptyName),
		errors.Is(err, record.ErrInvalidKeyLength),
		errors.Is(err, record.ErrInvalidAlphabet):
		return ErrCodeInvalidInput, ExitCommandError
	}
	return ErrCodeGeneric, ExitCommandError
}

// errorMessage renders err for users. Kinds get a fixed wording so that
// nothing below the facade reaches the terminal.
func errorMessage(err error) string {
	var e *manager.Error
	if errors.As(err, &e) {
		switch e.Kind {
		case manager.KindDuplicateName:
			return fmt.Sprintf("a record named %q already exists", e.Name)
		case manager.KindNoSuchRecord:
			return fmt.Sprintf("no record named %q", e.Name)
		case manager.KindNotReady:
			return "store is not initialised (run 'pwm init')"
		case manager.KindStorageFailure:
			return "storage failure (run with --verbose for details)"
		}
	}
	return err.Error()
}
