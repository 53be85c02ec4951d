// Package perr defines the typed error taxonomy returned by the query
// engine, the extension/configuration layer, the time-series store, and
// the injector/unwinder subsystems. Callers type-switch or use errors.As
// against these rather than matching on string content.
package perr

import "fmt"

// Code identifies the class of failure.
type Code string

const (
	CodeInvalidRequest       Code = "invalid_request"
	CodeUnsupportedOption    Code = "unsupported_option"
	CodeInvalidOptionValue   Code = "invalid_option_value"
	CodeReadOnlyOption       Code = "read_only_option"
	CodeEngineNotInitialized Code = "engine_not_initialized"
	CodePluginError          Code = "plugin_error"
	CodeTypeMismatch         Code = "type_mismatch"
	CodeCapacityExceeded     Code = "capacity_exceeded"
	CodeInjectionError       Code = "injection_error"
	CodeBacktraceError       Code = "backtrace_error"
	CodeCompressError        Code = "compress_error"
	CodeDecompressError      Code = "decompress_error"
)

// Error is the agent's uniform error type. Op names the failing
// operation (e.g. "series.append", "injector.attach"); Code classifies
// the failure; Err, when present, wraps the underlying cause.
type Error struct {
	Code Code
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Op, e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target shares this error's Code, so callers can
// write errors.Is(err, perr.ErrTypeMismatch) style sentinels built from
// New without a wrapped cause.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == other.Code
}

// New builds an *Error with no wrapped cause.
func New(code Code, op, msg string) *Error {
	return &Error{Code: code, Op: op, Msg: msg}
}

// Wrap builds an *Error around an underlying cause.
func Wrap(code Code, op, msg string, err error) *Error {
	return &Error{Code: code, Op: op, Msg: msg, Err: err}
}

// Sentinels for errors.Is comparisons where no op-specific detail is needed.
var (
	ErrTypeMismatch         = New(CodeTypeMismatch, "", "")
	ErrCapacityExceeded     = New(CodeCapacityExceeded, "", "")
	ErrUnsupportedOption    = New(CodeUnsupportedOption, "", "")
	ErrInvalidOptionValue   = New(CodeInvalidOptionValue, "", "")
	ErrReadOnlyOption       = New(CodeReadOnlyOption, "", "")
	ErrEngineNotInitialized = New(CodeEngineNotInitialized, "", "")
)
