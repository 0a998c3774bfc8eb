package errors

import "errors"

// Code identifies a structured error type used across themekeeper.
type Code string

const (
	// Generic codes
	CodeUnknown Code = "unknown"

	// Persistence errors
	CodeStoreOpen          Code = "store_open_failed"
	CodeStoreRead          Code = "store_read_failed"
	CodeStoreWrite         Code = "store_write_failed"
	CodeStoreNotReady      Code = "store_not_ready"
	CodeIncompatibleSchema Code = "incompatible_schema"

	// Theme and configuration errors
	CodeInvalidTheme       Code = "invalid_theme"
	CodeConfigurationError Code = "configuration_error"
)

// Error represents a structured error with a machine-readable code plus message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	if e.Message != "" {
		if e.Err != nil {
			return e.Message + ": " + e.Err.Error()
		}
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// New wraps an error with a code/message.
func New(code Code, msg string, err error) Error {
	return Error{Code: code, Message: msg, Err: err}
}

// CodeOf walks the error chain and returns the first structured code found.
func CodeOf(err error) Code {
	var structured Error
	if errors.As(err, &structured) {
		return structured.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error (or its unwrap chain) matches the provided code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
