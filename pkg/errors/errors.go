// Package errors provides coded errors for the kgview pipeline.
//
// Every stage of the pipeline fails with an *Error carrying one of the codes
// below. Errors are never recovered locally; they propagate to the caller
// unchanged, so the code observed at the CLI or HTTP layer is the code of the
// stage that failed.
//
//	err := errors.Wrap(errors.ErrCodeFileRead, cause, "open %s", path)
//	if errors.Is(err, errors.ErrCodeFileRead) {
//	    // path missing or unreadable
//	}
package errors

import (
	"errors"
	"fmt"
)

// Code is a machine-readable error code.
type Code string

const (
	// ErrCodeFileRead marks a missing or unreadable input file.
	ErrCodeFileRead Code = "FILE_READ"
	// ErrCodeParse marks content that does not match the expected schema.
	ErrCodeParse Code = "PARSE"
	// ErrCodeTypeConversion marks an identifier that is not integer-parseable.
	ErrCodeTypeConversion Code = "TYPE_CONVERSION"
	// ErrCodeEmptyResult marks a gene set lookup with no rows, when requested.
	ErrCodeEmptyResult Code = "EMPTY_RESULT"
	// ErrCodeDuplicateIndex marks conflicting node_index rows in strict mode.
	ErrCodeDuplicateIndex Code = "DUPLICATE_INDEX"
	// ErrCodeInvalidConfig marks unusable configuration.
	ErrCodeInvalidConfig Code = "INVALID_CONFIG"
	// ErrCodeExport marks a graph that could not be encoded for output.
	ErrCodeExport Code = "EXPORT"
)

// Error is a coded error with an optional cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates an Error wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether any *Error in err's chain has the given code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode returns the code of the first *Error in err's chain, or "".
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns the message without the code prefix when err is coded.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Message, e.Cause)
		}
		return e.Message
	}
	return err.Error()
}
