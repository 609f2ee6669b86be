package engine

import (
	"errors"
	"fmt"
)

// ErrorCode classifies an engine failure using the WebSQL SQLError codes.
type ErrorCode int

const (
	CodeUnknown    ErrorCode = 0
	CodeDatabase   ErrorCode = 1
	CodeVersion    ErrorCode = 2
	CodeTooLarge   ErrorCode = 3
	CodeQuota      ErrorCode = 4
	CodeSyntax     ErrorCode = 5
	CodeConstraint ErrorCode = 6
	CodeTimeout    ErrorCode = 7
)

// Error is a classified failure returned by a Handle.
type Error struct {
	Code ErrorCode
	Err  error
}

// NewError wraps err with the given code.
func NewError(code ErrorCode, err error) *Error {
	return &Error{Code: code, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("engine error %d", e.Code)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code carried by err, CodeDatabase for ErrReadOnly and
// CodeUnknown for anything else.
func CodeOf(err error) ErrorCode {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		return engineErr.Code
	}
	if errors.Is(err, ErrReadOnly) {
		return CodeDatabase
	}
	return CodeUnknown
}
