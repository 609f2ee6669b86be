package websql

import (
	"errors"
	"fmt"

	"github.com/nsqlite/quickwebsql/internal/engine"
)

var (
	// ErrNameRequired is returned by OpenDatabase when no name is given.
	ErrNameRequired = errors.New(`database name is required, be sure to call OpenDatabase("myname.db")`)
	// ErrDatabaseClosed is delivered to transactions requested after Close.
	ErrDatabaseClosed = errors.New("database is closed")
	// ErrTransactionFinished is delivered to statements submitted after their
	// transaction reached a terminal state.
	ErrTransactionFinished = errors.New("transaction already finished")
)

// ErrorCode is the WebSQL SQLError code of an EngineError.
type ErrorCode = engine.ErrorCode

const (
	UnknownErr    = engine.CodeUnknown
	DatabaseErr   = engine.CodeDatabase
	VersionErr    = engine.CodeVersion
	TooLargeErr   = engine.CodeTooLarge
	QuotaErr      = engine.CodeQuota
	SyntaxErr     = engine.CodeSyntax
	ConstraintErr = engine.CodeConstraint
	TimeoutErr    = engine.CodeTimeout
)

// EngineError is the normalized failure of a statement or a transaction.
type EngineError struct {
	Code    ErrorCode
	Message string
	cause   error
}

// NewEngineError normalizes failure into an EngineError. Failure may be an
// error, a raw message or any value recovered from a panic.
func NewEngineError(failure any) *EngineError {
	switch f := failure.(type) {
	case nil:
		return &EngineError{Code: UnknownErr, Message: "unknown error"}
	case *EngineError:
		return f
	case error:
		return &EngineError{Code: engine.CodeOf(f), Message: f.Error(), cause: f}
	case string:
		return &EngineError{Code: UnknownErr, Message: f}
	default:
		return &EngineError{Code: UnknownErr, Message: fmt.Sprintf("%v", f)}
	}
}

func (e *EngineError) Error() string {
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.cause
}
