// Package engine defines the contract of the synchronous SQL engine that
// quickwebsql drives. Implementations execute one statement per call,
// blocking until it finishes.
package engine

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"github.com/orsinium-labs/enum"
)

// ErrReadOnly is returned by a Handle when a statement that writes is
// executed with Request.ReadOnly set.
var ErrReadOnly = errors.New("could not prepare statement (23 not authorized)")

// Engine opens handles to named databases.
type Engine interface {
	// Check reports whether the engine binding is usable. It is called once
	// before any handle is opened.
	Check() error
	// Open opens the database identified by name. The returned Handle is
	// exclusively owned by the caller.
	Open(ctx context.Context, name string) (Handle, error)
}

// Handle is one open database. Implementations are not required to be safe
// for concurrent use.
type Handle interface {
	// Execute runs a single statement to completion.
	Execute(ctx context.Context, req Request) (Response, error)
	// Close releases the handle.
	Close() error
}

// Request is a single statement to execute.
type Request struct {
	Query    string
	Params   []any
	ReadOnly bool
}

// Response is the outcome of a successful Execute call. Rows are positional
// and line up with Columns.
type Response struct {
	Type         QueryType
	Columns      []string
	Rows         [][]any
	LastInsertID int64
	RowsAffected int64
}

// QueryType represents the type of a given SQL statement.
type QueryType enum.Member[string]

var (
	QueryTypeUnknown  = QueryType{Value: "unknown"}
	QueryTypeRead     = QueryType{Value: "read"}
	QueryTypeWrite    = QueryType{Value: "write"}
	QueryTypeBegin    = QueryType{Value: "begin"}
	QueryTypeCommit   = QueryType{Value: "commit"}
	QueryTypeRollback = QueryType{Value: "rollback"}

	QueryTypes = enum.New(
		QueryTypeUnknown,
		QueryTypeRead,
		QueryTypeWrite,
		QueryTypeBegin,
		QueryTypeCommit,
		QueryTypeRollback,
	)
)

// DetectControlType detects transaction control statements by their leading
// keyword. Any other statement is reported as QueryTypeUnknown.
func DetectControlType(query string) QueryType {
	trimmed := strings.ToLower(strings.TrimSpace(query))

	switch {
	case strings.HasPrefix(trimmed, "begin"):
		return QueryTypeBegin
	case strings.HasPrefix(trimmed, "commit"), strings.HasPrefix(trimmed, "end"):
		return QueryTypeCommit
	case strings.HasPrefix(trimmed, "rollback"):
		return QueryTypeRollback
	}
	return QueryTypeUnknown
}

// LeadingKeyword returns the first keyword of query in lower case.
func LeadingKeyword(query string) string {
	fields := strings.FieldsFunc(strings.TrimSpace(query), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ';'
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// StatementKeyword returns the keyword of the statement itself in lower case.
// For a statement opening with a WITH clause it is the first select, insert,
// replace, update or delete found outside the common table expressions.
func StatementKeyword(query string) string {
	keyword := LeadingKeyword(query)
	if keyword != "with" {
		return keyword
	}

	depth := 0
	var closing rune
	word := []rune{}
	for _, r := range query + " " {
		if closing != 0 {
			if r == closing {
				closing = 0
			}
			continue
		}

		if depth == 0 && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$') {
			word = append(word, unicode.ToLower(r))
			continue
		}

		switch string(word) {
		case "select", "insert", "replace", "update", "delete":
			return string(word)
		}
		word = word[:0]

		switch r {
		case '\'', '"', '`':
			closing = r
		case '[':
			closing = ']'
		case '(':
			depth++
		case ')':
			depth--
		}
	}
	return keyword
}

// IsInsert reports whether the statement creates rows and may therefore
// assign a row id.
func IsInsert(query string) bool {
	switch StatementKeyword(query) {
	case "insert", "replace":
		return true
	}
	return false
}

// IsDataChange reports whether the statement changes rows directly. Other
// statements leave the engine's change counter untouched.
func IsDataChange(query string) bool {
	switch StatementKeyword(query) {
	case "insert", "replace", "update", "delete":
		return true
	}
	return false
}
