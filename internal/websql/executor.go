package websql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nsqlite/quickwebsql/internal/blobcodec"
	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/stats"
)

// executor runs single statements against a handle. String parameters are
// escaped before binding and string column values unescaped after reading,
// exactly once each.
type executor struct {
	handle engine.Handle
	stats  *stats.DBStats
}

// execute runs one statement and returns either a ResultSet or an
// EngineError, never both. Panics raised by the engine binding are recovered
// and normalized.
func (e *executor) execute(
	ctx context.Context, query string, params []any, readOnly bool,
) (rs *ResultSet, engineErr *EngineError) {
	defer func() {
		if r := recover(); r != nil {
			rs, engineErr = nil, NewEngineError(r)
		}
		if engineErr != nil {
			e.stats.IncFailures()
		}
	}()

	if strings.TrimSpace(query) == "" {
		return nil, NewEngineError(engine.NewError(engine.CodeSyntax, errors.New("sql statement is empty")))
	}

	resp, err := e.handle.Execute(ctx, engine.Request{
		Query:    query,
		Params:   blobcodec.EscapeAll(params),
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, NewEngineError(err)
	}

	switch resp.Type {
	case engine.QueryTypeRead:
		e.stats.IncReads()
	case engine.QueryTypeWrite:
		e.stats.IncWrites()
	}

	return &ResultSet{
		InsertID:     resp.LastInsertID,
		RowsAffected: resp.RowsAffected,
		Rows:         newRowList(resp.Columns, decodeRows(resp.Rows)),
	}, nil
}

// control runs a transaction control statement.
func (e *executor) control(ctx context.Context, query string) (engineErr *EngineError) {
	defer func() {
		if r := recover(); r != nil {
			engineErr = NewEngineError(r)
		}
	}()

	if _, err := e.handle.Execute(ctx, engine.Request{Query: query}); err != nil {
		return NewEngineError(fmt.Errorf("failed to %s transaction: %w", strings.ToLower(query), err))
	}
	return nil
}

// decodeRows unescapes every string value of every row in place.
func decodeRows(rows [][]any) [][]any {
	for _, row := range rows {
		for i, v := range row {
			row[i] = blobcodec.Unescape(v)
		}
	}
	return rows
}
