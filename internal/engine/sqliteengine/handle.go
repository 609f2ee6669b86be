package sqliteengine

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/log"
)

// Handle is one open database with a single pinned connection. It is not
// safe for concurrent use.
type Handle struct {
	name   string
	driver Driver
	logger log.Logger
	db     *sqlx.DB
	conn   *sqlx.Conn
	closed bool
}

var _ engine.Handle = (*Handle)(nil)

// Execute runs req to completion on the pinned connection.
func (h *Handle) Execute(ctx context.Context, req engine.Request) (engine.Response, error) {
	if h.closed {
		return engine.Response{}, errors.New("handle is closed")
	}

	typeOfQuery, err := h.detectQueryType(ctx, req.Query)
	if err != nil {
		return engine.Response{}, fmt.Errorf("failed to detect query type: %w", classify(err))
	}

	if typeOfQuery == engine.QueryTypeUnknown || !engine.QueryTypes.Contains(typeOfQuery) {
		return engine.Response{}, fmt.Errorf("unknown query type: %s", typeOfQuery.Value)
	}

	switch typeOfQuery {
	case engine.QueryTypeBegin, engine.QueryTypeCommit, engine.QueryTypeRollback:
		return h.executeControl(ctx, typeOfQuery, req)
	}

	if req.ReadOnly {
		if typeOfQuery == engine.QueryTypeWrite {
			return engine.Response{}, engine.ErrReadOnly
		}
		restore, err := h.enterQueryOnly(ctx)
		if err != nil {
			return engine.Response{}, err
		}
		defer restore()
	}

	var resp engine.Response
	if typeOfQuery == engine.QueryTypeRead {
		resp, err = h.executeRead(ctx, req)
	} else {
		resp, err = h.executeWrite(ctx, req)
	}
	if err != nil && req.ReadOnly && isReadonlyErr(err) {
		return engine.Response{}, engine.ErrReadOnly
	}
	return resp, err
}

// enterQueryOnly makes the connection refuse every write until the returned
// func is called. Only the first statement of a query is prepared to detect
// its type, the pragma also covers the statements that follow it.
func (h *Handle) enterQueryOnly(ctx context.Context) (func(), error) {
	if h.driver != DriverSQLite3 {
		return func() {}, nil
	}

	if _, err := h.conn.ExecContext(ctx, "PRAGMA query_only = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable query_only: %w", classify(err))
	}
	return func() {
		if _, err := h.conn.ExecContext(context.WithoutCancel(ctx), "PRAGMA query_only = OFF"); err != nil {
			h.logger.ErrorNs(log.NsEngine, "failed to disable query_only", log.KV{
				"name":  h.name,
				"error": err.Error(),
			})
		}
	}, nil
}

// isReadonlyErr reports whether SQLite refused a write.
func isReadonlyErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrReadonly
}

// Close releases the pinned connection and the pool behind it. Calling it
// again is a no-op.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true

	if err := h.conn.Close(); err != nil {
		_ = h.db.Close()
		return fmt.Errorf("failed to close connection: %w", err)
	}
	if err := h.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	h.logger.DebugNs(log.NsEngine, "handle closed", log.KV{"name": h.name})
	return nil
}

// detectQueryType detects the type of query between read, write, begin,
// commit, and rollback.
func (h *Handle) detectQueryType(
	ctx context.Context, query string,
) (engine.QueryType, error) {
	if control := engine.DetectControlType(query); control != engine.QueryTypeUnknown {
		return control, nil
	}

	if h.driver != DriverSQLite3 {
		return detectByKeyword(query), nil
	}

	isReadOnly := false
	err := h.conn.Raw(func(driverConn any) error {
		sqliteConn, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			isReadOnly = detectByKeyword(query) == engine.QueryTypeRead
			return nil
		}
		drvStmt, err := sqliteConn.Prepare(query)
		if err != nil {
			return err
		}
		defer drvStmt.Close()
		sqliteStmt := drvStmt.(*sqlite3.SQLiteStmt)
		isReadOnly = sqliteStmt.Readonly()
		return nil
	})
	if err != nil {
		return engine.QueryTypeUnknown, fmt.Errorf("failed to prepare statement: %w", err)
	}

	if isReadOnly {
		return engine.QueryTypeRead, nil
	}
	return engine.QueryTypeWrite, nil
}

// detectByKeyword is the fallback used when the driver cannot tell whether a
// prepared statement is read-only.
func detectByKeyword(query string) engine.QueryType {
	switch engine.LeadingKeyword(query) {
	case "select", "with", "pragma", "explain", "values":
		return engine.QueryTypeRead
	}
	return engine.QueryTypeWrite
}

// executeControl runs BEGIN, COMMIT and ROLLBACK statements.
func (h *Handle) executeControl(
	ctx context.Context, typeOfQuery engine.QueryType, req engine.Request,
) (engine.Response, error) {
	if _, err := h.conn.ExecContext(ctx, req.Query); err != nil {
		return engine.Response{}, fmt.Errorf("failed to execute %s: %w", typeOfQuery.Value, classify(err))
	}
	return engine.Response{Type: typeOfQuery}, nil
}

// executeWrite runs a statement that modifies the database.
//
// The engine keeps the last insert id and the change counter of the previous
// data change, so both are reported only when the statement moved the
// connection's counters.
func (h *Handle) executeWrite(
	ctx context.Context, req engine.Request,
) (engine.Response, error) {
	before, countersOK := h.readCounters(ctx)

	result, err := h.conn.ExecContext(ctx, req.Query, req.Params...)
	if err != nil {
		return engine.Response{}, fmt.Errorf("failed to execute write query: %w", classify(err))
	}

	changed, inserted := engine.IsDataChange(req.Query), engine.IsInsert(req.Query)
	if countersOK {
		if after, ok := h.readCounters(ctx); ok {
			changed = after.totalChanges > before.totalChanges
			inserted = changed && (inserted || after.lastInsertID != before.lastInsertID)
		}
	}

	var lastInsertID, rowsAffected int64
	if changed {
		rowsAffected, err = result.RowsAffected()
		if err != nil {
			return engine.Response{}, fmt.Errorf("failed to get rows affected: %w", err)
		}
	}
	if inserted && rowsAffected > 0 {
		lastInsertID, err = result.LastInsertId()
		if err != nil {
			return engine.Response{}, fmt.Errorf("failed to get last insert ID: %w", err)
		}
	}

	return engine.Response{
		Type:         engine.QueryTypeWrite,
		LastInsertID: lastInsertID,
		RowsAffected: rowsAffected,
	}, nil
}

// counters is the change bookkeeping SQLite keeps per connection.
type counters struct {
	totalChanges int64
	lastInsertID int64
}

// readCounters reads the connection counters. It reports false for drivers
// that do not share them with the pinned connection, the caller then falls
// back to the statement keyword.
func (h *Handle) readCounters(ctx context.Context) (counters, bool) {
	if h.driver != DriverSQLite3 {
		return counters{}, false
	}

	var c counters
	err := h.conn.QueryRowxContext(ctx, "SELECT total_changes(), last_insert_rowid()").
		Scan(&c.totalChanges, &c.lastInsertID)
	if err != nil {
		h.logger.WarnNs(log.NsEngine, "failed to read change counters", log.KV{
			"name":  h.name,
			"error": err.Error(),
		})
		return counters{}, false
	}
	return c, true
}

// executeRead runs a statement that only reads and collects every row.
func (h *Handle) executeRead(
	ctx context.Context, req engine.Request,
) (engine.Response, error) {
	rows, err := h.conn.QueryxContext(ctx, req.Query, req.Params...)
	if err != nil {
		return engine.Response{}, fmt.Errorf("failed to execute read query: %w", classify(err))
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return engine.Response{}, fmt.Errorf("failed to get columns: %w", err)
	}

	values := [][]any{}
	for rows.Next() {
		row, err := rows.SliceScan()
		if err != nil {
			return engine.Response{}, fmt.Errorf("failed to scan row: %w", classify(err))
		}
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return engine.Response{}, fmt.Errorf("failed to read rows: %w", classify(err))
	}

	return engine.Response{
		Type:    engine.QueryTypeRead,
		Columns: columns,
		Rows:    values,
	}, nil
}

// classify attaches a WebSQL error code to SQLite failures.
func classify(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	code := engine.CodeDatabase
	switch sqliteErr.Code {
	case sqlite3.ErrConstraint:
		code = engine.CodeConstraint
	case sqlite3.ErrFull:
		code = engine.CodeQuota
	case sqlite3.ErrTooBig:
		code = engine.CodeTooLarge
	case sqlite3.ErrBusy, sqlite3.ErrLocked:
		code = engine.CodeTimeout
	case sqlite3.ErrError:
		code = engine.CodeSyntax
	}
	return engine.NewError(code, err)
}
