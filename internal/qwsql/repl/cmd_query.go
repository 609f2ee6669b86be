package repl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/qwsql/styled"
	"github.com/nsqlite/quickwebsql/internal/websql"
)

// errControlStatement is returned for BEGIN, COMMIT and ROLLBACK typed in
// the REPL, every line already being its own transaction.
var errControlStatement = errors.New("transaction control statements are not supported, every line runs in its own transaction")

func cmdQuery(r *Repl, input string) {
	db, err := r.database()
	if err != nil {
		printError(err)
		return
	}

	rs, err := runStatement(r.ctx, db, input)
	r.lastRunAt.Store(time.Now())
	if err != nil {
		printError(err)
		return
	}

	fmt.Println(renderResultSet(rs))
}

// runStatement runs input as the only statement of a transaction and waits
// for the transaction to finish.
func runStatement(ctx context.Context, db *websql.Database, input string) (*websql.ResultSet, error) {
	if engine.DetectControlType(input) != engine.QueryTypeUnknown {
		return nil, errControlStatement
	}

	var rs *websql.ResultSet
	done := make(chan error, 1)
	db.Transaction(func(tx *websql.Tx) {
		tx.ExecuteSQL(input, nil, func(_ *websql.Tx, result *websql.ResultSet) {
			rs = result
		}, nil)
	}, func(err *websql.EngineError) {
		done <- err
	}, func() {
		done <- nil
	})

	select {
	case err := <-done:
		if err != nil {
			return nil, err
		}
		return rs, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// renderResultSet renders the rows of rs, or the write counters when the
// statement returned no columns.
func renderResultSet(rs *websql.ResultSet) string {
	tw := styled.NewTableWriter()

	rows := rs.Rows.All()
	if len(rows) == 0 {
		tw.AppendHeader(table.Row{"-", "Rows Affected", "Insert ID"})
		tw.AppendRow(table.Row{"OK", rs.RowsAffected, rs.InsertID})
		return tw.Render()
	}

	header := table.Row{}
	for _, col := range rows[0].Columns {
		header = append(header, col.Name)
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		values := table.Row{}
		for _, col := range row.Columns {
			values = append(values, formatValue(col.Value))
		}
		tw.AppendRow(values)
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(rows))})

	return tw.Render()
}

// formatValue quotes strings so that control characters stay visible.
func formatValue(v any) any {
	switch value := v.(type) {
	case nil:
		return "NULL"
	case string:
		return fmt.Sprintf("%q", value)
	case []byte:
		return fmt.Sprintf("x'%x'", value)
	}
	return v
}
