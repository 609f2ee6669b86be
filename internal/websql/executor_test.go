package websql

import (
	"context"
	"errors"
	"testing"

	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T, handle *fakeHandle) *executor {
	t.Helper()
	dbStats := stats.NewDBStats()
	t.Cleanup(dbStats.Close)
	return &executor{handle: handle, stats: dbStats}
}

func TestExecutor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("EscapesParamsAndUnescapesRows", func(t *testing.T) {
		handle := newFakeHandle().script("SELECT v FROM t", fakeResult{resp: engine.Response{
			Type:    engine.QueryTypeRead,
			Columns: []string{"v", "n"},
			Rows:    [][]any{{"a\x01\x01b\x01\x02c\x02\x02", int64(7)}},
		}})
		exec := newTestExecutor(t, handle)

		_, err := exec.execute(ctx, "INSERT INTO t VALUES (?, ?)", []any{"a\x00b\x01c\x02", 3}, false)
		require.Nil(t, err)
		assert.Equal(t, []any{"a\x01\x01b\x01\x02c\x02\x02", 3}, handle.lastRequest().Params)

		rs, err := exec.execute(ctx, "SELECT v FROM t", nil, false)
		require.Nil(t, err)
		require.Equal(t, 1, rs.Rows.Len())
		row, ok := rs.Rows.Item(0)
		require.True(t, ok)
		v, _ := row.Get("v")
		n, _ := row.Get("n")
		assert.Equal(t, "a\x00b\x01c\x02", v)
		assert.Equal(t, int64(7), n)
	})

	t.Run("ReportsInsertIDAndRowsAffected", func(t *testing.T) {
		handle := newFakeHandle().script("INSERT", fakeResult{resp: engine.Response{
			Type:         engine.QueryTypeWrite,
			LastInsertID: 42,
			RowsAffected: 1,
		}})
		exec := newTestExecutor(t, handle)

		rs, err := exec.execute(ctx, "INSERT", nil, false)
		require.Nil(t, err)
		assert.Equal(t, int64(42), rs.InsertID)
		assert.Equal(t, int64(1), rs.RowsAffected)
		assert.Equal(t, 0, rs.Rows.Len())
	})

	t.Run("PassesReadOnlyFlag", func(t *testing.T) {
		handle := newFakeHandle()
		exec := newTestExecutor(t, handle)

		_, err := exec.execute(ctx, "SELECT 1", nil, true)
		require.Nil(t, err)
		assert.True(t, handle.lastRequest().ReadOnly)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		handle := newFakeHandle()
		exec := newTestExecutor(t, handle)

		rs, err := exec.execute(ctx, "  \n\t", nil, false)
		assert.Nil(t, rs)
		require.NotNil(t, err)
		assert.Equal(t, SyntaxErr, err.Code)
		assert.Empty(t, handle.log())
	})

	t.Run("NormalizesEngineErrors", func(t *testing.T) {
		handle := newFakeHandle().script("BAD", fakeResult{
			err: engine.NewError(engine.CodeSyntax, errors.New(`near "BAD": syntax error`)),
		})
		exec := newTestExecutor(t, handle)

		rs, err := exec.execute(ctx, "BAD", nil, false)
		assert.Nil(t, rs)
		require.NotNil(t, err)
		assert.Equal(t, SyntaxErr, err.Code)
		assert.Equal(t, `near "BAD": syntax error`, err.Message)
	})

	t.Run("RecoversEnginePanics", func(t *testing.T) {
		handle := newFakeHandle().script("PANIC", fakeResult{panic: "binding crashed"})
		exec := newTestExecutor(t, handle)

		rs, err := exec.execute(ctx, "PANIC", nil, false)
		assert.Nil(t, rs)
		require.NotNil(t, err)
		assert.Equal(t, UnknownErr, err.Code)
		assert.Equal(t, "binding crashed", err.Message)
		assert.Equal(t, int64(1), exec.stats.Snapshot().Totals.Failures)
	})
}

func TestExecutor_Control(t *testing.T) {
	handle := newFakeHandle().script("ROLLBACK", fakeResult{err: errors.New("no transaction is active")})
	exec := newTestExecutor(t, handle)

	assert.Nil(t, exec.control(context.Background(), "BEGIN"))

	err := exec.control(context.Background(), "ROLLBACK")
	require.NotNil(t, err)
	assert.Equal(t, "failed to rollback transaction: no transaction is active", err.Message)
}
