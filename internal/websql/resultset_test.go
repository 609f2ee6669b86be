package websql

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowList(t *testing.T) {
	rows := newRowList(
		[]string{"id", "name"},
		[][]any{{int64(1), "ada"}, {int64(2), "linus"}},
	)

	assert.Equal(t, 2, rows.Len())

	row, ok := rows.Item(1)
	require.True(t, ok)
	name, found := row.Get("name")
	assert.True(t, found)
	assert.Equal(t, "linus", name)
	assert.Equal(t, map[string]any{"id": int64(2), "name": "linus"}, row.Map())

	for _, i := range []int{-1, 2, 100} {
		row, ok := rows.Item(i)
		assert.False(t, ok, "index %d", i)
		assert.Empty(t, row.Columns)
	}

	all := rows.All()
	require.Len(t, all, 2)
	all[0] = Row{}
	first, _ := rows.Item(0)
	assert.Len(t, first.Columns, 2)
}

func TestRowList_Nil(t *testing.T) {
	var rows *RowList
	assert.Equal(t, 0, rows.Len())
	_, ok := rows.Item(0)
	assert.False(t, ok)
	assert.Empty(t, rows.All())
}

func TestRow_DuplicateColumns(t *testing.T) {
	rows := newRowList([]string{"id", "id"}, [][]any{{int64(1), int64(2)}})
	row, _ := rows.Item(0)

	id, found := row.Get("id")
	assert.True(t, found)
	assert.Equal(t, int64(2), id)
	assert.Len(t, row.Columns, 2)

	_, found = row.Get("missing")
	assert.False(t, found)
}

func TestNewEngineError(t *testing.T) {
	classified := engine.NewError(engine.CodeConstraint, errors.New("UNIQUE constraint failed"))
	existing := &EngineError{Code: QuotaErr, Message: "full"}

	tests := []struct {
		name        string
		failure     any
		wantCode    ErrorCode
		wantMessage string
	}{
		{name: "nil", failure: nil, wantCode: UnknownErr, wantMessage: "unknown error"},
		{name: "string", failure: "raw engine message", wantCode: UnknownErr, wantMessage: "raw engine message"},
		{name: "plain error", failure: errors.New("boom"), wantCode: UnknownErr, wantMessage: "boom"},
		{
			name:        "classified error",
			failure:     fmt.Errorf("failed to execute write query: %w", classified),
			wantCode:    ConstraintErr,
			wantMessage: "failed to execute write query: UNIQUE constraint failed",
		},
		{name: "read only", failure: engine.ErrReadOnly, wantCode: DatabaseErr, wantMessage: engine.ErrReadOnly.Error()},
		{name: "engine error", failure: existing, wantCode: QuotaErr, wantMessage: "full"},
		{name: "other value", failure: 42, wantCode: UnknownErr, wantMessage: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEngineError(tt.failure)
			assert.Equal(t, tt.wantCode, got.Code)
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.Equal(t, tt.wantMessage, got.Error())
		})
	}

	assert.Same(t, existing, NewEngineError(existing))
	assert.ErrorIs(t, NewEngineError(classified), classified)
}
