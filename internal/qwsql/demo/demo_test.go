package demo

import (
	"context"
	"testing"
	"time"

	"github.com/nsqlite/quickwebsql/internal/engine/sqliteengine"
	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/nsqlite/quickwebsql/internal/websql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDatabase(t *testing.T) *websql.Database {
	t.Helper()

	logger := log.NewDiscardLogger()
	eng, err := sqliteengine.New(sqliteengine.Config{Logger: logger, InMemory: true})
	require.NoError(t, err)
	m, err := websql.NewManager(websql.Config{Logger: logger, Engine: eng})
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })

	db, err := m.OpenDatabase(context.Background(), "demo.db", websql.Options{}, nil)
	require.NoError(t, err)
	return db
}

func TestRun(t *testing.T) {
	db := openDatabase(t)
	want := []Employee{
		{Name: "Fidel Castro", Department: "Shipping"},
		{Name: "Bill Clinton", Department: "Shipping"},
		{Name: "Margaret Thatcher", Department: "Shipping"},
		{Name: "Donald Trump", Department: "Shipping"},
		{Name: "Zero\x00Null", Department: "Shipping"},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	t.Run("PopulatesMissingSchema", func(t *testing.T) {
		var messages []string
		employees, err := Run(ctx, db, func(msg string) { messages = append(messages, msg) })
		require.NoError(t, err)
		assert.Equal(t, want, employees)
		assert.Contains(t, messages, "Database not yet ready ... populating data")
		assert.Contains(t, messages, "Tables dropped")
	})

	t.Run("ReusesExistingSchema", func(t *testing.T) {
		var messages []string
		employees, err := Run(ctx, db, func(msg string) { messages = append(messages, msg) })
		require.NoError(t, err)
		assert.Equal(t, want, employees)
		assert.NotContains(t, messages, "Database not yet ready ... populating data")
	})

	t.Run("NilReport", func(t *testing.T) {
		employees, err := Run(ctx, db, nil)
		require.NoError(t, err)
		assert.Len(t, employees, len(want))
	})
}

func TestRun_ContextDone(t *testing.T) {
	db := openDatabase(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, db, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
