package sqliteengine

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, config Config) *Engine {
	t.Helper()
	config.Logger = log.NewDiscardLogger()
	if config.Directory == "" {
		config.Directory = t.TempDir()
	}
	e, err := New(config)
	require.NoError(t, err)
	require.NoError(t, e.Check())
	return e
}

func openTestHandle(t *testing.T, e *Engine, name string) engine.Handle {
	t.Helper()
	h, err := e.Open(context.Background(), name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func exec(t *testing.T, h engine.Handle, query string, params ...any) engine.Response {
	t.Helper()
	resp, err := h.Execute(context.Background(), engine.Request{Query: query, Params: params})
	require.NoError(t, err, query)
	return resp
}

func TestNew(t *testing.T) {
	t.Run("RequiresLogger", func(t *testing.T) {
		_, err := New(Config{Directory: t.TempDir()})
		assert.Error(t, err)
	})

	t.Run("RequiresDirectory", func(t *testing.T) {
		_, err := New(Config{Logger: log.NewDiscardLogger()})
		assert.Error(t, err)
	})

	t.Run("InMemoryNeedsNoDirectory", func(t *testing.T) {
		e, err := New(Config{Logger: log.NewDiscardLogger(), InMemory: true})
		require.NoError(t, err)
		assert.Equal(t, DriverSQLite3, e.Driver)
	})

	t.Run("UnknownDriver", func(t *testing.T) {
		_, err := New(Config{
			Logger: log.NewDiscardLogger(),
			Driver: Driver{Value: "postgres"},
		})
		assert.Error(t, err)
	})

	t.Run("CreatesDirectory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "data")
		_, err := New(Config{Logger: log.NewDiscardLogger(), Directory: dir})
		require.NoError(t, err)
		assert.DirExists(t, dir)
	})
}

func TestEngine_Check(t *testing.T) {
	e := newTestEngine(t, Config{})
	assert.NoError(t, e.Check())

	remote := newTestEngine(t, Config{Driver: DriverNSQLite})
	assert.NoError(t, remote.Check())
}

func TestEngine_dsn(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		dbName  string
		want    string
		wantErr bool
	}{
		{
			name:   "file with optimizations",
			config: Config{Directory: "data"},
			dbName: "main.db",
			want:   "file:data/main.db?_busy_timeout=5000&_cache_size=10000&_foreign_keys=true&_journal_mode=WAL&_synchronous=NORMAL",
		},
		{
			name:   "file without optimizations",
			config: Config{Directory: "data", DisableOptimizations: true},
			dbName: "main.db",
			want:   "file:data/main.db?_busy_timeout=5000&_foreign_keys=true",
		},
		{
			name:   "in memory",
			config: Config{InMemory: true},
			dbName: "main.db",
			want:   "file:main.db?_busy_timeout=5000&_foreign_keys=true&mode=memory",
		},
		{
			name:   "remote",
			config: Config{Driver: DriverNSQLite},
			dbName: "http://localhost:9876?authToken=secret",
			want:   "http://localhost:9876?authToken=secret",
		},
		{name: "path traversal", config: Config{Directory: "data"}, dbName: "../main.db", wantErr: true},
		{name: "query string", config: Config{Directory: "data"}, dbName: "main.db?mode=ro", wantErr: true},
		{name: "empty", config: Config{Directory: "data"}, dbName: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.config.Driver.Value == "" {
				tt.config.Driver = DriverSQLite3
			}
			e := &Engine{Config: tt.config}
			got, err := e.dsn(tt.dbName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHandle_Execute(t *testing.T) {
	e := newTestEngine(t, Config{})
	h := openTestHandle(t, e, "engine.db")

	t.Run("ControlStatements", func(t *testing.T) {
		assert.Equal(t, engine.QueryTypeBegin, exec(t, h, "BEGIN").Type)
		assert.Equal(t, engine.QueryTypeCommit, exec(t, h, "COMMIT").Type)
		assert.Equal(t, engine.QueryTypeBegin, exec(t, h, "begin deferred").Type)
		assert.Equal(t, engine.QueryTypeRollback, exec(t, h, "ROLLBACK").Type)
	})

	t.Run("WritesAndReads", func(t *testing.T) {
		resp := exec(t, h, "CREATE TABLE pets (id INTEGER PRIMARY KEY, name TEXT, weight REAL)")
		assert.Equal(t, engine.QueryTypeWrite, resp.Type)
		assert.Equal(t, int64(0), resp.RowsAffected)

		resp = exec(t, h, "INSERT INTO pets (name, weight) VALUES (?, ?)", "rex", 12.5)
		assert.Equal(t, engine.QueryTypeWrite, resp.Type)
		assert.Equal(t, int64(1), resp.LastInsertID)
		assert.Equal(t, int64(1), resp.RowsAffected)

		resp = exec(t, h, "INSERT INTO pets (name, weight) VALUES (?, NULL)", "tom")
		assert.Equal(t, int64(2), resp.LastInsertID)

		resp = exec(t, h, "UPDATE pets SET weight = 3 WHERE weight IS NULL")
		assert.Equal(t, int64(0), resp.LastInsertID)
		assert.Equal(t, int64(1), resp.RowsAffected)

		resp = exec(t, h, "INSERT INTO pets (name) SELECT name FROM pets WHERE id > 100")
		assert.Equal(t, int64(0), resp.LastInsertID)
		assert.Equal(t, int64(0), resp.RowsAffected)

		resp = exec(t, h, "SELECT id, name, weight FROM pets ORDER BY id")
		assert.Equal(t, engine.QueryTypeRead, resp.Type)
		assert.Equal(t, []string{"id", "name", "weight"}, resp.Columns)
		assert.Equal(t, [][]any{
			{int64(1), "rex", 12.5},
			{int64(2), "tom", float64(3)},
		}, resp.Rows)

		resp = exec(t, h, "SELECT * FROM pets WHERE id > 100")
		assert.Empty(t, resp.Rows)
		assert.NotNil(t, resp.Rows)
	})

	t.Run("ReadOnlyRejectsWrites", func(t *testing.T) {
		_, err := h.Execute(context.Background(), engine.Request{
			Query:    "DELETE FROM pets",
			ReadOnly: true,
		})
		assert.ErrorIs(t, err, engine.ErrReadOnly)

		resp, err := h.Execute(context.Background(), engine.Request{
			Query:    "SELECT COUNT(*) FROM pets",
			ReadOnly: true,
		})
		require.NoError(t, err)
		assert.Equal(t, [][]any{{int64(2)}}, resp.Rows)
	})

	t.Run("ReadOnlyCoversEveryStatement", func(t *testing.T) {
		_, err := h.Execute(context.Background(), engine.Request{
			Query:    "SELECT 1; DELETE FROM pets",
			ReadOnly: true,
		})
		assert.ErrorIs(t, err, engine.ErrReadOnly)
		assert.Equal(t, [][]any{{int64(2)}}, exec(t, h, "SELECT COUNT(*) FROM pets").Rows)

		resp := exec(t, h, "UPDATE pets SET weight = weight WHERE id = 1")
		assert.Equal(t, int64(1), resp.RowsAffected, "writes work again after a read-only statement")
	})

	t.Run("WithClauseWrites", func(t *testing.T) {
		exec(t, h, "CREATE TABLE toys (id INTEGER PRIMARY KEY, name TEXT)")
		exec(t, h, "INSERT INTO toys (name) VALUES ('ball'), ('rope'), ('bone')")

		resp := exec(t, h, "WITH n AS (SELECT 'stick' AS name) INSERT INTO toys (name) SELECT name FROM n")
		assert.Equal(t, int64(4), resp.LastInsertID)
		assert.Equal(t, int64(1), resp.RowsAffected)

		resp = exec(t, h, "WITH x AS (SELECT 1 AS id) DELETE FROM toys WHERE id IN (SELECT id FROM x UNION SELECT 2)")
		assert.Equal(t, int64(0), resp.LastInsertID)
		assert.Equal(t, int64(2), resp.RowsAffected)

		resp = exec(t, h, "WITH x AS (SELECT 3 AS id) UPDATE toys SET name = 'chew' WHERE id IN (SELECT id FROM x)")
		assert.Equal(t, int64(0), resp.LastInsertID)
		assert.Equal(t, int64(1), resp.RowsAffected)

		resp = exec(t, h, "CREATE TABLE bins (id INTEGER PRIMARY KEY)")
		assert.Equal(t, int64(0), resp.RowsAffected)
	})

	t.Run("ErrorCodes", func(t *testing.T) {
		exec(t, h, "CREATE TABLE tags (name TEXT UNIQUE NOT NULL)")
		exec(t, h, "INSERT INTO tags VALUES ('a')")

		tests := []struct {
			name  string
			query string
			code  engine.ErrorCode
		}{
			{name: "syntax", query: "SELEKT 1", code: engine.CodeSyntax},
			{name: "missing table", query: "SELECT * FROM nope", code: engine.CodeSyntax},
			{name: "unique", query: "INSERT INTO tags VALUES ('a')", code: engine.CodeConstraint},
			{name: "not null", query: "INSERT INTO tags VALUES (NULL)", code: engine.CodeConstraint},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := h.Execute(context.Background(), engine.Request{Query: tt.query})
				require.Error(t, err)
				assert.Equal(t, tt.code, engine.CodeOf(err))
			})
		}
	})
}

func TestHandle_Close(t *testing.T) {
	e := newTestEngine(t, Config{InMemory: true})
	h, err := e.Open(context.Background(), "close.db")
	require.NoError(t, err)

	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	_, err = h.Execute(context.Background(), engine.Request{Query: "SELECT 1"})
	assert.Error(t, err)
}

func TestEngine_InMemoryIsPrivate(t *testing.T) {
	e := newTestEngine(t, Config{InMemory: true})

	first := openTestHandle(t, e, "shared.db")
	exec(t, first, "CREATE TABLE t (v TEXT)")

	second := openTestHandle(t, e, "shared.db")
	_, err := second.Execute(context.Background(), engine.Request{Query: "SELECT * FROM t"})
	require.Error(t, err)
	assert.Equal(t, engine.CodeSyntax, engine.CodeOf(err))
}

func TestEngine_FilePersists(t *testing.T) {
	e := newTestEngine(t, Config{})

	h, err := e.Open(context.Background(), "persist.db")
	require.NoError(t, err)
	exec(t, h, "CREATE TABLE t (v TEXT)")
	exec(t, h, "INSERT INTO t VALUES ('kept')")
	require.NoError(t, h.Close())

	assert.FileExists(t, filepath.Join(e.Directory, "persist.db"))

	reopened := openTestHandle(t, e, "persist.db")
	resp := exec(t, reopened, "SELECT v FROM t")
	assert.Equal(t, [][]any{{"kept"}}, resp.Rows)
}
