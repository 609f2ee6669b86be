// Package sqliteengine implements engine.Engine on top of SQLite through
// database/sql. Each Handle pins a single connection so that transaction
// control statements and the statements between them share one session.
package sqliteengine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/orsinium-labs/enum"

	// Registers the "nsqlite" database/sql driver for remote databases.
	_ "github.com/nsqlite/nsqlitego"
)

// ErrDriverNotRegistered is returned by Check when the configured driver is
// not linked into the binary.
var ErrDriverNotRegistered = errors.New("database driver is not registered")

// Driver is the database/sql driver used to reach the database.
type Driver enum.Member[string]

var (
	// DriverSQLite3 opens local SQLite files with mattn/go-sqlite3.
	DriverSQLite3 = Driver{Value: "sqlite3"}
	// DriverNSQLite talks to a NSQLite server, the database name being its
	// connection string.
	DriverNSQLite = Driver{Value: "nsqlite"}

	Drivers = enum.New(DriverSQLite3, DriverNSQLite)
)

// Config represents the configuration for an Engine.
type Config struct {
	// Logger is the shared logger.
	Logger log.Logger
	// Driver selects the database/sql driver, DriverSQLite3 when empty.
	Driver Driver
	// Directory is where database files are stored. Ignored for in-memory
	// and remote databases.
	Directory string
	// InMemory opens every database in memory. Data is lost on Close.
	InMemory bool
	// DisableOptimizations disables the startup performance optimizations
	// for file databases.
	DisableOptimizations bool
}

// Engine opens SQLite handles.
type Engine struct {
	Config
}

var _ engine.Engine = (*Engine)(nil)

// New creates a new Engine.
func New(config Config) (*Engine, error) {
	if !config.Logger.IsInitialized() {
		return nil, errors.New("logger is required")
	}
	if config.Driver.Value == "" {
		config.Driver = DriverSQLite3
	}
	if !Drivers.Contains(config.Driver) {
		return nil, fmt.Errorf("unknown driver %q", config.Driver.Value)
	}
	if config.Driver == DriverSQLite3 && !config.InMemory {
		if config.Directory == "" {
			return nil, errors.New("database directory is required")
		}
		if err := os.MkdirAll(config.Directory, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	return &Engine{Config: config}, nil
}

// Check verifies that the configured driver is registered.
func (e *Engine) Check() error {
	if !slices.Contains(sql.Drivers(), e.Driver.Value) {
		return fmt.Errorf("%w: %s", ErrDriverNotRegistered, e.Driver.Value)
	}

	if e.Driver == DriverSQLite3 {
		libVersion, _, _ := sqlite3.Version()
		e.Logger.DebugNs(log.NsEngine, "sqlite library loaded", log.KV{
			"version": libVersion,
		})
	}
	return nil
}

// Open opens the database called name and pins one connection to it.
func (e *Engine) Open(ctx context.Context, name string) (engine.Handle, error) {
	dsn, err := e.dsn(name)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(e.Driver.Value, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn, err := db.Connx(ctx)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to get connection: %w", err)
	}

	e.Logger.DebugNs(log.NsEngine, "handle opened", log.KV{
		"name":   name,
		"driver": e.Driver.Value,
	})

	return &Handle{
		name:   name,
		driver: e.Driver,
		logger: e.Logger,
		db:     db,
		conn:   conn,
	}, nil
}

// dsn builds the data source name for the configured driver.
func (e *Engine) dsn(name string) (string, error) {
	if e.Driver == DriverNSQLite {
		return name, nil
	}

	if name == "" || strings.ContainsAny(name, `/\?`) {
		return "", fmt.Errorf("invalid database name %q", name)
	}

	qp := url.Values{}
	qp.Add("_foreign_keys", "true")
	qp.Add("_busy_timeout", "5000")

	if e.InMemory {
		qp.Add("mode", "memory")
		return fmt.Sprintf("file:%s?%s", name, qp.Encode()), nil
	}

	if !e.DisableOptimizations {
		qp.Add("_journal_mode", "WAL")
		qp.Add("_synchronous", "NORMAL")
		qp.Add("_cache_size", "10000")
	}

	dbPath := filepath.Join(e.Directory, name)
	return fmt.Sprintf("file:%s?%s", dbPath, qp.Encode()), nil
}
