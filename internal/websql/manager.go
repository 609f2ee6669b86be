// Package websql exposes a WebSQL style API over a synchronous SQL engine.
//
// Databases are opened by name through a Manager. Work is submitted as
// transactions made of statements; every outcome is delivered through
// callbacks and the transactions of one database never interleave.
//
//	db, err := manager.OpenDatabase(ctx, "app.db", websql.Options{}, nil)
//	db.Transaction(func(tx *websql.Tx) {
//		tx.ExecuteSQL("INSERT INTO notes (body) VALUES (?)", []any{"hello"}, nil, nil)
//	}, onError, onSuccess)
package websql

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/log"
)

// ErrVersionMismatch is returned when a database that is already open is
// opened again with a different version.
var ErrVersionMismatch = errors.New("database version mismatch")

const (
	defaultVersion = "1.0"
	defaultSize    = 1
)

// Config represents the configuration for a Manager.
type Config struct {
	// Logger is the shared logger.
	Logger log.Logger
	// Engine opens the underlying database handles.
	Engine engine.Engine
}

// Options are the optional arguments of OpenDatabase.
type Options struct {
	// Version defaults to "1.0".
	Version string
	// Description defaults to the database name.
	Description string
	// Size is an estimated size, 1 by default. It is informational.
	Size int
}

// withDefaults fills the empty options.
func (o Options) withDefaults(name string) Options {
	if o.Size <= 0 {
		o.Size = defaultSize
	}
	if o.Description == "" {
		o.Description = name
	}
	if o.Version == "" {
		o.Version = defaultVersion
	}
	return o
}

// Manager keeps at most one open Database per name.
type Manager struct {
	Config

	mu        sync.Mutex
	databases map[string]*Database
}

// NewManager checks that the engine is usable and creates a Manager.
func NewManager(config Config) (*Manager, error) {
	if !config.Logger.IsInitialized() {
		return nil, errors.New("logger is required")
	}
	if config.Engine == nil {
		return nil, errors.New("engine is required")
	}
	if err := config.Engine.Check(); err != nil {
		return nil, fmt.Errorf("engine is not available: %w", err)
	}

	return &Manager{
		Config:    config,
		databases: make(map[string]*Database),
	}, nil
}

// OpenDatabase opens the database called name, or returns the Database
// already open under that name. onOpen, when given, is called with the
// Database before OpenDatabase returns.
func (m *Manager) OpenDatabase(
	ctx context.Context, name string, opts Options, onOpen func(*Database),
) (*Database, error) {
	if name == "" {
		return nil, ErrNameRequired
	}

	db, err := m.getOrOpen(ctx, name, opts)
	if err != nil {
		return nil, err
	}

	if onOpen != nil {
		onOpen(db)
	}
	return db, nil
}

func (m *Manager) getOrOpen(ctx context.Context, name string, opts Options) (*Database, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if db, found := m.databases[name]; found {
		if opts.Version != "" && opts.Version != db.Version() {
			return nil, fmt.Errorf(
				"%w: %q is open with version %s, requested %s",
				ErrVersionMismatch, name, db.Version(), opts.Version,
			)
		}
		return db, nil
	}

	handle, err := m.Engine.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", name, err)
	}

	db := newDatabase(ctx, name, opts.withDefaults(name), m.Logger, handle, m.forget)
	m.databases[name] = db

	m.Logger.InfoNs(log.NsManager, "database opened", log.KV{
		"name":    name,
		"version": db.Version(),
	})
	return db, nil
}

// forget drops db from the open databases once it is closed.
func (m *Manager) forget(db *Database) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, found := m.databases[db.Name()]; found && current == db {
		delete(m.databases, db.Name())
	}
}

// Databases returns the names of the open databases.
func (m *Manager) Databases() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.databases))
	for name := range m.databases {
		names = append(names, name)
	}
	return names
}

// Close closes every open database.
func (m *Manager) Close() error {
	m.mu.Lock()
	databases := make([]*Database, 0, len(m.databases))
	for _, db := range m.databases {
		databases = append(databases, db)
	}
	m.mu.Unlock()

	var errs []error
	for _, db := range databases {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
