package websql

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/nsqlite/quickwebsql/internal/stats"
)

// Database owns one open engine handle and runs the transactions requested
// on it one after the other on a dedicated worker goroutine.
type Database struct {
	name        string
	version     string
	description string
	size        int

	logger log.Logger
	handle engine.Handle
	exec   *executor
	stats  *stats.DBStats

	ctx    context.Context
	cancel context.CancelFunc

	queueMutex sync.Mutex
	queue      []txRequest
	closed     bool
	wake       chan struct{}
	done       chan struct{}
	onClose    func(*Database)
}

// txRequest is a transaction waiting for the worker.
type txRequest struct {
	readOnly  bool
	setup     SetupFunc
	onError   ErrorCallback
	onSuccess SuccessCallback
}

func newDatabase(
	ctx context.Context,
	name string,
	opts Options,
	logger log.Logger,
	handle engine.Handle,
	onClose func(*Database),
) *Database {
	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	dbStats := stats.NewDBStats()

	db := &Database{
		name:        name,
		version:     opts.Version,
		description: opts.Description,
		size:        opts.Size,
		logger:      logger,
		handle:      handle,
		exec:        &executor{handle: handle, stats: dbStats},
		stats:       dbStats,
		ctx:         ctx,
		cancel:      cancel,
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
		onClose:     onClose,
	}

	go db.processQueue()
	return db
}

// Name returns the name the database was opened with.
func (db *Database) Name() string { return db.name }

// Version returns the database version, "1.0" unless given at open.
func (db *Database) Version() string { return db.version }

// Description returns the description, the name unless given at open.
func (db *Database) Description() string { return db.description }

// Size returns the estimated size given at open, 1 by default.
func (db *Database) Size() int { return db.size }

// Stats returns the statement and transaction counters of the database.
func (db *Database) Stats() stats.Snapshot {
	return db.stats.Snapshot()
}

// Transaction queues a read-write transaction and returns immediately. setup
// runs once on the worker with the transaction; onSuccess or onError, both
// optional, is called exactly once when the transaction finished.
func (db *Database) Transaction(setup SetupFunc, onError ErrorCallback, onSuccess SuccessCallback) {
	db.enqueue(txRequest{setup: setup, onError: onError, onSuccess: onSuccess})
}

// ReadTransaction works like Transaction but every statement that writes
// fails with a DatabaseErr.
func (db *Database) ReadTransaction(setup SetupFunc, onError ErrorCallback, onSuccess SuccessCallback) {
	db.enqueue(txRequest{readOnly: true, setup: setup, onError: onError, onSuccess: onSuccess})
}

// enqueue appends req to the queue and wakes the worker. Requests made after
// Close fail with ErrDatabaseClosed.
func (db *Database) enqueue(req txRequest) {
	db.queueMutex.Lock()
	if db.closed {
		db.queueMutex.Unlock()
		db.finish(req, NewEngineError(ErrDatabaseClosed))
		return
	}
	db.queue = append(db.queue, req)
	db.stats.IncQueuedTransactions()
	db.queueMutex.Unlock()

	select {
	case db.wake <- struct{}{}:
	default:
	}
}

// dequeue blocks until a request is available. It returns false once the
// database is closed and the queue drained.
func (db *Database) dequeue() (txRequest, bool) {
	for {
		db.queueMutex.Lock()
		if len(db.queue) > 0 {
			req := db.queue[0]
			db.queue[0] = txRequest{}
			db.queue = db.queue[1:]
			db.queueMutex.Unlock()
			return req, true
		}
		if db.closed {
			db.queueMutex.Unlock()
			return txRequest{}, false
		}
		db.queueMutex.Unlock()
		<-db.wake
	}
}

// processQueue runs queued transactions one at a time.
func (db *Database) processQueue() {
	defer close(db.done)
	for {
		req, ok := db.dequeue()
		if !ok {
			return
		}
		db.stats.DecQueuedTransactions()
		db.runTransaction(req)
	}
}

// runTransaction drives one transaction to its terminal callback.
func (db *Database) runTransaction(req txRequest) {
	tx := newTx(uuid.NewString(), req.readOnly, db.logger)
	db.logger.DebugNs(log.NsTransaction, "transaction started", log.KV{
		"txId":     tx.id,
		"database": db.name,
		"readOnly": req.readOnly,
	})

	err := tx.run(db.ctx, db.exec, req.setup)

	db.logger.DebugNs(log.NsTransaction, "transaction finished", log.KV{
		"txId":  tx.id,
		"state": tx.State().Value,
	})
	db.finish(req, err)
}

// finish calls the terminal callback of req. A panicking callback is logged
// and does not stop the worker.
func (db *Database) finish(req txRequest, err *EngineError) {
	defer func() {
		if r := recover(); r != nil {
			db.logger.ErrorNs(log.NsTransaction, "transaction callback panicked", log.KV{
				"database": db.name,
				"panic":    fmt.Sprint(r),
			})
		}
	}()

	if err != nil {
		if req.onError != nil {
			req.onError(err)
		}
		return
	}
	if req.onSuccess != nil {
		req.onSuccess()
	}
}

// Close waits for the queued transactions to finish and releases the engine
// handle. Transactions requested afterwards fail with ErrDatabaseClosed.
// Only the first call does anything.
//
// Close blocks on the worker, so it must not be called from a transaction
// or statement callback.
func (db *Database) Close() error {
	db.queueMutex.Lock()
	if db.closed {
		db.queueMutex.Unlock()
		return nil
	}
	db.closed = true
	db.queueMutex.Unlock()

	select {
	case db.wake <- struct{}{}:
	default:
	}
	<-db.done

	db.cancel()
	db.stats.Close()
	if db.onClose != nil {
		db.onClose(db)
	}

	if err := db.handle.Close(); err != nil {
		return fmt.Errorf("failed to close database %q: %w", db.name, err)
	}
	db.logger.InfoNs(log.NsDatabase, "database closed", log.KV{"name": db.name})
	return nil
}
