package websql

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/orsinium-labs/enum"
)

// TxState is the lifecycle state of a transaction.
type TxState enum.Member[string]

var (
	TxStateOpen       = TxState{Value: "open"}
	TxStateExecuting  = TxState{Value: "executing"}
	TxStateCommitted  = TxState{Value: "committed"}
	TxStateRolledBack = TxState{Value: "rolled_back"}
)

// Terminal reports whether no statement can run in this state anymore.
func (s TxState) Terminal() bool {
	return s == TxStateCommitted || s == TxStateRolledBack
}

type (
	// SetupFunc fills a transaction with statements. It runs exactly once.
	SetupFunc func(tx *Tx)
	// StatementCallback receives the result of a successful statement.
	StatementCallback func(tx *Tx, rs *ResultSet)
	// StatementErrorCallback receives a failed statement's error. Returning
	// false recovers and lets the transaction continue, returning true
	// rolls the transaction back.
	StatementErrorCallback func(tx *Tx, err *EngineError) bool
	// ErrorCallback receives the error that rolled a transaction back.
	ErrorCallback func(err *EngineError)
	// SuccessCallback is called once a transaction committed.
	SuccessCallback func()
)

type statement struct {
	query     string
	params    []any
	onSuccess StatementCallback
	onError   StatementErrorCallback
}

// Tx collects and runs the statements of one transaction. Statements run in
// the order they were submitted, one at a time, on the database worker.
type Tx struct {
	id       string
	readOnly bool
	logger   log.Logger

	mu         sync.Mutex
	state      TxState
	statements []statement
	next       int
}

func newTx(id string, readOnly bool, logger log.Logger) *Tx {
	return &Tx{
		id:       id,
		readOnly: readOnly,
		logger:   logger,
		state:    TxStateOpen,
	}
}

// ID returns the identifier used for this transaction in logs.
func (tx *Tx) ID() string {
	return tx.id
}

// ReadOnly reports whether the transaction was started with ReadTransaction.
func (tx *Tx) ReadOnly() bool {
	return tx.readOnly
}

// State returns the current state of the transaction.
func (tx *Tx) State() TxState {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return tx.state
}

// ExecuteSQL queues a statement. It never fails directly: the outcome is
// delivered to onSuccess or onError, both optional. A missing onError makes
// a failure roll the transaction back.
//
// Statements may be queued from the setup function and from statement
// callbacks. Once the transaction finished, onError receives
// ErrTransactionFinished and its return value is ignored.
func (tx *Tx) ExecuteSQL(
	query string, params []any, onSuccess StatementCallback, onError StatementErrorCallback,
) {
	tx.mu.Lock()
	if tx.state.Terminal() {
		state := tx.state
		tx.mu.Unlock()

		tx.logger.WarnNs(log.NsTransaction, "statement submitted to a finished transaction", log.KV{
			"txId":  tx.id,
			"state": state.Value,
			"query": query,
		})
		if onError != nil {
			_ = tx.callError(onError, NewEngineError(ErrTransactionFinished))
		}
		return
	}

	tx.statements = append(tx.statements, statement{
		query:     query,
		params:    append([]any(nil), params...),
		onSuccess: onSuccess,
		onError:   onError,
	})
	tx.mu.Unlock()
}

func (tx *Tx) setState(state TxState) {
	tx.mu.Lock()
	tx.state = state
	tx.mu.Unlock()
}

// nextStatement pops the next queued statement.
func (tx *Tx) nextStatement() (statement, bool) {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if tx.next >= len(tx.statements) {
		return statement{}, false
	}
	st := tx.statements[tx.next]
	tx.next++
	return st, true
}

// run drives the transaction to a terminal state and returns the error that
// rolled it back, or nil once committed.
func (tx *Tx) run(ctx context.Context, exec *executor, setup SetupFunc) *EngineError {
	if err := exec.control(ctx, "BEGIN"); err != nil {
		tx.setState(TxStateRolledBack)
		exec.stats.IncRollbacks()
		return err
	}
	exec.stats.IncBegins()

	if err := tx.runSetup(setup); err != nil {
		return tx.rollback(ctx, exec, err)
	}

	tx.setState(TxStateExecuting)
	for {
		st, ok := tx.nextStatement()
		if !ok {
			break
		}

		rs, err := exec.execute(ctx, st.query, st.params, tx.readOnly)
		if err == nil {
			if panicErr := tx.callSuccess(st.onSuccess, rs); panicErr != nil {
				return tx.rollback(ctx, exec, panicErr)
			}
			continue
		}

		tx.logger.DebugNs(log.NsTransaction, "statement failed", log.KV{
			"txId":  tx.id,
			"query": st.query,
			"error": err.Message,
		})
		if abortErr := tx.handleStatementError(st.onError, err); abortErr != nil {
			return tx.rollback(ctx, exec, abortErr)
		}
	}

	if err := exec.control(ctx, "COMMIT"); err != nil {
		return tx.rollback(ctx, exec, err)
	}
	tx.setState(TxStateCommitted)
	exec.stats.IncCommits()
	return nil
}

// rollback ends the transaction because of cause and returns cause.
func (tx *Tx) rollback(ctx context.Context, exec *executor, cause *EngineError) *EngineError {
	if err := exec.control(ctx, "ROLLBACK"); err != nil {
		tx.logger.WarnNs(log.NsTransaction, "rollback failed", log.KV{
			"txId":  tx.id,
			"error": err.Message,
		})
	}
	tx.setState(TxStateRolledBack)
	exec.stats.IncRollbacks()
	return cause
}

// runSetup calls setup, turning a panic into an EngineError.
func (tx *Tx) runSetup(setup SetupFunc) (engineErr *EngineError) {
	if setup == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			engineErr = NewEngineError(fmt.Sprintf("transaction setup failed: %v", r))
		}
	}()
	setup(tx)
	return nil
}

// callSuccess calls onSuccess, turning a panic into an EngineError.
func (tx *Tx) callSuccess(onSuccess StatementCallback, rs *ResultSet) (engineErr *EngineError) {
	if onSuccess == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			engineErr = NewEngineError(fmt.Sprintf("statement callback failed: %v", r))
		}
	}()
	onSuccess(tx, rs)
	return nil
}

// handleStatementError decides whether a failed statement aborts the
// transaction. It returns the error to roll back with, or nil to continue.
func (tx *Tx) handleStatementError(onError StatementErrorCallback, err *EngineError) *EngineError {
	if onError == nil {
		return err
	}
	abort, panicErr := tx.callErrorSafe(onError, err)
	if panicErr != nil {
		return panicErr
	}
	if abort {
		return err
	}
	return nil
}

func (tx *Tx) callError(onError StatementErrorCallback, err *EngineError) bool {
	abort, _ := tx.callErrorSafe(onError, err)
	return abort
}

// callErrorSafe calls onError, turning a panic into an EngineError.
func (tx *Tx) callErrorSafe(
	onError StatementErrorCallback, err *EngineError,
) (abort bool, engineErr *EngineError) {
	defer func() {
		if r := recover(); r != nil {
			abort, engineErr = true, NewEngineError(fmt.Sprintf("statement error callback failed: %v", r))
		}
	}()
	return onError(tx, err), nil
}
