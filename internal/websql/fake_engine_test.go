package websql

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nsqlite/quickwebsql/internal/engine"
	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/stretchr/testify/require"
)

// fakeResult is the scripted outcome of one query.
type fakeResult struct {
	resp  engine.Response
	err   error
	panic any
}

// fakeHandle returns scripted results and records every query it receives
// in execution order. Unscripted queries succeed with an empty response.
type fakeHandle struct {
	mu       sync.Mutex
	results  map[string]fakeResult
	executed []string
	requests []engine.Request
	closes   int
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{results: map[string]fakeResult{}}
}

func (h *fakeHandle) script(query string, result fakeResult) *fakeHandle {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.results[query] = result
	return h
}

func (h *fakeHandle) Execute(_ context.Context, req engine.Request) (engine.Response, error) {
	h.mu.Lock()
	h.executed = append(h.executed, req.Query)
	h.requests = append(h.requests, req)
	result, found := h.results[req.Query]
	h.mu.Unlock()

	if !found {
		return engine.Response{Type: engine.QueryTypeWrite}, nil
	}
	if result.panic != nil {
		panic(result.panic)
	}
	return result.resp, result.err
}

func (h *fakeHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closes++
	return nil
}

func (h *fakeHandle) log() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.executed...)
}

func (h *fakeHandle) lastRequest() engine.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.requests[len(h.requests)-1]
}

// fakeEngine hands out fake handles, one per name.
type fakeEngine struct {
	mu       sync.Mutex
	checkErr error
	openErr  error
	handles  map[string]*fakeHandle
	opens    int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{handles: map[string]*fakeHandle{}}
}

func (e *fakeEngine) Check() error {
	return e.checkErr
}

func (e *fakeEngine) Open(_ context.Context, name string) (engine.Handle, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.openErr != nil {
		return nil, e.openErr
	}
	e.opens++
	h, found := e.handles[name]
	if !found {
		h = newFakeHandle()
		e.handles[name] = h
	}
	return h, nil
}

// newTestDatabase opens a Database over handle, closed when the test ends.
func newTestDatabase(t *testing.T, handle engine.Handle) *Database {
	t.Helper()
	db := newDatabase(
		context.Background(), "test.db", Options{}.withDefaults("test.db"),
		log.NewDiscardLogger(), handle, nil,
	)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// txOutcome is what the terminal callback of a transaction reported.
type txOutcome struct {
	committed bool
	err       *EngineError
}

// callbacks returns terminal callbacks reporting into a channel.
func callbacks() (ErrorCallback, SuccessCallback, chan txOutcome) {
	done := make(chan txOutcome, 2)
	onError := func(err *EngineError) { done <- txOutcome{err: err} }
	onSuccess := func() { done <- txOutcome{committed: true} }
	return onError, onSuccess, done
}

func waitOutcome(t *testing.T, done chan txOutcome) txOutcome {
	t.Helper()
	select {
	case outcome := <-done:
		return outcome
	case <-time.After(5 * time.Second):
		require.FailNow(t, "transaction did not finish")
	}
	return txOutcome{}
}

// runTx runs setup in a read-write transaction and waits for its outcome.
func runTx(t *testing.T, db *Database, setup SetupFunc) txOutcome {
	t.Helper()
	onError, onSuccess, done := callbacks()
	db.Transaction(setup, onError, onSuccess)
	return waitOutcome(t, done)
}
