package qwsqlbench

import (
	"context"
	"fmt"
	"sync"

	"github.com/nsqlite/quickwebsql/internal/websql"
)

// submitFunc queues the i-th transaction of a benchmark with the given
// terminal callbacks.
type submitFunc func(i int, onError websql.ErrorCallback, onSuccess websql.SuccessCallback)

// waitTransactions submits n transactions and waits until every one of them
// finished. It returns the first transaction error.
func waitTransactions(ctx context.Context, n int, bar progress, submit submitFunc) error {
	wg := sync.WaitGroup{}
	errChan := make(chan error, n)

	for i := range n {
		wg.Add(1)
		submit(i, func(err *websql.EngineError) {
			errChan <- err
			wg.Done()
		}, func() {
			bar.Inc()
			wg.Done()
		})
	}

	finished := make(chan struct{})
	go func() {
		wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
	case <-ctx.Done():
		return ctx.Err()
	}
	close(errChan)
	bar.Finish()

	for e := range errChan {
		return fmt.Errorf("transaction failed: %w", e)
	}
	return nil
}

// runAndWait runs setup in one transaction and waits for it.
func runAndWait(ctx context.Context, db *websql.Database, setup websql.SetupFunc) error {
	return waitTransactions(ctx, 1, noProgress{}, func(_ int, onError websql.ErrorCallback, onSuccess websql.SuccessCallback) {
		db.Transaction(setup, onError, onSuccess)
	})
}

type noProgress struct{}

func (noProgress) Inc()    {}
func (noProgress) Finish() {}
