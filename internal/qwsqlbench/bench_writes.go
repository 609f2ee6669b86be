package qwsqlbench

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nsqlite/quickwebsql/internal/qwsqlbench/config"
	"github.com/nsqlite/quickwebsql/internal/websql"
)

// runBenchmarkWrites queues X transactions of Y inserts each and waits for
// all of them.
func runBenchmarkWrites(
	ctx context.Context, db *websql.Database, conf config.Config, newProgress progressFunc,
) (benchmarkResult, error) {
	start := time.Now()
	var totalWrites atomic.Int64

	bar := newProgress(
		fmt.Sprintf("Inserting %d users in %d transactions",
			conf.Transactions*conf.StatementsPerTransaction, conf.Transactions),
		conf.Transactions,
	)

	countWrites := func(_ *websql.Tx, rs *websql.ResultSet) {
		totalWrites.Add(rs.RowsAffected)
	}

	err := waitTransactions(ctx, conf.Transactions, bar, func(i int, onError websql.ErrorCallback, onSuccess websql.SuccessCallback) {
		db.Transaction(func(tx *websql.Tx) {
			for j := range conf.StatementsPerTransaction {
				tx.ExecuteSQL(
					"INSERT INTO users (created, email, active) VALUES (?, ?, ?)",
					[]any{time.Now().Unix(), fmt.Sprintf("user%d_%d@example.com", i, j), 1},
					countWrites, nil,
				)
			}
		}, onError, onSuccess)
	})
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when inserting: %w", err)
	}

	return benchmarkResult{
		Name:         "Writes",
		Duration:     time.Since(start),
		Transactions: int64(conf.Transactions),
		TotalWrites:  totalWrites.Load(),
	}, nil
}
