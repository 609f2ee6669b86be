package qwsqlbench

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/nsqlite/quickwebsql/internal/qwsqlbench/config"
	"github.com/nsqlite/quickwebsql/internal/websql"
)

// runBenchmarkReads inserts X users in a single transaction and then queues
// X read transactions, each reading a page of Y users.
func runBenchmarkReads(
	ctx context.Context, db *websql.Database, conf config.Config, newProgress progressFunc,
) (benchmarkResult, error) {
	var totalReads, totalWrites atomic.Int64

	err := runAndWait(ctx, db, func(tx *websql.Tx) {
		for i := range conf.Transactions {
			tx.ExecuteSQL(
				"INSERT INTO users (created, email, active) VALUES (?, ?, ?)",
				[]any{time.Now().Unix(), fmt.Sprintf("user%d@example.com", i), i % 2},
				func(_ *websql.Tx, rs *websql.ResultSet) { totalWrites.Add(rs.RowsAffected) }, nil,
			)
		}
	})
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when seeding users: %w", err)
	}

	start := time.Now()
	bar := newProgress(fmt.Sprintf("Reading users in %d transactions", conf.Transactions), conf.Transactions)

	err = waitTransactions(ctx, conf.Transactions, bar, func(i int, onError websql.ErrorCallback, onSuccess websql.SuccessCallback) {
		db.ReadTransaction(func(tx *websql.Tx) {
			tx.ExecuteSQL(
				"SELECT id, created, email, active FROM users ORDER BY id LIMIT ? OFFSET ?",
				[]any{conf.StatementsPerTransaction, i},
				func(_ *websql.Tx, rs *websql.ResultSet) { totalReads.Add(int64(rs.Rows.Len())) }, nil,
			)
		}, onError, onSuccess)
	})
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when querying: %w", err)
	}

	return benchmarkResult{
		Name:         "Reads",
		Duration:     time.Since(start),
		Transactions: int64(conf.Transactions),
		TotalReads:   totalReads.Load(),
		TotalWrites:  totalWrites.Load(),
	}, nil
}
