package qwsqlbench

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nsqlite/quickwebsql/internal/qwsqlbench/config"
	"github.com/nsqlite/quickwebsql/internal/websql"
)

// errPayloadMismatch is returned when a payload does not read back intact.
var errPayloadMismatch = errors.New("payload read back does not match the one inserted")

// largePayload returns a string of size bytes made of NUL and the escape
// bytes of the binary codec, so every byte goes through escaping.
func largePayload(size int) string {
	chunk := "\x00\x01\x02Y"
	payload := strings.Repeat(chunk, size/len(chunk)+1)
	return payload[:size]
}

// runBenchmarkLarge inserts X payloads of Y bytes, one per transaction, and
// then reads all of them back in a single read transaction, checking that
// every payload survived the round trip.
func runBenchmarkLarge(
	ctx context.Context, db *websql.Database, conf config.Config, newProgress progressFunc,
) (benchmarkResult, error) {
	start := time.Now()
	var totalReads, totalWrites atomic.Int64
	payload := largePayload(conf.PayloadBytes)

	bar := newProgress(
		fmt.Sprintf("Inserting %d payloads of %d bytes", conf.Transactions, conf.PayloadBytes),
		conf.Transactions,
	)
	err := waitTransactions(ctx, conf.Transactions, bar, func(_ int, onError websql.ErrorCallback, onSuccess websql.SuccessCallback) {
		db.Transaction(func(tx *websql.Tx) {
			tx.ExecuteSQL(
				"INSERT INTO payloads (body) VALUES (?)", []any{payload},
				func(_ *websql.Tx, rs *websql.ResultSet) { totalWrites.Add(rs.RowsAffected) }, nil,
			)
		}, onError, onSuccess)
	})
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when inserting: %w", err)
	}

	var mismatches atomic.Int64
	err = runAndWait(ctx, db, func(tx *websql.Tx) {
		tx.ExecuteSQL("SELECT id, body FROM payloads ORDER BY id", nil, func(_ *websql.Tx, rs *websql.ResultSet) {
			for _, row := range rs.Rows.All() {
				body, _ := row.Get("body")
				if body != payload {
					mismatches.Add(1)
				}
				totalReads.Add(1)
			}
		}, nil)
	})
	if err != nil {
		return benchmarkResult{}, fmt.Errorf("error when querying: %w", err)
	}
	if n := mismatches.Load(); n > 0 {
		return benchmarkResult{}, fmt.Errorf("%w: %d payloads", errPayloadMismatch, n)
	}

	return benchmarkResult{
		Name:         "Large",
		Duration:     time.Since(start),
		Transactions: int64(conf.Transactions) + 1,
		TotalReads:   totalReads.Load(),
		TotalWrites:  totalWrites.Load(),
	}, nil
}
