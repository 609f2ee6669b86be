package qwsqlbench

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nsqlite/quickwebsql/internal/engine/sqliteengine"
	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/nsqlite/quickwebsql/internal/qwsqlbench/config"
	"github.com/nsqlite/quickwebsql/internal/util/numutil"
	"github.com/nsqlite/quickwebsql/internal/version"
	"github.com/nsqlite/quickwebsql/internal/websql"
)

// benchmarkResult stores the outcome of a benchmark.
type benchmarkResult struct {
	Name         string
	Duration     time.Duration
	Transactions int64
	TotalReads   int64
	TotalWrites  int64
}

// benchmarkFunc runs one benchmark against db.
type benchmarkFunc func(ctx context.Context, db *websql.Database, conf config.Config, progress progressFunc) (benchmarkResult, error)

// progressFunc builds the progress bar of a benchmark step.
type progressFunc func(description string, maxItems int) progress

// progress is the part of a progress bar the benchmarks use.
type progress interface {
	Inc()
	Finish()
}

// Run executes the benchmarks through the websql transaction queue and
// prints the results.
func Run(ctx context.Context) error {
	conf := config.MustParse(os.Args)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(version.BenchVersion())

	tmpDir, err := os.MkdirTemp("", "qwsqlbench_*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	logger := log.NewLoggerWithLevel(os.Stderr, log.LevelWarn)
	manager, err := newManager(logger, tmpDir, conf.InMemory)
	if err != nil {
		return err
	}
	defer manager.Close()

	db, err := manager.OpenDatabase(ctx, uuid.NewString()+".db", websql.Options{
		Description: "qwsqlbench",
	}, nil)
	if err != nil {
		return fmt.Errorf("error opening benchmark database: %w", err)
	}

	results, err := runBenchmarks(ctx, db, conf, newProgressBar)
	if err != nil {
		return err
	}
	printResults(results)

	return nil
}

// newManager creates a manager over a sqlite engine storing files in dir.
func newManager(logger log.Logger, dir string, inMemory bool) (*websql.Manager, error) {
	eng, err := sqliteengine.New(sqliteengine.Config{
		Logger:    logger,
		Directory: dir,
		InMemory:  inMemory,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating engine: %w", err)
	}

	return websql.NewManager(websql.Config{
		Logger: logger,
		Engine: eng,
	})
}

// runBenchmarks executes all benchmarks, and returns results.
//
// It recreates the schema before each benchmark.
func runBenchmarks(
	ctx context.Context, db *websql.Database, conf config.Config, progress progressFunc,
) ([]benchmarkResult, error) {
	benchs := []benchmarkFunc{
		runBenchmarkWrites,
		runBenchmarkReads,
		runBenchmarkLarge,
	}

	var results []benchmarkResult
	for _, bench := range benchs {
		if err := recreateSchema(ctx, db); err != nil {
			return nil, fmt.Errorf("error recreating schema: %w", err)
		}

		res, err := bench(ctx, db, conf, progress)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

func printResults(results []benchmarkResult) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Color.Header = text.Colors{text.FgCyan, text.Bold}
	tw.AppendHeader(table.Row{"Name", "Transactions", "Reads", "Writes", "Duration", "Tx/s"})

	for _, r := range results {
		tw.AppendRow(table.Row{
			r.Name,
			numutil.IntWithCommas(r.Transactions),
			numutil.IntWithCommas(r.TotalReads),
			numutil.IntWithCommas(r.TotalWrites),
			r.Duration.Round(time.Millisecond),
			numutil.IntWithCommas(perSecond(r.Transactions, r.Duration)),
		})
	}

	fmt.Println(tw.Render())
}

func perSecond(n int64, d time.Duration) int64 {
	if d <= 0 {
		return n
	}
	return int64(float64(n) / d.Seconds())
}
