package qwsql

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nsqlite/quickwebsql/internal/engine/sqliteengine"
	"github.com/nsqlite/quickwebsql/internal/log"
	"github.com/nsqlite/quickwebsql/internal/qwsql/config"
	"github.com/nsqlite/quickwebsql/internal/qwsql/repl"
	"github.com/nsqlite/quickwebsql/internal/version"
	"github.com/nsqlite/quickwebsql/internal/websql"
)

// Run runs the qwsql CLI.
func Run(ctx context.Context) error {
	conf := config.MustParse(os.Args)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(version.ClientVersion())

	level, err := log.ParseLevel(conf.LogLevel)
	if err != nil {
		return err
	}
	logger := log.NewLoggerWithLevel(os.Stderr, level)

	eng, err := sqliteengine.New(sqliteengine.Config{
		Logger:               logger,
		Driver:               conf.EngineDriver(),
		Directory:            conf.DataDirectory,
		InMemory:             conf.InMemory,
		DisableOptimizations: conf.DisableOptimizations,
	})
	if err != nil {
		return fmt.Errorf("error creating engine: %w", err)
	}

	manager, err := websql.NewManager(websql.Config{
		Logger: logger,
		Engine: eng,
	})
	if err != nil {
		return fmt.Errorf("error creating database manager: %w", err)
	}
	defer func() {
		if err := manager.Close(); err != nil {
			logger.Error("error closing databases", log.KV{"error": err.Error()})
		}
	}()

	rp := repl.NewRepl(ctx, stop, conf, manager)
	defer rp.Shutdown()
	go func() {
		if err := rp.Start(); err != nil {
			fmt.Println(err)
			stop()
		}
	}()

	<-ctx.Done()
	fmt.Printf("\nGoodbye!\n\n")
	return nil
}
