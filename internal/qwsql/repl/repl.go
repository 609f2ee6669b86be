package repl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nsqlite/quickwebsql/internal/qwsql/config"
	"github.com/nsqlite/quickwebsql/internal/qwsql/styled"
	"github.com/nsqlite/quickwebsql/internal/util/syncutil"
	"github.com/nsqlite/quickwebsql/internal/util/sysutil"
	"github.com/nsqlite/quickwebsql/internal/websql"
	"github.com/peterh/liner"
)

type Repl struct {
	conf        config.Config
	manager     *websql.Manager
	ctx         context.Context
	stop        context.CancelFunc
	dbName      *syncutil.AtomicString
	lastRunAt   *syncutil.AtomicTime
	historyPath string
}

func NewRepl(
	ctx context.Context,
	stop context.CancelFunc,
	conf config.Config,
	manager *websql.Manager,
) *Repl {
	return &Repl{
		conf:        conf,
		manager:     manager,
		ctx:         ctx,
		stop:        stop,
		dbName:      syncutil.NewAtomicString(conf.Name),
		lastRunAt:   syncutil.NewAtomicTime(time.Time{}),
		historyPath: filepath.Join(os.TempDir(), ".qwsql_history"),
	}
}

func (r *Repl) Start() error {
	db, err := r.database()
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("Opened %s (version %s) with the %s driver\n", db.Name(), db.Version(), r.conf.Driver)
	fmt.Println(`Enter ".help" for usage hints and ".quit" or "CTRL+C" to quit`)
	fmt.Println()

	for {
		select {
		case <-r.ctx.Done():
			return nil
		default:
			input := r.prompt()

			if input == "" {
				continue
			}

			if slices.Contains([]string{"exit", "quit", "clear", "help"}, input) {
				input = "." + input
			}

			if strings.HasPrefix(input, ".") {
				cmd, arg, found := findDotCmd(input)
				if !found {
					fmt.Println("Unknown command, type .help for usage hints")
					continue
				}
				if cmd.run(r, arg) {
					r.Shutdown()
					return nil
				}
				continue
			}

			cmdQuery(r, input)
		}
	}
}

func cmdTables(r *Repl) {
	cmdQuery(r, `SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name`)
}

func cmdClear() {
	sysutil.ClearTerminal(os.Stdout)
}

// Shutdown stops the REPL.
func (r *Repl) Shutdown() {
	r.stop()
}

// database returns the current database, opening it when needed.
func (r *Repl) database() (*websql.Database, error) {
	db, err := r.manager.OpenDatabase(r.ctx, r.dbName.Load(), websql.Options{}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", r.dbName.Load(), err)
	}
	return db, nil
}

// printError prints err in the error color.
func printError(err error) {
	var engineErr *websql.EngineError
	if errors.As(err, &engineErr) {
		styled.ErrorColor().Printf("Error (code %d): %s\n", engineErr.Code, cleanError(engineErr.Message))
		return
	}
	styled.ErrorColor().Printf("Error: %s\n", err)
}

// cleanError removes the unwanted text from the error message. So, the error
// is more readable.
func cleanError(errStr string) string {
	for _, prefix := range []string{
		"failed to detect query type:",
		"failed to prepare statement:",
		"failed to execute read query:",
		"failed to execute write query:",
	} {
		errStr = strings.ReplaceAll(errStr, prefix, "")
	}
	return strings.TrimSpace(errStr)
}

// prompt shows the prompt and reads the input from the user.
func (r *Repl) prompt() string {
	label := fmt.Sprintf("qwsql(%s)> ", shortName(r.dbName.Load()))

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)
	line.SetCompleter(r.complete)

	if file, err := os.Open(r.historyPath); err == nil {
		_, _ = line.ReadHistory(file)
		file.Close()
	}

	prompt, err := line.Prompt(label)
	if err != nil {
		if err == liner.ErrPromptAborted {
			fmt.Println("CTRL+C pressed, exiting...")
			return ".quit"
		}
		return ""
	}

	line.AppendHistory(prompt)
	if file, err := os.Create(r.historyPath); err == nil {
		_, _ = line.WriteHistory(file)
		file.Close()
	}

	return strings.TrimSpace(prompt)
}

// shortName keeps the prompt short for long connection strings.
func shortName(name string) string {
	if len(name) > 24 {
		return name[:21] + "..."
	}
	return name
}
