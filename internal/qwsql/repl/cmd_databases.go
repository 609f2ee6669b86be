package repl

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/quickwebsql/internal/qwsql/demo"
	"github.com/nsqlite/quickwebsql/internal/qwsql/styled"
)

func cmdOpen(r *Repl, name string) {
	if name == "" {
		fmt.Println("Usage: .open [name]")
		return
	}

	previous := r.dbName.Swap(name)
	db, err := r.database()
	if err != nil {
		r.dbName.Store(previous)
		printError(err)
		return
	}

	styled.SuccessColor().Printf("Switched to %s (version %s)\n", db.Name(), db.Version())
}

func cmdDatabases(r *Repl) {
	names := r.manager.Databases()
	sort.Strings(names)

	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Database", "Current"})
	for _, name := range names {
		current := ""
		if name == r.dbName.Load() {
			current = "*"
		}
		tw.AppendRow(table.Row{name, current})
	}

	fmt.Println(tw.Render())
}

func cmdDemo(r *Repl) {
	db, err := r.database()
	if err != nil {
		printError(err)
		return
	}

	employees, err := demo.Run(r.ctx, db, func(msg string) {
		styled.DimmedColor().Println(msg)
	})
	if err != nil {
		printError(err)
		return
	}

	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Employee", "Department"})
	for _, e := range employees {
		tw.AppendRow(table.Row{formatValue(e.Name), e.Department})
	}
	fmt.Println(tw.Render())
}
