package repl

import (
	"fmt"
	"slices"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/quickwebsql/internal/qwsql/styled"
)

const (
	groupDatabase = "Database"
	groupSession  = "Session"
)

// dotCmd is a REPL command starting with a dot. run returns true when the
// REPL must stop.
type dotCmd struct {
	usage   string
	summary string
	group   string
	run     func(r *Repl, arg string) bool
}

// keyword is the command as typed, without its arguments.
func (c dotCmd) keyword() string {
	return strings.Fields(c.usage)[0]
}

func dotCmds() []dotCmd {
	return []dotCmd{
		{usage: ".open <name>", summary: "Switch to another database, opening it if needed", group: groupDatabase,
			run: func(r *Repl, arg string) bool { cmdOpen(r, arg); return false }},
		{usage: ".databases", summary: "List the databases opened in this session", group: groupDatabase,
			run: func(r *Repl, _ string) bool { cmdDatabases(r); return false }},
		{usage: ".tables", summary: "List the tables of the current database", group: groupDatabase,
			run: func(r *Repl, _ string) bool { cmdTables(r); return false }},
		{usage: ".stats", summary: "Show the statement and transaction counters", group: groupDatabase,
			run: func(r *Repl, _ string) bool { cmdStats(r); return false }},
		{usage: ".demo", summary: "Populate, query and drop the employees sample tables", group: groupDatabase,
			run: func(r *Repl, _ string) bool { cmdDemo(r); return false }},
		{usage: ".clear", summary: "Clear the terminal screen", group: groupSession,
			run: func(r *Repl, _ string) bool { cmdClear(); return false }},
		{usage: ".help", summary: "Show this message", group: groupSession,
			run: func(r *Repl, _ string) bool { cmdHelp(); return false }},
		{usage: ".quit", summary: "Exit qwsql, CTRL+C works too", group: groupSession,
			run: func(r *Repl, _ string) bool { return true }},
		{usage: ".exit", summary: "Same as .quit", group: groupSession,
			run: func(r *Repl, _ string) bool { return true }},
	}
}

// findDotCmd splits input into a known command and its argument.
func findDotCmd(input string) (dotCmd, string, bool) {
	keyword, arg, _ := strings.Cut(input, " ")
	for _, cmd := range dotCmds() {
		if cmd.keyword() == keyword {
			return cmd, strings.TrimSpace(arg), true
		}
	}
	return dotCmd{}, "", false
}

func cmdHelp() {
	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Command", "Description"})

	group := ""
	for _, cmd := range dotCmds() {
		if cmd.group != group {
			if group != "" {
				tw.AppendSeparator()
			}
			group = cmd.group
			tw.AppendRow(table.Row{styled.DimmedColor().Sprint(group), ""})
		}
		tw.AppendRow(table.Row{cmd.usage, cmd.summary})
	}

	fmt.Println(tw.Render())
	styled.DimmedColor().Println("Any other input runs as a single statement in its own transaction")
	fmt.Println()
}

// sqlSuggestions are offered when completing a statement.
var sqlSuggestions = []string{
	"SELECT ",
	"SELECT * FROM ",
	"SELECT COUNT(*) FROM ",
	"INSERT INTO ",
	"UPDATE ",
	"DELETE FROM ",
	"WITH ",
	"CREATE TABLE ",
	"DROP TABLE ",
	"ALTER TABLE ",
}

// complete returns the completions of line. After ".open " it offers the
// names of the databases already open in the session.
func (r *Repl) complete(line string) []string {
	if prefix, found := strings.CutPrefix(line, ".open "); found {
		results := []string{}
		for _, name := range r.manager.Databases() {
			if strings.HasPrefix(name, prefix) {
				results = append(results, ".open "+name)
			}
		}
		slices.Sort(results)
		return results
	}

	candidates := slices.Clone(sqlSuggestions)
	for _, cmd := range dotCmds() {
		candidates = append(candidates, cmd.keyword())
	}

	results := []string{}
	lower := strings.ToLower(line)
	for _, candidate := range candidates {
		if strings.HasPrefix(strings.ToLower(candidate), lower) {
			results = append(results, candidate)
		}
	}
	slices.Sort(results)
	return results
}
