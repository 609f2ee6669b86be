package repl

import (
	"fmt"
	"slices"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nsqlite/quickwebsql/internal/qwsql/styled"
	"github.com/nsqlite/quickwebsql/internal/stats"
	"github.com/nsqlite/quickwebsql/internal/util/numutil"
)

// statsMinutes is how many minutes .stats shows.
const statsMinutes = 5

func cmdStats(r *Repl) {
	db, err := r.database()
	if err != nil {
		printError(err)
		return
	}

	fmt.Println(renderStats(db.Stats(), statsMinutes))
	styled.DimmedColor().Printf("Showing the last %d minutes of stats\n", statsMinutes)
	styled.DimmedColor().Printf("Queued transactions: %s\n", numutil.IntWithCommas(db.Stats().QueuedTransactions))
	if last := r.lastRunAt.Load(); !last.IsZero() {
		styled.DimmedColor().Printf("Last statement: %s ago\n", time.Since(last).Round(time.Second))
	}
	fmt.Println()
}

// renderStats renders the newest statsQty minutes of snapshot, oldest first,
// with the totals as footer.
func renderStats(snapshot stats.Snapshot, statsQty int) string {
	tw := styled.NewTableWriter()
	tw.AppendHeader(table.Row{"Minute (UTC)", "Reads", "Writes", "Failures", "Begins", "Commits", "Rollbacks"})

	rows := []table.Row{}
	for i, stat := range snapshot.Stats {
		if i >= statsQty {
			break
		}

		minute, err := time.Parse(time.RFC3339, stat.Minute)
		if err != nil {
			continue
		}

		rows = append(rows, table.Row{
			minute.Format("2006-01-02 15:04"),
			numutil.IntWithCommas(stat.Reads),
			numutil.IntWithCommas(stat.Writes),
			numutil.IntWithCommas(stat.Failures),
			numutil.IntWithCommas(stat.Begins),
			numutil.IntWithCommas(stat.Commits),
			numutil.IntWithCommas(stat.Rollbacks),
		})
	}
	slices.Reverse(rows)
	tw.AppendRows(rows)

	tw.AppendFooter(table.Row{
		"Total",
		numutil.IntWithCommas(snapshot.Totals.Reads),
		numutil.IntWithCommas(snapshot.Totals.Writes),
		numutil.IntWithCommas(snapshot.Totals.Failures),
		numutil.IntWithCommas(snapshot.Totals.Begins),
		numutil.IntWithCommas(snapshot.Totals.Commits),
		numutil.IntWithCommas(snapshot.Totals.Rollbacks),
	})

	return tw.Render()
}
