package qwsqlbench

import "github.com/nsqlite/quickwebsql/internal/qwsqlbench/benchbar"

func newProgressBar(description string, maxItems int) progress {
	return benchbar.NewBar(description, maxItems)
}

func newSilentProgressBar(_ string, maxItems int) progress {
	return benchbar.NewSilentBar(maxItems)
}
