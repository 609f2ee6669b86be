package main

import (
	"context"
	"log"

	"github.com/nsqlite/quickwebsql/internal/qwsqlbench"
)

func main() {
	if err := qwsqlbench.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
