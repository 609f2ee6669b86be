package main

import (
	"context"
	"log"

	"github.com/nsqlite/quickwebsql/internal/qwsql"
)

func main() {
	if err := qwsql.Run(context.Background()); err != nil {
		log.Fatal(err)
	}
}
