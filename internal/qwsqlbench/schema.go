package qwsqlbench

import (
	"context"

	"github.com/nsqlite/quickwebsql/internal/websql"
)

// recreateSchema drops all tables and recreates them.
func recreateSchema(ctx context.Context, db *websql.Database) error {
	stmts := []string{
		`DROP TABLE IF EXISTS payloads`,
		`DROP TABLE IF EXISTS users`,

		`CREATE TABLE users (
			id INTEGER PRIMARY KEY NOT NULL,
			created INTEGER NOT NULL,
			email TEXT NOT NULL,
			active INTEGER NOT NULL
		)`,
		`CREATE INDEX users_created ON users(created)`,

		`CREATE TABLE payloads (
			id INTEGER PRIMARY KEY NOT NULL,
			userId INTEGER REFERENCES users(id),
			body TEXT NOT NULL
		)`,
		`CREATE INDEX payloads_userId ON payloads(userId)`,
	}

	return runAndWait(ctx, db, func(tx *websql.Tx) {
		for _, s := range stmts {
			tx.ExecuteSQL(s, nil, nil, nil)
		}
	})
}
