//go:build !cgo_sqlite

package main

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// sqliteDriver is the pure-Go driver. Build with -tags cgo_sqlite to use
// mattn/go-sqlite3 instead.
const sqliteDriver = "sqlite"

func initDB(dataSource string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriver, dataSource)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)
	return db, nil
}
