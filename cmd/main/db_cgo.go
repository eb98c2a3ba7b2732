//go:build cgo_sqlite

package main

import (
	_ "github.com/mattn/go-sqlite3"
)

// sqliteDriver names the cgo driver, selected with -tags cgo_sqlite.
const sqliteDriver = "sqlite3"
