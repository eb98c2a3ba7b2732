package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/CTAG07/qsa/pkg/profile"
)

// openStore opens the profile database, prepares its schema and returns a
// ready Store. Closing the returned *sql.DB after Store.Close releases everything.
func openStore(dataSource string, logger *slog.Logger) (*sql.DB, *profile.Store, error) {
	db, err := sql.Open(sqliteDriver, dataSource)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err = db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		logger.Warn("Failed to enable WAL journal mode", "error", err)
	}
	if err = profile.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup profile schema: %w", err)
	}
	store, err := profile.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to prepare profile store: %w", err)
	}
	store.SetLogger(logger)
	return db, store, nil
}
