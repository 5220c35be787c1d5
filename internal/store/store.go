// Package store records the trace of one scenario run: every state
// transition and notable event, in sequence order. Each run opens its
// own in-memory SQLite database for isolation; nothing persists past
// the run, matching the harness's zero-side-effect contract.
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store holds the trace of a single scenario run.
type Store struct {
	db *sql.DB
}

// Open creates a trace store at path. Use ":memory:" for the per-run
// isolated store the harness opens; a file path works too when a trace
// needs to outlive a debugging session.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open trace store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect trace store: %w", err)
	}

	// SQLite allows one writer; a single connection avoids
	// SQLITE_BUSY and, for :memory:, keeps every query on the same
	// database instance.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply trace schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database. For :memory: stores this discards the
// trace.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
