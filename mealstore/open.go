// Package mealstore persists meal records and the singleton user settings in
// a schema-versioned SQLite database.
//
// Opening is idempotent: the first open creates the schema, a version bump
// upgrades it in place, and reopening an already-current database is a
// no-op. Save operations validate before writing and return typed errors;
// load operations degrade — invalid rows are filtered and logged, missing or
// broken settings fields are repaired from defaults.
package mealstore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

type config struct {
	busyTimeout int
	mkdirAll    bool
	logger      *slog.Logger
}

func defaults() config {
	return config{
		busyTimeout: 10_000,
		logger:      slog.Default(),
	}
}

// Option customises Open behaviour.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds. Default: 10000.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithMkdirAll creates parent directories of the database path before opening.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithLogger sets the logger used for degraded-load warnings.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// Store is the open meal database. A single Store is meant to be owned by
// one service instance; construct a fresh one per test for isolation.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path, applies the production
// pragmas, and upgrades the schema to the current version.
func Open(path string, opts ...Option) (*Store, error) {
	cfg := defaults()
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, &StoreError{Code: CodeOpenFailed, Op: "open", Err: fmt.Errorf("mkdir: %w", err)}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, &StoreError{Code: CodeOpenFailed, Op: "open", Err: err}
	}

	// An in-memory database exists per connection, so the pool must be
	// pinned to one before pragmas and migration run. Anything beyond that
	// first connection would be a second, schema-less database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.busyTimeout),
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, &StoreError{Code: CodeOpenFailed, Op: "open", Err: fmt.Errorf("%s: %w", p, err)}
		}
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, &StoreError{Code: CodeOpenFailed, Op: "open", Err: fmt.Errorf("ping: %w", err)}
	}

	return &Store{db: db, logger: cfg.logger}, nil
}

// OpenMemory opens an in-memory store for testing, with cleanup registered
// on t. Open pins the connection pool for :memory: paths.
func OpenMemory(t testing.TB, opts ...Option) *Store {
	t.Helper()
	s, err := Open(":memory:", opts...)
	if err != nil {
		t.Fatalf("mealstore.OpenMemory: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
