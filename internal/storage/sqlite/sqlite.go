// Package sqlite persists learning data, mode state and mode events in a
// SQLite database through the ncruces WebAssembly driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/hivetechs/hive/internal/storage/migrations"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var schemaMigrations = []migrations.Migration{
	{
		Version:     1,
		Description: "learning data, mode state and mode events",
		Up: `
CREATE TABLE IF NOT EXISTS learning_data (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    version TEXT NOT NULL,
    payload TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS mode_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    current_mode TEXT NOT NULL CHECK(current_mode IN ('planning', 'execution', 'hybrid', 'analysis', 'learning')),
    entered_at INTEGER NOT NULL DEFAULT 0,
    auto_mode INTEGER NOT NULL DEFAULT 0,
    last_switch INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS mode_events (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    mode TEXT NOT NULL DEFAULT '',
    severity TEXT NOT NULL CHECK(severity IN ('info', 'warning', 'error')),
    message TEXT NOT NULL,
    data TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_mode_events_type ON mode_events(type);
CREATE INDEX IF NOT EXISTS idx_mode_events_severity ON mode_events(severity);
CREATE INDEX IF NOT EXISTS idx_mode_events_timestamp ON mode_events(timestamp);
`,
	},
}

// SQLiteStorage implements storage.Storage using SQLite
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// New opens (creating if needed) the database at path and brings its
// schema up to date.
func New(ctx context.Context, path string) (*SQLiteStorage, error) {
	dsn := path
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		// WAL mode and a busy timeout let the REPL and one-shot commands share the file
		dsn = "file:" + filepath.ToSlash(path) + "?_pragma=busy_timeout(10000)&_pragma=journal_mode(wal)"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == MemoryPath {
		// every connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := migrations.NewManager(schemaMigrations...).Apply(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db, path: path}, nil
}

// Path returns the database path the storage was opened with.
func (s *SQLiteStorage) Path() string {
	return s.path
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
