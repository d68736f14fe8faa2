package storage

import (
	"context"
	"path/filepath"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/storage/sqlite"
	"github.com/hivetechs/hive/internal/types"
)

// DefaultPath is the database location relative to the project root.
var DefaultPath = filepath.Join(".hive", "hive.db")

// LearningStore persists the preference manager's learning data.
// Load returns nil data (and no error) when nothing has been saved.
type LearningStore interface {
	LoadLearningData(ctx context.Context) (*preferences.LearningData, error)
	SaveLearningData(ctx context.Context, data *preferences.LearningData) error
}

// Storage defines the interface for mode state storage backends
type Storage interface {
	LearningStore

	// Mode state - current mode, auto flag and last switch across invocations
	LoadModeState(ctx context.Context) (*types.ModeState, error)
	SaveModeState(ctx context.Context, state types.ModeState) error

	// Mode events - detections, switches, hybrid runs and resets
	events.EventStore

	// Event cleanup - retention policy enforcement
	CleanupEventsByAge(ctx context.Context, retentionDays, errorRetentionDays, batchSize int) (int, error)
	CleanupEventsByGlobalLimit(ctx context.Context, globalLimit, batchSize int) (int, error)
	GetEventCounts(ctx context.Context) (*sqlite.EventCounts, error)
	VacuumDatabase(ctx context.Context) error

	// Lifecycle
	Close() error
}

// Config holds database configuration
type Config struct {
	// Path is the SQLite database file path
	// Default: ".hive/hive.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Path: DefaultPath,
	}
}

// NewStorage creates a new SQLite storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultPath
	}

	return sqlite.New(ctx, cfg.Path)
}

var _ Storage = (*sqlite.SQLiteStorage)(nil)
