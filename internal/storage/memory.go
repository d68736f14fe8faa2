package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/storage/sqlite"
	"github.com/hivetechs/hive/internal/types"
)

// MemoryStorage keeps everything in process memory. It backs tests and
// runs where no database file is wanted.
type MemoryStorage struct {
	mu       sync.Mutex
	learning *preferences.LearningData
	state    *types.ModeState
	events   []*events.ModeEvent
	closed   bool
}

// NewMemoryStorage returns an empty in-memory store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

var _ Storage = (*MemoryStorage)(nil)

func (m *MemoryStorage) check() error {
	if m.closed {
		return fmt.Errorf("storage is closed")
	}
	return nil
}

func (m *MemoryStorage) LoadLearningData(ctx context.Context) (*preferences.LearningData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	if m.learning == nil {
		return nil, nil
	}
	if err := preferences.CheckVersion(m.learning.Version); err != nil {
		return nil, err
	}
	data := *m.learning
	return &data, nil
}

func (m *MemoryStorage) SaveLearningData(ctx context.Context, data *preferences.LearningData) error {
	if data == nil {
		return fmt.Errorf("learning data is nil")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	saved := *data
	if saved.Version == "" {
		saved.Version = preferences.DataVersion
	}
	if err := preferences.CheckVersion(saved.Version); err != nil {
		return err
	}
	m.learning = &saved
	return nil
}

func (m *MemoryStorage) LoadModeState(ctx context.Context) (*types.ModeState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	if m.state == nil {
		return nil, nil
	}
	state := *m.state
	return &state, nil
}

func (m *MemoryStorage) SaveModeState(ctx context.Context, state types.ModeState) error {
	if !state.CurrentMode.IsValid() {
		return &types.ValidationError{
			Op:      "save mode state",
			Reasons: []string{fmt.Sprintf("invalid mode %q", state.CurrentMode)},
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	state.UpdatedAt = time.Now()
	m.state = &state
	return nil
}

func (m *MemoryStorage) StoreEvent(ctx context.Context, event *events.ModeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return err
	}
	m.events = append(m.events, event)
	return nil
}

// GetEvents returns matching events, most recent first.
func (m *MemoryStorage) GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.ModeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}

	var result []*events.ModeEvent
	for _, e := range m.events {
		if filter.Matches(e) {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (m *MemoryStorage) GetRecentEvents(ctx context.Context, limit int) ([]*events.ModeEvent, error) {
	return m.GetEvents(ctx, events.EventFilter{Limit: limit})
}

func (m *MemoryStorage) CleanupEventsByAge(ctx context.Context, retentionDays, errorRetentionDays, batchSize int) (int, error) {
	if retentionDays < 0 || errorRetentionDays < 0 {
		return 0, fmt.Errorf("retention days cannot be negative")
	}
	now := time.Now()
	regularCutoff := now.AddDate(0, 0, -retentionDays)
	errorCutoff := now.AddDate(0, 0, -errorRetentionDays)

	return m.removeWhere(func(e *events.ModeEvent) bool {
		if e.Severity == events.SeverityError {
			return e.Timestamp.Before(errorCutoff)
		}
		return e.Timestamp.Before(regularCutoff)
	})
}

func (m *MemoryStorage) CleanupEventsByGlobalLimit(ctx context.Context, globalLimit, batchSize int) (int, error) {
	if globalLimit < 1 {
		return 0, fmt.Errorf("global limit must be at least 1")
	}

	m.mu.Lock()
	excess := len(m.events) - globalLimit
	var candidates []*events.ModeEvent
	for _, e := range m.events {
		if e.Severity != events.SeverityError {
			candidates = append(candidates, e)
		}
	}
	m.mu.Unlock()
	if excess <= 0 {
		return 0, nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Timestamp.Before(candidates[j].Timestamp)
	})
	if len(candidates) > excess {
		candidates = candidates[:excess]
	}
	doomed := make(map[*events.ModeEvent]bool, len(candidates))
	for _, e := range candidates {
		doomed[e] = true
	}
	return m.removeWhere(func(e *events.ModeEvent) bool { return doomed[e] })
}

func (m *MemoryStorage) removeWhere(drop func(*events.ModeEvent) bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return 0, err
	}
	kept := m.events[:0]
	deleted := 0
	for _, e := range m.events {
		if drop(e) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	m.events = kept
	return deleted, nil
}

func (m *MemoryStorage) GetEventCounts(ctx context.Context) (*sqlite.EventCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(); err != nil {
		return nil, err
	}
	counts := &sqlite.EventCounts{
		TotalEvents:      len(m.events),
		EventsByMode:     make(map[string]int),
		EventsBySeverity: make(map[string]int),
		EventsByType:     make(map[string]int),
	}
	for _, e := range m.events {
		counts.EventsByMode[string(e.Mode)]++
		counts.EventsBySeverity[string(e.Severity)]++
		counts.EventsByType[string(e.Type)]++
	}
	return counts, nil
}

func (m *MemoryStorage) VacuumDatabase(ctx context.Context) error {
	return nil
}

func (m *MemoryStorage) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
