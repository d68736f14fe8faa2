package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/types"
)

// LoadLearningData returns the stored learning data, or nil when nothing
// has been saved yet. Data written by an incompatible version is refused.
func (s *SQLiteStorage) LoadLearningData(ctx context.Context) (*preferences.LearningData, error) {
	var version, payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT version, payload FROM learning_data WHERE id = 1`).Scan(&version, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query learning data: %w", err)
	}

	if err := preferences.CheckVersion(version); err != nil {
		return nil, err
	}

	var data preferences.LearningData
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return nil, fmt.Errorf("failed to decode learning data: %w", err)
	}
	data.Version = version
	return &data, nil
}

// SaveLearningData replaces the stored learning data.
func (s *SQLiteStorage) SaveLearningData(ctx context.Context, data *preferences.LearningData) error {
	if data == nil {
		return fmt.Errorf("learning data is nil")
	}
	version := data.Version
	if version == "" {
		version = preferences.DataVersion
	}
	if err := preferences.CheckVersion(version); err != nil {
		return err
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode learning data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learning_data (id, version, payload, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, version, string(payload), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save learning data: %w", err)
	}
	return nil
}

// LoadModeState returns the persisted mode state, or nil when none exists.
func (s *SQLiteStorage) LoadModeState(ctx context.Context) (*types.ModeState, error) {
	var (
		mode                                     string
		enteredAt, lastSwitch, updatedAt, autoOn int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT current_mode, entered_at, auto_mode, last_switch, updated_at
		FROM mode_state WHERE id = 1
	`).Scan(&mode, &enteredAt, &autoOn, &lastSwitch, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query mode state: %w", err)
	}

	return &types.ModeState{
		CurrentMode: types.ModeType(mode),
		EnteredAt:   fromUnixNano(enteredAt),
		AutoMode:    autoOn != 0,
		LastSwitch:  fromUnixNano(lastSwitch),
		UpdatedAt:   fromUnixNano(updatedAt),
	}, nil
}

// SaveModeState replaces the persisted mode state.
func (s *SQLiteStorage) SaveModeState(ctx context.Context, state types.ModeState) error {
	if !state.CurrentMode.IsValid() {
		return &types.ValidationError{
			Op:      "save mode state",
			Reasons: []string{fmt.Sprintf("invalid mode %q", state.CurrentMode)},
		}
	}
	autoOn := 0
	if state.AutoMode {
		autoOn = 1
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mode_state (id, current_mode, entered_at, auto_mode, last_switch, updated_at)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			current_mode = excluded.current_mode,
			entered_at = excluded.entered_at,
			auto_mode = excluded.auto_mode,
			last_switch = excluded.last_switch,
			updated_at = excluded.updated_at
	`, string(state.CurrentMode), toUnixNano(state.EnteredAt), autoOn,
		toUnixNano(state.LastSwitch), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save mode state: %w", err)
	}
	return nil
}

// toUnixNano maps the zero time to 0 so it survives a round trip.
func toUnixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}
