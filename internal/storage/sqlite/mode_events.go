package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/types"
)

// StoreEvent stores a new mode event in the database
func (s *SQLiteStorage) StoreEvent(ctx context.Context, event *events.ModeEvent) error {
	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}
	if event.Data == nil {
		dataJSON = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO mode_events (id, type, timestamp, mode, severity, message, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		string(event.Type),
		event.Timestamp.UnixNano(),
		string(event.Mode),
		string(event.Severity),
		event.Message,
		string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store mode event (type=%s, mode=%s): %w", event.Type, event.Mode, err)
	}
	return nil
}

// GetEvents retrieves events matching the given filter, most recent first
func (s *SQLiteStorage) GetEvents(ctx context.Context, filter events.EventFilter) ([]*events.ModeEvent, error) {
	query := `
		SELECT id, type, timestamp, mode, severity, message, data
		FROM mode_events
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if filter.Mode != "" {
		query += " AND mode = ?"
		args = append(args, string(filter.Mode))
	}
	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filter.Severity))
	}
	if !filter.AfterTime.IsZero() {
		query += " AND timestamp > ?"
		args = append(args, filter.AfterTime.UnixNano())
	}
	if !filter.BeforeTime.IsZero() {
		query += " AND timestamp < ?"
		args = append(args, filter.BeforeTime.UnixNano())
	}

	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mode events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanEvents(rows)
}

// GetRecentEvents retrieves the most recent events up to the specified limit
func (s *SQLiteStorage) GetRecentEvents(ctx context.Context, limit int) ([]*events.ModeEvent, error) {
	return s.GetEvents(ctx, events.EventFilter{Limit: limit})
}

func scanEvents(rows *sql.Rows) ([]*events.ModeEvent, error) {
	var result []*events.ModeEvent

	for rows.Next() {
		var (
			event                      events.ModeEvent
			eventType, mode, sev, data string
			ts                         int64
		)
		if err := rows.Scan(&event.ID, &eventType, &ts, &mode, &sev, &event.Message, &data); err != nil {
			return nil, fmt.Errorf("failed to scan mode event: %w", err)
		}
		event.Type = events.EventType(eventType)
		event.Timestamp = fromUnixNano(ts)
		event.Mode = types.ModeType(mode)
		event.Severity = events.EventSeverity(sev)
		if err := json.Unmarshal([]byte(data), &event.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal data for event %s: %w", event.ID, err)
		}
		result = append(result, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mode events: %w", err)
	}
	return result, nil
}
