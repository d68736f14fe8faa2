package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// EventCounts holds event count statistics for monitoring
type EventCounts struct {
	TotalEvents      int
	EventsByMode     map[string]int
	EventsBySeverity map[string]int
	EventsByType     map[string]int
}

// CleanupEventsByAge deletes events older than the retention period.
// Info and warning events are deleted after retentionDays, error events
// after errorRetentionDays. Deletions are batched (batchSize events per
// statement).
func (s *SQLiteStorage) CleanupEventsByAge(ctx context.Context, retentionDays, errorRetentionDays, batchSize int) (int, error) {
	if retentionDays < 0 || errorRetentionDays < 0 {
		return 0, fmt.Errorf("retention days cannot be negative")
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	now := time.Now()
	totalDeleted := 0

	deleted, err := s.deleteOldEventsBatch(ctx, now.AddDate(0, 0, -retentionDays), []string{"info", "warning"}, batchSize)
	totalDeleted += deleted
	if err != nil {
		return totalDeleted, fmt.Errorf("failed to delete old regular events: %w", err)
	}

	deleted, err = s.deleteOldEventsBatch(ctx, now.AddDate(0, 0, -errorRetentionDays), []string{"error"}, batchSize)
	totalDeleted += deleted
	if err != nil {
		return totalDeleted, fmt.Errorf("failed to delete old error events: %w", err)
	}

	return totalDeleted, nil
}

// deleteOldEventsBatch deletes events older than cutoff with the given
// severities, batchSize rows at a time.
func (s *SQLiteStorage) deleteOldEventsBatch(ctx context.Context, cutoff time.Time, severities []string, batchSize int) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(severities)), ", ")
	query := fmt.Sprintf(`
		DELETE FROM mode_events
		WHERE id IN (
			SELECT id FROM mode_events
			WHERE timestamp < ? AND severity IN (%s)
			ORDER BY timestamp ASC
			LIMIT ?
		)
	`, placeholders)

	args := []interface{}{cutoff.UnixNano()}
	for _, sev := range severities {
		args = append(args, sev)
	}
	args = append(args, batchSize)

	totalDeleted := 0
	for {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		result, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to execute delete: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to get rows affected: %w", err)
		}
		totalDeleted += int(rowsAffected)

		if rowsAffected < int64(batchSize) {
			return totalDeleted, nil
		}
	}
}

// CleanupEventsByGlobalLimit deletes the oldest non-error events until at
// most globalLimit events remain.
func (s *SQLiteStorage) CleanupEventsByGlobalLimit(ctx context.Context, globalLimit, batchSize int) (int, error) {
	if globalLimit < 1 {
		return 0, fmt.Errorf("global limit must be at least 1")
	}
	if batchSize < 1 {
		return 0, fmt.Errorf("batch size must be at least 1")
	}

	var currentCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mode_events").Scan(&currentCount); err != nil {
		return 0, fmt.Errorf("failed to get event count: %w", err)
	}
	if currentCount <= globalLimit {
		return 0, nil
	}

	eventsToDelete := currentCount - globalLimit
	totalDeleted := 0

	for eventsToDelete > 0 {
		if err := ctx.Err(); err != nil {
			return totalDeleted, err
		}

		limitThisBatch := min(batchSize, eventsToDelete)
		result, err := s.db.ExecContext(ctx, `
			DELETE FROM mode_events
			WHERE id IN (
				SELECT id FROM mode_events
				WHERE severity != 'error'
				ORDER BY timestamp ASC
				LIMIT ?
			)
		`, limitThisBatch)
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to execute delete: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return totalDeleted, fmt.Errorf("failed to get rows affected: %w", err)
		}

		totalDeleted += int(rowsAffected)
		eventsToDelete -= int(rowsAffected)

		// only error events left
		if rowsAffected < int64(limitThisBatch) {
			break
		}
	}

	return totalDeleted, nil
}

// GetEventCounts returns detailed event count statistics for monitoring
func (s *SQLiteStorage) GetEventCounts(ctx context.Context) (*EventCounts, error) {
	counts := &EventCounts{
		EventsByMode:     make(map[string]int),
		EventsBySeverity: make(map[string]int),
		EventsByType:     make(map[string]int),
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mode_events").Scan(&counts.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to get total event count: %w", err)
	}

	for column, dest := range map[string]map[string]int{
		"mode":     counts.EventsByMode,
		"severity": counts.EventsBySeverity,
		"type":     counts.EventsByType,
	} {
		if err := s.countBy(ctx, column, dest); err != nil {
			return nil, err
		}
	}
	return counts, nil
}

func (s *SQLiteStorage) countBy(ctx context.Context, column string, dest map[string]int) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s, COUNT(*)
		FROM mode_events
		GROUP BY %s
	`, column, column))
	if err != nil {
		return fmt.Errorf("failed to query events by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan %s count: %w", column, err)
		}
		dest[key] = count
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating %s counts: %w", column, err)
	}
	return nil
}

// VacuumDatabase runs the VACUUM command to reclaim disk space
func (s *SQLiteStorage) VacuumDatabase(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
