package manager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/config"
)

// CleanupResult reports one cycle of event cleanup.
type CleanupResult struct {
	TimeBasedDeleted   int           `json:"time_based_deleted"`
	GlobalLimitDeleted int           `json:"global_limit_deleted"`
	EventsRemaining    int           `json:"events_remaining"`
	Vacuumed           bool          `json:"vacuumed"`
	Duration           time.Duration `json:"duration"`
}

// TotalDeleted is the number of events removed by the cycle.
func (r CleanupResult) TotalDeleted() int {
	return r.TimeBasedDeleted + r.GlobalLimitDeleted
}

// RunEventCleanup executes one cycle of event cleanup: events past their
// retention are deleted, then the oldest non-error events once the store
// reaches 95% of the global limit, then the database is optionally
// vacuumed.
func (m *ModeManager) RunEventCleanup(ctx context.Context, cfg config.EventRetentionConfig) (*CleanupResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event retention configuration: %w", err)
	}
	start := time.Now()
	result := &CleanupResult{}

	deleted, err := m.store.CleanupEventsByAge(ctx, cfg.RetentionDays, cfg.RetentionErrorDays, cfg.CleanupBatchSize)
	if err != nil {
		return result, fmt.Errorf("time-based cleanup failed: %w", err)
	}
	result.TimeBasedDeleted = deleted

	deleted, err = m.store.CleanupEventsByGlobalLimit(ctx, cfg.GlobalTrigger(), cfg.CleanupBatchSize)
	if err != nil {
		return result, fmt.Errorf("global limit cleanup failed: %w", err)
	}
	result.GlobalLimitDeleted = deleted

	if cfg.CleanupVacuum && result.TotalDeleted() > 0 {
		if err := m.store.VacuumDatabase(ctx); err != nil {
			m.logger.Warn("event cleanup: vacuum failed", zap.Error(err))
		} else {
			result.Vacuumed = true
		}
	}

	counts, err := m.store.GetEventCounts(ctx)
	if err != nil {
		m.logger.Warn("event cleanup: failed to count events", zap.Error(err))
	} else if counts != nil {
		result.EventsRemaining = counts.TotalEvents
	}
	result.Duration = time.Since(start)

	if result.TotalDeleted() > 0 || result.Vacuumed {
		m.logger.Info("event cleanup completed",
			zap.Int("deleted", result.TotalDeleted()),
			zap.Int("time_based", result.TimeBasedDeleted),
			zap.Int("global_limit", result.GlobalLimitDeleted),
			zap.Bool("vacuumed", result.Vacuumed),
			zap.Int("remaining", result.EventsRemaining),
			zap.Duration("duration", result.Duration))
	}
	return result, nil
}

// EventCleaner runs event cleanup in the background until stopped.
type EventCleaner struct {
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

// StartEventCleanup runs one cleanup cycle immediately and then one per
// configured interval until the cleaner is stopped or ctx is cancelled.
// With cleanup disabled the returned cleaner does nothing.
func (m *ModeManager) StartEventCleanup(ctx context.Context, cfg config.EventRetentionConfig) (*EventCleaner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event retention configuration: %w", err)
	}
	c := &EventCleaner{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	if !cfg.CleanupEnabled {
		m.logger.Debug("event cleanup disabled")
		close(c.doneCh)
		return c, nil
	}

	interval := time.Duration(cfg.CleanupIntervalHours) * time.Hour
	m.logger.Debug("event cleanup started",
		zap.Duration("interval", interval),
		zap.Int("retention_days", cfg.RetentionDays),
		zap.Int("global_limit", cfg.GlobalLimitEvents))

	go m.eventCleanupLoop(ctx, cfg, interval, c)
	return c, nil
}

func (m *ModeManager) eventCleanupLoop(ctx context.Context, cfg config.EventRetentionConfig, interval time.Duration, c *EventCleaner) {
	defer close(c.doneCh)

	if _, err := m.RunEventCleanup(ctx, cfg); err != nil {
		m.logger.Warn("event cleanup: initial cleanup failed", zap.Error(err))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case <-ticker.C:
			if _, err := m.RunEventCleanup(ctx, cfg); err != nil {
				m.logger.Warn("event cleanup failed", zap.Error(err))
			}
		}
	}
}

// Stop ends the cleanup loop and waits for it to exit. It is safe to call
// more than once.
func (c *EventCleaner) Stop() {
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}
