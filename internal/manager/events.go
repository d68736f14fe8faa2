package manager

import (
	"context"

	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/events"
)

// emit stores an event. buildErr is the error of the constructor that
// produced event, so callers can pass a constructor's results straight
// through. Event failures are logged and never fail the operation that
// produced the event.
func (m *ModeManager) emit(ctx context.Context, event *events.ModeEvent, buildErr error) {
	if buildErr != nil {
		m.logger.Warn("failed to build mode event", zap.Error(buildErr))
		return
	}
	if event == nil {
		return
	}
	if err := m.store.StoreEvent(ctx, event); err != nil {
		m.logger.Warn("failed to store mode event",
			zap.String("type", string(event.Type)),
			zap.Error(err))
	}
}

// RecentEvents returns up to limit of the most recent events, newest first.
func (m *ModeManager) RecentEvents(ctx context.Context, limit int) ([]*events.ModeEvent, error) {
	return m.store.GetRecentEvents(ctx, limit)
}

// Events returns the events matching filter, newest first.
func (m *ModeManager) Events(ctx context.Context, filter events.EventFilter) ([]*events.ModeEvent, error) {
	return m.store.GetEvents(ctx, filter)
}

func (m *ModeManager) preferencesEvent(msg string) *events.ModeEvent {
	return events.NewSimpleEvent(events.EventTypePreferencesUpdated, m.CurrentMode(), events.SeverityInfo, msg)
}
