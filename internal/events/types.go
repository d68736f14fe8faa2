// Package events defines the audit trail of the mode core: detections,
// switches, hybrid runs and resets are recorded as ModeEvents.
package events

import (
	"context"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

// EventType represents the type of mode event.
type EventType string

const (
	// EventTypeModeDetected indicates a query was classified into a mode
	EventTypeModeDetected EventType = "mode_detected"
	// EventTypeModeSwitched indicates a switch completed successfully
	EventTypeModeSwitched EventType = "mode_switched"
	// EventTypeSwitchRejected indicates a switch failed validation or activation
	EventTypeSwitchRejected EventType = "switch_rejected"
	// EventTypeHybridStarted indicates a hybrid task began executing
	EventTypeHybridStarted EventType = "hybrid_started"
	// EventTypeHybridCompleted indicates a hybrid task finished, successfully or not
	EventTypeHybridCompleted EventType = "hybrid_completed"
	// EventTypeModeReset indicates the manager was reset to its initial state
	EventTypeModeReset EventType = "mode_reset"
	// EventTypePreferencesUpdated indicates user preferences were replaced
	EventTypePreferencesUpdated EventType = "preferences_updated"
	// EventTypeAutoModeChanged indicates automatic mode switching was toggled
	EventTypeAutoModeChanged EventType = "auto_mode_changed"
)

// IsValid checks if the event type value is valid
func (t EventType) IsValid() bool {
	switch t {
	case EventTypeModeDetected, EventTypeModeSwitched, EventTypeSwitchRejected,
		EventTypeHybridStarted, EventTypeHybridCompleted, EventTypeModeReset,
		EventTypePreferencesUpdated, EventTypeAutoModeChanged:
		return true
	}
	return false
}

// EventSeverity represents the severity level of an event.
type EventSeverity string

const (
	// SeverityInfo indicates informational events
	SeverityInfo EventSeverity = "info"
	// SeverityWarning indicates potentially problematic events
	SeverityWarning EventSeverity = "warning"
	// SeverityError indicates error events
	SeverityError EventSeverity = "error"
)

// ModeEvent is one entry of the audit trail.
type ModeEvent struct {
	// ID is the unique identifier for this event
	ID string `json:"id"`
	// Type is the type of event
	Type EventType `json:"type"`
	// Timestamp is when the event occurred
	Timestamp time.Time `json:"timestamp"`
	// Mode is the mode the event concerns (the target for switches)
	Mode types.ModeType `json:"mode"`
	// Severity is the severity level of this event
	Severity EventSeverity `json:"severity"`
	// Message is a human-readable description of the event
	Message string `json:"message"`
	// Data contains structured, type-specific data (must be JSON-serializable)
	Data map[string]interface{} `json:"data"`
}

// DetectionData contains structured data for mode_detected events.
type DetectionData struct {
	Query        string           `json:"query"`
	Confidence   float64          `json:"confidence"`
	Alternatives []types.ModeType `json:"alternatives,omitempty"`
	Fallback     bool             `json:"fallback"`
	AutoSwitched bool             `json:"auto_switched"`
}

// SwitchData contains structured data for mode_switched and
// switch_rejected events.
type SwitchData struct {
	From             types.ModeType   `json:"from"`
	To               types.ModeType   `json:"to"`
	DurationMs       int64            `json:"duration_ms"`
	ContextPreserved int              `json:"context_preserved"`
	Quality          float64          `json:"quality"`
	Path             []types.ModeType `json:"path,omitempty"`
	Reasons          []string         `json:"reasons,omitempty"`
}

// HybridData contains structured data for hybrid_started and
// hybrid_completed events.
type HybridData struct {
	TaskID            string           `json:"task_id"`
	Segments          int              `json:"segments"`
	SegmentsCompleted int              `json:"segments_completed"`
	ModeSwitches      int              `json:"mode_switches"`
	Modes             []types.ModeType `json:"modes"`
	DurationMs        int64            `json:"duration_ms"`
	FailedSegment     string           `json:"failed_segment,omitempty"`
	Fallback          bool             `json:"fallback"`
}

// EventStore defines the interface for storing and retrieving mode events.
type EventStore interface {
	// StoreEvent stores a new event in the event store
	StoreEvent(ctx context.Context, event *ModeEvent) error

	// GetEvents retrieves events matching the given filter, newest first
	GetEvents(ctx context.Context, filter EventFilter) ([]*ModeEvent, error)

	// GetRecentEvents retrieves the most recent events up to the specified limit
	GetRecentEvents(ctx context.Context, limit int) ([]*ModeEvent, error)
}

// EventFilter defines criteria for filtering events.
type EventFilter struct {
	// Type filters events by event type
	Type EventType
	// Mode filters events by mode
	Mode types.ModeType
	// Severity filters events by severity level
	Severity EventSeverity
	// AfterTime filters events that occurred after this time
	AfterTime time.Time
	// BeforeTime filters events that occurred before this time
	BeforeTime time.Time
	// Limit limits the number of events returned
	Limit int
}

// Matches reports whether e passes every criterion of f except Limit.
func (f EventFilter) Matches(e *ModeEvent) bool {
	if f.Type != "" && e.Type != f.Type {
		return false
	}
	if f.Mode != "" && e.Mode != f.Mode {
		return false
	}
	if f.Severity != "" && e.Severity != f.Severity {
		return false
	}
	if !f.AfterTime.IsZero() && !e.Timestamp.After(f.AfterTime) {
		return false
	}
	if !f.BeforeTime.IsZero() && !e.Timestamp.Before(f.BeforeTime) {
		return false
	}
	return true
}
