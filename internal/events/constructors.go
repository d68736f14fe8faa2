package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/hivetechs/hive/internal/types"
)

func newEvent(eventType EventType, mode types.ModeType, severity EventSeverity, message string) *ModeEvent {
	return &ModeEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Mode:      mode,
		Severity:  severity,
		Message:   message,
	}
}

// NewDetectionEvent creates a mode_detected event with type-safe data.
func NewDetectionEvent(mode types.ModeType, message string, data DetectionData) (*ModeEvent, error) {
	event := newEvent(EventTypeModeDetected, mode, SeverityInfo, message)
	if err := event.SetDetectionData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewSwitchEvent creates a mode_switched event, or a switch_rejected event
// with warning severity when success is false.
func NewSwitchEvent(success bool, message string, data SwitchData) (*ModeEvent, error) {
	eventType, severity := EventTypeModeSwitched, SeverityInfo
	if !success {
		eventType, severity = EventTypeSwitchRejected, SeverityWarning
	}
	event := newEvent(eventType, data.To, severity, message)
	if err := event.SetSwitchData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewHybridEvent creates a hybrid_started or hybrid_completed event.
func NewHybridEvent(eventType EventType, mode types.ModeType, severity EventSeverity, message string, data HybridData) (*ModeEvent, error) {
	event := newEvent(eventType, mode, severity, message)
	if err := event.SetHybridData(data); err != nil {
		return nil, err
	}
	return event, nil
}

// NewSimpleEvent creates an event without structured data.
func NewSimpleEvent(eventType EventType, mode types.ModeType, severity EventSeverity, message string) *ModeEvent {
	event := newEvent(eventType, mode, severity, message)
	event.Data = make(map[string]interface{})
	return event
}

// NewEvent creates an event with free-form data.
func NewEvent(eventType EventType, mode types.ModeType, severity EventSeverity, message string, data map[string]interface{}) *ModeEvent {
	event := newEvent(eventType, mode, severity, message)
	if data == nil {
		data = make(map[string]interface{})
	}
	event.Data = data
	return event
}
