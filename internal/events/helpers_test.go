package events

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

func TestJSONTagsSnakeCase(t *testing.T) {
	event := &ModeEvent{
		ID:        "test-event-123",
		Type:      EventTypeModeSwitched,
		Timestamp: time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC),
		Mode:      types.ModeExecution,
		Severity:  SeverityInfo,
		Message:   "Switched to execution",
		Data: map[string]interface{}{
			"from": "planning",
			"to":   "execution",
		},
	}

	jsonBytes, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal ModeEvent: %v", err)
	}
	jsonStr := string(jsonBytes)

	for _, field := range []string{`"id"`, `"type"`, `"timestamp"`, `"mode"`, `"severity"`, `"message"`, `"data"`} {
		if !strings.Contains(jsonStr, field) {
			t.Errorf("JSON missing expected field: %s\nGot: %s", field, jsonStr)
		}
	}
}

func TestSwitchDataHelpers(t *testing.T) {
	event := &ModeEvent{Type: EventTypeModeSwitched}
	data := SwitchData{
		From:             types.ModePlanning,
		To:               types.ModeExecution,
		DurationMs:       12,
		ContextPreserved: 4,
		Quality:          0.82,
		Path:             []types.ModeType{types.ModePlanning, types.ModeExecution},
	}

	if err := event.SetSwitchData(data); err != nil {
		t.Fatalf("SetSwitchData failed: %v", err)
	}
	if event.Data["duration_ms"] != float64(12) {
		t.Errorf("duration_ms not stored as snake_case key: %v", event.Data)
	}

	got, err := event.GetSwitchData()
	if err != nil {
		t.Fatalf("GetSwitchData failed: %v", err)
	}
	if got.From != data.From || got.To != data.To || got.ContextPreserved != 4 || got.Quality != 0.82 {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, data)
	}
	if len(got.Path) != 2 || got.Path[1] != types.ModeExecution {
		t.Errorf("Path mismatch: got %v", got.Path)
	}
}

func TestDetectionDataHelpers(t *testing.T) {
	event, err := NewDetectionEvent(types.ModeExecution, "Execution selected", DetectionData{
		Query:        "implement user login quickly",
		Confidence:   0.74,
		Alternatives: []types.ModeType{types.ModeHybrid},
		Fallback:     true,
	})
	if err != nil {
		t.Fatalf("NewDetectionEvent failed: %v", err)
	}
	if event.ID == "" {
		t.Error("event ID should be generated")
	}
	if event.Type != EventTypeModeDetected || event.Severity != SeverityInfo {
		t.Errorf("wrong type or severity: %s %s", event.Type, event.Severity)
	}

	got, err := event.GetDetectionData()
	if err != nil {
		t.Fatalf("GetDetectionData failed: %v", err)
	}
	if got.Query != "implement user login quickly" || !got.Fallback || got.AutoSwitched {
		t.Errorf("unexpected detection data: %+v", got)
	}
}

func TestNewSwitchEventRejected(t *testing.T) {
	event, err := NewSwitchEvent(false, "switch rejected", SwitchData{
		From:    types.ModeLearning,
		To:      types.ModeExecution,
		Reasons: []string{"transition from learning to execution is not allowed"},
	})
	if err != nil {
		t.Fatalf("NewSwitchEvent failed: %v", err)
	}
	if event.Type != EventTypeSwitchRejected {
		t.Errorf("Wrong event type: got %s, want %s", event.Type, EventTypeSwitchRejected)
	}
	if event.Severity != SeverityWarning {
		t.Errorf("Wrong severity: got %s", event.Severity)
	}
	if event.Mode != types.ModeExecution {
		t.Errorf("Mode should be the switch target, got %s", event.Mode)
	}
}

func TestHybridDataHelpers(t *testing.T) {
	event, err := NewHybridEvent(EventTypeHybridCompleted, types.ModeExecution, SeverityError, "segment failed", HybridData{
		TaskID:            "task-1",
		Segments:          3,
		SegmentsCompleted: 1,
		Modes:             []types.ModeType{types.ModeAnalysis, types.ModePlanning, types.ModeExecution},
		FailedSegment:     "seg-2",
	})
	if err != nil {
		t.Fatalf("NewHybridEvent failed: %v", err)
	}
	got, err := event.GetHybridData()
	if err != nil {
		t.Fatalf("GetHybridData failed: %v", err)
	}
	if got.FailedSegment != "seg-2" || got.SegmentsCompleted != 1 || len(got.Modes) != 3 {
		t.Errorf("unexpected hybrid data: %+v", got)
	}
}

func TestNewSimpleEvent(t *testing.T) {
	event := NewSimpleEvent(EventTypeModeReset, types.ModeHybrid, SeverityInfo, "reset")
	if event.Data == nil {
		t.Error("Data should be initialized")
	}
	if !event.Type.IsValid() {
		t.Errorf("%s should be valid", event.Type)
	}
	if EventType("file_modified").IsValid() {
		t.Error("unknown event type should be invalid")
	}

	event = NewEvent(EventTypeAutoModeChanged, types.ModeHybrid, SeverityInfo, "auto on", map[string]interface{}{"enabled": true})
	if event.Data["enabled"] != true {
		t.Errorf("Wrong data: %v", event.Data)
	}
}

func TestEventFilterMatches(t *testing.T) {
	now := time.Now()
	event := &ModeEvent{Type: EventTypeModeSwitched, Mode: types.ModePlanning, Severity: SeverityInfo, Timestamp: now}

	tests := []struct {
		name   string
		filter EventFilter
		want   bool
	}{
		{"empty", EventFilter{}, true},
		{"type match", EventFilter{Type: EventTypeModeSwitched}, true},
		{"type mismatch", EventFilter{Type: EventTypeModeDetected}, false},
		{"mode mismatch", EventFilter{Mode: types.ModeExecution}, false},
		{"severity mismatch", EventFilter{Severity: SeverityError}, false},
		{"after", EventFilter{AfterTime: now.Add(-time.Minute)}, true},
		{"too old", EventFilter{AfterTime: now}, false},
		{"before", EventFilter{BeforeTime: now.Add(time.Minute)}, true},
		{"too new", EventFilter{BeforeTime: now}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(event); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}
