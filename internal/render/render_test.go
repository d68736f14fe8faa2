package render

import (
	"bytes"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/manager"
	"github.com/hivetechs/hive/internal/modectx"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func TestConfidenceBar(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{0, "[░░░░░░░░░░░░░░░░░░░░] 0%"},
		{0.5, "[██████████░░░░░░░░░░] 50%"},
		{1, "[████████████████████] 100%"},
		{1.5, "[████████████████████] 150%"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ConfidenceBar(tt.confidence))
	}
}

func TestMiniAndUsageBars(t *testing.T) {
	assert.Equal(t, "▪▪▪▪▫▫▫▫▫▫", MiniBar(0.4))
	assert.Equal(t, "▫▫▫▫▫▫▫▫▫▫", MiniBar(-1))
	assert.Equal(t, "███████████████", UsageBar(1))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(0))
	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m 5s", FormatDuration(125*time.Second))
	assert.Equal(t, "1h 30m", FormatDuration(90*time.Minute))
}

func TestHealth(t *testing.T) {
	assert.Equal(t, "Excellent", Health(manager.HealthExcellent))
	assert.Equal(t, "Critical", Health(manager.HealthCritical))
	assert.Equal(t, "Unknown", Health(""))
}

func TestStatusShowsLearningOnlyAfterDetections(t *testing.T) {
	status := manager.Status{
		CurrentMode:    types.ModePlanning,
		Confidence:     0.9,
		ActiveDuration: 125 * time.Second,
		ContextItems:   3,
		Health:         manager.HealthExcellent,
		HealthScore:    100,
	}

	var buf bytes.Buffer
	Status(&buf, status, preferences.LearningStats{})
	out := buf.String()
	assert.Contains(t, out, "Current Mode: 📋 Planning")
	assert.Contains(t, out, "Active:       2m 5s")
	assert.Contains(t, out, "Context:      3 items")
	assert.Contains(t, out, "Auto Mode:    off")
	assert.NotContains(t, out, "Last Switch")
	assert.NotContains(t, out, "Detections")

	buf.Reset()
	status.LastSwitch = time.Now()
	Status(&buf, status, preferences.LearningStats{TotalDetections: 4, ModeAccuracy: 0.75})
	out = buf.String()
	assert.Contains(t, out, "Last Switch")
	assert.Contains(t, out, "Detections:   4")
	assert.Contains(t, out, "Accuracy:     75%")
}

func TestSwitchOutcomes(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var buf bytes.Buffer
		Switch(&buf, &switcher.Result{
			Success:         true,
			From:            types.ModePlanning,
			To:              types.ModeExecution,
			Duration:        12 * time.Millisecond,
			Transformation:  modectx.Transformation{Preserved: 2, Transformed: 1, Quality: 0.9},
			Recommendations: []string{"Start with the smallest change"},
		}, nil)
		out := buf.String()
		assert.Contains(t, out, "✓ Mode switch successful!")
		assert.Contains(t, out, "Duration: 12ms")
		assert.Contains(t, out, "Preserved:   2")
		assert.Contains(t, out, "Quality:     90%")
		assert.Contains(t, out, "• Start with the smallest change")
	})

	t.Run("rejected", func(t *testing.T) {
		var buf bytes.Buffer
		err := &types.ValidationError{Op: "switch", Reasons: []string{"no direct transition"}}
		Switch(&buf, &switcher.Result{
			From:     types.ModeLearning,
			To:       types.ModeExecution,
			Warnings: []string{"no direct transition"},
		}, err)
		out := buf.String()
		assert.Contains(t, out, "✗ Mode switch failed")
		assert.Contains(t, out, "⚠ no direct transition")
	})

	t.Run("no result", func(t *testing.T) {
		var buf bytes.Buffer
		Switch(&buf, nil, errors.New("boom"))
		assert.Contains(t, buf.String(), "Mode switch failed: boom")
	})

	t.Run("same mode", func(t *testing.T) {
		var buf bytes.Buffer
		Switch(&buf, &switcher.Result{Success: true, From: types.ModeHybrid, To: types.ModeHybrid}, nil)
		assert.Contains(t, buf.String(), "Already in 🔄 Hybrid mode")
	})
}

func TestRoute(t *testing.T) {
	var buf bytes.Buffer
	Route(&buf, types.ModeExecution, []*switcher.Result{
		{Success: true, From: types.ModeLearning, To: types.ModeHybrid},
		{Success: true, From: types.ModeHybrid, To: types.ModeExecution},
	}, nil)
	out := buf.String()
	assert.Contains(t, out, "1. learning → hybrid")
	assert.Contains(t, out, "2. hybrid → execution")
	assert.Contains(t, out, "Reached ⚡ Execution")

	buf.Reset()
	Route(&buf, types.ModeExecution, nil, nil)
	assert.Contains(t, buf.String(), "Already in")
}

func TestPath(t *testing.T) {
	assert.Equal(t, "planning → hybrid → analysis", Path([]types.ModeType{types.ModePlanning, types.ModeHybrid, types.ModeAnalysis}))
	assert.Equal(t, "", Path(nil))
}

func TestPreferencesListsUsage(t *testing.T) {
	var buf bytes.Buffer
	Preferences(&buf, preferences.DefaultUserPreference(), preferences.LearningStats{
		ModeDistribution: map[types.ModeType]int{types.ModePlanning: 3, types.ModeExecution: 1},
		TopPatterns:      []preferences.PatternCount{{Type: preferences.PatternQueryMode, Occurrences: 5}},
	})
	out := buf.String()
	assert.Contains(t, out, "Learning:        enabled")
	assert.Contains(t, out, "75% (3)")
	assert.Contains(t, out, "25% (1)")
	assert.Contains(t, out, "• query_mode (5x)")
	assert.NotContains(t, out, "Analysis")
}

func TestEventMetadata(t *testing.T) {
	detected, err := events.NewDetectionEvent(types.ModeExecution, "Detected execution mode", events.DetectionData{
		Query:        "fix the bug",
		Confidence:   0.82,
		AutoSwitched: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "82% | auto-switched", eventMetadata(detected))

	switched, err := events.NewSwitchEvent(true, "Switched", events.SwitchData{
		From:             types.ModePlanning,
		To:               types.ModeExecution,
		DurationMs:       1500,
		ContextPreserved: 3,
		Quality:          0.8,
	})
	require.NoError(t, err)
	assert.Equal(t, "planning → execution | 1.5s | 3 preserved | 80% quality", eventMetadata(switched))

	rejected, err := events.NewSwitchEvent(false, "Rejected", events.SwitchData{
		From:    types.ModeLearning,
		To:      types.ModeExecution,
		Reasons: []string{"no direct transition"},
	})
	require.NoError(t, err)
	assert.Equal(t, "learning → execution | no direct transition", eventMetadata(rejected))

	completed, err := events.NewHybridEvent(events.EventTypeHybridCompleted, types.ModeExecution, events.SeverityError, "failed",
		events.HybridData{Segments: 3, SegmentsCompleted: 1, ModeSwitches: 1, FailedSegment: "seg-2"})
	require.NoError(t, err)
	assert.Equal(t, "1/3 segments | 1 switches | seg-2", eventMetadata(completed))
	assert.Equal(t, "❌", eventIcon(completed))

	simple := events.NewSimpleEvent(events.EventTypeModeReset, types.ModeHybrid, events.SeverityInfo, "Reset")
	assert.Equal(t, "", eventMetadata(simple))
}

func TestEventsPrintsOldestFirst(t *testing.T) {
	first := events.NewSimpleEvent(events.EventTypeModeReset, types.ModeHybrid, events.SeverityInfo, "first")
	second := events.NewSimpleEvent(events.EventTypeAutoModeChanged, types.ModeHybrid, events.SeverityInfo, "second")

	var buf bytes.Buffer
	Events(&buf, []*events.ModeEvent{second, first})
	out := buf.String()
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("first")), bytes.Index(buf.Bytes(), []byte("second")), out)

	buf.Reset()
	Events(&buf, nil)
	assert.Equal(t, "No events\n", buf.String())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, "...", truncate("abcdef", 1))
}
