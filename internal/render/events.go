package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/hivetechs/hive/internal/events"
)

// Event prints one event in a two-line format: a headline with time, mode,
// type and message, then a gray line of the key fields for its type.
func Event(w io.Writer, event *events.ModeEvent) {
	severity := severityColor(event.Severity)
	timestamp := event.Timestamp.Local().Format("15:04:05")
	mode := color.New(color.FgGreen).Sprint(event.Mode)
	eventType := color.New(color.FgMagenta).Sprint(event.Type)

	// keep the headline within ~80 columns
	maxMessageLen := 60 - len(string(event.Mode)) - len(string(event.Type))
	message := truncate(event.Message, maxMessageLen)

	fmt.Fprintf(w, "%s [%s] %s %s: %s\n", eventIcon(event), timestamp, mode, eventType, severity.Sprint(message))
	if metadata := eventMetadata(event); metadata != "" {
		fmt.Fprintf(w, "  %s\n", gray(metadata))
	} else {
		fmt.Fprintln(w)
	}
}

// Events prints events oldest first. The store returns them newest first.
func Events(w io.Writer, evs []*events.ModeEvent) {
	if len(evs) == 0 {
		fmt.Fprintf(w, "%s\n", gray("No events"))
		return
	}
	for i := len(evs) - 1; i >= 0; i-- {
		Event(w, evs[i])
	}
}

func eventIcon(event *events.ModeEvent) string {
	switch event.Type {
	case events.EventTypeModeDetected:
		return "🎯"
	case events.EventTypeModeSwitched:
		return "🔀"
	case events.EventTypeSwitchRejected:
		return "🚫"
	case events.EventTypeHybridStarted:
		return "🚀"
	case events.EventTypeHybridCompleted:
		if event.Severity == events.SeverityError {
			return "❌"
		}
		return "✅"
	case events.EventTypeModeReset:
		return "🧹"
	case events.EventTypePreferencesUpdated:
		return "📝"
	case events.EventTypeAutoModeChanged:
		return "🤖"
	}

	switch event.Severity {
	case events.SeverityWarning:
		return "⚠️"
	case events.SeverityError:
		return "❌"
	default:
		return "ℹ️"
	}
}

func severityColor(severity events.EventSeverity) *color.Color {
	switch severity {
	case events.SeverityInfo:
		return color.New(color.FgCyan)
	case events.SeverityWarning:
		return color.New(color.FgYellow)
	case events.SeverityError:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgWhite)
	}
}

// eventMetadata extracts the key fields of an event as a pipe-separated
// line.
func eventMetadata(event *events.ModeEvent) string {
	var fields []string

	switch event.Type {
	case events.EventTypeModeDetected:
		// mode_detected: confidence | auto switch | fallback
		confidence := fmt.Sprintf("%.0f%%", floatField(event.Data, "confidence", 0)*100)
		auto := ""
		if boolField(event.Data, "auto_switched", false) {
			auto = "auto-switched"
		}
		fallback := ""
		if boolField(event.Data, "fallback", false) {
			fallback = "heuristics only"
		}
		fields = []string{confidence, auto, fallback}

	case events.EventTypeModeSwitched:
		// mode_switched: from -> to | duration | preserved | quality
		route := stringField(event.Data, "from", "?") + " → " + stringField(event.Data, "to", "?")
		duration := formatDurationMs(intField(event.Data, "duration_ms", 0))
		preserved := fmt.Sprintf("%d preserved", intField(event.Data, "context_preserved", 0))
		quality := fmt.Sprintf("%.0f%% quality", floatField(event.Data, "quality", 0)*100)
		fields = []string{route, duration, preserved, quality}

	case events.EventTypeSwitchRejected:
		// switch_rejected: from -> to | first reason
		route := stringField(event.Data, "from", "?") + " → " + stringField(event.Data, "to", "?")
		reason := ""
		if reasons, ok := event.Data["reasons"].([]interface{}); ok && len(reasons) > 0 {
			reason, _ = reasons[0].(string)
		}
		fields = []string{route, truncate(reason, 40)}

	case events.EventTypeHybridStarted, events.EventTypeHybridCompleted:
		// hybrid: progress | switches | duration | failed segment
		progress := fmt.Sprintf("%d/%d segments", intField(event.Data, "segments_completed", 0), intField(event.Data, "segments", 0))
		if event.Type == events.EventTypeHybridStarted {
			progress = fmt.Sprintf("%d segments", intField(event.Data, "segments", 0))
		}
		switches := ""
		if n := intField(event.Data, "mode_switches", 0); n > 0 {
			switches = fmt.Sprintf("%d switches", n)
		}
		duration := ""
		if ms := intField(event.Data, "duration_ms", 0); ms > 0 {
			duration = formatDurationMs(ms)
		}
		fields = []string{progress, switches, duration, stringField(event.Data, "failed_segment", "")}
	}

	return truncate(joinFields(fields), 70)
}

func stringField(data map[string]interface{}, key, defaultValue string) string {
	if val, ok := data[key].(string); ok {
		return val
	}
	return defaultValue
}

func intField(data map[string]interface{}, key string, defaultValue int) int {
	switch val := data[key].(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		return int(val)
	}
	return defaultValue
}

func floatField(data map[string]interface{}, key string, defaultValue float64) float64 {
	switch val := data[key].(type) {
	case float64:
		return val
	case int:
		return float64(val)
	}
	return defaultValue
}

func boolField(data map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := data[key].(bool); ok {
		return val
	}
	return defaultValue
}

func formatDurationMs(ms int) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	return fmt.Sprintf("%.1fm", float64(ms)/60000)
}

// joinFields joins the non-empty fields with " | ".
func joinFields(fields []string) string {
	nonEmpty := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			nonEmpty = append(nonEmpty, f)
		}
	}
	return strings.Join(nonEmpty, " | ")
}

func truncate(s string, maxLen int) string {
	if maxLen <= 3 {
		maxLen = 3
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
