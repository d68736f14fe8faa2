package preferences

import (
	"fmt"
	"strings"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

// PatternLearner derives patterns from the detection and switch histories.
type PatternLearner struct {
	ConfidenceThreshold float64
	MinSamples          int
}

// NewPatternLearner returns a learner with the standard thresholds.
func NewPatternLearner() PatternLearner {
	return PatternLearner{ConfidenceThreshold: 0.7, MinSamples: 3}
}

// keyWords are the verbs kept when a query is reduced to its pattern.
var keyWords = []string{"implement", "plan", "analyze", "design", "fix", "create"}

// FromDetection looks for at least MinSamples similar past queries that
// agree on a mode. history must already contain rec.
func (l PatternLearner) FromDetection(rec DetectionRecord, history []DetectionRecord) []Pattern {
	counts := make(map[types.ModeType]int)
	similar := 0
	for _, r := range history {
		if similarQuery(r.Query, rec.Query) {
			similar++
			counts[r.DetectedMode]++
		}
	}
	if similar < l.MinSamples {
		return nil
	}

	var best types.ModeType
	bestCount := 0
	for _, m := range types.AllModes {
		if counts[m] > bestCount {
			best, bestCount = m, counts[m]
		}
	}
	confidence := float64(bestCount) / float64(similar)
	if confidence < l.ConfidenceThreshold {
		return nil
	}
	return []Pattern{{
		Type:        PatternQueryMode,
		Confidence:  confidence,
		Occurrences: bestCount,
		LastSeen:    rec.Timestamp,
		Payload: Payload{
			QueryPattern:  extractPattern(rec.Query),
			PreferredMode: best,
		},
	}}
}

// FromSwitch records the most recent targets as a sequence once at least
// three switches are known. history must already contain rec.
func (l PatternLearner) FromSwitch(rec SwitchRecord, history []SwitchRecord) []Pattern {
	const window = 5
	var seq []types.ModeType
	for i := len(history) - 1; i >= 0 && len(seq) < window; i-- {
		seq = append(seq, history[i].To)
	}
	if len(seq) < 3 {
		return nil
	}
	// oldest first
	for i, j := 0, len(seq)-1; i < j; i, j = i+1, j-1 {
		seq[i], seq[j] = seq[j], seq[i]
	}
	return []Pattern{{
		Type:        PatternSwitchSequence,
		Confidence:  0.6,
		Occurrences: 1,
		LastSeen:    rec.Timestamp,
		Payload:     Payload{Sequence: seq, Frequency: 1},
	}}
}

// similarQuery reports whether more than half of the words of the longer
// query also appear in the other one.
func similarQuery(a, b string) bool {
	wa := strings.Fields(strings.ToLower(a))
	wb := strings.Fields(strings.ToLower(b))
	longest := max(len(wa), len(wb))
	if longest == 0 {
		return false
	}
	set := make(map[string]bool, len(wb))
	for _, w := range wb {
		set[w] = true
	}
	common := 0
	for _, w := range wa {
		if set[w] {
			common++
		}
	}
	return float64(common)/float64(longest) > 0.5
}

func extractPattern(query string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		for _, k := range keyWords {
			if w == k {
				kept = append(kept, w)
				break
			}
		}
	}
	return strings.Join(kept, " ")
}

// BehaviorAnalyzer tracks when the user works in which mode and turns a
// dominant hour of day into a time based pattern.
type BehaviorAnalyzer struct {
	MinSamples int
	Threshold  float64
}

// NewBehaviorAnalyzer returns an analyzer with the standard thresholds.
func NewBehaviorAnalyzer() BehaviorAnalyzer {
	return BehaviorAnalyzer{MinSamples: 3, Threshold: 0.7}
}

// ModePreferences returns the normalized share of each detected mode.
func (BehaviorAnalyzer) ModePreferences(history []DetectionRecord) map[types.ModeType]float64 {
	out := make(map[types.ModeType]float64)
	if len(history) == 0 {
		return out
	}
	for _, r := range history {
		out[r.DetectedMode]++
	}
	for m := range out {
		out[m] /= float64(len(history))
	}
	return out
}

// HourPattern returns a time based pattern when detections made during
// the hour of at are dominated by one mode.
func (a BehaviorAnalyzer) HourPattern(at time.Time, history []DetectionRecord) (Pattern, bool) {
	hour := at.Hour()
	counts := make(map[types.ModeType]int)
	total := 0
	for _, r := range history {
		if r.Timestamp.Hour() == hour {
			counts[r.DetectedMode]++
			total++
		}
	}
	if total < a.MinSamples {
		return Pattern{}, false
	}
	var best types.ModeType
	bestCount := 0
	for _, m := range types.AllModes {
		if counts[m] > bestCount {
			best, bestCount = m, counts[m]
		}
	}
	confidence := float64(bestCount) / float64(total)
	if confidence < a.Threshold {
		return Pattern{}, false
	}
	return Pattern{
		ID:          fmt.Sprintf("%s_%02d", PatternTimeBasedMode, hour),
		Type:        PatternTimeBasedMode,
		Confidence:  confidence,
		Occurrences: bestCount,
		LastSeen:    at,
		Payload:     Payload{HourStart: hour, HourEnd: hour, PreferredMode: best},
	}, true
}
