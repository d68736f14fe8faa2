// Package preferences learns from past detections, switches and hybrid runs
// and feeds what it learns back into mode detection.
package preferences

import (
	"fmt"
	"time"

	"github.com/hivetechs/hive/internal/types"
	"golang.org/x/mod/semver"
)

// DataVersion is the schema version stamped on LearningData. Loading data
// with a different major version is refused.
const DataVersion = "v1.0.0"

const (
	maxDetectionHistory = 1000
	maxSwitchHistory    = 500
	maxPatterns         = 500
)

// PatternType classifies a learned pattern.
type PatternType string

const (
	PatternQueryMode      PatternType = "query_mode"
	PatternSwitchSequence PatternType = "switch_sequence"
	PatternTimeBasedMode  PatternType = "time_based_mode"
	PatternContextualMode PatternType = "contextual_mode"
)

// Payload holds the pattern-specific data. Only the fields relevant to the
// pattern's Type are set.
type Payload struct {
	QueryPattern  string            `json:"query_pattern,omitempty"`
	PreferredMode types.ModeType    `json:"preferred_mode,omitempty"`
	Sequence      []types.ModeType  `json:"sequence,omitempty"`
	Frequency     float64           `json:"frequency,omitempty"`
	HourStart     int               `json:"hour_start,omitempty"`
	HourEnd       int               `json:"hour_end,omitempty"`
	ProjectType   types.ProjectType `json:"project_type,omitempty"`
}

// Pattern is a learned regularity in the user's behavior.
type Pattern struct {
	ID          string      `json:"id"`
	Type        PatternType `json:"type"`
	Confidence  float64     `json:"confidence"`
	Occurrences int         `json:"occurrences"`
	LastSeen    time.Time   `json:"last_seen"`
	Payload     Payload     `json:"payload"`
}

// coversHour reports whether a time based pattern applies at hour.
func (p Pattern) coversHour(hour int) bool {
	return p.Type == PatternTimeBasedMode && hour >= p.Payload.HourStart && hour <= p.Payload.HourEnd
}

// DetectionRecord is one remembered detection. ActualMode is set when the
// user overrides the detected mode.
type DetectionRecord struct {
	Query        string         `json:"query"`
	DetectedMode types.ModeType `json:"detected_mode"`
	ActualMode   types.ModeType `json:"actual_mode,omitempty"`
	Confidence   float64        `json:"confidence"`
	Timestamp    time.Time      `json:"timestamp"`
	ContextHash  string         `json:"context_hash"`
}

// Correct reports whether the detection was not overridden.
func (r DetectionRecord) Correct() bool {
	return r.ActualMode == "" || r.ActualMode == r.DetectedMode
}

// SwitchRecord is one remembered mode switch.
type SwitchRecord struct {
	From          types.ModeType `json:"from"`
	To            types.ModeType `json:"to"`
	Success       bool           `json:"success"`
	Duration      time.Duration  `json:"duration"`
	Timestamp     time.Time      `json:"timestamp"`
	UserInitiated bool           `json:"user_initiated"`
}

// LearningData is everything the manager has learned. It is the unit that
// gets persisted.
type LearningData struct {
	Version          string             `json:"version"`
	TotalDetections  int                `json:"total_detections"`
	TotalSwitches    int                `json:"total_switches"`
	DetectionHistory []DetectionRecord  `json:"detection_history"`
	SwitchHistory    []SwitchRecord     `json:"switch_history"`
	Patterns         map[string]Pattern `json:"patterns"`
	Preferences      UserPreference     `json:"preferences"`
}

// NewLearningData returns empty learning data with default preferences.
func NewLearningData() LearningData {
	return LearningData{
		Version:     DataVersion,
		Patterns:    make(map[string]Pattern),
		Preferences: DefaultUserPreference(),
	}
}

// CheckVersion verifies that the data was written by a compatible version.
func (d LearningData) CheckVersion() error {
	return CheckVersion(d.Version)
}

// CheckVersion verifies that version shares DataVersion's major version.
func CheckVersion(version string) error {
	if !semver.IsValid(version) {
		return &types.ValidationError{
			Op:      "load learning data",
			Reasons: []string{fmt.Sprintf("invalid version %q", version)},
		}
	}
	if semver.Major(version) != semver.Major(DataVersion) {
		return &types.ValidationError{
			Op:      "load learning data",
			Reasons: []string{fmt.Sprintf("version %s is incompatible with %s", version, DataVersion)},
		}
	}
	return nil
}

func (d LearningData) clone() LearningData {
	out := d
	out.DetectionHistory = append([]DetectionRecord(nil), d.DetectionHistory...)
	out.SwitchHistory = append([]SwitchRecord(nil), d.SwitchHistory...)
	out.Patterns = make(map[string]Pattern, len(d.Patterns))
	for k, p := range d.Patterns {
		p.Payload.Sequence = append([]types.ModeType(nil), p.Payload.Sequence...)
		out.Patterns[k] = p
	}
	out.Preferences = d.Preferences.Clone()
	return out
}

// ConfidenceWeights weigh the evidence sources when learned preferences are
// blended into detection.
type ConfidenceWeights struct {
	Historical  float64 `json:"historical" yaml:"historical"`
	Contextual  float64 `json:"contextual" yaml:"contextual"`
	Temporal    float64 `json:"temporal" yaml:"temporal"`
	SuccessRate float64 `json:"success_rate" yaml:"success_rate"`
}

// UserPreference holds the user's stated and learned preferences.
type UserPreference struct {
	Base              types.PlanningPreferences  `json:"base" yaml:"base"`
	LearningEnabled   bool                       `json:"learning_enabled" yaml:"learning_enabled"`
	AdaptationRate    float64                    `json:"adaptation_rate" yaml:"adaptation_rate"`
	ConfidenceWeights ConfidenceWeights          `json:"confidence_weights" yaml:"confidence_weights"`
	ModeBiases        map[types.ModeType]float64 `json:"mode_biases" yaml:"mode_biases"`
}

// DefaultUserPreference returns the preferences of a new user.
func DefaultUserPreference() UserPreference {
	return UserPreference{
		Base: types.PlanningPreferences{
			PreferredMode:      types.ModeHybrid,
			PreferenceStrength: 0.5,
		},
		LearningEnabled: true,
		AdaptationRate:  0.3,
		ConfidenceWeights: ConfidenceWeights{
			Historical:  0.3,
			Contextual:  0.3,
			Temporal:    0.2,
			SuccessRate: 0.2,
		},
		ModeBiases: make(map[types.ModeType]float64),
	}
}

// Validate checks that the preference values are in range.
func (p UserPreference) Validate() error {
	var reasons []string
	if p.Base.PreferredMode != "" && !p.Base.PreferredMode.IsValid() {
		reasons = append(reasons, fmt.Sprintf("invalid preferred mode %q", p.Base.PreferredMode))
	}
	if p.Base.PreferenceStrength < 0 || p.Base.PreferenceStrength > 1 {
		reasons = append(reasons, fmt.Sprintf("preference strength must be between 0 and 1 (got %.2f)", p.Base.PreferenceStrength))
	}
	if p.AdaptationRate < 0 || p.AdaptationRate > 1 {
		reasons = append(reasons, fmt.Sprintf("adaptation rate must be between 0 and 1 (got %.2f)", p.AdaptationRate))
	}
	for mode, bias := range p.ModeBiases {
		if !mode.IsValid() {
			reasons = append(reasons, fmt.Sprintf("bias for invalid mode %q", mode))
			continue
		}
		if bias < 0 || bias > maxBias {
			reasons = append(reasons, fmt.Sprintf("bias for %s must be between 0 and %.1f (got %.2f)", mode, maxBias, bias))
		}
	}
	if len(reasons) > 0 {
		return &types.ValidationError{Op: "update preferences", Reasons: reasons}
	}
	return nil
}

// Clone returns a deep copy.
func (p UserPreference) Clone() UserPreference {
	out := p
	out.ModeBiases = make(map[types.ModeType]float64, len(p.ModeBiases))
	for m, b := range p.ModeBiases {
		out.ModeBiases[m] = b
	}
	return out
}

// PatternCount is an aggregate of pattern occurrences for one pattern type.
type PatternCount struct {
	Type        PatternType `json:"type"`
	Occurrences int         `json:"occurrences"`
}

// LearningStats summarizes the learning data.
type LearningStats struct {
	TotalDetections     int                    `json:"total_detections"`
	TotalSwitches       int                    `json:"total_switches"`
	ModeAccuracy        float64                `json:"mode_accuracy"`
	PreferenceInfluence float64                `json:"preference_influence"`
	TopPatterns         []PatternCount         `json:"top_patterns"`
	ModeDistribution    map[types.ModeType]int `json:"mode_distribution"`
	LearningEnabled     bool                   `json:"learning_enabled"`
}
