// Package hybrid breaks a complex request into mode-tagged segments and runs
// them in order, switching modes between segments.
package hybrid

import (
	"fmt"
	"strings"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

// Strategy controls how modes are allocated to segments.
type Strategy string

const (
	// StrategyAdaptive plans complex segments and executes simple ones.
	StrategyAdaptive Strategy = "adaptive"
	// StrategyBalanced rotates Planning, Execution and Analysis.
	StrategyBalanced Strategy = "balanced"
	// StrategyPerformance executes every segment without dependencies.
	StrategyPerformance Strategy = "performance"
	// StrategyQuality starts complex tasks with a planning segment.
	StrategyQuality Strategy = "quality"
)

// ParseStrategy converts a string to a Strategy. The empty string selects
// StrategyAdaptive.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyAdaptive, nil
	case StrategyAdaptive, StrategyBalanced, StrategyPerformance, StrategyQuality:
		return st, nil
	default:
		return "", fmt.Errorf("invalid hybrid strategy %q (expected adaptive, balanced, performance or quality)", s)
	}
}

// Segment is one mode-tagged step of a hybrid task.
type Segment struct {
	ID                string         `json:"id"`
	Description       string         `json:"description"`
	Mode              types.ModeType `json:"mode"`
	Complexity        float64        `json:"complexity"`
	Dependencies      []string       `json:"dependencies,omitempty"`
	EstimatedDuration time.Duration  `json:"estimated_duration"`

	// Parallelizable segments could run alongside their neighbours. They
	// are reported in insights but still run in sequence.
	Parallelizable bool `json:"parallelizable"`
}

// Transition is a planned mode change between adjacent segments.
type Transition struct {
	FromSegment string         `json:"from_segment"`
	ToSegment   string         `json:"to_segment"`
	FromMode    types.ModeType `json:"from_mode"`
	ToMode      types.ModeType `json:"to_mode"`
	Reason      string         `json:"reason"`
}

// Task is a decomposed request ready to execute.
type Task struct {
	ID                string        `json:"id"`
	Description       string        `json:"description"`
	Segments          []Segment     `json:"segments"`
	Complexity        float64       `json:"complexity"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	Transitions       []Transition  `json:"transitions"`
	Strategy          Strategy      `json:"strategy"`
	Fallback          bool          `json:"fallback"` // segments came from the built-in template
	CreatedAt         time.Time     `json:"created_at"`
}

// Modes returns the mode of each segment in order.
func (t *Task) Modes() []types.ModeType {
	out := make([]types.ModeType, len(t.Segments))
	for i, s := range t.Segments {
		out[i] = s.Mode
	}
	return out
}

var (
	dependencyWords = []string{"depends", "requires", "after", "before", "then"}
	riskWords       = []string{"critical", "urgent", "important", "careful", "security"}
)

// Complexity scores a request in [0,1] from its length and its dependency
// and risk vocabulary.
func Complexity(query string) float64 {
	words := strings.Fields(strings.ToLower(query))
	deps, risks := 0, 0
	for _, w := range words {
		w = strings.Trim(w, ".,;:!?\"'()")
		if containsWord(dependencyWords, w) {
			deps++
		}
		if containsWord(riskWords, w) {
			risks++
		}
	}

	score := minf(float64(len(words))/50, 1)*0.2 +
		minf(float64(deps)/5, 1)*0.3 +
		minf(float64(risks)/3, 1)*0.2
	return types.Clamp(score, 0, 1)
}

// allocate assigns modes to segments in place according to strategy.
func allocate(segments []Segment, strategy Strategy, complexity float64) {
	switch strategy {
	case StrategyBalanced:
		rotation := []types.ModeType{types.ModePlanning, types.ModeExecution, types.ModeAnalysis}
		for i := range segments {
			segments[i].Mode = rotation[i%len(rotation)]
		}
	case StrategyPerformance:
		for i := range segments {
			if len(segments[i].Dependencies) == 0 {
				segments[i].Mode = types.ModeExecution
			}
		}
	case StrategyQuality:
		if complexity > 0.6 && len(segments) > 0 {
			segments[0].Mode = types.ModePlanning
		}
	default:
		for i := range segments {
			switch {
			case segments[i].Complexity > 0.7:
				segments[i].Mode = types.ModePlanning
			case segments[i].Complexity < 0.3:
				segments[i].Mode = types.ModeExecution
			}
		}
	}
}

// transitionReason explains a change between adjacent segments.
func transitionReason(from, to types.ModeType) string {
	switch {
	case from == types.ModePlanning && to == types.ModeExecution:
		return "Moving from design to implementation phase"
	case from == types.ModeExecution && to == types.ModeAnalysis:
		return "Need to analyze results before proceeding"
	case from == types.ModeAnalysis && to == types.ModePlanning:
		return "Analysis complete, planning next steps"
	default:
		return "Task requirements dictate mode change"
	}
}

func identifyTransitions(segments []Segment) []Transition {
	var out []Transition
	for i := 1; i < len(segments); i++ {
		prev, next := segments[i-1], segments[i]
		if prev.Mode == next.Mode {
			continue
		}
		out = append(out, Transition{
			FromSegment: prev.ID,
			ToSegment:   next.ID,
			FromMode:    prev.Mode,
			ToMode:      next.Mode,
			Reason:      transitionReason(prev.Mode, next.Mode),
		})
	}
	return out
}

const transitionOverhead = 100 * time.Millisecond

func estimateDuration(segments []Segment, transitions int) time.Duration {
	var total time.Duration
	for _, s := range segments {
		total += s.EstimatedDuration
	}
	return total + time.Duration(transitions)*transitionOverhead
}

func containsWord(list []string, w string) bool {
	for _, x := range list {
		if x == w {
			return true
		}
	}
	return false
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
