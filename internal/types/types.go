package types

import (
	"fmt"
	"strings"
)

// ModeType is one of the operating modes a query or task is handled in.
type ModeType string

const (
	ModePlanning  ModeType = "planning"
	ModeExecution ModeType = "execution"
	ModeHybrid    ModeType = "hybrid"
	ModeAnalysis  ModeType = "analysis"
	ModeLearning  ModeType = "learning"
)

// AllModes lists every mode in tie-break order. When two modes score the
// same, the one appearing first here wins.
var AllModes = []ModeType{
	ModePlanning,
	ModeExecution,
	ModeHybrid,
	ModeAnalysis,
	ModeLearning,
}

// DefaultMode is the mode a fresh manager starts in.
const DefaultMode = ModeHybrid

// IsValid checks if the mode value is valid
func (m ModeType) IsValid() bool {
	switch m {
	case ModePlanning, ModeExecution, ModeHybrid, ModeAnalysis, ModeLearning:
		return true
	}
	return false
}

// Rank returns the position of the mode in AllModes, or -1 if unknown.
func (m ModeType) Rank() int {
	for i, mode := range AllModes {
		if mode == m {
			return i
		}
	}
	return -1
}

// Title returns the capitalized display name ("Planning").
func (m ModeType) Title() string {
	if m == "" {
		return ""
	}
	return strings.ToUpper(string(m[:1])) + string(m[1:])
}

// Icon returns the terminal glyph used when displaying the mode.
func (m ModeType) Icon() string {
	switch m {
	case ModePlanning:
		return "📋"
	case ModeExecution:
		return "⚡"
	case ModeHybrid:
		return "🔄"
	case ModeAnalysis:
		return "🔍"
	case ModeLearning:
		return "🧠"
	}
	return "?"
}

// Description returns a one-line summary of what the mode is for.
func (m ModeType) Description() string {
	switch m {
	case ModePlanning:
		return "Structured planning and design before implementation"
	case ModeExecution:
		return "Direct implementation with minimal upfront planning"
	case ModeHybrid:
		return "Interleaved planning and execution for complex tasks"
	case ModeAnalysis:
		return "Investigate and understand existing behavior"
	case ModeLearning:
		return "Guided exploration of concepts and examples"
	}
	return "Unknown mode"
}

// ParseMode converts user input into a ModeType. Short aliases such as
// "plan", "exec" or single letters are accepted.
func ParseMode(s string) (ModeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planning", "plan", "p":
		return ModePlanning, nil
	case "execution", "exec", "execute", "e":
		return ModeExecution, nil
	case "hybrid", "h":
		return ModeHybrid, nil
	case "analysis", "analyze", "a":
		return ModeAnalysis, nil
	case "learning", "learn", "l":
		return ModeLearning, nil
	}
	return "", fmt.Errorf("invalid mode %q (valid: planning, execution, hybrid, analysis, learning)", s)
}

// ModeScores holds one score per mode.
type ModeScores map[ModeType]float64

// NewModeScores returns a score map with every mode initialized to zero.
func NewModeScores() ModeScores {
	scores := make(ModeScores, len(AllModes))
	for _, m := range AllModes {
		scores[m] = 0
	}
	return scores
}

// Add merges other into s, scaling each entry by weight.
func (s ModeScores) Add(other ModeScores, weight float64) {
	for m, v := range other {
		s[m] += v * weight
	}
}

// Best returns the highest scoring mode. Ties resolve in AllModes order.
func (s ModeScores) Best() (ModeType, float64) {
	best := AllModes[0]
	bestScore := s[best]
	for _, m := range AllModes[1:] {
		if s[m] > bestScore {
			best = m
			bestScore = s[m]
		}
	}
	return best, bestScore
}

// Ranked returns all modes ordered by descending score, ties resolved in
// AllModes order.
func (s ModeScores) Ranked() []ModeType {
	ranked := make([]ModeType, len(AllModes))
	copy(ranked, AllModes)
	// insertion sort keeps the tie-break order stable
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && s[ranked[j]] > s[ranked[j-1]]; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
