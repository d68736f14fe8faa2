package manager

import (
	"context"
	"time"

	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/modectx"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/types"
)

// Health grades how well the current mode is serving the user.
type Health string

const (
	HealthExcellent Health = "excellent"
	HealthGood      Health = "good"
	HealthWarning   Health = "warning"
	HealthCritical  Health = "critical"
)

const (
	longSessionThreshold  = time.Hour
	emptyContextThreshold = 60 * time.Second
)

// Status is a point-in-time view of the manager.
type Status struct {
	CurrentMode    types.ModeType `json:"current_mode"`
	Confidence     float64        `json:"confidence"`
	ActiveDuration time.Duration  `json:"active_duration"`
	LastSwitch     time.Time      `json:"last_switch,omitempty"`
	ContextItems   int            `json:"context_items"`
	Health         Health         `json:"health"`
	HealthScore    int            `json:"health_score"`
	AutoMode       bool           `json:"auto_mode"`
}

// Status reports the current mode and its health. Confidence is that of
// the most recent detection, or 1.0 before any detection.
func (m *ModeManager) Status() Status {
	current := m.CurrentMode()
	items := m.contexts.Items(current)
	enteredAt := m.switcher.EnteredAt()

	m.mu.RLock()
	status := Status{
		CurrentMode:  current,
		Confidence:   1.0,
		LastSwitch:   m.lastSwitch,
		ContextItems: items,
		AutoMode:     m.autoMode,
	}
	m.mu.RUnlock()

	if last, ok := m.prefs.LastDetection(); ok {
		status.Confidence = last.Confidence
	}

	since := enteredAt
	if status.LastSwitch.After(since) {
		since = status.LastSwitch
	}
	status.ActiveDuration = max(m.now().Sub(since), 0)
	status.HealthScore = healthScore(status)
	status.Health = gradeHealth(status.HealthScore)
	return status
}

// healthScore starts from 100 and deducts for low confidence, long
// sessions and a mode that has been active a while without any context.
func healthScore(s Status) int {
	score := 100
	switch {
	case s.Confidence < 0.5:
		score -= 30
	case s.Confidence < 0.7:
		score -= 15
	}
	if s.ActiveDuration > longSessionThreshold {
		score -= 10
	}
	if s.ContextItems == 0 && s.ActiveDuration > emptyContextThreshold {
		score -= 20
	}
	return max(score, 0)
}

func gradeHealth(score int) Health {
	switch {
	case score >= 90:
		return HealthExcellent
	case score >= 70:
		return HealthGood
	case score >= 50:
		return HealthWarning
	default:
		return HealthCritical
	}
}

// Preferences returns the current user preferences.
func (m *ModeManager) Preferences() preferences.UserPreference {
	return m.prefs.Preferences()
}

// UpdatePreferences replaces the user preferences and saves them.
func (m *ModeManager) UpdatePreferences(ctx context.Context, p preferences.UserPreference) error {
	if err := m.prefs.UpdatePreferences(p); err != nil {
		return err
	}
	m.emit(ctx, m.preferencesEvent("Preferences updated"), nil)
	return m.Save(ctx)
}

// SetLearningEnabled turns learning on or off and saves the change.
func (m *ModeManager) SetLearningEnabled(ctx context.Context, enabled bool) error {
	m.prefs.SetLearningEnabled(enabled)
	msg := "Learning disabled"
	if enabled {
		msg = "Learning enabled"
	}
	m.emit(ctx, m.preferencesEvent(msg), nil)
	return m.Save(ctx)
}

// LearningStats summarizes what the preference manager has learned.
func (m *ModeManager) LearningStats() preferences.LearningStats {
	return m.prefs.Stats()
}

// Patterns returns the learned patterns, most recently seen first.
func (m *ModeManager) Patterns() []preferences.Pattern {
	return m.prefs.Patterns()
}

// SwitchStats summarizes the transitions made by this manager.
func (m *ModeManager) SwitchStats() switcher.Stats {
	return m.switcher.Stats()
}

// SwitchHistory returns the transitions made by this manager.
func (m *ModeManager) SwitchHistory() []switcher.TransitionRecord {
	return m.switcher.History()
}

// ContextStats summarizes the contexts and snapshots held in memory.
func (m *ModeManager) ContextStats() modectx.Statistics {
	return m.contexts.Statistics()
}

// Stats gathers every subsystem's statistics.
type Stats struct {
	Learning preferences.LearningStats `json:"learning"`
	Switches switcher.Stats            `json:"switches"`
	Hybrid   hybrid.Stats              `json:"hybrid"`
	Context  modectx.Statistics        `json:"context"`
}

// Stats returns the statistics of every subsystem.
func (m *ModeManager) Stats() Stats {
	return Stats{
		Context:  m.contexts.Statistics(),
		Switches: m.switcher.Stats(),
		Learning: m.prefs.Stats(),
		Hybrid:   m.engine.Tracker().Stats(),
	}
}
