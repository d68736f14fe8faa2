package preferences

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hivetechs/hive/internal/detector"
	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/types"
	"go.uber.org/zap"
)

const (
	// maxBias caps a learned mode bias.
	maxBias = 0.5
	// biasInfluence scales a bias before it is added to preference strength.
	biasInfluence = 0.3
)

// Config holds preference manager configuration
type Config struct {
	DetectionHistoryLimit int // default 1000
	SwitchHistoryLimit    int // default 500
	Logger                *zap.Logger
}

// Manager owns the learning data and applies it. It is safe for
// concurrent use.
type Manager struct {
	mu       sync.RWMutex
	data     LearningData
	learner  PatternLearner
	analyzer BehaviorAnalyzer

	detectionLimit int
	switchLimit    int
	logger         *zap.Logger
	now            func() time.Time
}

// NewManager creates a Manager with empty learning data.
func NewManager(cfg Config) *Manager {
	if cfg.DetectionHistoryLimit <= 0 {
		cfg.DetectionHistoryLimit = maxDetectionHistory
	}
	if cfg.SwitchHistoryLimit <= 0 {
		cfg.SwitchHistoryLimit = maxSwitchHistory
	}
	return &Manager{
		data:           NewLearningData(),
		learner:        NewPatternLearner(),
		analyzer:       NewBehaviorAnalyzer(),
		detectionLimit: cfg.DetectionHistoryLimit,
		switchLimit:    cfg.SwitchHistoryLimit,
		logger:         logging.OrNop(cfg.Logger),
		now:            time.Now,
	}
}

// EnhanceContext applies the learned bias of the preferred mode to the
// preference strength and lets an hour-of-day pattern override the
// preferred mode. With learning disabled pctx is returned unchanged.
func (m *Manager) EnhanceContext(pctx types.PlanningContext) types.PlanningContext {
	m.mu.RLock()
	defer m.mu.RUnlock()

	prefs := m.data.Preferences
	if !prefs.LearningEnabled {
		return pctx
	}
	if pctx.UserPreferences.PreferredMode == "" {
		pctx.UserPreferences = prefs.Base
	}
	if bias, ok := prefs.ModeBiases[pctx.UserPreferences.PreferredMode]; ok {
		pctx.UserPreferences.PreferenceStrength = types.Clamp(
			pctx.UserPreferences.PreferenceStrength+bias*biasInfluence, 0, 1)
	}
	if p, ok := m.timePatternLocked(m.now().Hour()); ok {
		pctx.UserPreferences.PreferredMode = p.Payload.PreferredMode
	}
	return pctx
}

// LearnFromDetection records a detection and derives query and time
// patterns from it.
func (m *Manager) LearnFromDetection(query string, result *detector.Result) {
	if result == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := DetectionRecord{
		Query:        query,
		DetectedMode: result.PrimaryMode,
		Confidence:   result.Confidence,
		Timestamp:    m.now(),
		ContextHash:  fmt.Sprintf("%s_%d", result.PrimaryMode, int(result.Confidence*100)),
	}
	m.data.DetectionHistory = append(m.data.DetectionHistory, rec)
	m.data.TotalDetections++
	if n := len(m.data.DetectionHistory) - m.detectionLimit; n > 0 {
		m.data.DetectionHistory = append([]DetectionRecord(nil), m.data.DetectionHistory[n:]...)
	}

	if !m.data.Preferences.LearningEnabled {
		return
	}
	for _, p := range m.learner.FromDetection(rec, m.data.DetectionHistory) {
		p.ID = fmt.Sprintf("%s:%s:%s", p.Type, p.Payload.PreferredMode, p.Payload.QueryPattern)
		m.putPatternLocked(p)
	}
	if p, ok := m.analyzer.HourPattern(rec.Timestamp, m.data.DetectionHistory); ok {
		m.putPatternLocked(p)
	}
}

// RecordOverride marks the most recent detection as overridden by the
// user, who went with actual instead.
func (m *Manager) RecordOverride(actual types.ModeType) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n := len(m.data.DetectionHistory); n > 0 {
		m.data.DetectionHistory[n-1].ActualMode = actual
	}
}

// LearnFromSwitch records a switch. Successful switches raise the bias
// toward their target mode and may produce a switch sequence pattern.
func (m *Manager) LearnFromSwitch(rec SwitchRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = m.now()
	}
	m.data.SwitchHistory = append(m.data.SwitchHistory, rec)
	m.data.TotalSwitches++
	if n := len(m.data.SwitchHistory) - m.switchLimit; n > 0 {
		m.data.SwitchHistory = append([]SwitchRecord(nil), m.data.SwitchHistory[n:]...)
	}
	if !rec.Success {
		return
	}

	if m.data.Preferences.LearningEnabled {
		for _, p := range m.learner.FromSwitch(rec, m.data.SwitchHistory) {
			p.ID = sequenceID(PatternSwitchSequence, p.Payload.Sequence)
			m.putPatternLocked(p)
		}
	}

	if m.data.Preferences.ModeBiases == nil {
		m.data.Preferences.ModeBiases = make(map[types.ModeType]float64)
	}
	bias := m.data.Preferences.ModeBiases[rec.To]
	m.data.Preferences.ModeBiases[rec.To] = min(bias*0.9+0.1, maxBias)
}

// LearnFromHybridExecution stores the mode sequence of a completed hybrid
// task as a high confidence pattern.
func (m *Manager) LearnFromHybridExecution(task *hybrid.Task) {
	if task == nil || len(task.Segments) == 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.data.Preferences.LearningEnabled {
		return
	}
	m.putPatternLocked(Pattern{
		ID:          "hybrid_seq:" + task.ID,
		Type:        PatternSwitchSequence,
		Confidence:  0.8,
		Occurrences: 1,
		LastSeen:    m.now(),
		Payload:     Payload{Sequence: task.Modes(), Frequency: 1},
	})
}

// PredictNextMode predicts the mode a query will end up in, treating the
// context's preferred mode as the current one.
func (m *Manager) PredictNextMode(query string, pctx types.PlanningContext) Prediction {
	return m.Predict(PredictionInput{
		Query:   query,
		Current: pctx.UserPreferences.PreferredMode,
		Context: pctx,
		At:      m.now(),
	})
}

// Predict runs the prediction ensemble.
func (m *Manager) Predict(in PredictionInput) Prediction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return predict(in, &m.data)
}

// LastDetection returns the most recent detection record, if any.
func (m *Manager) LastDetection() (DetectionRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n := len(m.data.DetectionHistory); n > 0 {
		return m.data.DetectionHistory[n-1], true
	}
	return DetectionRecord{}, false
}

// Preferences returns a copy of the current preferences.
func (m *Manager) Preferences() UserPreference {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.Preferences.Clone()
}

// UpdatePreferences replaces the preferences wholesale.
func (m *Manager) UpdatePreferences(p UserPreference) error {
	if err := p.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Preferences = p.Clone()
	if m.data.Preferences.ModeBiases == nil {
		m.data.Preferences.ModeBiases = make(map[types.ModeType]float64)
	}
	m.logger.Info("preferences updated",
		zap.String("preferred_mode", string(p.Base.PreferredMode)),
		zap.Bool("learning_enabled", p.LearningEnabled))
	return nil
}

// SetLearningEnabled toggles learning without touching other preferences.
func (m *Manager) SetLearningEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Preferences.LearningEnabled = enabled
}

// Reset restores default preferences. Histories and patterns are kept.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.Preferences = DefaultUserPreference()
}

// Patterns returns the learned patterns, most recently seen first.
func (m *Manager) Patterns() []Pattern {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Pattern, 0, len(m.data.Patterns))
	for _, p := range m.data.Patterns {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastSeen.Equal(out[j].LastSeen) {
			return out[i].LastSeen.After(out[j].LastSeen)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Stats summarizes what has been learned.
func (m *Manager) Stats() LearningStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := LearningStats{
		TotalDetections:     m.data.TotalDetections,
		TotalSwitches:       m.data.TotalSwitches,
		ModeAccuracy:        1.0,
		PreferenceInfluence: m.data.Preferences.AdaptationRate,
		ModeDistribution:    make(map[types.ModeType]int),
		LearningEnabled:     m.data.Preferences.LearningEnabled,
	}

	correct := 0
	for _, r := range m.data.DetectionHistory {
		stats.ModeDistribution[r.DetectedMode]++
		if r.Correct() {
			correct++
		}
	}
	if n := len(m.data.DetectionHistory); n > 0 {
		stats.ModeAccuracy = float64(correct) / float64(n)
	}

	byType := make(map[PatternType]int)
	for _, p := range m.data.Patterns {
		byType[p.Type] += p.Occurrences
	}
	for t, n := range byType {
		stats.TopPatterns = append(stats.TopPatterns, PatternCount{Type: t, Occurrences: n})
	}
	sort.Slice(stats.TopPatterns, func(i, j int) bool {
		a, b := stats.TopPatterns[i], stats.TopPatterns[j]
		if a.Occurrences != b.Occurrences {
			return a.Occurrences > b.Occurrences
		}
		return a.Type < b.Type
	})
	if len(stats.TopPatterns) > 5 {
		stats.TopPatterns = stats.TopPatterns[:5]
	}
	return stats
}

// Snapshot returns a deep copy of the learning data for persistence.
func (m *Manager) Snapshot() LearningData {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.data.clone()
}

// Load replaces the learning data. Data from an incompatible version is
// rejected and the current data is kept.
func (m *Manager) Load(data LearningData) error {
	if err := data.CheckVersion(); err != nil {
		return err
	}
	if err := data.Preferences.Validate(); err != nil {
		return fmt.Errorf("stored preferences: %w", err)
	}
	data = data.clone()
	if data.Patterns == nil {
		data.Patterns = make(map[string]Pattern)
	}
	if n := len(data.DetectionHistory) - m.detectionLimit; n > 0 {
		data.DetectionHistory = data.DetectionHistory[n:]
	}
	if n := len(data.SwitchHistory) - m.switchLimit; n > 0 {
		data.SwitchHistory = data.SwitchHistory[n:]
	}
	data.Version = DataVersion

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = data
	m.trimPatternsLocked()
	m.logger.Debug("learning data loaded",
		zap.Int("detections", len(data.DetectionHistory)),
		zap.Int("switches", len(data.SwitchHistory)),
		zap.Int("patterns", len(data.Patterns)))
	return nil
}

// putPatternLocked merges p into the cache. A pattern seen again keeps
// accumulating occurrences.
func (m *Manager) putPatternLocked(p Pattern) {
	if old, ok := m.data.Patterns[p.ID]; ok && p.Type == PatternSwitchSequence {
		p.Occurrences += old.Occurrences
		p.Payload.Frequency = old.Payload.Frequency + 1
	}
	m.data.Patterns[p.ID] = p
	m.trimPatternsLocked()
}

// trimPatternsLocked evicts the least recently seen patterns beyond the
// cache limit.
func (m *Manager) trimPatternsLocked() {
	excess := len(m.data.Patterns) - maxPatterns
	if excess <= 0 {
		return
	}
	ids := make([]string, 0, len(m.data.Patterns))
	for id := range m.data.Patterns {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := m.data.Patterns[ids[i]], m.data.Patterns[ids[j]]
		if !a.LastSeen.Equal(b.LastSeen) {
			return a.LastSeen.Before(b.LastSeen)
		}
		return a.ID < b.ID
	})
	for _, id := range ids[:excess] {
		delete(m.data.Patterns, id)
	}
}

func (m *Manager) timePatternLocked(hour int) (Pattern, bool) {
	id := fmt.Sprintf("%s_%02d", PatternTimeBasedMode, hour)
	if p, ok := m.data.Patterns[id]; ok && p.coversHour(hour) {
		return p, true
	}
	for _, p := range m.data.Patterns {
		if p.coversHour(hour) {
			return p, true
		}
	}
	return Pattern{}, false
}

func sequenceID(t PatternType, seq []types.ModeType) string {
	parts := make([]string, len(seq))
	for i, m := range seq {
		parts[i] = string(m)
	}
	return fmt.Sprintf("%s:%s", t, strings.Join(parts, ">"))
}
