package manager

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/detector"
	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/types"
)

// Detection is the outcome of DetectMode.
type Detection struct {
	*detector.Result

	// Switch is set when auto mode attempted a switch to the detected mode.
	Switch *switcher.Result `json:"switch,omitempty"`
}

// AutoSwitched reports whether the detection moved the manager to the
// detected mode.
func (d *Detection) AutoSwitched() bool {
	return d.Switch != nil && d.Switch.Success
}

// DetectMode classifies query. The context is first enhanced with learned
// preferences and the detection is then recorded for learning. With auto
// mode on, a confident detection of another mode switches to it; a failed
// auto switch is reported in the result, not as an error.
func (m *ModeManager) DetectMode(ctx context.Context, query string, pctx types.PlanningContext) (*Detection, error) {
	enhanced := m.prefs.EnhanceContext(pctx)

	res, err := m.detector.Detect(ctx, query, enhanced)
	if err != nil {
		return nil, fmt.Errorf("failed to detect mode: %w", err)
	}
	m.prefs.LearnFromDetection(query, res)

	out := &Detection{Result: res}
	if m.AutoMode() && res.Confidence >= m.settings.AutoSwitchThreshold && res.PrimaryMode != m.CurrentMode() {
		sw, err := m.switchMode(ctx, res.PrimaryMode, true, false)
		out.Switch = sw
		if err != nil {
			m.logger.Info("automatic mode switch failed",
				zap.String("target", string(res.PrimaryMode)),
				zap.Error(err))
		}
	}

	alternatives := make([]types.ModeType, len(res.Alternatives))
	for i, a := range res.Alternatives {
		alternatives[i] = a.Mode
	}
	event, err := events.NewDetectionEvent(res.PrimaryMode,
		fmt.Sprintf("Detected %s mode (%.0f%% confidence)", res.PrimaryMode, res.Confidence*100),
		events.DetectionData{
			Query:        query,
			Confidence:   res.Confidence,
			Alternatives: alternatives,
			Fallback:     res.Insight.Fallback,
			AutoSwitched: out.AutoSwitched(),
		})
	m.emit(ctx, event, err)

	m.persist(ctx)
	return out, nil
}

// Recommendation is advice on which mode suits a query. Computing it does
// not record anything.
type Recommendation struct {
	Mode                types.ModeType           `json:"mode"`
	Confidence          float64                  `json:"confidence"`
	Reasoning           string                   `json:"reasoning"`
	Alternatives        []detector.Alternative   `json:"alternatives"`
	PreferenceInfluence float64                  `json:"preference_influence"`
	Prediction          preferences.Prediction   `json:"prediction"`
	CurrentMode         types.ModeType           `json:"current_mode"`
	Path                []types.ModeType         `json:"path,omitempty"` // route from the current mode, nil if unreachable
	Insight             detector.Insight         `json:"insight"`
	Complexity          detector.ComplexityLevel `json:"complexity"`
}

// Recommendation detects the best mode for query and combines it with the
// learned prediction, without learning from the query.
func (m *ModeManager) Recommendation(ctx context.Context, query string, pctx types.PlanningContext) (*Recommendation, error) {
	enhanced := m.prefs.EnhanceContext(pctx)

	res, err := m.detector.Detect(ctx, query, enhanced)
	if err != nil {
		return nil, fmt.Errorf("failed to build recommendation: %w", err)
	}

	current := m.CurrentMode()
	rec := &Recommendation{
		Mode:                res.PrimaryMode,
		Confidence:          res.Confidence,
		Reasoning:           res.Reasoning,
		Alternatives:        res.Alternatives,
		PreferenceInfluence: m.prefs.Stats().PreferenceInfluence,
		Prediction: m.prefs.Predict(preferences.PredictionInput{
			Query:   query,
			Current: current,
			Context: enhanced,
			At:      m.now(),
		}),
		CurrentMode: current,
		Insight:     res.Insight,
		Complexity:  res.Complexity.Level,
	}
	if path, err := m.Graph().OptimalPath(current, res.PrimaryMode); err == nil {
		rec.Path = path
	}
	return rec, nil
}
