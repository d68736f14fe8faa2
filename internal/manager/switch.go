package manager

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/types"
)

// SwitchMode moves to target. With preserveContext set, the current mode's
// context is snapshotted, transformed for target and restored there.
//
// A rejected switch returns an error matching types.ErrValidation together
// with a Result listing the reasons; the current mode is unchanged and
// nothing is learned. Switching to the current mode is a successful no-op.
func (m *ModeManager) SwitchMode(ctx context.Context, target types.ModeType, preserveContext bool) (*switcher.Result, error) {
	return m.switchMode(ctx, target, preserveContext, true)
}

func (m *ModeManager) switchMode(ctx context.Context, target types.ModeType, preserveContext, userInitiated bool) (*switcher.Result, error) {
	m.mu.RLock()
	previousSwitch := m.lastSwitch
	m.mu.RUnlock()

	opts := switcher.Options{}
	if preserveContext {
		opts.Carrier = m.contexts
		opts.Reason = fmt.Sprintf("switch to %s", target)
	}
	res, err := m.switcher.Switch(ctx, target, nil, opts)
	if err != nil {
		m.recordFailedSwitch(ctx, res, err, userInitiated)
		return res, err
	}
	if res.From == res.To {
		return res, nil
	}

	now := m.now()
	m.prefs.LearnFromSwitch(preferences.SwitchRecord{
		From:          res.From,
		To:            res.To,
		Success:       true,
		Duration:      res.Duration,
		Timestamp:     now,
		UserInitiated: userInitiated,
	})
	if userInitiated {
		m.recordOverride(res.To, previousSwitch)
	}

	m.mu.Lock()
	m.lastSwitch = now
	m.mu.Unlock()

	event, err := events.NewSwitchEvent(true,
		fmt.Sprintf("Switched from %s to %s", res.From, res.To),
		events.SwitchData{
			From:             res.From,
			To:               res.To,
			DurationMs:       res.Duration.Milliseconds(),
			ContextPreserved: res.Transformation.Preserved,
			Quality:          res.Transformation.Quality,
		})
	m.emit(ctx, event, err)
	m.persist(ctx)
	return res, nil
}

// recordFailedSwitch emits a switch_rejected event. Activation failures
// passed validation and are learned from; validation rejections are not.
func (m *ModeManager) recordFailedSwitch(ctx context.Context, res *switcher.Result, err error, userInitiated bool) {
	if res == nil {
		return
	}
	data := events.SwitchData{From: res.From, To: res.To, DurationMs: res.Duration.Milliseconds()}
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		data.Reasons = verr.Reasons
	case errors.Is(err, switcher.ErrCapture):
		data.Reasons = []string{err.Error()}
	default:
		data.Reasons = []string{err.Error()}
		m.prefs.LearnFromSwitch(preferences.SwitchRecord{
			From:          res.From,
			To:            res.To,
			Success:       false,
			Duration:      res.Duration,
			Timestamp:     m.now(),
			UserInitiated: userInitiated,
		})
		m.persist(ctx)
	}
	event, buildErr := events.NewSwitchEvent(false,
		fmt.Sprintf("Switch from %s to %s rejected: %s", res.From, res.To, strings.Join(data.Reasons, "; ")),
		data)
	m.emit(ctx, event, buildErr)
}

// recordOverride marks the last detection as overridden when the user
// switched somewhere else after it, before any other switch happened.
func (m *ModeManager) recordOverride(target types.ModeType, previousSwitch time.Time) {
	last, ok := m.prefs.LastDetection()
	if !ok || last.ActualMode != "" || last.DetectedMode == target {
		return
	}
	if !last.Timestamp.After(previousSwitch) {
		return
	}
	m.prefs.RecordOverride(target)
}

// Route moves to target along the cheapest path of the mode graph, one hop
// at a time, preserving context on every hop. It returns the result of each
// hop that was attempted; a failed hop stops the route in the mode reached
// so far.
func (m *ModeManager) Route(ctx context.Context, target types.ModeType) ([]*switcher.Result, error) {
	if !target.IsValid() {
		return nil, &types.ValidationError{Op: "route", Reasons: []string{fmt.Sprintf("invalid mode %q", target)}}
	}
	from := m.CurrentMode()
	path, err := m.Graph().OptimalPath(from, target)
	if err != nil {
		return nil, fmt.Errorf("failed to route %s -> %s: %w", from, target, err)
	}

	results := make([]*switcher.Result, 0, len(path)-1)
	for _, hop := range path[1:] {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := m.switchMode(ctx, hop, true, true)
		if res != nil {
			results = append(results, res)
		}
		if err != nil {
			return results, fmt.Errorf("route %s -> %s stopped before %s: %w", from, target, hop, err)
		}
	}
	return results, nil
}

// ResetMode returns the manager to its initial state: the default mode, no
// contexts, default preferences, no cooldowns and auto mode off. Learning
// histories and patterns are kept.
func (m *ModeManager) ResetMode(ctx context.Context) error {
	m.contexts.ClearContexts()
	m.switcher.Reset(m.settings.DefaultMode)
	m.prefs.Reset()

	m.mu.Lock()
	m.autoMode = false
	m.lastSwitch = time.Time{}
	m.mu.Unlock()

	m.logger.Info("mode manager reset", zap.String("mode", string(m.settings.DefaultMode)))
	m.emit(ctx, events.NewSimpleEvent(events.EventTypeModeReset, m.settings.DefaultMode,
		events.SeverityInfo, fmt.Sprintf("Reset to %s mode", m.settings.DefaultMode)), nil)
	return m.Save(ctx)
}
