// Package switcher is the mode state machine. A switch is validated against
// the mode graph, carries the caller's context snapshot across, runs the
// target mode's activation and only then commits the new mode.
package switcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/modectx"
	"github.com/hivetechs/hive/internal/transition"
	"github.com/hivetechs/hive/internal/types"
	"go.uber.org/zap"
)

const (
	// DefaultHistoryLimit bounds the transition history.
	DefaultHistoryLimit = 1000

	targetDuration  = 100 * time.Millisecond
	warningDuration = 200 * time.Millisecond
	maxOracleTips   = 3
)

// Activator performs the mode-specific work of entering a mode.
type Activator interface {
	Activate(ctx context.Context, from, to types.ModeType) error
}

// ActivatorFunc adapts a function to Activator.
type ActivatorFunc func(ctx context.Context, from, to types.ModeType) error

// Activate calls f.
func (f ActivatorFunc) Activate(ctx context.Context, from, to types.ModeType) error {
	return f(ctx, from, to)
}

type noopActivator struct{}

func (noopActivator) Activate(context.Context, types.ModeType, types.ModeType) error { return nil }

// TransitionRecord is one attempted switch that passed validation.
type TransitionRecord struct {
	From             types.ModeType `json:"from"`
	To               types.ModeType `json:"to"`
	Timestamp        time.Time      `json:"timestamp"`
	Duration         time.Duration  `json:"duration"`
	Success          bool           `json:"success"`
	ContextPreserved bool           `json:"context_preserved"`
	Scheduled        bool           `json:"scheduled,omitempty"`
}

// ContextCarrier snapshots a mode's context and restores a transformed
// snapshot into another mode. *modectx.ContextManager satisfies it.
type ContextCarrier interface {
	CaptureSnapshot(mode types.ModeType, reason string) (*modectx.Snapshot, error)
	RestoreSnapshot(mode types.ModeType, snap *modectx.Snapshot) error
}

// Options adjust a single switch.
type Options struct {
	// Scheduled marks switches issued by a planned hybrid task. They skip
	// cooldowns.
	Scheduled bool

	// SkipRecommendations suppresses the oracle call after the switch.
	SkipRecommendations bool

	// Carrier, when set and no snapshot is passed to Switch, captures the
	// source mode's context and restores the transformed context in the
	// target. Both run while the switch is serialized, after the source
	// mode is fixed. A source mode without context carries nothing.
	Carrier ContextCarrier

	// Reason labels the captured snapshot.
	Reason string
}

// ErrCapture marks a switch that failed because the source context could
// not be snapshotted. Nothing was validated or committed.
var ErrCapture = errors.New("context capture failed")

// Result describes the outcome of a switch.
type Result struct {
	Success         bool                   `json:"success"`
	From            types.ModeType         `json:"from"`
	To              types.ModeType         `json:"to"`
	Duration        time.Duration          `json:"duration"`
	Transformation  modectx.Transformation `json:"transformation"`
	Snapshot        *modectx.Snapshot      `json:"-"` // transformed context, nil if none was carried
	RestoreErr      error                  `json:"-"` // set when the carrier could not restore Snapshot
	Warnings        []string               `json:"warnings,omitempty"`
	Recommendations []string               `json:"recommendations,omitempty"`
	Err             error                  `json:"-"`
}

// Config configures a Switcher.
type Config struct {
	Validator    *transition.Validator // default: validator over the built-in graph
	Oracle       ai.Oracle             // nil disables recommendations
	Activator    Activator             // nil means activation is a no-op
	Initial      types.ModeType        // default: types.DefaultMode
	HistoryLimit int                   // default: DefaultHistoryLimit
	Logger       *zap.Logger
}

// Switcher holds the current mode and the transition history. Switches are
// serialized, so no caller ever observes an intermediate mode. A carrier
// runs inside that serialization and must not call back into the Switcher.
type Switcher struct {
	switchMu sync.Mutex // serializes Switch calls

	mu        sync.RWMutex
	current   types.ModeType
	enteredAt time.Time
	lastExit  map[types.ModeType]time.Time
	history   []TransitionRecord
	modeTime  map[types.ModeType]time.Duration

	validator   *transition.Validator
	transformer modectx.Transformer
	activator   Activator
	oracle      ai.Oracle
	limit       int
	logger      *zap.Logger
	now         func() time.Time
}

// New creates a Switcher in cfg.Initial mode.
func New(cfg Config) *Switcher {
	s := &Switcher{
		current:   cfg.Initial,
		lastExit:  make(map[types.ModeType]time.Time),
		modeTime:  make(map[types.ModeType]time.Duration),
		validator: cfg.Validator,
		activator: cfg.Activator,
		oracle:    cfg.Oracle,
		limit:     cfg.HistoryLimit,
		logger:    logging.OrNop(cfg.Logger),
		now:       time.Now,
	}
	if !s.current.IsValid() {
		s.current = types.DefaultMode
	}
	if s.validator == nil {
		s.validator = transition.NewValidator(transition.DefaultGraph())
	}
	if s.activator == nil {
		s.activator = noopActivator{}
	}
	if s.limit <= 0 {
		s.limit = DefaultHistoryLimit
	}
	s.enteredAt = s.now()
	return s
}

// Current returns the current mode.
func (s *Switcher) Current() types.ModeType {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// EnteredAt returns when the current mode was entered.
func (s *Switcher) EnteredAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.enteredAt
}

// Graph returns the mode graph switches are validated against.
func (s *Switcher) Graph() *transition.Graph {
	return s.validator.Graph()
}

// Restore sets the current mode without a transition, for example when
// reloading persisted state. It does not touch the history.
func (s *Switcher) Restore(mode types.ModeType, enteredAt time.Time) error {
	if !mode.IsValid() {
		return &types.ValidationError{Op: "restore mode", Reasons: []string{fmt.Sprintf("invalid mode %q", mode)}}
	}
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = mode
	if enteredAt.IsZero() {
		enteredAt = s.now()
	}
	s.enteredAt = enteredAt
	return nil
}

// Reset returns to mode and forgets cooldowns. The transition history is
// kept.
func (s *Switcher) Reset(mode types.ModeType) {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = mode
	s.enteredAt = s.now()
	s.lastExit = make(map[types.ModeType]time.Time)
}

// Switch moves the state machine to mode to, carrying snap (which may be
// nil) across, or the context opts.Carrier captures. On failure the current
// mode is unchanged and the returned Result carries the same error that is
// returned. A restore failure after commit does not fail the switch; it is
// reported in Result.RestoreErr and Result.Warnings.
func (s *Switcher) Switch(ctx context.Context, to types.ModeType, snap *modectx.Snapshot, opts Options) (*Result, error) {
	if !to.IsValid() {
		err := &types.ValidationError{Op: "switch mode", Reasons: []string{fmt.Sprintf("invalid mode %q", to)}}
		return &Result{To: to, Transformation: modectx.EmptyTransformation(), Err: err}, err
	}

	result := s.apply(ctx, to, snap, opts)
	if result.Err != nil {
		return result, result.Err
	}

	if !opts.SkipRecommendations && result.From != result.To {
		result.Recommendations = append(result.Recommendations, s.recommend(ctx, result.From, result.To, result.Snapshot)...)
	}
	return result, nil
}

// apply runs capture, validate, transform, activate, commit and restore
// under switchMu.
func (s *Switcher) apply(ctx context.Context, to types.ModeType, snap *modectx.Snapshot, opts Options) *Result {
	s.switchMu.Lock()
	defer s.switchMu.Unlock()

	start := s.now()
	s.mu.RLock()
	from := s.current
	lastExit := s.lastExit[to]
	s.mu.RUnlock()

	result := &Result{From: from, To: to, Transformation: modectx.EmptyTransformation()}
	if from == to {
		result.Success = true
		return result
	}

	carrier := opts.Carrier
	if snap != nil {
		carrier = nil
	} else if carrier != nil {
		reason := opts.Reason
		if reason == "" {
			reason = fmt.Sprintf("switch to %s", to)
		}
		captured, err := carrier.CaptureSnapshot(from, reason)
		switch {
		case err == nil:
			snap = captured
		case errors.Is(err, types.ErrNotFound):
			carrier = nil
		default:
			result.Err = fmt.Errorf("%w: %s: %w", ErrCapture, from, err)
			return result
		}
	}

	req := transition.Request{From: from, To: to, LastExit: lastExit, Now: start, Scheduled: opts.Scheduled}
	if snap != nil {
		req.Snapshot = snap
	}
	validation := s.validator.Validate(req)
	result.Warnings = validation.Warnings
	result.Recommendations = validation.Recommendations
	if !validation.Safe {
		result.Err = validation.Err(from, to)
		result.Duration = s.now().Sub(start)
		s.logger.Info("mode switch rejected",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Strings("reasons", validation.Reasons))
		return result
	}

	if snap != nil {
		out, tr, err := s.transformer.Transform(snap, from, to)
		if err != nil {
			result.Err = fmt.Errorf("switch %s -> %s: %w", from, to, err)
			return result
		}
		result.Snapshot = out
		result.Transformation = tr
	}

	activateStart := time.Now()
	err := s.activator.Activate(ctx, from, to)
	if took := time.Since(activateStart); took > warningDuration {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Mode switch took %dms (target: %dms)", took.Milliseconds(), targetDuration.Milliseconds()))
	}

	end := s.now()
	result.Duration = end.Sub(start)
	record := TransitionRecord{
		From:             from,
		To:               to,
		Timestamp:        end,
		Duration:         result.Duration,
		Success:          err == nil,
		ContextPreserved: snap != nil,
		Scheduled:        opts.Scheduled,
	}

	s.mu.Lock()
	s.appendLocked(record)
	if err == nil {
		s.modeTime[from] += end.Sub(s.enteredAt)
		s.lastExit[from] = end
		s.current = to
		s.enteredAt = end
	}
	s.mu.Unlock()

	if err != nil {
		result.Err = fmt.Errorf("activate %s mode: %w", to, err)
		s.logger.Warn("mode activation failed",
			zap.String("from", string(from)),
			zap.String("to", string(to)),
			zap.Error(err))
		return result
	}

	result.Success = true
	if carrier != nil && result.Snapshot != nil {
		if err := carrier.RestoreSnapshot(to, result.Snapshot); err != nil {
			result.RestoreErr = err
			result.Warnings = append(result.Warnings, fmt.Sprintf("Context could not be restored in %s mode: %v", to, err))
			s.logger.Warn("failed to restore context after switch",
				zap.String("mode", string(to)),
				zap.Error(err))
		}
	}
	s.logger.Info("mode switched",
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.Duration("duration", result.Duration),
		zap.Int("items_preserved", result.Transformation.Preserved),
		zap.Int("items_transformed", result.Transformation.Transformed),
		zap.Bool("scheduled", opts.Scheduled))
	return result
}

// appendLocked appends to the history and trims it. Callers hold s.mu.
func (s *Switcher) appendLocked(r TransitionRecord) {
	s.history = append(s.history, r)
	if len(s.history) > s.limit {
		s.history = s.history[len(s.history)-s.limit:]
	}
}

// recommend asks the oracle for switching tips. It is called without any
// lock held and never fails the switch.
func (s *Switcher) recommend(ctx context.Context, from, to types.ModeType, snap *modectx.Snapshot) []string {
	if s.oracle == nil {
		return nil
	}

	contextInfo := "without context"
	if snap != nil {
		contextInfo = fmt.Sprintf("with %d active items", snap.TotalItems())
	}
	prompt := fmt.Sprintf("Provide 2-3 brief recommendations for switching from %s to %s mode %s. "+
		"Focus on practical tips for maintaining productivity. Answer with one recommendation per line.",
		from.Title(), to.Title(), contextInfo)

	text, err := ai.Ask(ctx, s.oracle, "switch recommendations", prompt)
	if err != nil {
		s.logger.Warn("switch recommendations unavailable", zap.Error(err))
		return nil
	}
	return parseTips(text, maxOracleTips)
}

// parseTips splits free text into at most n non-empty lines with list
// markers removed.
func parseTips(text string, n int) []string {
	var tips []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*•0123456789.) ")
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		tips = append(tips, line)
		if len(tips) == n {
			break
		}
	}
	return tips
}

// History returns a copy of the transition history, oldest first.
func (s *Switcher) History() []TransitionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TransitionRecord(nil), s.history...)
}

// LastTransition returns the most recent successful transition, if any.
func (s *Switcher) LastTransition() (TransitionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.history) - 1; i >= 0; i-- {
		if s.history[i].Success {
			return s.history[i], true
		}
	}
	return TransitionRecord{}, false
}
