package hybrid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/modectx"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/transition"
	"github.com/hivetechs/hive/internal/types"
	"go.uber.org/zap"
)

// ModeSwitcher is the part of the switcher the engine drives.
type ModeSwitcher interface {
	Current() types.ModeType
	Graph() *transition.Graph
	Switch(ctx context.Context, to types.ModeType, snap *modectx.Snapshot, opts switcher.Options) (*switcher.Result, error)
}

// ContextStore is the part of the context manager the engine needs to carry
// context between segments.
type ContextStore interface {
	GetContext(mode types.ModeType) (modectx.ModeContext, error)
	CaptureSnapshot(mode types.ModeType, reason string) (*modectx.Snapshot, error)
	RestoreSnapshot(mode types.ModeType, snap *modectx.Snapshot) error
}

// SegmentRunner does the work of a segment once the engine has switched to
// its mode.
type SegmentRunner interface {
	RunSegment(ctx context.Context, task *Task, seg Segment) error
}

// RunnerFunc adapts a function to SegmentRunner.
type RunnerFunc func(ctx context.Context, task *Task, seg Segment) error

// RunSegment calls f.
func (f RunnerFunc) RunSegment(ctx context.Context, task *Task, seg Segment) error {
	return f(ctx, task, seg)
}

// Insights are derived after a task has run.
type Insights struct {
	ModeSequence       []types.ModeType `json:"mode_sequence"`
	Bottlenecks        []string         `json:"bottlenecks,omitempty"`
	Efficiency         float64          `json:"efficiency"`
	Recommendations    []string         `json:"recommendations,omitempty"`
	ParallelCandidates []string         `json:"parallel_candidates,omitempty"`
}

// ExecutionResult is the outcome of running a task.
type ExecutionResult struct {
	TaskID            string                           `json:"task_id"`
	Success           bool                             `json:"success"`
	SegmentsCompleted int                              `json:"segments_completed"`
	ModeSwitches      int                              `json:"mode_switches"`
	TotalDuration     time.Duration                    `json:"total_duration"`
	ModeDurations     map[types.ModeType]time.Duration `json:"mode_durations"`
	Insights          Insights                         `json:"insights"`
	FailedSegment     string                           `json:"failed_segment,omitempty"`
	Err               error                            `json:"-"`
}

// Config configures an Engine.
type Config struct {
	Oracle   ai.Oracle
	Strategy Strategy      // default StrategyAdaptive
	Runner   SegmentRunner // nil means segments complete immediately
	Logger   *zap.Logger
}

// Engine creates and executes hybrid tasks.
type Engine struct {
	oracle   ai.Oracle
	strategy Strategy
	runner   SegmentRunner
	tracker  *Tracker
	logger   *zap.Logger
	now      func() time.Time
}

// NewEngine creates an Engine.
func NewEngine(cfg Config) *Engine {
	e := &Engine{
		oracle:   cfg.Oracle,
		strategy: cfg.Strategy,
		runner:   cfg.Runner,
		tracker:  NewTracker(),
		logger:   logging.OrNop(cfg.Logger),
		now:      time.Now,
	}
	if e.strategy == "" {
		e.strategy = StrategyAdaptive
	}
	if e.runner == nil {
		e.runner = RunnerFunc(func(context.Context, *Task, Segment) error { return nil })
	}
	return e
}

// Tracker exposes the engine's progress tracker.
func (e *Engine) Tracker() *Tracker {
	return e.tracker
}

// CreateTask analyzes query and decomposes it into segments using the
// engine's default strategy.
func (e *Engine) CreateTask(ctx context.Context, query string, pctx types.PlanningContext) (*Task, error) {
	return e.CreateTaskWithStrategy(ctx, query, pctx, e.strategy)
}

// CreateTaskWithStrategy is CreateTask with an explicit allocation
// strategy.
func (e *Engine) CreateTaskWithStrategy(ctx context.Context, query string, pctx types.PlanningContext, strategy Strategy) (*Task, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &types.ValidationError{Op: "create hybrid task", Reasons: []string{"query is empty"}}
	}
	if strategy == "" {
		strategy = e.strategy
	}

	complexity := Complexity(query)
	segments, fallback := e.decompose(ctx, query, pctx, complexity)
	allocate(segments, strategy, complexity)
	transitions := identifyTransitions(segments)

	task := &Task{
		ID:                uuid.New().String(),
		Description:       query,
		Segments:          segments,
		Complexity:        complexity,
		EstimatedDuration: estimateDuration(segments, len(transitions)),
		Transitions:       transitions,
		Strategy:          strategy,
		Fallback:          fallback,
		CreatedAt:         e.now(),
	}
	e.logger.Debug("hybrid task created",
		zap.String("task_id", task.ID),
		zap.Int("segments", len(segments)),
		zap.Int("transitions", len(transitions)),
		zap.Float64("complexity", complexity),
		zap.Bool("fallback", fallback))
	return task, nil
}

// Execute runs task's segments in order. Before a segment whose mode
// differs from the current one, the current context is snapshotted, the
// switcher is moved (hop by hop when no direct edge exists) and the
// transformed context is restored in the new mode. The first failure or a
// cancelled ctx aborts the task; the returned error names the segment.
func (e *Engine) Execute(ctx context.Context, task *Task, sw ModeSwitcher, store ContextStore) (*ExecutionResult, error) {
	if task == nil || len(task.Segments) == 0 {
		return nil, &types.ValidationError{Op: "execute hybrid task", Reasons: []string{"task has no segments"}}
	}

	start := e.now()
	result := &ExecutionResult{
		TaskID:        task.ID,
		ModeDurations: make(map[types.ModeType]time.Duration),
	}
	e.tracker.Start(task.ID, task.Segments[0].ID, sw.Current())

	fail := func(seg Segment, err error) (*ExecutionResult, error) {
		result.FailedSegment = seg.ID
		result.Err = fmt.Errorf("hybrid task %s: segment %s (%s): %w", task.ID, seg.ID, seg.Description, err)
		result.TotalDuration = e.now().Sub(start)
		result.Insights = e.insights(task, result)
		e.logger.Warn("hybrid task aborted",
			zap.String("task_id", task.ID),
			zap.String("segment_id", seg.ID),
			zap.Int("segments_completed", result.SegmentsCompleted),
			zap.Error(err))
		return result, result.Err
	}

	for i, seg := range task.Segments {
		if err := ctx.Err(); err != nil {
			return fail(seg, err)
		}

		if seg.Mode != sw.Current() {
			hops, err := e.moveTo(ctx, seg, sw, store)
			result.ModeSwitches += hops
			for n := 0; n < hops; n++ {
				e.tracker.RecordSwitch(task.ID)
			}
			if err != nil {
				return fail(seg, err)
			}
		}

		segStart := e.now()
		if err := e.runner.RunSegment(ctx, task, seg); err != nil {
			return fail(seg, err)
		}
		result.ModeDurations[seg.Mode] += e.now().Sub(segStart)
		result.SegmentsCompleted++
		e.tracker.Update(task.ID, seg.ID, seg.Mode, float64(i+1)/float64(len(task.Segments)))
	}

	result.Success = true
	result.TotalDuration = e.now().Sub(start)
	result.Insights = e.insights(task, result)
	e.logger.Info("hybrid task completed",
		zap.String("task_id", task.ID),
		zap.Int("segments", result.SegmentsCompleted),
		zap.Int("mode_switches", result.ModeSwitches),
		zap.Duration("duration", result.TotalDuration))
	return result, nil
}

// moveTo switches to seg.Mode, routing through intermediate modes when
// needed, and carries the context along each hop. It returns the number of
// switches made.
func (e *Engine) moveTo(ctx context.Context, seg Segment, sw ModeSwitcher, store ContextStore) (int, error) {
	from := sw.Current()
	path, err := sw.Graph().OptimalPath(from, seg.Mode)
	if err != nil {
		return 0, err
	}

	carrier := segmentCarrier{store: store}
	hops := 0
	for _, next := range path[1:] {
		res, err := sw.Switch(ctx, next, nil, switcher.Options{
			Scheduled:           true,
			SkipRecommendations: true,
			Carrier:             carrier,
			Reason:              fmt.Sprintf("hybrid segment %s", seg.ID),
		})
		if err != nil {
			return hops, err
		}
		if res == nil || !res.Success {
			return hops, errors.New("switch reported failure")
		}
		hops++
		if res.RestoreErr != nil {
			return hops, res.RestoreErr
		}
	}
	return hops, nil
}

// segmentCarrier carries context between segments. The source mode's
// context is created if it does not exist yet, so every hop carries a
// snapshot.
type segmentCarrier struct {
	store ContextStore
}

func (c segmentCarrier) CaptureSnapshot(mode types.ModeType, reason string) (*modectx.Snapshot, error) {
	if _, err := c.store.GetContext(mode); err != nil {
		return nil, err
	}
	return c.store.CaptureSnapshot(mode, reason)
}

func (c segmentCarrier) RestoreSnapshot(mode types.ModeType, snap *modectx.Snapshot) error {
	return c.store.RestoreSnapshot(mode, snap)
}

func (e *Engine) insights(task *Task, result *ExecutionResult) Insights {
	in := Insights{
		ModeSequence: task.Modes(),
		Efficiency:   float64(result.SegmentsCompleted) / float64(len(task.Segments)),
	}

	for i, seg := range task.Segments {
		if seg.Complexity > 0.7 {
			in.Bottlenecks = append(in.Bottlenecks, "High complexity in segment: "+seg.Description)
		}
		if seg.Parallelizable && i+1 < len(task.Segments) && task.Segments[i+1].Mode == seg.Mode {
			in.ParallelCandidates = append(in.ParallelCandidates, seg.ID)
		}
	}

	if len(task.Transitions) > len(task.Segments)/2 {
		in.Recommendations = append(in.Recommendations, "Consider consolidating segments to reduce mode switches")
	}
	if result.ModeDurations[types.ModePlanning] > task.EstimatedDuration/3 {
		in.Recommendations = append(in.Recommendations, "Planning phase took significant time, consider more execution focus")
	}
	return in
}
