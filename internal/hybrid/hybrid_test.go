package hybrid

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/modectx"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = "word"
	}
	return strings.Join(parts, " ")
}

func fixedOracle(answer string) ai.Oracle {
	return ai.OracleFunc(func(ctx context.Context, prompt string, extra *string) (*ai.Response, error) {
		return ai.NewResponse(answer), nil
	})
}

func TestCreateTaskFallbackPlanExecute(t *testing.T) {
	e := NewEngine(Config{Oracle: ai.Unavailable{}})
	task, err := e.CreateTask(context.Background(), words(40), types.DefaultPlanningContext())
	require.NoError(t, err)

	assert.True(t, task.Fallback)
	assert.Equal(t, []types.ModeType{types.ModePlanning, types.ModeExecution}, task.Modes())
	require.Len(t, task.Transitions, 1)
	assert.Equal(t, "Moving from design to implementation phase", task.Transitions[0].Reason)
	assert.Equal(t, task.Segments[0].ID, task.Transitions[0].FromSegment)
	assert.Equal(t, 15*time.Minute+100*time.Millisecond, task.EstimatedDuration)
	assert.InDelta(t, 0.16, task.Complexity, 1e-9)
}

func TestCreateTaskFallbackIsDeterministic(t *testing.T) {
	e := NewEngine(Config{})
	a, err := e.CreateTask(context.Background(), "add a settings page", types.DefaultPlanningContext())
	require.NoError(t, err)
	b, err := e.CreateTask(context.Background(), "add a settings page", types.DefaultPlanningContext())
	require.NoError(t, err)
	assert.Equal(t, a.Modes(), b.Modes())
	assert.Equal(t, a.EstimatedDuration, b.EstimatedDuration)
}

func TestCreateTaskFallbackAnalyzeFirstForExistingCodebase(t *testing.T) {
	e := NewEngine(Config{Oracle: ai.Unavailable{}})
	pctx := types.DefaultPlanningContext()
	pctx.ExistingCodebase = true

	task, err := e.CreateTask(context.Background(), "add caching to the report endpoint", pctx)
	require.NoError(t, err)
	assert.Equal(t, []types.ModeType{types.ModeAnalysis, types.ModePlanning, types.ModeExecution}, task.Modes())
	require.Len(t, task.Transitions, 2)
	assert.Equal(t, "Analysis complete, planning next steps", task.Transitions[0].Reason)
	assert.Equal(t, []string{task.Segments[0].ID}, task.Segments[1].Dependencies)
}

func TestCreateTaskUsesOracleSegments(t *testing.T) {
	answer := "Here you go:\n```json\n" + `[
		{"description": "Review current auth flow", "mode": "analysis", "depends_on": [], "complexity": 0.4, "estimated_minutes": 15},
		{"description": "Design token rotation", "mode": "planning", "depends_on": [1], "complexity": 0.9, "estimated_minutes": 20},
		{"description": "Implement rotation", "mode": "execution", "depends_on": [2, 7], "parallelizable": true, "complexity": 0.2}
	]` + "\n```"
	e := NewEngine(Config{Oracle: fixedOracle(answer)})

	task, err := e.CreateTask(context.Background(), "rotate auth tokens", types.DefaultPlanningContext())
	require.NoError(t, err)
	require.False(t, task.Fallback)
	require.Len(t, task.Segments, 3)

	assert.Equal(t, []types.ModeType{types.ModeAnalysis, types.ModePlanning, types.ModeExecution}, task.Modes())
	assert.Equal(t, []string{task.Segments[1].ID}, task.Segments[2].Dependencies, "out of range dependency ignored")
	assert.Equal(t, 15*time.Minute, task.Segments[0].EstimatedDuration)
	assert.Equal(t, defaultSegmentDuration, task.Segments[2].EstimatedDuration)
	assert.True(t, task.Segments[2].Parallelizable)
}

func TestCreateTaskRejectsUnusableOracleAnswers(t *testing.T) {
	answers := map[string]string{
		"prose":        "You should plan first and then build.",
		"one segment":  `[{"description": "do it", "mode": "execution"}]`,
		"bad mode":     `[{"description": "a", "mode": "learning"}, {"description": "b", "mode": "execution"}]`,
		"unknown mode": `[{"description": "a", "mode": "dance"}, {"description": "b", "mode": "execution"}]`,
		"empty desc":   `[{"description": " ", "mode": "planning"}, {"description": "b", "mode": "execution"}]`,
	}
	for name, answer := range answers {
		t.Run(name, func(t *testing.T) {
			e := NewEngine(Config{Oracle: fixedOracle(answer)})
			task, err := e.CreateTask(context.Background(), "ship the feature", types.DefaultPlanningContext())
			require.NoError(t, err)
			assert.True(t, task.Fallback)
			assert.Len(t, task.Segments, 2)
		})
	}
}

func TestCreateTaskEmptyQuery(t *testing.T) {
	_, err := NewEngine(Config{}).CreateTask(context.Background(), " ", types.DefaultPlanningContext())
	assert.ErrorIs(t, err, types.ErrValidation)
}

func TestComplexity(t *testing.T) {
	assert.Zero(t, Complexity(""))
	// 5 words, 2 dependency words, 3 risk words
	assert.InDelta(t, 0.02+0.12+0.2, Complexity("Critical urgent security depends, then"), 1e-9)
	assert.InDelta(t, 0.2, Complexity(words(80)), 1e-9)
}

func TestAllocate(t *testing.T) {
	base := func() []Segment {
		return []Segment{
			{ID: "a", Mode: types.ModeAnalysis, Complexity: 0.9},
			{ID: "b", Mode: types.ModeAnalysis, Complexity: 0.5, Dependencies: []string{"a"}},
			{ID: "c", Mode: types.ModeAnalysis, Complexity: 0.1},
			{ID: "d", Mode: types.ModeAnalysis, Complexity: 0.5},
		}
	}
	modes := func(segs []Segment) []types.ModeType {
		out := make([]types.ModeType, len(segs))
		for i, s := range segs {
			out[i] = s.Mode
		}
		return out
	}
	P, E, A := types.ModePlanning, types.ModeExecution, types.ModeAnalysis

	tests := []struct {
		strategy   Strategy
		complexity float64
		want       []types.ModeType
	}{
		{StrategyAdaptive, 0.5, []types.ModeType{P, A, E, A}},
		{StrategyBalanced, 0.5, []types.ModeType{P, E, A, P}},
		{StrategyPerformance, 0.5, []types.ModeType{E, A, E, E}},
		{StrategyQuality, 0.7, []types.ModeType{P, A, A, A}},
		{StrategyQuality, 0.5, []types.ModeType{A, A, A, A}},
	}
	for _, tt := range tests {
		segs := base()
		allocate(segs, tt.strategy, tt.complexity)
		assert.Equal(t, tt.want, modes(segs), "%s at %.1f", tt.strategy, tt.complexity)
	}
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyAdaptive, s)

	s, err = ParseStrategy(" Quality ")
	require.NoError(t, err)
	assert.Equal(t, StrategyQuality, s)

	_, err = ParseStrategy("fastest")
	assert.Error(t, err)
}

func TestTransitionReasons(t *testing.T) {
	assert.Equal(t, "Need to analyze results before proceeding", transitionReason(types.ModeExecution, types.ModeAnalysis))
	assert.Equal(t, "Task requirements dictate mode change", transitionReason(types.ModeExecution, types.ModePlanning))
}

func newWorld(initial types.ModeType) (*switcher.Switcher, *modectx.ContextManager) {
	return switcher.New(switcher.Config{Initial: initial}), modectx.NewContextManager(modectx.Config{})
}

func TestExecuteCarriesContextAcrossSegments(t *testing.T) {
	sw, store := newWorld(types.ModeHybrid)
	require.NoError(t, store.UpdateContext(types.ModeHybrid, func(c *modectx.ModeContext) error {
		c.Data.ActiveTasks = []modectx.ActiveTask{{ID: "t1", Title: "wire auth", Progress: 0.5}}
		c.Data.Cache = map[string]any{"scratch.notes": "tmp"}
		return nil
	}))

	var ran []types.ModeType
	e := NewEngine(Config{Runner: RunnerFunc(func(ctx context.Context, task *Task, seg Segment) error {
		ran = append(ran, sw.Current())
		return nil
	})})
	task, err := e.CreateTask(context.Background(), "add login form", types.DefaultPlanningContext())
	require.NoError(t, err)

	result, err := e.Execute(context.Background(), task, sw, store)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 2, result.SegmentsCompleted)
	assert.Equal(t, 2, result.ModeSwitches)
	assert.Equal(t, []types.ModeType{types.ModePlanning, types.ModeExecution}, ran)
	assert.Equal(t, types.ModeExecution, sw.Current())
	assert.Equal(t, 1.0, result.Insights.Efficiency)

	// the task survived both hops; the scratch note was dropped going to execution
	execCtx, err := store.GetContext(types.ModeExecution)
	require.NoError(t, err)
	require.Len(t, execCtx.Data.ActiveTasks, 1)
	assert.Equal(t, "t1", execCtx.Data.ActiveTasks[0].ID)
	assert.Empty(t, execCtx.Data.Cache)

	progress, ok := e.Tracker().Get(task.ID)
	require.True(t, ok)
	assert.Equal(t, 1.0, progress.Completion)
	assert.Equal(t, 2, progress.Switches)

	for _, rec := range sw.History() {
		assert.True(t, rec.Scheduled)
	}
}

func TestExecuteRoutesThroughIntermediateModes(t *testing.T) {
	sw, store := newWorld(types.ModeLearning)
	e := NewEngine(Config{})
	task, err := e.CreateTask(context.Background(), "add login form", types.DefaultPlanningContext())
	require.NoError(t, err)

	result, err := e.Execute(context.Background(), task, sw, store)
	require.NoError(t, err)
	// learning -> hybrid -> planning, then planning -> execution
	assert.Equal(t, 3, result.ModeSwitches)
}

func TestExecuteAbortsOnSegmentFailure(t *testing.T) {
	sw, store := newWorld(types.ModeHybrid)
	boom := errors.New("tests failed")
	e := NewEngine(Config{Runner: RunnerFunc(func(ctx context.Context, task *Task, seg Segment) error {
		if seg.Mode == types.ModeExecution {
			return boom
		}
		return nil
	})})
	task, err := e.CreateTask(context.Background(), "add login form", types.DefaultPlanningContext())
	require.NoError(t, err)

	result, err := e.Execute(context.Background(), task, sw, store)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), task.Segments[1].ID)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.SegmentsCompleted)
	assert.Equal(t, task.Segments[1].ID, result.FailedSegment)
	assert.Equal(t, 0.5, result.Insights.Efficiency)

	progress, _ := e.Tracker().Get(task.ID)
	assert.Equal(t, 0.5, progress.Completion)
}

func TestExecuteAbortsOnSwitchFailure(t *testing.T) {
	sw, store := newWorld(types.ModeHybrid)
	e := NewEngine(Config{})
	task := &Task{ID: "task", Segments: []Segment{{ID: "seg-1", Mode: types.ModeAnalysis}}}
	badStore := &failingStore{ContextManager: store, err: errors.New("disk full")}

	result, err := e.Execute(context.Background(), task, sw, badStore)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "segment seg-1")
	assert.Equal(t, "seg-1", result.FailedSegment)
	assert.Equal(t, types.ModeHybrid, sw.Current())
}

type failingStore struct {
	*modectx.ContextManager
	err error
}

func (f *failingStore) CaptureSnapshot(types.ModeType, string) (*modectx.Snapshot, error) {
	return nil, f.err
}

func TestExecuteHonoursCancellation(t *testing.T) {
	sw, store := newWorld(types.ModeHybrid)
	ctx, cancel := context.WithCancel(context.Background())
	e := NewEngine(Config{Runner: RunnerFunc(func(context.Context, *Task, Segment) error {
		cancel()
		return nil
	})})
	task, err := e.CreateTask(context.Background(), "add login form", types.DefaultPlanningContext())
	require.NoError(t, err)

	result, err := e.Execute(ctx, task, sw, store)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.SegmentsCompleted)
	assert.Equal(t, types.ModePlanning, sw.Current())
}

func TestExecuteEmptyTask(t *testing.T) {
	sw, store := newWorld(types.ModeHybrid)
	_, err := NewEngine(Config{}).Execute(context.Background(), &Task{}, sw, store)
	assert.ErrorIs(t, err, types.ErrValidation)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestInsights(t *testing.T) {
	clk := &fakeClock{now: time.Now()}
	sw, store := newWorld(types.ModeHybrid)
	e := NewEngine(Config{Runner: RunnerFunc(func(ctx context.Context, task *Task, seg Segment) error {
		if seg.Mode == types.ModePlanning {
			clk.Advance(10 * time.Minute)
		}
		return nil
	})})
	e.now = clk.Now

	task := &Task{
		ID: "t",
		Segments: []Segment{
			{ID: "1", Description: "analyze", Mode: types.ModeAnalysis, Complexity: 0.3, EstimatedDuration: 5 * time.Minute},
			{ID: "2", Description: "design", Mode: types.ModePlanning, Complexity: 0.9, EstimatedDuration: 5 * time.Minute, Parallelizable: true},
			{ID: "3", Description: "more design", Mode: types.ModePlanning, Complexity: 0.5, EstimatedDuration: 5 * time.Minute},
		},
	}
	task.Transitions = identifyTransitions(task.Segments)
	task.EstimatedDuration = estimateDuration(task.Segments, len(task.Transitions))

	result, err := e.Execute(context.Background(), task, sw, store)
	require.NoError(t, err)

	in := result.Insights
	assert.Equal(t, []types.ModeType{types.ModeAnalysis, types.ModePlanning, types.ModePlanning}, in.ModeSequence)
	assert.Equal(t, []string{"High complexity in segment: design"}, in.Bottlenecks)
	assert.Equal(t, []string{"2"}, in.ParallelCandidates)
	assert.Equal(t, []string{"Planning phase took significant time, consider more execution focus"}, in.Recommendations)
	assert.Equal(t, 20*time.Minute, result.ModeDurations[types.ModePlanning])
}

func TestInsightsTooManyTransitions(t *testing.T) {
	segs := []Segment{
		{ID: "1", Mode: types.ModePlanning},
		{ID: "2", Mode: types.ModeExecution},
		{ID: "3", Mode: types.ModeAnalysis},
	}
	task := &Task{ID: "t", Segments: segs, Transitions: identifyTransitions(segs), EstimatedDuration: time.Hour}
	in := NewEngine(Config{}).insights(task, &ExecutionResult{SegmentsCompleted: 3})
	assert.Equal(t, []string{"Consider consolidating segments to reduce mode switches"}, in.Recommendations)
	assert.Empty(t, in.Bottlenecks)
}

func TestTrackerStats(t *testing.T) {
	tr := NewTracker()
	assert.Equal(t, 0, tr.Stats().TotalTasks)

	tr.Start("a", "s1", types.ModeHybrid)
	tr.Start("b", "s1", types.ModeHybrid)
	tr.RecordSwitch("a")
	tr.RecordSwitch("a")
	tr.Update("a", "s2", types.ModeExecution, 1)
	tr.Update("b", "s1", types.ModePlanning, 0.5)
	tr.Update("missing", "s1", types.ModePlanning, 0.5)

	stats := tr.Stats()
	assert.Equal(t, 2, stats.TotalTasks)
	assert.Equal(t, 1, stats.ActiveTasks)
	assert.Equal(t, 0.75, stats.AverageProgress)
	assert.Equal(t, 1.0, stats.AverageSwitches)
	assert.Equal(t, map[types.ModeType]int{types.ModeExecution: 1, types.ModePlanning: 1}, stats.ModeDistribution)
}
