package manager

import (
	"context"
	"fmt"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/types"
)

// HybridRun is a decomposed task together with the outcome of running it.
type HybridRun struct {
	Task   *hybrid.Task           `json:"task"`
	Result *hybrid.ExecutionResult `json:"result"`
}

// PlanHybrid decomposes query into a hybrid task without running it. An
// empty strategy selects the configured one.
func (m *ModeManager) PlanHybrid(ctx context.Context, query string, pctx types.PlanningContext, strategy hybrid.Strategy) (*hybrid.Task, error) {
	if strategy == "" {
		strategy = m.settings.HybridStrategy
	}
	enhanced := m.prefs.EnhanceContext(pctx)
	task, err := m.engine.CreateTaskWithStrategy(ctx, query, enhanced, strategy)
	if err != nil {
		return nil, fmt.Errorf("failed to plan hybrid task: %w", err)
	}
	return task, nil
}

// ExecuteHybrid decomposes query and runs its segments in order, switching
// modes between them. A successful run is learned as a mode sequence. The
// returned run is non-nil whenever a task was created, including when a
// segment failed.
func (m *ModeManager) ExecuteHybrid(ctx context.Context, query string, pctx types.PlanningContext, strategy hybrid.Strategy) (*HybridRun, error) {
	task, err := m.PlanHybrid(ctx, query, pctx, strategy)
	if err != nil {
		return nil, err
	}
	run := &HybridRun{Task: task}

	started, err := events.NewHybridEvent(events.EventTypeHybridStarted, task.Segments[0].Mode, events.SeverityInfo,
		fmt.Sprintf("Hybrid task started with %d segments", len(task.Segments)),
		events.HybridData{
			TaskID:   task.ID,
			Segments: len(task.Segments),
			Modes:    task.Modes(),
			Fallback: task.Fallback,
		})
	m.emit(ctx, started, err)

	result, execErr := m.engine.Execute(ctx, task, m.switcher, m.contexts)
	run.Result = result

	if result != nil {
		severity, message := events.SeverityInfo, "Hybrid task completed"
		if !result.Success {
			severity = events.SeverityError
			message = fmt.Sprintf("Hybrid task failed at segment %s", result.FailedSegment)
		}
		completed, err := events.NewHybridEvent(events.EventTypeHybridCompleted, m.CurrentMode(), severity, message,
			events.HybridData{
				TaskID:            task.ID,
				Segments:          len(task.Segments),
				SegmentsCompleted: result.SegmentsCompleted,
				ModeSwitches:      result.ModeSwitches,
				Modes:             task.Modes(),
				DurationMs:        result.TotalDuration.Milliseconds(),
				FailedSegment:     result.FailedSegment,
				Fallback:          task.Fallback,
			})
		m.emit(ctx, completed, err)
		if result.ModeSwitches > 0 {
			m.mu.Lock()
			m.lastSwitch = m.now()
			m.mu.Unlock()
		}
	}

	if execErr == nil {
		m.prefs.LearnFromHybridExecution(task)
	}
	m.persist(ctx)
	return run, execErr
}

// HybridStats summarizes the hybrid tasks run by this manager.
func (m *ModeManager) HybridStats() hybrid.Stats {
	return m.engine.Tracker().Stats()
}
