package modectx

import (
	"testing"

	"github.com/hivetechs/hive/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot(mode types.ModeType) *Snapshot {
	data := ContextData{
		ActiveTasks: []ActiveTask{
			{ID: "t1", Title: "design schema", Progress: 1.0},
			{ID: "t2", Title: "write handlers", Progress: 0.4},
		},
		Workspace: Workspace{OpenFiles: []string{"main.go", "schema.sql"}},
		Cache: map[string]any{
			"planning.outline":   "v1",
			"execution.lastRun":  "ok",
			"analysis.findings":  []string{"slow query"},
			"scratch.tmp":        1,
			"shared.conventions": "gofmt",
		},
	}
	return &Snapshot{ID: "s1", Mode: mode, Data: data, Preserved: data.TotalItems()}
}

func TestTransformAccountsForEveryItem(t *testing.T) {
	var tr Transformer
	for _, from := range types.AllModes {
		for _, to := range types.AllModes {
			src := sampleSnapshot(from)
			out, summary, err := tr.Transform(src, from, to)
			require.NoError(t, err)

			total := src.TotalItems()
			assert.GreaterOrEqual(t, summary.Dropped, 0, "%s -> %s", from, to)
			assert.Equal(t, total, summary.Preserved+summary.Transformed+summary.Dropped, "%s -> %s", from, to)
			assert.Equal(t, total, len(summary.Details))
			assert.Equal(t, from, out.Mode, "transformed snapshot keeps its source mode")
			assert.Equal(t, summary.Preserved+summary.Transformed, out.TotalItems(), "%s -> %s", from, to)
			assert.GreaterOrEqual(t, summary.Quality, 0.0)
			assert.LessOrEqual(t, summary.Quality, 1.0)
		}
	}
}

func TestTransformPlanningToExecution(t *testing.T) {
	out, summary, err := Transformer{}.Transform(sampleSnapshot(types.ModePlanning), types.ModePlanning, types.ModeExecution)
	require.NoError(t, err)

	// 2 tasks + planning.outline transformed; 2 files + 3 other cache entries preserved
	assert.Equal(t, 3, summary.Transformed)
	assert.Equal(t, 5, summary.Preserved)
	assert.Equal(t, 1, summary.Dropped)

	assert.Equal(t, "v1", out.Data.Cache["execution.outline"])
	assert.NotContains(t, out.Data.Cache, "scratch.tmp")
	assert.Equal(t, "planning", out.Data.ActiveTasks[0].Data["planned_in"])
	assert.InDelta(t, 5.0/9*0.7+3.0/9*0.3, summary.Quality, 1e-9)
}

func TestTransformExecutionToPlanningDropsCompletedTasks(t *testing.T) {
	out, summary, err := Transformer{}.Transform(sampleSnapshot(types.ModeExecution), types.ModeExecution, types.ModePlanning)
	require.NoError(t, err)

	require.Len(t, out.Data.ActiveTasks, 1)
	assert.Equal(t, "t2", out.Data.ActiveTasks[0].ID)
	// execution.lastRun collides with nothing and is re-homed
	assert.Equal(t, "ok", out.Data.Cache["planning.lastRun"])
	// t1 and scratch.tmp
	assert.Equal(t, 2, summary.Dropped)
}

func TestTransformClashDropsNamespacedEntry(t *testing.T) {
	snap := &Snapshot{Mode: types.ModeAnalysis, Data: ContextData{Cache: map[string]any{
		"analysis.report": "new",
		"planning.report": "old",
	}}}
	out, summary, err := Transformer{}.Transform(snap, types.ModeAnalysis, types.ModePlanning)
	require.NoError(t, err)
	assert.Equal(t, "old", out.Data.Cache["planning.report"])
	assert.Equal(t, 1, summary.Dropped)
	assert.Equal(t, 1, summary.Preserved)
}

func TestTransformIntoAnalysisKeepsScratch(t *testing.T) {
	out, summary, err := Transformer{}.Transform(sampleSnapshot(types.ModeHybrid), types.ModeHybrid, types.ModeAnalysis)
	require.NoError(t, err)
	assert.Zero(t, summary.Dropped)
	assert.Contains(t, out.Data.Cache, "scratch.tmp")
}

func TestTransformPassThrough(t *testing.T) {
	src := sampleSnapshot(types.ModeHybrid)
	_, summary, err := Transformer{}.Transform(src, types.ModeHybrid, types.ModeLearning)
	require.NoError(t, err)
	assert.Equal(t, src.TotalItems(), summary.Preserved)
	assert.Equal(t, 0.7, summary.Quality)
}

func TestTransformEmptyAndNil(t *testing.T) {
	_, summary, err := Transformer{}.Transform(&Snapshot{Mode: types.ModePlanning}, types.ModePlanning, types.ModeExecution)
	require.NoError(t, err)
	assert.Equal(t, 1.0, summary.Quality)
	assert.Zero(t, summary.Total())

	out, summary, err := Transformer{}.Transform(nil, types.ModePlanning, types.ModeExecution)
	require.NoError(t, err)
	assert.Nil(t, out)
	assert.Equal(t, EmptyTransformation(), summary)
}

func TestTransformDoesNotMutateSource(t *testing.T) {
	src := sampleSnapshot(types.ModePlanning)
	_, _, err := Transformer{}.Transform(src, types.ModePlanning, types.ModeExecution)
	require.NoError(t, err)
	assert.Contains(t, src.Data.Cache, "planning.outline")
	assert.Nil(t, src.Data.ActiveTasks[0].Data)
}

func TestSnapshotViewNilSafe(t *testing.T) {
	var s *Snapshot
	assert.False(t, s.HasActiveTasks())
	assert.False(t, s.HasModeSpecificData(types.ModePlanning))
	assert.Zero(t, s.TotalItems())

	s = sampleSnapshot(types.ModePlanning)
	assert.True(t, s.HasModeSpecificData(types.ModePlanning))
	assert.False(t, s.HasModeSpecificData(types.ModeExecution))
}
