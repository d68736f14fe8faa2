package repl

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/config"
	"github.com/hivetechs/hive/internal/manager"
	"github.com/hivetechs/hive/internal/storage"
	"github.com/hivetechs/hive/internal/types"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newTestREPL(t *testing.T, defaultMode ...types.ModeType) (*REPL, *manager.ModeManager, *bytes.Buffer) {
	t.Helper()
	ctx := context.Background()
	settings := config.DefaultManagerConfig()
	if len(defaultMode) > 0 {
		settings.DefaultMode = defaultMode[0]
	}
	mgr, err := manager.New(ctx, manager.Config{
		Settings: settings,
		Oracle:   ai.Unavailable{},
		Store:    storage.NewMemoryStorage(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close(ctx) })

	var out bytes.Buffer
	r, err := New(&Config{Manager: mgr, Out: &out})
	require.NoError(t, err)
	return r, mgr, &out
}

func TestNewRequiresManager(t *testing.T) {
	_, err := New(&Config{})
	assert.Error(t, err)
}

func TestStatusCommand(t *testing.T) {
	r, _, out := newTestREPL(t)

	require.NoError(t, r.processInput("status"))
	assert.Contains(t, out.String(), "Mode Status")
	assert.Contains(t, out.String(), "Current Mode: 🔄 Hybrid")
}

func TestSwitchCommand(t *testing.T) {
	r, mgr, out := newTestREPL(t)

	require.NoError(t, r.processInput("switch plan"))
	assert.Equal(t, types.ModePlanning, mgr.CurrentMode())
	assert.Contains(t, out.String(), "Switching to planning mode...")
	assert.Contains(t, out.String(), "Mode switch successful!")
	assert.Contains(t, r.prompt(), "planning")

	assert.Error(t, r.processInput("switch"))
	assert.Error(t, r.processInput("switch nowhere"))
}

func TestSwitchCommandReportsRejection(t *testing.T) {
	r, mgr, out := newTestREPL(t, types.ModeLearning)

	require.NoError(t, r.processInput("switch execution"))
	assert.Equal(t, types.ModeLearning, mgr.CurrentMode())
	assert.Contains(t, out.String(), "Mode switch failed")
}

func TestTaskCarriedAcrossSwitch(t *testing.T) {
	r, _, out := newTestREPL(t)

	require.NoError(t, r.processInput("task design the schema"))
	require.NoError(t, r.processInput("open schema.sql"))
	require.NoError(t, r.processInput("switch planning"))
	out.Reset()

	require.NoError(t, r.processInput("context"))
	assert.Contains(t, out.String(), "design the schema")
	assert.Contains(t, out.String(), "schema.sql")
}

func TestSwitchWithoutContext(t *testing.T) {
	r, mgr, out := newTestREPL(t)

	require.NoError(t, r.processInput("task draft"))
	require.NoError(t, r.processInput("switch planning --no-context"))
	out.Reset()

	require.NoError(t, r.processInput("context"))
	assert.Contains(t, out.String(), "No context in planning mode")
	assert.False(t, mgr.Contexts().HasContext(types.ModePlanning), "viewing context must not create it")

	require.NoError(t, r.processInput("context"))
	assert.Equal(t, 2, strings.Count(out.String(), "No context in planning mode"))
}

func TestRouteCommand(t *testing.T) {
	r, mgr, out := newTestREPL(t, types.ModeLearning)

	require.NoError(t, r.processInput("route execution"))
	assert.Equal(t, types.ModeExecution, mgr.CurrentMode())
	assert.Contains(t, out.String(), "Reached ⚡ Execution")
}

func TestFreeTextIsDetected(t *testing.T) {
	r, mgr, out := newTestREPL(t)

	require.NoError(t, r.processInput("fix the crash in the login handler"))
	assert.Contains(t, out.String(), "Detection Result")
	assert.Equal(t, 1, mgr.LearningStats().TotalDetections)

	assert.Error(t, r.processInput("detect"))
}

func TestRecommendDoesNotLearn(t *testing.T) {
	r, mgr, out := newTestREPL(t)

	require.NoError(t, r.processInput("recommend design a scalable architecture"))
	assert.Contains(t, out.String(), "Recommendation")
	assert.Equal(t, 0, mgr.LearningStats().TotalDetections)
}

func TestPlanAndHybridCommands(t *testing.T) {
	r, _, out := newTestREPL(t)

	require.NoError(t, r.processInput("plan build a small cli tool"))
	assert.Contains(t, out.String(), "Hybrid Task")
	assert.Contains(t, out.String(), "Segments:")

	out.Reset()
	require.NoError(t, r.processInput("hybrid --strategy=balanced build a small cli tool"))
	assert.Contains(t, out.String(), "Hybrid task completed")
	assert.Contains(t, out.String(), "Strategy:   balanced")

	assert.Error(t, r.processInput("hybrid --strategy=reckless build it"))
	assert.Error(t, r.processInput("plan"))
}

func TestPrefsCommands(t *testing.T) {
	r, mgr, out := newTestREPL(t)

	require.NoError(t, r.processInput("prefs"))
	assert.Contains(t, out.String(), "Preferred Mode:  🔄 Hybrid")

	require.NoError(t, r.processInput("prefs learning off"))
	assert.False(t, mgr.Preferences().LearningEnabled)

	require.NoError(t, r.processInput("prefs prefer analysis 0.8"))
	p := mgr.Preferences()
	assert.Equal(t, types.ModeAnalysis, p.Base.PreferredMode)
	assert.InDelta(t, 0.8, p.Base.PreferenceStrength, 1e-9)
	assert.Equal(t, types.ModeAnalysis, r.pctx.UserPreferences.PreferredMode)

	assert.Error(t, r.processInput("prefs prefer analysis 3"))
	assert.Error(t, r.processInput("prefs learning maybe"))
	assert.Error(t, r.processInput("prefs colour blue"))
}

func TestAutoCommand(t *testing.T) {
	r, mgr, out := newTestREPL(t)

	require.NoError(t, r.processInput("auto"))
	assert.Contains(t, out.String(), "disabled")

	require.NoError(t, r.processInput("auto on"))
	assert.True(t, mgr.AutoMode())
	require.NoError(t, r.processInput("auto off"))
	assert.False(t, mgr.AutoMode())
	assert.Error(t, r.processInput("auto sometimes"))
}

func TestEventsCommand(t *testing.T) {
	r, _, out := newTestREPL(t)
	require.NoError(t, r.processInput("switch planning"))
	out.Reset()

	require.NoError(t, r.processInput("events 5"))
	assert.Contains(t, out.String(), "mode_switched")
	assert.Error(t, r.processInput("events zero"))
}

func TestCleanupCommand(t *testing.T) {
	r, _, out := newTestREPL(t)

	require.NoError(t, r.processInput("cleanup"))
	assert.Contains(t, out.String(), "Event cleanup completed")
}

func TestResetCommand(t *testing.T) {
	r, mgr, out := newTestREPL(t)
	require.NoError(t, r.processInput("switch planning"))
	require.NoError(t, r.processInput("prefs prefer analysis"))

	require.NoError(t, r.processInput("reset"))
	assert.Equal(t, types.ModeHybrid, mgr.CurrentMode())
	assert.Equal(t, types.DefaultPlanningContext(), r.pctx)
	assert.Contains(t, out.String(), "Reset to 🔄 Hybrid mode")
}

func TestStatsAndHelp(t *testing.T) {
	r, _, out := newTestREPL(t)

	require.NoError(t, r.processInput("stats"))
	assert.Contains(t, out.String(), "Switching")
	out.Reset()

	require.NoError(t, r.processInput("?"))
	assert.Contains(t, out.String(), "Available Commands:")
	assert.Contains(t, out.String(), "planning, execution, hybrid, analysis, learning")
}

func TestExitCommand(t *testing.T) {
	r, _, _ := newTestREPL(t)

	assert.ErrorIs(t, r.processInput("exit"), io.EOF)
	assert.ErrorIs(t, r.processInput("QUIT"), io.EOF)
	assert.NoError(t, r.processInput("   "))
}
