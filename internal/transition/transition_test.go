package transition

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hivetechs/hive/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	P = types.ModePlanning
	E = types.ModeExecution
	H = types.ModeHybrid
	A = types.ModeAnalysis
	L = types.ModeLearning
)

func TestDirectTransitionsMatchEdgeTable(t *testing.T) {
	expected := map[types.ModeType][]types.ModeType{
		P: {E, H, A},
		E: {P, H, A},
		H: {P, E, A, L},
		A: {P, E, H},
		L: {H},
	}
	g := DefaultGraph()

	for _, from := range types.AllModes {
		allowed := make(map[types.ModeType]bool)
		for _, to := range expected[from] {
			allowed[to] = true
		}
		for _, to := range types.AllModes {
			assert.Equal(t, allowed[to], g.IsDirectTransitionAllowed(from, to), "%s -> %s", from, to)
		}
	}
}

func TestForbiddenOverridesAllowed(t *testing.T) {
	cfg := DefaultGraphConfig()
	cfg.Edges[L] = []types.ModeType{H, E}
	g, err := NewGraph(cfg)
	require.NoError(t, err)
	assert.False(t, g.IsDirectTransitionAllowed(L, E))
	assert.True(t, g.IsDirectTransitionAllowed(L, H))
}

func TestCosts(t *testing.T) {
	g := DefaultGraph()
	assert.Equal(t, 0.3, g.Cost(P, E))
	assert.Equal(t, 0.4, g.Cost(E, P))
	assert.Equal(t, 0.2, g.Cost(H, E))
	assert.Equal(t, 1.0, g.Cost(A, H))
	assert.Equal(t, 0.0, g.Cost(A, A))
	assert.Equal(t, 30*time.Second, g.Cooldown(P))
	assert.Equal(t, time.Duration(0), g.Cooldown(L))
}

func TestOptimalPath(t *testing.T) {
	g := DefaultGraph()

	path, err := g.OptimalPath(A, A)
	require.NoError(t, err)
	assert.Equal(t, []types.ModeType{A}, path)

	path, err = g.OptimalPath(P, E)
	require.NoError(t, err)
	assert.Equal(t, []types.ModeType{P, E}, path)

	path, err = g.OptimalPath(L, E)
	require.NoError(t, err)
	assert.Equal(t, []types.ModeType{L, H, E}, path)
	assert.InDelta(t, 1.2, g.PathCost(path), 1e-9)

	path, err = g.OptimalPath(P, L)
	require.NoError(t, err)
	assert.Equal(t, []types.ModeType{P, H, L}, path)
}

func TestOptimalPathPrefersCheaperRoute(t *testing.T) {
	cfg := DefaultGraphConfig()
	cfg.Edges = map[types.ModeType][]types.ModeType{
		A: {P, H},
		P: {E},
		H: {E},
	}
	cfg.Costs = []CostSpec{
		{From: A, To: P, Cost: 0.9},
		{From: P, To: E, Cost: 0.9},
		{From: A, To: H, Cost: 0.5},
		{From: H, To: E, Cost: 0.5},
	}
	g, err := NewGraph(cfg)
	require.NoError(t, err)

	path, err := g.OptimalPath(A, E)
	require.NoError(t, err)
	assert.Equal(t, []types.ModeType{A, H, E}, path)
}

func TestOptimalPathDisconnected(t *testing.T) {
	g, err := LoadGraph(filepath.Join("testdata", "graph.yaml"))
	require.NoError(t, err)

	_, err = g.OptimalPath(P, L)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPathNotFound))

	var pathErr *types.PathNotFoundError
	require.True(t, errors.As(err, &pathErr))
	assert.Equal(t, P, pathErr.From)
	assert.Equal(t, L, pathErr.To)
}

func TestLoadGraph(t *testing.T) {
	g, err := LoadGraph(filepath.Join("testdata", "graph.yaml"))
	require.NoError(t, err)

	assert.True(t, g.IsDirectTransitionAllowed(P, E))
	assert.False(t, g.IsDirectTransitionAllowed(P, H))
	assert.Equal(t, 0.5, g.Cost(P, E))
	assert.Equal(t, 0.8, g.Cost(E, P))
	assert.Equal(t, 5*time.Second, g.Cooldown(E))
	// forbidden list was not in the file, so the default override still applies
	assert.Equal(t, []EdgeSpec{{From: L, To: E}}, g.Config().Forbidden)

	path, err := g.OptimalPath(H, E)
	require.NoError(t, err)
	assert.Equal(t, []types.ModeType{H, P, E}, path)
}

func TestParseGraphDefaultCost(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want float64
	}{
		{"absent keeps default", "cooldowns:\n  planning: 1s\n", 1.0},
		{"explicit zero", "default_cost: 0\n", 0},
		{"explicit value", "default_cost: 0.6\n", 0.6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := ParseGraph([]byte(tt.yaml))
			require.NoError(t, err)
			assert.Equal(t, tt.want, g.Config().DefaultCost)
			// learning -> planning has no configured cost
			assert.Equal(t, tt.want, g.Cost(L, P))
		})
	}
}

func TestParseGraphRejectsInvalid(t *testing.T) {
	_, err := ParseGraph([]byte("edges:\n  planning: [warp]\n"))
	assert.Error(t, err)

	_, err = ParseGraph([]byte("costs:\n  - {from: planning, to: execution, cost: 3}\n"))
	assert.Error(t, err)

	_, err = ParseGraph([]byte("edges: [broken"))
	assert.Error(t, err)

	_, err = LoadGraph(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

type fakeSnapshot struct {
	tasks bool
	mode  types.ModeType
}

func (f *fakeSnapshot) HasActiveTasks() bool { return f != nil && f.tasks }
func (f *fakeSnapshot) HasModeSpecificData(m types.ModeType) bool {
	return f != nil && f.mode == m
}

func TestValidatorDisallowedEdge(t *testing.T) {
	v := NewValidator(DefaultGraph())
	result := v.Validate(Request{From: L, To: E})

	assert.False(t, result.Safe)
	assert.Contains(t, result.Recommendations, "Consider using Hybrid mode as intermediate step")
	err := result.Err(L, E)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestValidatorWarningsDoNotBlock(t *testing.T) {
	v := NewValidator(DefaultGraph())
	result := v.Validate(Request{From: P, To: E, Snapshot: &fakeSnapshot{tasks: true, mode: P}})

	assert.True(t, result.Safe)
	assert.NoError(t, result.Err(P, E))
	assert.Contains(t, result.Warnings, "Active tasks will be preserved during transition")
	assert.Contains(t, result.Warnings, "Mode-specific data from planning may need transformation")
	assert.Len(t, result.Recommendations, 2)
}

func TestValidatorCooldown(t *testing.T) {
	v := NewValidator(DefaultGraph())
	now := time.Now()

	result := v.Validate(Request{From: E, To: P, LastExit: now.Add(-10 * time.Second), Now: now})
	assert.False(t, result.Safe)
	require.Len(t, result.Reasons, 1)
	assert.Contains(t, result.Reasons[0], "cooling down")

	result = v.Validate(Request{From: E, To: P, LastExit: now.Add(-31 * time.Second), Now: now})
	assert.True(t, result.Safe)

	result = v.Validate(Request{From: E, To: P, LastExit: now.Add(-time.Second), Now: now, Scheduled: true})
	assert.True(t, result.Safe, "scheduled transitions skip cooldowns")

	result = v.Validate(Request{From: H, To: A, LastExit: now, Now: now})
	assert.True(t, result.Safe, "analysis has no cooldown")
}

type blockingCheck struct{}

func (blockingCheck) Name() string              { return "always_block" }
func (blockingCheck) Priority() int             { return 1 }
func (blockingCheck) Check(Request) SafetyStatus { return SafetyStatus{Safe: false} }

func TestValidatorCustomCheck(t *testing.T) {
	v := NewValidator(DefaultGraph())
	v.Register(blockingCheck{})

	result := v.Validate(Request{From: P, To: E})
	assert.False(t, result.Safe)
	assert.Equal(t, []string{"always_block failed"}, result.Reasons)
}
