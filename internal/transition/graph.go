// Package transition holds the mode graph: which switches are allowed, what
// they cost, how long a mode cools down, and how to route between modes
// that are not directly connected.
package transition

import (
	"fmt"
	"os"
	"time"

	"github.com/hivetechs/hive/internal/types"
	"gopkg.in/yaml.v3"
)

// EdgeSpec names a directed edge.
type EdgeSpec struct {
	From types.ModeType `yaml:"from"`
	To   types.ModeType `yaml:"to"`
}

// CostSpec assigns a cost in [0,1] to a directed edge.
type CostSpec struct {
	From types.ModeType `yaml:"from"`
	To   types.ModeType `yaml:"to"`
	Cost float64        `yaml:"cost"`
}

// GraphConfig is the external (YAML) form of the mode graph.
type GraphConfig struct {
	Edges       map[types.ModeType][]types.ModeType `yaml:"edges"`
	Forbidden   []EdgeSpec                          `yaml:"forbidden"`
	Costs       []CostSpec                          `yaml:"costs"`
	DefaultCost float64                             `yaml:"default_cost"`
	Cooldowns   map[types.ModeType]time.Duration    `yaml:"cooldowns"`
}

// DefaultGraphConfig returns the built-in mode graph.
func DefaultGraphConfig() GraphConfig {
	return GraphConfig{
		Edges: map[types.ModeType][]types.ModeType{
			types.ModePlanning:  {types.ModeExecution, types.ModeHybrid, types.ModeAnalysis},
			types.ModeExecution: {types.ModePlanning, types.ModeHybrid, types.ModeAnalysis},
			types.ModeHybrid:    {types.ModePlanning, types.ModeExecution, types.ModeAnalysis, types.ModeLearning},
			types.ModeAnalysis:  {types.ModePlanning, types.ModeExecution, types.ModeHybrid},
			types.ModeLearning:  {types.ModeHybrid},
		},
		Forbidden: []EdgeSpec{
			{From: types.ModeLearning, To: types.ModeExecution},
		},
		Costs: []CostSpec{
			{From: types.ModePlanning, To: types.ModeExecution, Cost: 0.3},
			{From: types.ModeExecution, To: types.ModePlanning, Cost: 0.4},
			{From: types.ModeHybrid, To: types.ModePlanning, Cost: 0.2},
			{From: types.ModeHybrid, To: types.ModeExecution, Cost: 0.2},
		},
		DefaultCost: 1.0,
		Cooldowns: map[types.ModeType]time.Duration{
			types.ModePlanning:  30 * time.Second,
			types.ModeExecution: 10 * time.Second,
			types.ModeHybrid:    60 * time.Second,
		},
	}
}

// Validate checks that every mode named in the config is known and every
// cost lies in [0,1].
func (c GraphConfig) Validate() error {
	for from, tos := range c.Edges {
		if !from.IsValid() {
			return fmt.Errorf("edges: invalid mode %q", from)
		}
		for _, to := range tos {
			if !to.IsValid() {
				return fmt.Errorf("edges[%s]: invalid mode %q", from, to)
			}
		}
	}
	for _, f := range c.Forbidden {
		if !f.From.IsValid() || !f.To.IsValid() {
			return fmt.Errorf("forbidden: invalid edge %s -> %s", f.From, f.To)
		}
	}
	for _, cs := range c.Costs {
		if !cs.From.IsValid() || !cs.To.IsValid() {
			return fmt.Errorf("costs: invalid edge %s -> %s", cs.From, cs.To)
		}
		if cs.Cost < 0 || cs.Cost > 1 {
			return fmt.Errorf("costs: %s -> %s cost must be between 0 and 1 (got %.2f)", cs.From, cs.To, cs.Cost)
		}
	}
	if c.DefaultCost < 0 || c.DefaultCost > 1 {
		return fmt.Errorf("default_cost must be between 0 and 1 (got %.2f)", c.DefaultCost)
	}
	for mode, d := range c.Cooldowns {
		if !mode.IsValid() {
			return fmt.Errorf("cooldowns: invalid mode %q", mode)
		}
		if d < 0 {
			return fmt.Errorf("cooldowns[%s] cannot be negative", mode)
		}
	}
	return nil
}

type edge struct {
	from, to types.ModeType
}

// Graph is the immutable, validated mode graph.
type Graph struct {
	allowed     map[edge]bool
	costs       map[edge]float64
	defaultCost float64
	cooldowns   map[types.ModeType]time.Duration
	config      GraphConfig
}

// NewGraph builds a Graph from cfg. Forbidden edges override allowed ones.
func NewGraph(cfg GraphConfig) (*Graph, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mode graph: %w", err)
	}

	g := &Graph{
		allowed:     make(map[edge]bool),
		costs:       make(map[edge]float64),
		defaultCost: cfg.DefaultCost,
		cooldowns:   make(map[types.ModeType]time.Duration),
		config:      cfg,
	}
	for from, tos := range cfg.Edges {
		for _, to := range tos {
			if from != to {
				g.allowed[edge{from, to}] = true
			}
		}
	}
	for _, f := range cfg.Forbidden {
		delete(g.allowed, edge{f.From, f.To})
	}
	for _, cs := range cfg.Costs {
		g.costs[edge{cs.From, cs.To}] = cs.Cost
	}
	for mode, d := range cfg.Cooldowns {
		g.cooldowns[mode] = d
	}
	return g, nil
}

// DefaultGraph returns the built-in graph.
func DefaultGraph() *Graph {
	g, err := NewGraph(DefaultGraphConfig())
	if err != nil {
		panic(fmt.Sprintf("default mode graph is invalid: %v", err))
	}
	return g
}

// LoadGraph reads a GraphConfig from a YAML file. Sections missing from the
// file keep their built-in defaults.
func LoadGraph(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	return ParseGraph(data)
}

// graphFile is the on-disk shape of a GraphConfig. DefaultCost is a pointer
// so an explicit 0 can be told apart from an absent key.
type graphFile struct {
	Edges       map[types.ModeType][]types.ModeType `yaml:"edges"`
	Forbidden   []EdgeSpec                          `yaml:"forbidden"`
	Costs       []CostSpec                          `yaml:"costs"`
	DefaultCost *float64                            `yaml:"default_cost"`
	Cooldowns   map[types.ModeType]time.Duration    `yaml:"cooldowns"`
}

// ParseGraph decodes a YAML graph document.
func ParseGraph(data []byte) (*Graph, error) {
	cfg := DefaultGraphConfig()
	var file graphFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse graph YAML: %w", err)
	}
	if file.Edges != nil {
		cfg.Edges = file.Edges
	}
	if file.Forbidden != nil {
		cfg.Forbidden = file.Forbidden
	}
	if file.Costs != nil {
		cfg.Costs = file.Costs
	}
	if file.DefaultCost != nil {
		cfg.DefaultCost = *file.DefaultCost
	}
	if file.Cooldowns != nil {
		cfg.Cooldowns = file.Cooldowns
	}
	return NewGraph(cfg)
}

// IsDirectTransitionAllowed reports whether from -> to is an edge of the
// graph. Self-transitions are not edges.
func (g *Graph) IsDirectTransitionAllowed(from, to types.ModeType) bool {
	return g.allowed[edge{from, to}]
}

// Cost returns the cost of switching from -> to: 0 for a self-transition,
// the configured cost when present, otherwise the default cost.
func (g *Graph) Cost(from, to types.ModeType) float64 {
	if from == to {
		return 0
	}
	if c, ok := g.costs[edge{from, to}]; ok {
		return c
	}
	return g.defaultCost
}

// Cooldown returns how long a mode must rest after being left before it can
// be entered again.
func (g *Graph) Cooldown(mode types.ModeType) time.Duration {
	return g.cooldowns[mode]
}

// Neighbors returns the modes reachable from mode in one step, in
// tie-break order.
func (g *Graph) Neighbors(mode types.ModeType) []types.ModeType {
	var out []types.ModeType
	for _, to := range types.AllModes {
		if g.allowed[edge{mode, to}] {
			out = append(out, to)
		}
	}
	return out
}

// Config returns the configuration the graph was built from.
func (g *Graph) Config() GraphConfig {
	return g.config
}
