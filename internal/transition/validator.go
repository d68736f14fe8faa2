package transition

import (
	"fmt"
	"sort"
	"time"

	"github.com/hivetechs/hive/internal/types"
)

// SnapshotView is what safety checks need to know about a context
// snapshot. Implementations must treat a nil receiver as "no snapshot".
type SnapshotView interface {
	HasActiveTasks() bool
	HasModeSpecificData(mode types.ModeType) bool
}

// Request describes a proposed transition.
type Request struct {
	From     types.ModeType
	To       types.ModeType
	Snapshot SnapshotView // may be nil

	// LastExit is when To was last left; zero if never.
	LastExit time.Time
	Now      time.Time

	// Scheduled transitions are issued by the hybrid engine as part of a
	// planned task and are exempt from cooldowns.
	Scheduled bool
}

// SafetyStatus is the verdict of a single safety check.
type SafetyStatus struct {
	Safe            bool
	Reason          string // set when Safe is false
	Warnings        []string
	Recommendations []string
}

// SafetyCheck is a pluggable transition check.
type SafetyCheck interface {
	// Name returns a unique identifier for this check.
	Name() string

	// Priority determines execution order (lower values run first).
	Priority() int

	// Check inspects the request. It never blocks on I/O.
	Check(req Request) SafetyStatus
}

// ValidationResult aggregates the edge check and every safety check.
type ValidationResult struct {
	Safe            bool
	Reasons         []string
	Warnings        []string
	Recommendations []string
}

// Err returns a ValidationError when the transition is unsafe.
func (r ValidationResult) Err(from, to types.ModeType) error {
	if r.Safe {
		return nil
	}
	return &types.ValidationError{Op: fmt.Sprintf("switch %s -> %s", from, to), Reasons: r.Reasons}
}

// Validator checks proposed transitions against the graph and a registry of
// safety checks.
type Validator struct {
	graph  *Graph
	checks []SafetyCheck
}

// NewValidator creates a validator with the standard checks registered.
func NewValidator(graph *Graph) *Validator {
	v := &Validator{graph: graph}
	v.Register(ActiveTaskCheck{})
	v.Register(CooldownCheck{graph: graph})
	v.Register(ContextCompatibilityCheck{})
	return v
}

// Register adds a check. Checks are kept sorted by priority.
func (v *Validator) Register(c SafetyCheck) {
	v.checks = append(v.checks, c)
	sort.SliceStable(v.checks, func(i, j int) bool {
		return v.checks[i].Priority() < v.checks[j].Priority()
	})
}

// Graph returns the graph the validator checks against.
func (v *Validator) Graph() *Graph {
	return v.graph
}

// Validate runs the edge check and every safety check. All checks run even
// after one fails so warnings and recommendations are complete.
func (v *Validator) Validate(req Request) ValidationResult {
	result := ValidationResult{Safe: true}
	if req.Now.IsZero() {
		req.Now = time.Now()
	}

	if !v.graph.IsDirectTransitionAllowed(req.From, req.To) {
		result.Safe = false
		result.Reasons = append(result.Reasons,
			fmt.Sprintf("direct transition from %s to %s is not allowed", req.From, req.To))
		result.Recommendations = append(result.Recommendations, "Consider using Hybrid mode as intermediate step")
	}

	for _, c := range v.checks {
		status := c.Check(req)
		if !status.Safe {
			result.Safe = false
			reason := status.Reason
			if reason == "" {
				reason = c.Name() + " failed"
			}
			result.Reasons = append(result.Reasons, reason)
		}
		result.Warnings = append(result.Warnings, status.Warnings...)
		result.Recommendations = append(result.Recommendations, status.Recommendations...)
	}
	return result
}
