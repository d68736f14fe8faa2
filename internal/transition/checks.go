package transition

import (
	"fmt"
	"time"
)

// ActiveTaskCheck warns when the snapshot carries active tasks. It never
// blocks.
type ActiveTaskCheck struct{}

func (ActiveTaskCheck) Name() string  { return "active_tasks" }
func (ActiveTaskCheck) Priority() int { return 10 }

func (ActiveTaskCheck) Check(req Request) SafetyStatus {
	if req.Snapshot != nil && req.Snapshot.HasActiveTasks() {
		return SafetyStatus{
			Safe:            true,
			Warnings:        []string{"Active tasks will be preserved during transition"},
			Recommendations: []string{"Review active tasks after mode switch"},
		}
	}
	return SafetyStatus{Safe: true}
}

// CooldownCheck blocks re-entering a mode before its cooldown has elapsed
// since it was last left.
type CooldownCheck struct {
	graph *Graph
}

func (CooldownCheck) Name() string  { return "cooldown" }
func (CooldownCheck) Priority() int { return 5 }

func (c CooldownCheck) Check(req Request) SafetyStatus {
	if req.Scheduled || req.LastExit.IsZero() {
		return SafetyStatus{Safe: true}
	}
	cooldown := c.graph.Cooldown(req.To)
	if cooldown <= 0 {
		return SafetyStatus{Safe: true}
	}
	elapsed := req.Now.Sub(req.LastExit)
	if elapsed >= cooldown {
		return SafetyStatus{Safe: true}
	}
	remaining := (cooldown - elapsed).Round(time.Second)
	return SafetyStatus{
		Safe:            false,
		Reason:          fmt.Sprintf("%s mode is cooling down (%v remaining)", req.To, remaining),
		Recommendations: []string{fmt.Sprintf("Wait %v before switching back to %s", remaining, req.To)},
	}
}

// ContextCompatibilityCheck warns when the snapshot holds data specific to
// the mode being left.
type ContextCompatibilityCheck struct{}

func (ContextCompatibilityCheck) Name() string  { return "context_compatibility" }
func (ContextCompatibilityCheck) Priority() int { return 20 }

func (ContextCompatibilityCheck) Check(req Request) SafetyStatus {
	if req.Snapshot != nil && req.Snapshot.HasModeSpecificData(req.From) {
		return SafetyStatus{
			Safe:            true,
			Warnings:        []string{fmt.Sprintf("Mode-specific data from %s may need transformation", req.From)},
			Recommendations: []string{"Context will be automatically transformed"},
		}
	}
	return SafetyStatus{Safe: true}
}
