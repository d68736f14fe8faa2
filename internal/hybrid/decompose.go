package hybrid

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/types"
	"go.uber.org/zap"
)

const (
	minSegments = 2
	maxSegments = 5

	defaultSegmentComplexity = 0.5
	defaultSegmentDuration   = 5 * time.Minute
)

// segmentPayload is one element of the oracle's decomposition.
type segmentPayload struct {
	Description      string  `json:"description"`
	Mode             string  `json:"mode"`
	DependsOn        []int   `json:"depends_on"`
	Parallelizable   bool    `json:"parallelizable"`
	Complexity       float64 `json:"complexity"`
	EstimatedMinutes float64 `json:"estimated_minutes"`
}

func decompositionPrompt(query string, pctx types.PlanningContext) string {
	return fmt.Sprintf(`Decompose this task into 3-5 logical segments for hybrid execution.

Task: %q

Context:
- Project type: %s
- Team size: %d
- Experience level: %s
- Existing codebase: %t

For each segment provide a brief description, the suggested mode
("planning", "execution" or "analysis"), the 1-based numbers of the segments
it depends on, whether it can be parallelized, a complexity between 0 and 1,
and an estimate in minutes.

Respond with a JSON array only:
[{"description": "...", "mode": "planning", "depends_on": [], "parallelizable": false, "complexity": 0.5, "estimated_minutes": 10}]`,
		query, pctx.ProjectType, pctx.TeamSize, pctx.ExperienceLevel, pctx.ExistingCodebase)
}

// decompose asks the oracle for segments and falls back to the built-in
// template when the answer is missing or unusable. The bool result reports
// whether the fallback was used.
func (e *Engine) decompose(ctx context.Context, query string, pctx types.PlanningContext, complexity float64) ([]Segment, bool) {
	text, err := ai.Ask(ctx, e.oracle, "hybrid decomposition", decompositionPrompt(query, pctx))
	if err != nil {
		e.logger.Warn("oracle decomposition unavailable, using template", zap.Error(err))
		return fallbackSegments(query, pctx, complexity), true
	}

	result := ai.Parse[[]segmentPayload](text, ai.ParseOptions{Context: "hybrid decomposition", Logger: e.logger})
	if !result.Success {
		e.logger.Warn("oracle decomposition unparseable, using template", zap.String("error", result.Error))
		return fallbackSegments(query, pctx, complexity), true
	}

	segments, err := segmentsFromPayload(result.Data)
	if err != nil {
		e.logger.Warn("oracle decomposition rejected, using template", zap.Error(err))
		return fallbackSegments(query, pctx, complexity), true
	}
	return segments, false
}

func segmentsFromPayload(payload []segmentPayload) ([]Segment, error) {
	if len(payload) < minSegments || len(payload) > maxSegments {
		return nil, fmt.Errorf("expected %d-%d segments, got %d", minSegments, maxSegments, len(payload))
	}

	segments := make([]Segment, len(payload))
	for i, p := range payload {
		mode, err := types.ParseMode(p.Mode)
		if err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		switch mode {
		case types.ModePlanning, types.ModeExecution, types.ModeAnalysis:
		default:
			return nil, fmt.Errorf("segment %d: mode %s cannot run a segment", i+1, mode)
		}
		if strings.TrimSpace(p.Description) == "" {
			return nil, fmt.Errorf("segment %d: empty description", i+1)
		}

		complexity := p.Complexity
		if complexity <= 0 || complexity > 1 {
			complexity = defaultSegmentComplexity
		}
		duration := time.Duration(p.EstimatedMinutes * float64(time.Minute))
		if duration <= 0 {
			duration = defaultSegmentDuration
		}

		segments[i] = Segment{
			ID:                uuid.New().String(),
			Description:       strings.TrimSpace(p.Description),
			Mode:              mode,
			Complexity:        complexity,
			EstimatedDuration: duration,
			Parallelizable:    p.Parallelizable,
		}
	}

	// Dependencies may only point backwards; anything else is ignored.
	for i, p := range payload {
		for _, n := range p.DependsOn {
			if n >= 1 && n <= i {
				segments[i].Dependencies = append(segments[i].Dependencies, segments[n-1].ID)
			}
		}
	}
	return segments, nil
}

// fallbackSegments is the deterministic template: analyze, plan and
// execute for complex work or an existing codebase, otherwise plan and
// execute.
func fallbackSegments(query string, pctx types.PlanningContext, complexity float64) []Segment {
	plan := Segment{
		ID:                uuid.New().String(),
		Description:       "Plan: " + query,
		Mode:              types.ModePlanning,
		Complexity:        0.5,
		EstimatedDuration: 5 * time.Minute,
	}
	execute := Segment{
		ID:                uuid.New().String(),
		Description:       "Execute: " + query,
		Mode:              types.ModeExecution,
		Complexity:        0.7,
		EstimatedDuration: 10 * time.Minute,
	}

	if !pctx.ExistingCodebase && complexity <= 0.7 {
		return []Segment{plan, execute}
	}

	analyze := Segment{
		ID:                uuid.New().String(),
		Description:       "Analyze: " + query,
		Mode:              types.ModeAnalysis,
		Complexity:        0.3,
		EstimatedDuration: 5 * time.Minute,
	}
	plan.Dependencies = []string{analyze.ID}
	execute.Dependencies = []string{plan.ID}
	return []Segment{analyze, plan, execute}
}
