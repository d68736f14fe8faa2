package detector

import (
	"context"
	"fmt"
	"strings"

	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/types"
	"go.uber.org/zap"
)

// Insight is the oracle's qualitative read on a task.
type Insight struct {
	TaskComplexity      string   `json:"task_complexity"`
	RecommendedApproach string   `json:"recommended_approach"`
	PotentialChallenges []string `json:"potential_challenges"`
	SuccessFactors      []string `json:"success_factors"`

	// Fallback is set when the insight was derived locally because the
	// oracle failed or returned something unusable.
	Fallback bool `json:"-"`
}

const approachKeywordBonus = 0.5

var approachKeywords = []struct {
	mode     types.ModeType
	keywords []string
}{
	{types.ModePlanning, []string{"plan", "design", "architect"}},
	{types.ModeExecution, []string{"implement", "execute", "build", "code"}},
	{types.ModeHybrid, []string{"balance", "hybrid", "iterative"}},
	{types.ModeAnalysis, []string{"analyze", "analysis", "understand", "investigate"}},
	{types.ModeLearning, []string{"learn", "tutorial", "example"}},
}

var fallbackApproaches = map[types.ModeType]string{
	types.ModePlanning:  "Start with a careful plan and design review",
	types.ModeExecution: "Implement directly with focused iterations",
	types.ModeAnalysis:  "Analyze and understand the existing behavior first",
	types.ModeLearning:  "Learn the concepts through guided examples",
}

const defaultFallbackApproach = "Balanced hybrid approach recommended"

func insightPrompt(query string, pctx types.PlanningContext) string {
	return fmt.Sprintf(`You are helping decide how a software development request should be handled.

Request: %q

Project type: %s
Team size: %d
Experience level: %s
Existing codebase: %t

Respond with JSON only, in this exact shape:
{
  "task_complexity": "low" | "medium" | "high",
  "recommended_approach": "one sentence",
  "potential_challenges": ["..."],
  "success_factors": ["..."]
}`, query, pctx.ProjectType, pctx.TeamSize, pctx.ExperienceLevel, pctx.ExistingCodebase)
}

// requestInsight asks the oracle for an Insight. Any failure yields the
// deterministic fallback insight.
func (d *Detector) requestInsight(ctx context.Context, query string, pctx types.PlanningContext) Insight {
	text, err := ai.Ask(ctx, d.oracle, "mode detection insight", insightPrompt(query, pctx))
	if err != nil {
		d.logger.Warn("oracle insight unavailable, using fallback", zap.Error(err))
		return d.fallbackInsight(query)
	}

	result := ai.Parse[Insight](text, ai.ParseOptions{Context: "mode detection insight", Logger: d.logger})
	if !result.Success || !validComplexity(result.Data.TaskComplexity) {
		d.logger.Warn("oracle insight unparseable, using fallback", zap.String("error", result.Error))
		return d.fallbackInsight(query)
	}
	return result.Data
}

// fallbackInsight derives an insight from word count and the dominant
// pattern category.
func (d *Detector) fallbackInsight(query string) Insight {
	words := len(strings.Fields(query))
	complexity := string(ComplexityHigh)
	switch {
	case words < 10:
		complexity = string(ComplexityLow)
	case words < 30:
		complexity = string(ComplexityMedium)
	}

	approach, ok := fallbackApproaches[d.patterns.Dominant(query)]
	if !ok {
		approach = defaultFallbackApproach
	}

	return Insight{
		TaskComplexity:      complexity,
		RecommendedApproach: approach,
		PotentialChallenges: []string{"Complexity management"},
		SuccessFactors:      []string{"Clear requirements"},
		Fallback:            true,
	}
}

// Score maps the insight onto a mode distribution.
func (i Insight) Score() types.ModeScores {
	scores := types.NewModeScores()
	switch ComplexityLevel(strings.ToLower(strings.TrimSpace(i.TaskComplexity))) {
	case ComplexityHigh:
		scores[types.ModePlanning] = 0.8
		scores[types.ModeHybrid] = 0.6
		scores[types.ModeExecution] = 0.2
	case ComplexityLow:
		scores[types.ModePlanning] = 0.2
		scores[types.ModeHybrid] = 0.4
		scores[types.ModeExecution] = 0.8
	default:
		scores[types.ModePlanning] = 0.5
		scores[types.ModeHybrid] = 0.8
		scores[types.ModeExecution] = 0.5
	}

	approach := strings.ToLower(i.RecommendedApproach)
	for _, ak := range approachKeywords {
		for _, kw := range ak.keywords {
			if strings.Contains(approach, kw) {
				scores[ak.mode] = types.Clamp(scores[ak.mode]+approachKeywordBonus, 0, 1)
				break
			}
		}
	}
	return scores
}

func validComplexity(s string) bool {
	switch ComplexityLevel(strings.ToLower(strings.TrimSpace(s))) {
	case ComplexityLow, ComplexityMedium, ComplexityHigh:
		return true
	}
	return false
}
