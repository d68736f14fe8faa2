// Package detector decides which operating mode a query should run in by
// merging pattern, complexity, context and oracle signals.
package detector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/types"
	"go.uber.org/zap"
)

// maxAlternatives bounds Result.Alternatives.
const maxAlternatives = 3

// Weights controls how much each signal source contributes.
type Weights struct {
	Pattern    float64 `yaml:"pattern"`
	Complexity float64 `yaml:"complexity"`
	Context    float64 `yaml:"context"`
	Insight    float64 `yaml:"insight"`
}

// DefaultWeights returns the standard source weights.
func DefaultWeights() Weights {
	return Weights{Pattern: 0.3, Complexity: 0.3, Context: 0.3, Insight: 0.4}
}

// Alternative is a non-primary mode with its merged score.
type Alternative struct {
	Mode  types.ModeType `json:"mode"`
	Score float64        `json:"score"`
}

// Result is the outcome of a detection.
type Result struct {
	PrimaryMode  types.ModeType     `json:"primary_mode"`
	Confidence   float64            `json:"confidence"`
	Scores       types.ModeScores   `json:"scores"`
	Alternatives []Alternative      `json:"alternatives"`
	Reasoning    string             `json:"reasoning"`
	Complexity   ComplexityAnalysis `json:"complexity"`
	Insight      Insight            `json:"insight"`
	DetectedAt   time.Time          `json:"detected_at"`
}

// Config holds detector configuration
type Config struct {
	Oracle  ai.Oracle // nil means every detection uses the fallback insight
	Weights Weights   // zero value means DefaultWeights
	Logger  *zap.Logger
}

// Detector is stateless apart from its compiled patterns and is safe for
// concurrent use.
type Detector struct {
	oracle     ai.Oracle
	weights    Weights
	patterns   *PatternMatcher
	complexity ComplexityAnalyzer
	contextual ContextAnalyzer
	confidence ConfidenceCalculator
	logger     *zap.Logger
}

// New creates a Detector.
func New(cfg Config) *Detector {
	weights := cfg.Weights
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Detector{
		oracle:   cfg.Oracle,
		weights:  weights,
		patterns: NewPatternMatcher(),
		logger:   logging.OrNop(cfg.Logger),
	}
}

// Detect scores every mode for query and returns the ranked result.
// Oracle failures never fail detection.
func (d *Detector) Detect(ctx context.Context, query string, pctx types.PlanningContext) (*Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, &types.ValidationError{Op: "detect mode", Reasons: []string{"query is empty"}}
	}

	patternScores := d.patterns.Score(query)
	complexityScores, analysis := d.complexity.Score(query)
	contextScores := d.contextual.Score(pctx)
	insight := d.requestInsight(ctx, query, pctx)
	insightScores := insight.Score()

	scores := types.NewModeScores()
	scores.Add(patternScores, d.weights.Pattern)
	scores.Add(complexityScores, d.weights.Complexity)
	scores.Add(contextScores, d.weights.Context)
	scores.Add(insightScores, d.weights.Insight)

	ranked := scores.Ranked()
	primary := ranked[0]

	alternatives := make([]Alternative, 0, maxAlternatives)
	for _, m := range ranked[1:] {
		if len(alternatives) == maxAlternatives {
			break
		}
		alternatives = append(alternatives, Alternative{Mode: m, Score: scores[m]})
	}

	result := &Result{
		PrimaryMode:  primary,
		Confidence:   d.confidence.Calculate(scores, insight),
		Scores:       scores,
		Alternatives: alternatives,
		Complexity:   analysis,
		Insight:      insight,
		DetectedAt:   time.Now(),
	}
	result.Reasoning = d.reasoning(result, patternScores, contextScores)

	d.logger.Debug("mode detected",
		zap.String("mode", string(primary)),
		zap.Float64("confidence", result.Confidence),
		zap.String("complexity", string(analysis.Level)),
		zap.Bool("fallback_insight", insight.Fallback))
	return result, nil
}

func (d *Detector) reasoning(r *Result, patternScores, contextScores types.ModeScores) string {
	var parts []string

	if best, score := patternScores.Best(); score > 0 {
		parts = append(parts, fmt.Sprintf("query wording points to %s (%.2f)", best, score))
	}
	parts = append(parts, fmt.Sprintf("%s complexity (%.2f)", r.Complexity.Level, r.Complexity.Score))
	if best, score := contextScores.Best(); score > 0 {
		parts = append(parts, fmt.Sprintf("project context favors %s", best))
	}
	source := "oracle"
	if r.Insight.Fallback {
		source = "local fallback"
	}
	parts = append(parts, fmt.Sprintf("%s insight: %s", source, r.Insight.RecommendedApproach))

	return fmt.Sprintf("%s selected: %s", r.PrimaryMode.Title(), strings.Join(parts, "; "))
}
