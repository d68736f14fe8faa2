package detector

import "github.com/hivetechs/hive/internal/types"

const (
	minConfidence = 0.1
	maxConfidence = 0.95
	gapWeight     = 0.3
)

// ConfidenceCalculator turns a ranked score table into a confidence value.
type ConfidenceCalculator struct{}

// Calculate returns top + 0.3*(top-second), reduced by 10% when the insight
// lists challenges and raised by 10% when it lists at least two success
// factors, clamped to [0.1, 0.95].
func (ConfidenceCalculator) Calculate(scores types.ModeScores, insight Insight) float64 {
	ranked := scores.Ranked()
	top := scores[ranked[0]]
	second := 0.0
	if len(ranked) > 1 {
		second = scores[ranked[1]]
	}

	conf := top + gapWeight*(top-second)
	if len(insight.PotentialChallenges) > 0 {
		conf *= 0.9
	}
	if len(insight.SuccessFactors) >= 2 {
		conf *= 1.1
	}
	return types.Clamp(conf, minConfidence, maxConfidence)
}
