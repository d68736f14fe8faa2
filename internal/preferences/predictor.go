package preferences

import (
	"time"

	"github.com/hivetechs/hive/internal/types"
)

// PredictionInput is what the ensemble predicts from.
type PredictionInput struct {
	Query   string
	Current types.ModeType
	Context types.PlanningContext
	At      time.Time
}

// Prediction is the ensemble's answer.
type Prediction struct {
	Mode       types.ModeType   `json:"mode"`
	Confidence float64          `json:"confidence"`
	Votes      types.ModeScores `json:"votes"`
}

type modelKind int

const (
	frequencyModel modelKind = iota
	transitionModel
	contextModel
)

var ensemble = []modelKind{frequencyModel, transitionModel, contextModel}

func (k modelKind) predict(in PredictionInput, data *LearningData) (types.ModeType, float64) {
	switch k {
	case frequencyModel:
		return mostFrequentTarget(data.SwitchHistory), 0.6
	case transitionModel:
		switch in.Current {
		case types.ModePlanning:
			return types.ModeExecution, 0.5
		case types.ModeExecution:
			return types.ModeAnalysis, 0.5
		case types.ModeAnalysis:
			return types.ModePlanning, 0.5
		}
		return types.ModeHybrid, 0.5
	case contextModel:
		switch in.Context.ProjectType {
		case types.ProjectInfrastructure:
			return types.ModePlanning, 0.7
		case types.ProjectLibrary:
			return types.ModeExecution, 0.7
		}
		return types.ModeHybrid, 0.7
	}
	return types.ModeHybrid, 0
}

// mostFrequentTarget returns the most common target of successful
// switches, or Hybrid with no history.
func mostFrequentTarget(history []SwitchRecord) types.ModeType {
	counts := make(map[types.ModeType]int)
	for _, r := range history {
		if r.Success {
			counts[r.To]++
		}
	}
	best := types.ModeHybrid
	bestCount := 0
	for _, m := range types.AllModes {
		if counts[m] > bestCount {
			best, bestCount = m, counts[m]
		}
	}
	return best
}

// predict sums each model's confidence per predicted mode and picks the
// best, normalizing by the number of models.
func predict(in PredictionInput, data *LearningData) Prediction {
	votes := types.NewModeScores()
	for _, k := range ensemble {
		mode, confidence := k.predict(in, data)
		votes[mode] += confidence
	}
	best, score := votes.Best()
	return Prediction{
		Mode:       best,
		Confidence: score / float64(len(ensemble)),
		Votes:      votes,
	}
}
