package detector

import "github.com/hivetechs/hive/internal/types"

const affinityWeight = 0.3

type affinity struct {
	mode  types.ModeType
	score float64
}

var projectAffinities = map[types.ProjectType]affinity{
	types.ProjectInfrastructure: {types.ModePlanning, 0.8},
	types.ProjectLibrary:        {types.ModeExecution, 0.7},
	types.ProjectWebApplication: {types.ModeHybrid, 0.8},
}

var experienceAffinities = map[types.ExperienceLevel]affinity{
	types.ExperienceBeginner: {types.ModePlanning, 0.7},
	types.ExperienceExpert:   {types.ModeExecution, 0.6},
}

// ContextAnalyzer scores modes from the caller's PlanningContext: stated
// preference, project and experience affinities, and team size.
type ContextAnalyzer struct{}

// Score returns the context-derived score for every mode.
func (ContextAnalyzer) Score(pctx types.PlanningContext) types.ModeScores {
	scores := types.NewModeScores()

	if pref := pctx.UserPreferences.PreferredMode; pref.IsValid() {
		scores[pref] += pctx.UserPreferences.PreferenceStrength
	}
	if a, ok := projectAffinities[pctx.ProjectType]; ok {
		scores[a.mode] += a.score * affinityWeight
	}
	if a, ok := experienceAffinities[pctx.ExperienceLevel]; ok {
		scores[a.mode] += a.score * affinityWeight
	}

	switch {
	case pctx.TeamSize > 3:
		scores[types.ModePlanning] += 0.2
	case pctx.TeamSize == 1:
		scores[types.ModeExecution] += 0.2
	}
	return scores
}
