package types

import "fmt"

// ProjectType describes the kind of project a query is issued against.
type ProjectType string

const (
	ProjectUnknown        ProjectType = "unknown"
	ProjectWebApplication ProjectType = "web_application"
	ProjectLibrary        ProjectType = "library"
	ProjectInfrastructure ProjectType = "infrastructure"
	ProjectCLI            ProjectType = "cli"
	ProjectService        ProjectType = "service"
)

// IsValid checks if the project type value is valid
func (p ProjectType) IsValid() bool {
	switch p {
	case ProjectUnknown, ProjectWebApplication, ProjectLibrary, ProjectInfrastructure, ProjectCLI, ProjectService:
		return true
	}
	return false
}

// ExperienceLevel is the self-reported experience of the user.
type ExperienceLevel string

const (
	ExperienceBeginner     ExperienceLevel = "beginner"
	ExperienceIntermediate ExperienceLevel = "intermediate"
	ExperienceExpert       ExperienceLevel = "expert"
)

// IsValid checks if the experience level value is valid
func (e ExperienceLevel) IsValid() bool {
	switch e {
	case ExperienceBeginner, ExperienceIntermediate, ExperienceExpert:
		return true
	}
	return false
}

// PlanningPreferences carries the user's stated mode preference.
type PlanningPreferences struct {
	PreferredMode      ModeType `json:"preferred_mode" yaml:"preferred_mode"`
	PreferenceStrength float64  `json:"preference_strength" yaml:"preference_strength"`
}

// PlanningContext is the caller-supplied description of the environment a
// query runs in.
type PlanningContext struct {
	ProjectType      ProjectType         `json:"project_type" yaml:"project_type"`
	TeamSize         int                 `json:"team_size" yaml:"team_size"`
	ExperienceLevel  ExperienceLevel     `json:"experience_level" yaml:"experience_level"`
	ExistingCodebase bool                `json:"existing_codebase" yaml:"existing_codebase"`
	UserPreferences  PlanningPreferences `json:"user_preferences" yaml:"user_preferences"`
}

// DefaultPlanningContext returns a neutral context: solo intermediate
// developer, unknown project, mild preference for Hybrid.
func DefaultPlanningContext() PlanningContext {
	return PlanningContext{
		ProjectType:     ProjectUnknown,
		TeamSize:        1,
		ExperienceLevel: ExperienceIntermediate,
		UserPreferences: PlanningPreferences{
			PreferredMode:      ModeHybrid,
			PreferenceStrength: 0.5,
		},
	}
}

// Validate checks if the context has valid field values
func (c *PlanningContext) Validate() error {
	if !c.ProjectType.IsValid() {
		return fmt.Errorf("invalid project type: %s", c.ProjectType)
	}
	if !c.ExperienceLevel.IsValid() {
		return fmt.Errorf("invalid experience level: %s", c.ExperienceLevel)
	}
	if c.TeamSize < 0 {
		return fmt.Errorf("team_size cannot be negative (got %d)", c.TeamSize)
	}
	if c.UserPreferences.PreferredMode != "" && !c.UserPreferences.PreferredMode.IsValid() {
		return fmt.Errorf("invalid preferred mode: %s", c.UserPreferences.PreferredMode)
	}
	if c.UserPreferences.PreferenceStrength < 0 || c.UserPreferences.PreferenceStrength > 1 {
		return fmt.Errorf("preference_strength must be between 0 and 1 (got %.2f)", c.UserPreferences.PreferenceStrength)
	}
	return nil
}
