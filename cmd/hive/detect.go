package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/render"
	"github.com/hivetechs/hive/internal/types"
)

// planning context flags shared by detect, recommend, plan and hybrid
var (
	ctxProjectType string
	ctxTeamSize    int
	ctxExperience  string
	ctxExisting    bool
)

func addContextFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&ctxProjectType, "project-type", string(types.ProjectUnknown),
		"Project type: unknown, web_application, library, infrastructure, cli, service")
	cmd.Flags().IntVar(&ctxTeamSize, "team-size", 1, "Team size")
	cmd.Flags().StringVar(&ctxExperience, "experience", string(types.ExperienceIntermediate),
		"Experience level: beginner, intermediate, expert")
	cmd.Flags().BoolVar(&ctxExisting, "existing-codebase", false, "The work happens in an existing codebase")
}

// planningContext builds the context for a query from the flags and the
// stored preferences.
func planningContext() (types.PlanningContext, error) {
	pctx := types.DefaultPlanningContext()
	pctx.ProjectType = types.ProjectType(ctxProjectType)
	pctx.TeamSize = ctxTeamSize
	pctx.ExperienceLevel = types.ExperienceLevel(ctxExperience)
	pctx.ExistingCodebase = ctxExisting
	pctx.UserPreferences = mgr.Preferences().Base
	if err := pctx.Validate(); err != nil {
		return pctx, err
	}
	return pctx, nil
}

var detectShowConfidence bool

var detectCmd = &cobra.Command{
	Use:   "detect <query>",
	Short: "Detect the best mode for a query",
	Long: `Analyze a query and report the mode best suited to it. The detection is
recorded so hive learns from it; with auto mode on, a confident detection
switches to the detected mode.

Examples:
  hive detect "fix the failing login test"
  hive detect --confidence "design the billing architecture"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		pctx, err := planningContext()
		if err != nil {
			return err
		}
		d, err := mgr.DetectMode(cmd.Context(), query, pctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(d)
		}
		render.Detection(os.Stdout, query, d, mgr.LearningStats().PreferenceInfluence, detectShowConfidence)
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <query>",
	Short: "Recommend a mode without recording anything",
	Long: `Analyze a query and combine the detection with the learned prediction
and the route from the current mode. Nothing is learned or switched.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		pctx, err := planningContext()
		if err != nil {
			return err
		}
		rec, err := mgr.Recommendation(cmd.Context(), query, pctx)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(rec)
		}
		render.Recommendation(os.Stdout, query, rec)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
	rootCmd.AddCommand(recommendCmd)
	detectCmd.Flags().BoolVar(&detectShowConfidence, "confidence", false, "Show complexity and alternative modes")
	addContextFlags(detectCmd)
	addContextFlags(recommendCmd)
}
