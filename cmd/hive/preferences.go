package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/render"
	"github.com/hivetechs/hive/internal/types"
)

var (
	prefsLearning string
	prefsReset    bool
	prefsPrefer   string
	prefsStrength float64
)

var preferencesCmd = &cobra.Command{
	Use:     "preferences",
	Aliases: []string{"prefs"},
	Short:   "Show or change preferences",
	Long: `Show the user preferences together with the learned mode usage and
patterns, or change them.

Examples:
  hive preferences
  hive preferences --learning off
  hive preferences --prefer planning --strength 0.7
  hive preferences --reset`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		green := color.New(color.FgGreen).SprintFunc()

		if prefsReset {
			if err := mgr.ResetMode(ctx); err != nil {
				return err
			}
			fmt.Printf("%s Preferences reset\n", green("✓"))
			return nil
		}

		if prefsLearning != "" {
			var enabled bool
			switch prefsLearning {
			case "on", "true":
				enabled = true
			case "off", "false":
			default:
				return fmt.Errorf("--learning must be on or off (got %q)", prefsLearning)
			}
			if err := mgr.SetLearningEnabled(ctx, enabled); err != nil {
				return err
			}
			state := "disabled"
			if enabled {
				state = "enabled"
			}
			fmt.Printf("%s Learning %s\n", green("✓"), state)
		}

		if prefsPrefer != "" || cmd.Flags().Changed("strength") {
			p := mgr.Preferences()
			if prefsPrefer != "" {
				mode, err := types.ParseMode(prefsPrefer)
				if err != nil {
					return err
				}
				p.Base.PreferredMode = mode
			}
			if cmd.Flags().Changed("strength") {
				p.Base.PreferenceStrength = prefsStrength
			}
			if err := mgr.UpdatePreferences(ctx, p); err != nil {
				return err
			}
			fmt.Printf("%s Preferring %s mode (strength %.0f%%)\n", green("✓"), p.Base.PreferredMode, p.Base.PreferenceStrength*100)
		}

		if prefsLearning != "" || prefsPrefer != "" || cmd.Flags().Changed("strength") {
			return nil
		}
		if jsonOutput {
			return printJSON(struct {
				Preferences any `json:"preferences"`
				Learning    any `json:"learning"`
				Patterns    any `json:"patterns"`
			}{mgr.Preferences(), mgr.LearningStats(), mgr.Patterns()})
		}
		render.Preferences(os.Stdout, mgr.Preferences(), mgr.LearningStats())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preferencesCmd)
	preferencesCmd.Flags().StringVar(&prefsLearning, "learning", "", "Turn learning on or off")
	preferencesCmd.Flags().BoolVar(&prefsReset, "reset", false, "Reset preferences, mode and context")
	preferencesCmd.Flags().StringVar(&prefsPrefer, "prefer", "", "Set the preferred mode")
	preferencesCmd.Flags().Float64Var(&prefsStrength, "strength", 0.5, "Set the preference strength (0-1)")
}
