package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/render"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show learning, switching, hybrid and context statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats := mgr.Stats()
		if jsonOutput {
			return printJSON(stats)
		}
		render.Stats(os.Stdout, stats)
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset to the default mode",
	Long: `Return to the configured default mode with no context, default
preferences and auto mode off. Learning history is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := mgr.ResetMode(cmd.Context()); err != nil {
			return err
		}
		render.Status(os.Stdout, mgr.Status(), mgr.LearningStats())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(resetCmd)
}
