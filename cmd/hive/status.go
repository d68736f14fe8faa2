package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/render"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current mode and its health",
	Long: `Display the current mode, the confidence of the last detection, how long
the mode has been active, how much context it holds and an overall health
grade.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		status := mgr.Status()
		if jsonOutput {
			return printJSON(status)
		}
		render.Status(os.Stdout, status, mgr.LearningStats())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
