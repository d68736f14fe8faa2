package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/render"
)

var hybridStrategy string

var planCmd = &cobra.Command{
	Use:   "plan <query>",
	Short: "Decompose a query into hybrid segments",
	Long: `Split a query into segments, each assigned the mode suited to it, without
running them.

Strategies:
  adaptive     plan complex segments, execute simple ones
  balanced     rotate planning, execution and analysis
  performance  execute every segment
  quality      start complex tasks with a planning segment`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := parseStrategyFlag()
		if err != nil {
			return err
		}
		pctx, err := planningContext()
		if err != nil {
			return err
		}
		task, err := mgr.PlanHybrid(cmd.Context(), strings.Join(args, " "), pctx, strategy)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(task)
		}
		render.Plan(os.Stdout, task)
		return nil
	},
}

var hybridCmd = &cobra.Command{
	Use:   "hybrid <query>",
	Short: "Decompose and run a hybrid task",
	Long: `Split a query into segments and run them in order, switching to each
segment's mode and carrying context between them. A successful run is
learned as a mode sequence.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strategy, err := parseStrategyFlag()
		if err != nil {
			return err
		}
		pctx, err := planningContext()
		if err != nil {
			return err
		}
		run, err := mgr.ExecuteHybrid(cmd.Context(), strings.Join(args, " "), pctx, strategy)
		if run != nil {
			if jsonOutput {
				if perr := printJSON(run); perr != nil {
					return perr
				}
			} else {
				render.HybridRun(os.Stdout, run)
			}
		}
		return err
	},
}

// parseStrategyFlag returns the strategy named by --strategy, or "" for
// the configured default.
func parseStrategyFlag() (hybrid.Strategy, error) {
	if hybridStrategy == "" {
		return "", nil
	}
	return hybrid.ParseStrategy(hybridStrategy)
}

func init() {
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(hybridCmd)
	for _, c := range []*cobra.Command{planCmd, hybridCmd} {
		c.Flags().StringVar(&hybridStrategy, "strategy", "", "Decomposition strategy: adaptive, balanced, performance, quality (default: configured)")
		addContextFlags(c)
	}
}
