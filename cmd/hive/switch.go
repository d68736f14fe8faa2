package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/render"
	"github.com/hivetechs/hive/internal/types"
)

var switchNoContext bool

var switchCmd = &cobra.Command{
	Use:   "switch <mode>",
	Short: "Switch to another mode",
	Long: `Switch to another mode. The current mode's context is transformed for the
target mode and carried across unless --no-context is given.

Switches are validated against the mode graph: forbidden transitions and
switching back to a mode before its cooldown expires are rejected.

Examples:
  hive switch planning
  hive switch exec --no-context`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := types.ParseMode(args[0])
		if err != nil {
			return err
		}

		if !jsonOutput {
			fmt.Printf("Switching to %s mode...\n", target)
		}
		res, err := mgr.SwitchMode(cmd.Context(), target, !switchNoContext)
		if jsonOutput && res != nil {
			if perr := printJSON(res); perr != nil {
				return perr
			}
			return err
		}
		render.Switch(os.Stdout, res, err)
		if err != nil {
			return fmt.Errorf("switch to %s failed", target)
		}
		return nil
	},
}

var routeCmd = &cobra.Command{
	Use:   "route <mode>",
	Short: "Reach a mode along the cheapest path",
	Long: `Move to a mode through intermediate modes when there is no direct
transition, following the cheapest path of the mode graph. Context is
carried across every hop. The route stops at the first hop that fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := types.ParseMode(args[0])
		if err != nil {
			return err
		}
		hops, err := mgr.Route(cmd.Context(), target)
		if jsonOutput {
			if perr := printJSON(hops); perr != nil {
				return perr
			}
			return err
		}
		render.Route(os.Stdout, target, hops, err)
		if err != nil {
			return fmt.Errorf("route to %s failed", target)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(routeCmd)
	switchCmd.Flags().BoolVar(&switchNoContext, "no-context", false, "Do not carry the current context across")
}
