package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var autoCmd = &cobra.Command{
	Use:   "auto [on|off]",
	Short: "Show or set automatic mode switching",
	Long: `With auto mode on, a detection whose confidence reaches the configured
threshold switches to the detected mode.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		green := color.New(color.FgGreen).SprintFunc()
		threshold := mgr.Settings().AutoSwitchThreshold * 100

		if len(args) == 0 {
			state := "disabled"
			if mgr.AutoMode() {
				state = "enabled"
			}
			fmt.Printf("Automatic mode switching is %s (threshold %.0f%%)\n", state, threshold)
			return nil
		}

		var enabled bool
		switch args[0] {
		case "on":
			enabled = true
		case "off":
		default:
			return fmt.Errorf("expected on or off (got %q)", args[0])
		}
		if err := mgr.SetAutoMode(cmd.Context(), enabled); err != nil {
			return err
		}
		if enabled {
			fmt.Printf("%s Automatic mode switching enabled (threshold %.0f%%)\n", green("✓"), threshold)
		} else {
			fmt.Printf("%s Automatic mode switching disabled\n", green("✓"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autoCmd)
}
