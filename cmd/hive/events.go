package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hivetechs/hive/internal/events"
	"github.com/hivetechs/hive/internal/render"
	"github.com/hivetechs/hive/internal/types"
)

var (
	eventsLimit    int
	eventsType     string
	eventsMode     string
	eventsSeverity string
	eventsSince    time.Duration
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recorded mode events",
	Long: `Show detections, switches, hybrid runs and other events, oldest first.

Examples:
  hive events
  hive events --type mode_switched --limit 50
  hive events --severity warning --since 24h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter := events.EventFilter{
			Type:     events.EventType(eventsType),
			Severity: events.EventSeverity(eventsSeverity),
			Limit:    eventsLimit,
		}
		if eventsMode != "" {
			mode, err := types.ParseMode(eventsMode)
			if err != nil {
				return err
			}
			filter.Mode = mode
		}
		if eventsSince > 0 {
			filter.AfterTime = time.Now().Add(-eventsSince)
		}

		evs, err := mgr.Events(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("failed to read events: %w", err)
		}
		if jsonOutput {
			return printJSON(evs)
		}
		render.Events(os.Stdout, evs)
		return nil
	},
}

var eventsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old events",
	Long: `Run one cycle of event cleanup: delete events older than their retention,
then the oldest non-error events while the store is near its global limit.
Retention comes from the events section of the config file and the
HIVE_EVENT_* environment variables.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := mgr.RunEventCleanup(cmd.Context(), cfg.Events)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(res)
		}
		render.Cleanup(os.Stdout, res)
		if res.TotalDeleted() == 0 {
			fmt.Printf("  %s\n", color.New(color.FgHiBlack).Sprint("nothing to delete"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsCleanupCmd)
	eventsCmd.Flags().IntVarP(&eventsLimit, "limit", "n", 20, "Maximum number of events")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Only events of this type (e.g. mode_switched)")
	eventsCmd.Flags().StringVar(&eventsMode, "mode", "", "Only events concerning this mode")
	eventsCmd.Flags().StringVar(&eventsSeverity, "severity", "", "Only events of this severity: info, warning, error")
	eventsCmd.Flags().DurationVar(&eventsSince, "since", 0, "Only events newer than this (e.g. 24h)")
}
