package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/repl"
	"github.com/hivetechs/hive/internal/storage"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start interactive REPL shell",
	Long: `Start an interactive REPL (Read-Eval-Print Loop) shell for hive.

The REPL keeps one session open so context accumulates across commands:
- Plain text is analyzed as a query
- 'switch', 'route' and 'hybrid' move between modes
- 'task' and 'open' add to the current mode's context

Only one REPL session may run per project. Old events are cleaned up in
the background while it runs.

Type 'help' in the REPL for available commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Validate alignment between database and working directory
		cwd, _ := os.Getwd()
		if err := storage.ValidateAlignment(dbPath, cwd); err != nil {
			return err
		}

		lockPath, err := storage.AcquireSessionLock(dbPath, "repl", version)
		if err != nil {
			return err
		}
		defer func() {
			if err := storage.ReleaseSessionLock(lockPath); err != nil {
				logger.Warn("failed to release session lock", zap.Error(err))
			}
		}()

		cleaner, err := mgr.StartEventCleanup(ctx, cfg.Events)
		if err != nil {
			return err
		}
		defer cleaner.Stop()

		r, err := repl.New(&repl.Config{
			Manager:     mgr,
			Events:      cfg.Events,
			HistoryFile: filepath.Join(filepath.Dir(dbPath), ".repl-history"),
			Logger:      logger.Named("repl"),
		})
		if err != nil {
			return fmt.Errorf("failed to create REPL: %w", err)
		}
		return r.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(replCmd)
}
