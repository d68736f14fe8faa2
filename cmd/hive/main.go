// Command hive detects the working mode a request calls for, switches
// between modes while carrying context, and learns the user's habits.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/ai"
	"github.com/hivetechs/hive/internal/config"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/manager"
	"github.com/hivetechs/hive/internal/storage"
)

const version = "0.1.0"

var (
	dbPath     string
	configPath string
	logLevel   string
	jsonOutput bool

	logger *zap.Logger
	cfg    *config.Config
	store  storage.Storage
	mgr    *manager.ModeManager
)

var rootCmd = &cobra.Command{
	Use:   "hive",
	Short: "Mode-aware assistant: detect, switch and learn working modes",
	Long: `hive works in one of five modes: planning, execution, hybrid, analysis
and learning. It detects which mode a request calls for, switches between
modes while carrying the working context across, runs hybrid tasks that
move through several modes, and learns from what the user accepts and
overrides.

State lives in .hive/ in the project directory. Run 'hive init' first.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional
		_ = godotenv.Load()

		if logLevel == "" {
			logLevel = os.Getenv("HIVE_LOG_LEVEL")
		}
		var err error
		logger, err = logging.New(logLevel)
		if err != nil {
			return err
		}
		if skipsManager(cmd) {
			return nil
		}
		return openManager(cmd.Context())
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeManager(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: auto-discover .hive/*.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: config.yaml next to the database)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: warn)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
}

// skipsManager reports whether cmd runs without an open manager.
func skipsManager(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "init", "help", "version", "completion":
		return true
	}
	return false
}

func openManager(ctx context.Context) error {
	if dbPath == "" {
		found, err := storage.ResolveDatabase()
		if err != nil {
			if errors.Is(err, storage.ErrNoDatabase) {
				return fmt.Errorf("no hive database found: run 'hive init' first")
			}
			return err
		}
		dbPath = found
	}
	if configPath == "" {
		configPath = storage.ConfigPath(dbPath)
	}

	var err error
	cfg, err = config.Load(configPath)
	if err != nil {
		return err
	}

	store, err = storage.NewStorage(ctx, &storage.Config{Path: dbPath})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	oracle, err := newOracle(cfg.Oracle)
	if err != nil {
		_ = store.Close()
		return err
	}

	mgr, err = manager.New(ctx, manager.Config{
		Settings: cfg.Manager,
		Graph:    cfg.Graph,
		Oracle:   oracle,
		Store:    store,
		Logger:   logger,
	})
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("failed to start mode manager: %w", err)
	}
	logger.Debug("mode manager ready",
		zap.String("db", dbPath),
		zap.String("mode", string(mgr.CurrentMode())),
		zap.Bool("oracle", cfg.Oracle.Enabled()))
	return nil
}

// newOracle returns the Anthropic oracle when an API key is configured and
// nil otherwise, which makes every component use its heuristic fallback.
func newOracle(oc config.OracleConfig) (ai.Oracle, error) {
	if !oc.Enabled() {
		logger.Debug("no API key configured, AI insight disabled")
		return nil, nil
	}
	oracle, err := ai.NewAnthropicOracle(oc.AIConfig(logger.Named("oracle")))
	if err != nil {
		return nil, fmt.Errorf("failed to create AI oracle: %w", err)
	}
	return oracle, nil
}

func closeManager(ctx context.Context) error {
	if mgr == nil {
		return nil
	}
	err := mgr.Close(ctx)
	mgr = nil
	_ = logger.Sync()
	return err
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_ = closeManager(context.Background())
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
