// Package repl is the interactive hive shell. Commands drive the mode
// manager directly; any other input is treated as a query to detect.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"go.uber.org/zap"

	"github.com/hivetechs/hive/internal/config"
	"github.com/hivetechs/hive/internal/logging"
	"github.com/hivetechs/hive/internal/manager"
	"github.com/hivetechs/hive/internal/types"
)

// REPL represents the interactive shell
type REPL struct {
	mgr      *manager.ModeManager
	events   config.EventRetentionConfig
	logger   *zap.Logger
	rl       *readline.Instance
	ctx      context.Context
	out      io.Writer
	outSet   bool
	history  string
	pctx     types.PlanningContext
	commands map[string]CommandHandler
}

// CommandHandler handles a specific command
type CommandHandler func(args []string) error

// Config holds REPL configuration
type Config struct {
	Manager *manager.ModeManager
	// Events configures the "cleanup" command.
	Events config.EventRetentionConfig
	// HistoryFile persists input history; empty keeps it in memory.
	HistoryFile string
	// Out receives command output. Default: the terminal.
	Out    io.Writer
	Logger *zap.Logger
}

// New creates a new REPL instance
func New(cfg *Config) (*REPL, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("mode manager is required")
	}

	events := cfg.Events
	if events == (config.EventRetentionConfig{}) {
		events = config.DefaultEventRetentionConfig()
	}

	r := &REPL{
		mgr:      cfg.Manager,
		events:   events,
		logger:   logging.OrNop(cfg.Logger),
		ctx:      context.Background(),
		out:      cfg.Out,
		outSet:   cfg.Out != nil,
		history:  cfg.HistoryFile,
		pctx:     types.DefaultPlanningContext(),
		commands: make(map[string]CommandHandler),
	}
	if r.out == nil {
		r.out = os.Stdout
	}

	r.registerCommands()
	return r, nil
}

func (r *REPL) prompt() string {
	cyan := color.New(color.FgCyan).SprintFunc()
	mode := r.mgr.CurrentMode()
	return cyan(fmt.Sprintf("hive %s %s> ", mode.Icon(), mode))
}

// Run starts the REPL loop
func (r *REPL) Run(ctx context.Context) error {
	r.ctx = ctx

	rl, err := readline.NewEx(&readline.Config{
		Prompt:            r.prompt(),
		HistoryFile:       r.history,
		AutoComplete:      r.completer(),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	r.rl = rl
	if !r.outSet {
		r.out = rl.Stdout()
	}

	r.printWelcome()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				// Ctrl+C - just show prompt again
				continue
			} else if errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nGoodbye!")
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if err := r.processInput(line); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			red := color.New(color.FgRed).SprintFunc()
			fmt.Fprintf(r.out, "%s %v\n", red("Error:"), err)
		}
		rl.SetPrompt(r.prompt())
	}
}

// processInput processes a single line of input
func (r *REPL) processInput(line string) error {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return nil
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	if handler, ok := r.commands[command]; ok {
		return handler(args)
	}

	// Anything else is a query
	return r.cmdDetect(parts)
}

// completer offers the commands and, where a command takes one, the mode
// names or strategies.
func (r *REPL) completer() *readline.PrefixCompleter {
	modes := make([]readline.PrefixCompleterInterface, len(types.AllModes))
	for i, m := range types.AllModes {
		modes[i] = readline.PcItem(string(m))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("status"),
		readline.PcItem("switch", modes...),
		readline.PcItem("route", modes...),
		readline.PcItem("detect"),
		readline.PcItem("recommend"),
		readline.PcItem("plan"),
		readline.PcItem("hybrid",
			readline.PcItem("--strategy=adaptive"),
			readline.PcItem("--strategy=balanced"),
			readline.PcItem("--strategy=performance"),
			readline.PcItem("--strategy=quality"),
		),
		readline.PcItem("task"),
		readline.PcItem("open"),
		readline.PcItem("context"),
		readline.PcItem("prefs",
			readline.PcItem("learning", readline.PcItem("on"), readline.PcItem("off")),
			readline.PcItem("prefer", modes...),
		),
		readline.PcItem("stats"),
		readline.PcItem("auto", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem("events"),
		readline.PcItem("cleanup"),
		readline.PcItem("reset"),
		readline.PcItem("exit"),
	)
}

// printWelcome prints the welcome message
func (r *REPL) printWelcome() {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n", cyan("Welcome to hive"))
	fmt.Fprintf(r.out, "Currently in %s %s mode\n", r.mgr.CurrentMode().Icon(), r.mgr.CurrentMode())
	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Type 'help' for available commands, 'exit' to quit")
	fmt.Fprintln(r.out, "Anything else is analyzed as a query")
	fmt.Fprintln(r.out)
}
