package repl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/modectx"
	"github.com/hivetechs/hive/internal/render"
	"github.com/hivetechs/hive/internal/types"
)

const defaultEventLimit = 20

// registerCommands registers all built-in commands
func (r *REPL) registerCommands() {
	r.commands["help"] = r.cmdHelp
	r.commands["?"] = r.cmdHelp
	r.commands["status"] = r.cmdStatus
	r.commands["switch"] = r.cmdSwitch
	r.commands["route"] = r.cmdRoute
	r.commands["detect"] = r.cmdDetect
	r.commands["recommend"] = r.cmdRecommend
	r.commands["plan"] = r.cmdPlan
	r.commands["hybrid"] = r.cmdHybrid
	r.commands["task"] = r.cmdTask
	r.commands["open"] = r.cmdOpen
	r.commands["context"] = r.cmdContext
	r.commands["prefs"] = r.cmdPrefs
	r.commands["stats"] = r.cmdStats
	r.commands["auto"] = r.cmdAuto
	r.commands["events"] = r.cmdEvents
	r.commands["cleanup"] = r.cmdCleanup
	r.commands["reset"] = r.cmdReset
	r.commands["exit"] = r.cmdExit
	r.commands["quit"] = r.cmdExit
}

// cmdHelp shows help information
func (r *REPL) cmdHelp(args []string) error {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	fmt.Fprintf(r.out, "\n%s\n\n", cyan("Available Commands:"))

	commands := []struct {
		name string
		desc string
	}{
		{"status", "Show the current mode and its health"},
		{"switch <mode> [--no-context]", "Switch mode, carrying context unless told not to"},
		{"route <mode>", "Reach a mode along the cheapest path"},
		{"detect <query>", "Detect the best mode for a query"},
		{"recommend <query>", "Recommend a mode without recording anything"},
		{"plan [--strategy=s] <query>", "Decompose a query into hybrid segments"},
		{"hybrid [--strategy=s] <query>", "Decompose and run a hybrid task"},
		{"task <title>", "Add a task to the current mode's context"},
		{"open <file>", "Add an open file to the current mode's context"},
		{"context", "Show the current mode's context"},
		{"prefs [learning on|off] [prefer <mode> [strength]]", "Show or change preferences"},
		{"stats", "Show statistics"},
		{"auto [on|off]", "Show or set automatic switching"},
		{"events [n]", "Show the most recent events"},
		{"cleanup", "Run event cleanup now"},
		{"reset", "Reset to the default mode"},
		{"help, ?", "Show this help message"},
		{"exit, quit", "Exit the REPL"},
	}
	for _, cmd := range commands {
		fmt.Fprintf(r.out, "  %s\n      %s\n", green(cmd.name), cmd.desc)
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, "Modes: "+modeList())
	fmt.Fprintln(r.out)
	return nil
}

func modeList() string {
	names := make([]string, len(types.AllModes))
	for i, m := range types.AllModes {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

func (r *REPL) cmdStatus(args []string) error {
	render.Status(r.out, r.mgr.Status(), r.mgr.LearningStats())
	return nil
}

func parseModeArg(args []string, usage string) (types.ModeType, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: %s (modes: %s)", usage, modeList())
	}
	return types.ParseMode(args[0])
}

func (r *REPL) cmdSwitch(args []string) error {
	preserve := true
	var rest []string
	for _, a := range args {
		if a == "--no-context" {
			preserve = false
			continue
		}
		rest = append(rest, a)
	}
	target, err := parseModeArg(rest, "switch <mode> [--no-context]")
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "Switching to %s mode...\n", target)
	res, err := r.mgr.SwitchMode(r.ctx, target, preserve)
	render.Switch(r.out, res, err)
	return nil
}

func (r *REPL) cmdRoute(args []string) error {
	target, err := parseModeArg(args, "route <mode>")
	if err != nil {
		return err
	}
	hops, err := r.mgr.Route(r.ctx, target)
	render.Route(r.out, target, hops, err)
	return nil
}

func (r *REPL) cmdDetect(args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		return fmt.Errorf("usage: detect <query>")
	}
	d, err := r.mgr.DetectMode(r.ctx, query, r.pctx)
	if err != nil {
		return err
	}
	render.Detection(r.out, query, d, r.mgr.LearningStats().PreferenceInfluence, true)
	return nil
}

func (r *REPL) cmdRecommend(args []string) error {
	query := strings.Join(args, " ")
	if query == "" {
		return fmt.Errorf("usage: recommend <query>")
	}
	rec, err := r.mgr.Recommendation(r.ctx, query, r.pctx)
	if err != nil {
		return err
	}
	render.Recommendation(r.out, query, rec)
	return nil
}

// hybridArgs splits an optional leading --strategy flag from the query.
func hybridArgs(args []string, usage string) (hybrid.Strategy, string, error) {
	var strategy hybrid.Strategy
	if len(args) > 0 && strings.HasPrefix(args[0], "--strategy=") {
		s, err := hybrid.ParseStrategy(strings.TrimPrefix(args[0], "--strategy="))
		if err != nil {
			return "", "", err
		}
		strategy = s
		args = args[1:]
	}
	query := strings.Join(args, " ")
	if query == "" {
		return "", "", fmt.Errorf("usage: %s", usage)
	}
	return strategy, query, nil
}

func (r *REPL) cmdPlan(args []string) error {
	strategy, query, err := hybridArgs(args, "plan [--strategy=s] <query>")
	if err != nil {
		return err
	}
	task, err := r.mgr.PlanHybrid(r.ctx, query, r.pctx, strategy)
	if err != nil {
		return err
	}
	render.Plan(r.out, task)
	return nil
}

func (r *REPL) cmdHybrid(args []string) error {
	strategy, query, err := hybridArgs(args, "hybrid [--strategy=s] <query>")
	if err != nil {
		return err
	}
	run, err := r.mgr.ExecuteHybrid(r.ctx, query, r.pctx, strategy)
	if run != nil {
		render.HybridRun(r.out, run)
	}
	return err
}

func (r *REPL) cmdTask(args []string) error {
	title := strings.Join(args, " ")
	if title == "" {
		return fmt.Errorf("usage: task <title>")
	}
	mode := r.mgr.CurrentMode()
	err := r.mgr.Contexts().UpdateContext(mode, func(c *modectx.ModeContext) error {
		c.Data.ActiveTasks = append(c.Data.ActiveTasks, modectx.NewTask(title, modectx.PriorityMedium))
		c.Data.UserState.CurrentFocus = title
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s Added task to %s context\n", color.GreenString("✓"), mode)
	return nil
}

func (r *REPL) cmdOpen(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: open <file>")
	}
	mode := r.mgr.CurrentMode()
	err := r.mgr.Contexts().UpdateContext(mode, func(c *modectx.ModeContext) error {
		c.Data.Workspace.OpenFiles = append(c.Data.Workspace.OpenFiles, args...)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s Opened %d file(s) in %s context\n", color.GreenString("✓"), len(args), mode)
	return nil
}

func (r *REPL) cmdContext(args []string) error {
	mode := r.mgr.CurrentMode()
	if !r.mgr.Contexts().HasContext(mode) {
		fmt.Fprintf(r.out, "No context in %s mode\n", mode)
		return nil
	}
	c, err := r.mgr.Contexts().GetContext(mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "%s context (%d items)\n", render.ModeLabel(mode), c.Data.TotalItems())
	if c.Data.UserState.CurrentFocus != "" {
		fmt.Fprintf(r.out, "  Focus: %s\n", c.Data.UserState.CurrentFocus)
	}
	for _, t := range c.Data.ActiveTasks {
		fmt.Fprintf(r.out, "  • [%s] %s\n", t.Priority, t.Title)
	}
	for _, f := range c.Data.Workspace.OpenFiles {
		fmt.Fprintf(r.out, "  📄 %s\n", f)
	}
	return nil
}

func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "enable":
		return true, nil
	case "off", "false", "no", "disable":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func (r *REPL) cmdPrefs(args []string) error {
	if len(args) == 0 {
		render.Preferences(r.out, r.mgr.Preferences(), r.mgr.LearningStats())
		return nil
	}

	switch args[0] {
	case "learning":
		if len(args) < 2 {
			return fmt.Errorf("usage: prefs learning on|off")
		}
		enabled, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		if err := r.mgr.SetLearningEnabled(r.ctx, enabled); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "%s Learning %s\n", color.GreenString("✓"), onOff(enabled))
		return nil

	case "prefer":
		mode, err := parseModeArg(args[1:], "prefs prefer <mode> [strength]")
		if err != nil {
			return err
		}
		p := r.mgr.Preferences()
		p.Base.PreferredMode = mode
		if len(args) > 2 {
			strength, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid strength %q: %w", args[2], err)
			}
			p.Base.PreferenceStrength = strength
		}
		if err := r.mgr.UpdatePreferences(r.ctx, p); err != nil {
			return err
		}
		r.pctx.UserPreferences = p.Base
		fmt.Fprintf(r.out, "%s Preferring %s mode (strength %.0f%%)\n", color.GreenString("✓"), mode, p.Base.PreferenceStrength*100)
		return nil
	}
	return fmt.Errorf("unknown prefs subcommand %q", args[0])
}

func onOff(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func (r *REPL) cmdStats(args []string) error {
	render.Stats(r.out, r.mgr.Stats())
	return nil
}

func (r *REPL) cmdAuto(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(r.out, "Automatic mode switching is %s\n", onOff(r.mgr.AutoMode()))
		return nil
	}
	enabled, err := parseOnOff(args[0])
	if err != nil {
		return err
	}
	if err := r.mgr.SetAutoMode(r.ctx, enabled); err != nil {
		return err
	}
	if enabled {
		fmt.Fprintf(r.out, "%s Automatic mode switching enabled (threshold %.0f%%)\n",
			color.GreenString("✓"), r.mgr.Settings().AutoSwitchThreshold*100)
	} else {
		fmt.Fprintf(r.out, "%s Automatic mode switching disabled\n", color.GreenString("✓"))
	}
	return nil
}

func (r *REPL) cmdEvents(args []string) error {
	limit := defaultEventLimit
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid event count %q", args[0])
		}
		limit = n
	}
	evs, err := r.mgr.RecentEvents(r.ctx, limit)
	if err != nil {
		return err
	}
	render.Events(r.out, evs)
	return nil
}

func (r *REPL) cmdCleanup(args []string) error {
	res, err := r.mgr.RunEventCleanup(r.ctx, r.events)
	if err != nil {
		return err
	}
	render.Cleanup(r.out, res)
	return nil
}

func (r *REPL) cmdReset(args []string) error {
	if err := r.mgr.ResetMode(r.ctx); err != nil {
		return err
	}
	r.pctx = types.DefaultPlanningContext()
	fmt.Fprintf(r.out, "%s Reset to %s mode\n", color.GreenString("✓"), render.ModeLabel(r.mgr.CurrentMode()))
	return nil
}

// cmdExit exits the REPL
func (r *REPL) cmdExit(args []string) error {
	fmt.Fprintf(r.out, "\n%s Goodbye!\n", color.GreenString("✓"))
	return io.EOF
}
