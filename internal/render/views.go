package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hivetechs/hive/internal/detector"
	"github.com/hivetechs/hive/internal/hybrid"
	"github.com/hivetechs/hive/internal/manager"
	"github.com/hivetechs/hive/internal/preferences"
	"github.com/hivetechs/hive/internal/switcher"
	"github.com/hivetechs/hive/internal/types"
)

const timeLayout = "2006-01-02 15:04:05"

// ModeLabel renders a mode with its icon, e.g. "📋 Planning".
func ModeLabel(m types.ModeType) string {
	return m.Icon() + " " + m.Title()
}

func heading(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", bold(title), gray(Rule()))
}

// Status renders the manager status. Learning statistics are shown once
// at least one detection has been recorded.
func Status(w io.Writer, s manager.Status, learning preferences.LearningStats) {
	heading(w, "Mode Status")
	fmt.Fprintf(w, "Current Mode: %s\n", ModeLabel(s.CurrentMode))
	fmt.Fprintf(w, "Confidence:   %s\n", ConfidenceBar(s.Confidence))
	fmt.Fprintf(w, "Health:       %s (%d/100)\n", Health(s.Health), s.HealthScore)
	fmt.Fprintf(w, "Active:       %s\n", FormatDuration(s.ActiveDuration))
	fmt.Fprintf(w, "Context:      %d items\n", s.ContextItems)
	if !s.LastSwitch.IsZero() {
		fmt.Fprintf(w, "Last Switch:  %s\n", s.LastSwitch.Local().Format(timeLayout))
	}
	auto := gray("off")
	if s.AutoMode {
		auto = green("on")
	}
	fmt.Fprintf(w, "Auto Mode:    %s\n", auto)

	if learning.TotalDetections > 0 {
		heading(w, "Learning")
		fmt.Fprintf(w, "Detections:   %d\n", learning.TotalDetections)
		fmt.Fprintf(w, "Switches:     %d\n", learning.TotalSwitches)
		fmt.Fprintf(w, "Accuracy:     %.0f%%\n", learning.ModeAccuracy*100)
	}
	fmt.Fprintln(w)
}

func alternatives(w io.Writer, alts []detector.Alternative) {
	if len(alts) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", bold("Alternatives:"))
	for _, a := range alts {
		fmt.Fprintf(w, "  %-14s %s %.0f%%\n", ModeLabel(a.Mode), MiniBar(a.Score), a.Score*100)
	}
}

// Detection renders a detection. Alternatives are listed when
// showConfidence is set.
func Detection(w io.Writer, query string, d *manager.Detection, influence float64, showConfidence bool) {
	fmt.Fprintf(w, "%s %q\n", gray("Analyzing query:"), query)
	heading(w, "Detection Result")
	fmt.Fprintf(w, "Recommended Mode: %s\n", ModeLabel(d.PrimaryMode))
	fmt.Fprintf(w, "Confidence:       %s\n", ConfidenceBar(d.Confidence))
	fmt.Fprintf(w, "Reasoning:        %s\n", d.Reasoning)
	if d.Insight.Fallback {
		fmt.Fprintf(w, "%s\n", gray("(AI insight unavailable, heuristics only)"))
	}
	if showConfidence {
		fmt.Fprintf(w, "Complexity:       %s (%.2f)\n", d.Complexity.Level, d.Complexity.Score)
		alternatives(w, d.Alternatives)
	}
	if influence > 0 {
		fmt.Fprintf(w, "\n%s\n", gray(fmt.Sprintf("User preference influence: %.0f%%", influence*100)))
	}
	if d.Switch != nil {
		fmt.Fprintln(w)
		if d.AutoSwitched() {
			fmt.Fprintf(w, "%s Switched to %s mode automatically\n", green("✓"), d.Switch.To)
		} else {
			fmt.Fprintf(w, "%s Automatic switch to %s mode failed\n", yellow("⚠"), d.Switch.To)
			for _, warn := range d.Switch.Warnings {
				fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), warn)
			}
		}
	}
	fmt.Fprintln(w)
}

// Recommendation renders a recommendation.
func Recommendation(w io.Writer, query string, r *manager.Recommendation) {
	fmt.Fprintf(w, "%s %q\n", gray("Analyzing query:"), query)
	heading(w, "Recommendation")
	fmt.Fprintf(w, "Recommended Mode: %s\n", ModeLabel(r.Mode))
	fmt.Fprintf(w, "Confidence:       %s\n", ConfidenceBar(r.Confidence))
	fmt.Fprintf(w, "Complexity:       %s\n", r.Complexity)
	fmt.Fprintf(w, "Reasoning:        %s\n", r.Reasoning)
	if r.Insight.RecommendedApproach != "" {
		fmt.Fprintf(w, "Approach:         %s\n", r.Insight.RecommendedApproach)
	}
	for _, c := range r.Insight.PotentialChallenges {
		fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), c)
	}
	alternatives(w, r.Alternatives)

	fmt.Fprintln(w)
	if r.Prediction.Mode != "" {
		fmt.Fprintf(w, "Learned prediction: %s (%.0f%%)\n", ModeLabel(r.Prediction.Mode), r.Prediction.Confidence*100)
	}
	switch {
	case r.Mode == r.CurrentMode:
		fmt.Fprintf(w, "%s Already in %s mode\n", green("✓"), r.Mode)
	case len(r.Path) > 0:
		fmt.Fprintf(w, "Route from %s: %s\n", r.CurrentMode, Path(r.Path))
	default:
		fmt.Fprintf(w, "%s No route from %s to %s\n", yellow("⚠"), r.CurrentMode, r.Mode)
	}
	if r.PreferenceInfluence > 0 {
		fmt.Fprintf(w, "%s\n", gray(fmt.Sprintf("User preference influence: %.0f%%", r.PreferenceInfluence*100)))
	}
	fmt.Fprintln(w)
}

// Path renders a mode path as "planning → execution".
func Path(path []types.ModeType) string {
	parts := make([]string, len(path))
	for i, m := range path {
		parts[i] = string(m)
	}
	return strings.Join(parts, " → ")
}

// Switch renders the outcome of a mode switch. err is the error returned
// with res, if any.
func Switch(w io.Writer, res *switcher.Result, err error) {
	if res == nil {
		fmt.Fprintf(w, "%s Mode switch failed: %v\n", red("✗"), err)
		return
	}
	if err != nil || !res.Success {
		fmt.Fprintf(w, "%s Mode switch failed\n", red("✗"))
		if err != nil {
			fmt.Fprintf(w, "  %v\n", err)
		}
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), warn)
		}
		return
	}
	if res.From == res.To {
		fmt.Fprintf(w, "%s Already in %s mode\n", green("✓"), ModeLabel(res.To))
		return
	}

	fmt.Fprintf(w, "%s Mode switch successful!\n", green("✓"))
	fmt.Fprintf(w, "  %s → %s\n", ModeLabel(res.From), ModeLabel(res.To))
	fmt.Fprintf(w, "  Duration: %dms\n", res.Duration.Milliseconds())

	t := res.Transformation
	if t.Total() > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Context:"))
		fmt.Fprintf(w, "  Preserved:   %d\n", t.Preserved)
		fmt.Fprintf(w, "  Transformed: %d\n", t.Transformed)
		fmt.Fprintf(w, "  Dropped:     %d\n", t.Dropped)
		fmt.Fprintf(w, "  Quality:     %.0f%%\n", t.Quality*100)
	}
	for _, warn := range res.Warnings {
		fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), warn)
	}
	if len(res.Recommendations) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Recommendations:"))
		for _, r := range res.Recommendations {
			fmt.Fprintf(w, "  • %s\n", r)
		}
	}
}

// Route renders every hop of a route.
func Route(w io.Writer, target types.ModeType, hops []*switcher.Result, err error) {
	if len(hops) == 0 && err == nil {
		fmt.Fprintf(w, "%s Already in %s mode\n", green("✓"), ModeLabel(target))
		return
	}
	for i, hop := range hops {
		mark := green("✓")
		if !hop.Success {
			mark = red("✗")
		}
		fmt.Fprintf(w, "%s %d. %s → %s (%dms)\n", mark, i+1, hop.From, hop.To, hop.Duration.Milliseconds())
		for _, warn := range hop.Warnings {
			fmt.Fprintf(w, "     %s %s\n", yellow("⚠"), warn)
		}
	}
	if err != nil {
		fmt.Fprintf(w, "%s Route to %s stopped: %v\n", red("✗"), target, err)
		return
	}
	fmt.Fprintf(w, "%s Reached %s\n", green("✓"), ModeLabel(target))
}

// Plan renders the segments of a hybrid task.
func Plan(w io.Writer, task *hybrid.Task) {
	heading(w, "Hybrid Task")
	fmt.Fprintf(w, "Strategy:   %s\n", task.Strategy)
	fmt.Fprintf(w, "Complexity: %.2f\n", task.Complexity)
	fmt.Fprintf(w, "Estimated:  %s\n", FormatDuration(task.EstimatedDuration))
	if task.Fallback {
		fmt.Fprintf(w, "%s\n", gray("(built-in decomposition, AI unavailable)"))
	}
	fmt.Fprintf(w, "\n%s\n", bold("Segments:"))
	for i, seg := range task.Segments {
		extra := ""
		if seg.Parallelizable {
			extra = gray(" (parallelizable)")
		}
		fmt.Fprintf(w, "  %d. %s %s%s\n", i+1, ModeLabel(seg.Mode), seg.Description, extra)
	}
	fmt.Fprintln(w)
}

// HybridRun renders a hybrid run and its outcome.
func HybridRun(w io.Writer, run *manager.HybridRun) {
	Plan(w, run.Task)
	res := run.Result
	if res == nil {
		return
	}
	if res.Success {
		fmt.Fprintf(w, "%s Hybrid task completed\n", green("✓"))
	} else {
		fmt.Fprintf(w, "%s Hybrid task failed at %s\n", red("✗"), res.FailedSegment)
	}
	fmt.Fprintf(w, "  Segments:  %d/%d\n", res.SegmentsCompleted, len(run.Task.Segments))
	fmt.Fprintf(w, "  Switches:  %d\n", res.ModeSwitches)
	fmt.Fprintf(w, "  Duration:  %s\n", FormatDuration(res.TotalDuration))
	if res.Insights.Efficiency > 0 {
		fmt.Fprintf(w, "  Efficiency: %.0f%%\n", res.Insights.Efficiency*100)
	}
	for _, b := range res.Insights.Bottlenecks {
		fmt.Fprintf(w, "  %s %s\n", yellow("⚠"), b)
	}
	for _, r := range res.Insights.Recommendations {
		fmt.Fprintf(w, "  • %s\n", r)
	}
	fmt.Fprintln(w)
}

// Preferences renders user preferences with the learned mode usage and
// patterns.
func Preferences(w io.Writer, p preferences.UserPreference, stats preferences.LearningStats) {
	heading(w, "Preferences")
	fmt.Fprintf(w, "Preferred Mode:  %s\n", ModeLabel(p.Base.PreferredMode))
	fmt.Fprintf(w, "Strength:        %.0f%%\n", p.Base.PreferenceStrength*100)
	learning := red("disabled")
	if p.LearningEnabled {
		learning = green("enabled")
	}
	fmt.Fprintf(w, "Learning:        %s\n", learning)
	fmt.Fprintf(w, "Adaptation Rate: %.2f\n", p.AdaptationRate)

	total := 0
	for _, n := range stats.ModeDistribution {
		total += n
	}
	if total > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Mode Usage:"))
		for _, m := range types.AllModes {
			n := stats.ModeDistribution[m]
			if n == 0 {
				continue
			}
			share := float64(n) / float64(total)
			fmt.Fprintf(w, "  %-14s %s %3.0f%% (%d)\n", ModeLabel(m), UsageBar(share), share*100, n)
		}
	}
	if len(stats.TopPatterns) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Top Patterns:"))
		for _, pc := range stats.TopPatterns {
			fmt.Fprintf(w, "  • %s (%dx)\n", pc.Type, pc.Occurrences)
		}
	}
	if stats.PreferenceInfluence > 0 {
		fmt.Fprintf(w, "\nPreference influence: %.0f%%\n", stats.PreferenceInfluence*100)
	}
	fmt.Fprintln(w)
}

// Stats renders the statistics of every subsystem.
func Stats(w io.Writer, s manager.Stats) {
	heading(w, "Learning")
	fmt.Fprintf(w, "Detections:     %d\n", s.Learning.TotalDetections)
	fmt.Fprintf(w, "Switches:       %d\n", s.Learning.TotalSwitches)
	fmt.Fprintf(w, "Accuracy:       %.0f%%\n", s.Learning.ModeAccuracy*100)

	heading(w, "Switching")
	fmt.Fprintf(w, "Transitions:    %d\n", s.Switches.TotalTransitions)
	fmt.Fprintf(w, "Success Rate:   %.0f%%\n", s.Switches.SuccessRate*100)
	fmt.Fprintf(w, "Avg Duration:   %dms\n", s.Switches.AverageDuration.Milliseconds())
	modes := make([]types.ModeType, 0, len(s.Switches.ModeTime))
	for m := range s.Switches.ModeTime {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].Rank() < modes[j].Rank() })
	for _, m := range modes {
		fmt.Fprintf(w, "  %-14s %s\n", ModeLabel(m), FormatDuration(s.Switches.ModeTime[m]))
	}
	for _, pc := range s.Switches.CommonPaths {
		fmt.Fprintf(w, "  %s (%dx)\n", Path(pc.Path[:]), pc.Count)
	}

	heading(w, "Hybrid")
	fmt.Fprintf(w, "Tasks:          %d (%d active)\n", s.Hybrid.TotalTasks, s.Hybrid.ActiveTasks)
	fmt.Fprintf(w, "Avg Progress:   %.0f%%\n", s.Hybrid.AverageProgress*100)
	fmt.Fprintf(w, "Avg Switches:   %.1f\n", s.Hybrid.AverageSwitches)

	heading(w, "Context")
	fmt.Fprintf(w, "Active:         %d\n", s.Context.ActiveContexts)
	fmt.Fprintf(w, "Snapshots:      %d\n", s.Context.TotalSnapshots)
	fmt.Fprintf(w, "Size:           %d bytes\n", s.Context.TotalSizeBytes)
	fmt.Fprintf(w, "Operations:     %d\n", s.Context.OperationsCount)
	fmt.Fprintln(w)
}

// Cleanup renders the outcome of an event cleanup cycle.
func Cleanup(w io.Writer, r *manager.CleanupResult) {
	fmt.Fprintf(w, "%s Event cleanup completed in %dms\n", green("✓"), r.Duration.Milliseconds())
	fmt.Fprintf(w, "  Time-based:   %d deleted\n", r.TimeBasedDeleted)
	fmt.Fprintf(w, "  Global limit: %d deleted\n", r.GlobalLimitDeleted)
	fmt.Fprintf(w, "  Remaining:    %d events\n", r.EventsRemaining)
	if r.Vacuumed {
		fmt.Fprintf(w, "  %s\n", gray("database vacuumed"))
	}
}
