// Package render formats mode manager results for the terminal. Every view
// writes to an io.Writer so the CLI and the REPL share one rendering and
// tests can capture it.
package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/hivetechs/hive/internal/manager"
)

const (
	confidenceBarWidth = 20
	miniBarWidth       = 10
	usageBarWidth      = 15
	ruleWidth          = 40
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// filled returns how many of width cells a fraction fills.
func filled(fraction float64, width int) int {
	n := int(math.Round(fraction * float64(width)))
	return min(max(n, 0), width)
}

func bar(fraction float64, width int, full, empty string) string {
	n := filled(fraction, width)
	return strings.Repeat(full, n) + strings.Repeat(empty, width-n)
}

// ConfidenceBar renders confidence as "[█████░░░░░] 50%", green above 0.8,
// yellow above 0.5 and red otherwise.
func ConfidenceBar(confidence float64) string {
	s := fmt.Sprintf("[%s] %.0f%%", bar(confidence, confidenceBarWidth, "█", "░"), confidence*100)
	switch {
	case confidence > 0.8:
		return green(s)
	case confidence > 0.5:
		return yellow(s)
	default:
		return red(s)
	}
}

// MiniBar renders a score as a short bar used in alternative listings.
func MiniBar(score float64) string {
	return bar(score, miniBarWidth, "▪", "▫")
}

// UsageBar renders a share of total usage.
func UsageBar(fraction float64) string {
	return cyan(bar(fraction, usageBarWidth, "█", "░"))
}

// Rule is the horizontal line under a heading.
func Rule() string {
	return strings.Repeat("─", ruleWidth)
}

// FormatDuration renders d as "Xs", "Xm Ys" or "Xh Ym".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	switch {
	case secs < 60:
		return fmt.Sprintf("%ds", secs)
	case secs < 3600:
		return fmt.Sprintf("%dm %ds", secs/60, secs%60)
	default:
		return fmt.Sprintf("%dh %dm", secs/3600, (secs%3600)/60)
	}
}

// Health colors a health grade.
func Health(h manager.Health) string {
	if h == "" {
		return red("Unknown")
	}
	label := strings.ToUpper(string(h[:1])) + string(h[1:])
	switch h {
	case manager.HealthExcellent:
		return green(label)
	case manager.HealthGood:
		return cyan(label)
	case manager.HealthWarning:
		return yellow(label)
	default:
		return red(label)
	}
}
