package detector

import (
	"regexp"
	"strings"

	"github.com/hivetechs/hive/internal/types"
)

// hitWeight is the score contributed by each matching pattern category.
const hitWeight = 0.25

// PatternMatcher scores a query by counting which regex categories of each
// mode it matches.
type PatternMatcher struct {
	patterns map[types.ModeType][]*regexp.Regexp
}

var defaultPatterns = map[types.ModeType][]string{
	types.ModePlanning: {
		`\b(plan|planning|design|strategy|roadmap)\b`,
		`\b(architect|architecture|blueprint)\b`,
		`\b(how should i|best approach|structure)\b`,
		`\b(break down|decompose|organize|outline)\b`,
		`\b(timeline|milestone|phase|stage)\b`,
		`\bnew (service|system|project|microservice|application|app|feature)\b`,
	},
	types.ModeExecution: {
		`\b(implement|code|build|create|write)\b`,
		`\b(fix|debug|solve|patch|update)\b`,
		`\b(add|remove|modify|change|refactor)\b`,
		`\b(quickly|immediately|now|asap)\b`,
	},
	types.ModeHybrid: {
		`\b(plan and implement|design and build)\b`,
		`\b(comprehensive|complete|full|entire)\b`,
		`\b(step by step|iterative|incremental)\b`,
		`\b(both|and also|as well as)\b`,
	},
	types.ModeAnalysis: {
		`\b(analyze|analyse|examine|investigate|understand)\b`,
		`\b(what|why|how does|explain)\b`,
		`\b(review|audit|assess|evaluate)\b`,
		`\b(performance|bottleneck|issue|problem)\b`,
	},
	types.ModeLearning: {
		`\b(learn|teach|tutorial|explain to me)\b`,
		`\b(example|examples|walkthrough|guide)\b`,
		`\b(best practices?|how do i|what is)\b`,
	},
}

// NewPatternMatcher compiles the built-in pattern table.
func NewPatternMatcher() *PatternMatcher {
	m := &PatternMatcher{patterns: make(map[types.ModeType][]*regexp.Regexp, len(defaultPatterns))}
	for mode, exprs := range defaultPatterns {
		for _, expr := range exprs {
			m.patterns[mode] = append(m.patterns[mode], regexp.MustCompile(expr))
		}
	}
	return m
}

// Hits returns how many pattern categories of each mode match the query.
func (m *PatternMatcher) Hits(query string) map[types.ModeType]int {
	q := strings.ToLower(query)
	hits := make(map[types.ModeType]int, len(types.AllModes))
	for _, mode := range types.AllModes {
		for _, re := range m.patterns[mode] {
			if re.MatchString(q) {
				hits[mode]++
			}
		}
	}
	return hits
}

// Score returns min(hits*0.25, 1) for every mode.
func (m *PatternMatcher) Score(query string) types.ModeScores {
	scores := types.NewModeScores()
	for mode, n := range m.Hits(query) {
		scores[mode] = types.Clamp(float64(n)*hitWeight, 0, 1)
	}
	return scores
}

// Dominant returns the mode with the most pattern hits, or "" when nothing
// matched. Ties resolve in tie-break order.
func (m *PatternMatcher) Dominant(query string) types.ModeType {
	hits := m.Hits(query)
	var best types.ModeType
	bestHits := 0
	for _, mode := range types.AllModes {
		if hits[mode] > bestHits {
			best = mode
			bestHits = hits[mode]
		}
	}
	return best
}
