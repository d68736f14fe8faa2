package detector

import (
	"regexp"
	"strings"

	"github.com/hivetechs/hive/internal/types"
)

// ComplexityLevel buckets a complexity score.
type ComplexityLevel string

const (
	ComplexityLow    ComplexityLevel = "low"
	ComplexityMedium ComplexityLevel = "medium"
	ComplexityHigh   ComplexityLevel = "high"
)

const (
	lowComplexityThreshold    = 0.3
	mediumComplexityThreshold = 0.6
)

var (
	technicalTerms = map[string]bool{
		"api": true, "database": true, "db": true, "server": true, "microservice": true,
		"microservices": true, "architecture": true, "framework": true, "algorithm": true,
		"deployment": true, "kubernetes": true, "docker": true, "authentication": true,
		"authorization": true, "cache": true, "schema": true, "endpoint": true,
		"frontend": true, "backend": true, "protocol": true, "infrastructure": true,
		"pipeline": true, "concurrency": true, "distributed": true, "migration": true,
	}
	dependencyWords = map[string]bool{
		"depends": true, "requires": true, "after": true, "before": true,
		"then": true, "integrate": true, "dependency": true, "dependencies": true,
	}
	hedgeWords = map[string]bool{"maybe": true, "possibly": true, "perhaps": true}

	wordSplitRegex     = regexp.MustCompile(`[^a-z0-9]+`)
	sentenceSplitRegex = regexp.MustCompile(`[.!?]+`)
)

// ComplexityAnalysis is the breakdown behind a complexity score.
type ComplexityAnalysis struct {
	Words          int
	Sentences      int
	TechnicalTerms int
	Dependencies   int
	Ambiguity      float64
	Score          float64
	Level          ComplexityLevel
}

// ComplexityAnalyzer estimates how involved a query is and maps that to a
// mode distribution: simple work favors Execution, complex work Planning.
type ComplexityAnalyzer struct{}

// Analyze computes the complexity breakdown for query.
func (ComplexityAnalyzer) Analyze(query string) ComplexityAnalysis {
	lower := strings.ToLower(query)
	a := ComplexityAnalysis{
		Words:     len(strings.Fields(query)),
		Sentences: countSentences(query),
	}

	for _, tok := range wordSplitRegex.Split(lower, -1) {
		switch {
		case technicalTerms[tok]:
			a.TechnicalTerms++
		case dependencyWords[tok]:
			a.Dependencies++
		}
		if hedgeWords[tok] {
			a.Ambiguity += 0.3
		}
		if tok == "or" {
			a.Ambiguity += 0.1
		}
	}
	if strings.Contains(query, "?") {
		a.Ambiguity += 0.2
	}
	a.Ambiguity = types.Clamp(a.Ambiguity, 0, 1)

	a.Score = ratio(a.Words, 50)*0.2 +
		ratio(a.Sentences, 5)*0.2 +
		ratio(a.TechnicalTerms, 2)*0.3 +
		ratio(a.Dependencies, 3)*0.2 +
		a.Ambiguity*0.1

	switch {
	case a.Score < lowComplexityThreshold:
		a.Level = ComplexityLow
	case a.Score < mediumComplexityThreshold:
		a.Level = ComplexityMedium
	default:
		a.Level = ComplexityHigh
	}
	return a
}

// Score returns the mode distribution for the query's complexity level.
func (c ComplexityAnalyzer) Score(query string) (types.ModeScores, ComplexityAnalysis) {
	a := c.Analyze(query)
	scores := types.NewModeScores()
	switch a.Level {
	case ComplexityLow:
		scores[types.ModeExecution] = 0.8
		scores[types.ModeHybrid] = 0.3
	case ComplexityMedium:
		scores[types.ModeHybrid] = 0.8
		scores[types.ModeExecution] = 0.4
		scores[types.ModePlanning] = 0.4
	case ComplexityHigh:
		scores[types.ModePlanning] = 0.8
		scores[types.ModeHybrid] = 0.5
	}
	return scores, a
}

func countSentences(s string) int {
	n := 0
	for _, part := range sentenceSplitRegex.Split(s, -1) {
		if strings.TrimSpace(part) != "" {
			n++
		}
	}
	return n
}

// ratio returns min(n/max, 1).
func ratio(n, max int) float64 {
	if max <= 0 {
		return 0
	}
	return types.Clamp(float64(n)/float64(max), 0, 1)
}
