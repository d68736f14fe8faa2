package ai

import (
	"strings"
	"testing"
)

type insightPayload struct {
	TaskComplexity      string   `json:"task_complexity"`
	RecommendedApproach string   `json:"recommended_approach"`
	Challenges          []string `json:"potential_challenges"`
}

type segmentPayload struct {
	Description string `json:"description"`
	Mode        string `json:"mode"`
}

func TestParse_DirectJSON(t *testing.T) {
	result := Parse[insightPayload](`{"task_complexity": "high", "recommended_approach": "plan first"}`)
	if !result.Success {
		t.Fatalf("Expected successful parse, got error: %s", result.Error)
	}
	if result.Strategy != "direct" {
		t.Errorf("Expected direct strategy, got %q", result.Strategy)
	}
	if result.Data.TaskComplexity != "high" {
		t.Errorf("Expected task_complexity=high, got %q", result.Data.TaskComplexity)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	result := Parse[insightPayload]("   ")
	if result.Success {
		t.Fatal("Expected failure for empty input")
	}
	if !strings.Contains(result.Error, "empty input") {
		t.Errorf("Unexpected error: %s", result.Error)
	}
	if result.Err() == nil {
		t.Error("Expected Err() to be non-nil")
	}
}

func TestParse_CodeFence(t *testing.T) {
	input := "```json\n{\"task_complexity\": \"low\"}\n```"
	result := Parse[insightPayload](input)
	if !result.Success {
		t.Fatalf("Expected success, got: %s", result.Error)
	}
	if result.Strategy != "code_fence" {
		t.Errorf("Expected code_fence strategy, got %q", result.Strategy)
	}
	if result.Data.TaskComplexity != "low" {
		t.Errorf("Expected low, got %q", result.Data.TaskComplexity)
	}
}

func TestParse_TrailingCommaAndBareKeys(t *testing.T) {
	input := `{task_complexity: "medium", "potential_challenges": ["scope", "time",],}`
	result := Parse[insightPayload](input)
	if !result.Success {
		t.Fatalf("Expected success, got: %s", result.Error)
	}
	if result.Strategy != "repair" {
		t.Errorf("Expected repair strategy, got %q", result.Strategy)
	}
	if len(result.Data.Challenges) != 2 {
		t.Errorf("Expected 2 challenges, got %v", result.Data.Challenges)
	}
}

func TestParse_ExtractFromProse(t *testing.T) {
	input := `Here is my analysis: {"task_complexity": "high", "recommended_approach": "design first"} Hope it helps!`
	result := Parse[insightPayload](input)
	if !result.Success {
		t.Fatalf("Expected success, got: %s", result.Error)
	}
	if result.Strategy != "extract" {
		t.Errorf("Expected extract strategy, got %q", result.Strategy)
	}
	if result.Data.RecommendedApproach != "design first" {
		t.Errorf("Unexpected approach %q", result.Data.RecommendedApproach)
	}
}

func TestParse_ExtractArrayFromProse(t *testing.T) {
	input := `Segments:
[{"description": "Analyze", "mode": "analysis"}, {"description": "Build", "mode": "execution"}]
Let me know.`
	result := Parse[[]segmentPayload](input)
	if !result.Success {
		t.Fatalf("Expected success, got: %s", result.Error)
	}
	if len(result.Data) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(result.Data))
	}
	if result.Data[1].Mode != "execution" {
		t.Errorf("Unexpected mode %q", result.Data[1].Mode)
	}
}

func TestParse_ApostropheSurvivesCleanup(t *testing.T) {
	input := "```\n{\"recommended_approach\": \"don't rush\",}\n```"
	result := Parse[insightPayload](input)
	if !result.Success {
		t.Fatalf("Expected success, got: %s", result.Error)
	}
	if result.Data.RecommendedApproach != "don't rush" {
		t.Errorf("Apostrophe was mangled: %q", result.Data.RecommendedApproach)
	}
}

func TestParse_DisableCleanup(t *testing.T) {
	result := Parse[insightPayload]("```json\n{}\n```", ParseOptions{DisableCleanup: true})
	if result.Success {
		t.Fatal("Expected failure with cleanup disabled")
	}
}

func TestParse_SizeLimit(t *testing.T) {
	input := `{"recommended_approach": "` + strings.Repeat("x", 200) + `"}`
	result := Parse[insightPayload](input, ParseOptions{MaxInputSize: 100, Context: "insight"})
	if result.Success {
		t.Fatal("Expected size limit failure")
	}
	if !strings.HasPrefix(result.Error, "insight: input exceeds size limit") {
		t.Errorf("Unexpected error: %s", result.Error)
	}
}

func TestParse_Garbage(t *testing.T) {
	result := Parse[insightPayload]("I cannot answer that.", ParseOptions{Context: "insight"})
	if result.Success {
		t.Fatal("Expected failure for prose without JSON")
	}
	if !strings.Contains(result.Error, "all JSON parsing strategies failed") {
		t.Errorf("Unexpected error: %s", result.Error)
	}
}

func TestParseOrDefault(t *testing.T) {
	fallback := insightPayload{TaskComplexity: "medium"}
	got := ParseOrDefault("not json", fallback)
	if got.TaskComplexity != "medium" {
		t.Errorf("Expected fallback, got %+v", got)
	}

	got = ParseOrDefault(`{"task_complexity": "low"}`, fallback)
	if got.TaskComplexity != "low" {
		t.Errorf("Expected parsed value, got %+v", got)
	}
}
