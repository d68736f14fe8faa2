package ai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// Pre-compiled patterns for cleaning up model output.
var (
	// Matches ```json\n{...}\n``` with or without the language tag and newlines
	fenceWholeRegex = regexp.MustCompile("(?s)^`{3}(?:json|javascript|js)?\\s*\\n?(.*?)\\n?`{3}\\s*$")
	fenceAnyRegex   = regexp.MustCompile("(?s)`{3}(?:json|javascript|js)?\\s*\\n?(.*?)\\n?`{3}")

	trailingCommaRegex = regexp.MustCompile(`,(\s*[}\]])`)
	bareKeyRegex       = regexp.MustCompile(`([{,]\s*)([a-zA-Z_$][a-zA-Z0-9_$]*)\s*:`)
	lineCommentRegex   = regexp.MustCompile(`(?m)^\s*//.*$`)
	blockCommentRegex  = regexp.MustCompile(`(?s)/\*.*?\*/`)

	// Greedy so nested structures are captured whole
	objectRegex = regexp.MustCompile(`(?s)\{.*\}`)
	arrayRegex  = regexp.MustCompile(`(?s)\[.*\]`)
)

// ParseResult is the outcome of Parse. Failure is an expected outcome for
// model output, so it is reported as data rather than as an error.
type ParseResult[T any] struct {
	Success      bool
	Data         T
	Error        string
	Strategy     string
	OriginalText string
}

// Err converts a failed result into an error, or nil on success.
func (r ParseResult[T]) Err() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("%s", r.Error)
}

// ParseOptions configures Parse.
type ParseOptions struct {
	// Context is prefixed to error messages ("mode detection insight").
	Context string
	// DisableCleanup restricts parsing to a direct json.Unmarshal.
	DisableCleanup bool
	// MaxInputSize rejects larger inputs. Zero means the 1MB default.
	MaxInputSize int
	// Logger receives debug output about failed strategies.
	Logger *zap.Logger
}

const defaultMaxInputSize = 1 << 20

// Parse decodes JSON from model output, trying progressively more lenient
// strategies:
//  1. direct decode
//  2. strip markdown code fences
//  3. remove trailing commas, comments and quote bare keys
//  4. extract the first object or array from surrounding prose
func Parse[T any](text string, opts ...ParseOptions) ParseResult[T] {
	var o ParseOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.MaxInputSize == 0 {
		o.MaxInputSize = defaultMaxInputSize
	}
	log := o.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if len(text) > o.MaxInputSize {
		return parseFailure[T](fmt.Sprintf("input exceeds size limit (%d > %d bytes)", len(text), o.MaxInputSize), truncate(text, 200), o.Context)
	}

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return parseFailure[T]("empty input", text, o.Context)
	}

	data, err := decode[T](trimmed)
	if err == nil {
		return ParseResult[T]{Success: true, Data: data, Strategy: "direct", OriginalText: text}
	}
	if o.DisableCleanup {
		return parseFailure[T](err.Error(), text, o.Context)
	}

	log.Debug("direct JSON parse failed, trying cleanup strategies",
		zap.String("context", o.Context),
		zap.String("preview", truncate(text, 100)),
		zap.Error(err))

	unfenced := stripCodeFences(trimmed)
	if unfenced != trimmed {
		if data, err := decode[T](unfenced); err == nil {
			return ParseResult[T]{Success: true, Data: data, Strategy: "code_fence", OriginalText: text}
		}
	}

	cleaned := repairJSON(unfenced)
	if data, err := decode[T](cleaned); err == nil {
		return ParseResult[T]{Success: true, Data: data, Strategy: "repair", OriginalText: text}
	}

	if extracted := extractJSON(cleaned); extracted != "" {
		if data, err := decode[T](extracted); err == nil {
			return ParseResult[T]{Success: true, Data: data, Strategy: "extract", OriginalText: text}
		}
	}

	return parseFailure[T]("all JSON parsing strategies failed", text, o.Context)
}

// ParseOrDefault returns the parsed value, or fallback when every strategy
// fails.
func ParseOrDefault[T any](text string, fallback T, opts ...ParseOptions) T {
	result := Parse[T](text, opts...)
	if result.Success {
		return result.Data
	}
	if len(opts) > 0 && opts[0].Logger != nil {
		opts[0].Logger.Debug("JSON parse failed, using fallback",
			zap.String("context", opts[0].Context),
			zap.String("error", result.Error))
	}
	return fallback
}

func decode[T any](text string) (T, error) {
	var v T
	err := json.Unmarshal([]byte(text), &v)
	return v, err
}

// stripCodeFences removes markdown fences around or inside text.
func stripCodeFences(text string) string {
	out := fenceWholeRegex.ReplaceAllString(text, "$1")
	if out == text {
		if m := fenceAnyRegex.FindStringSubmatch(text); m != nil {
			out = m[1]
		}
	}
	if len(out) >= 2 && strings.HasPrefix(out, "`") && strings.HasSuffix(out, "`") {
		out = out[1 : len(out)-1]
	}
	return strings.TrimSpace(out)
}

// repairJSON fixes the formatting slips models commonly make. Single quotes
// are left alone because converting them corrupts apostrophes in values.
func repairJSON(text string) string {
	out := strings.TrimSpace(text)
	out = blockCommentRegex.ReplaceAllString(out, "")
	out = lineCommentRegex.ReplaceAllString(out, "")
	out = trailingCommaRegex.ReplaceAllString(out, "$1")
	out = bareKeyRegex.ReplaceAllString(out, `$1"$2":`)
	return strings.TrimSpace(out)
}

// extractJSON pulls a JSON object or array out of mixed content. The first
// structural character decides which kind to look for so that the first
// element of an array is not mistaken for the whole payload.
func extractJSON(text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		switch trimmed[0] {
		case '[':
			if m := arrayRegex.FindString(trimmed); m != "" {
				return m
			}
		case '{':
			if m := objectRegex.FindString(trimmed); m != "" {
				return m
			}
		}
	}

	objIdx := strings.Index(trimmed, "{")
	arrIdx := strings.Index(trimmed, "[")
	if arrIdx >= 0 && (objIdx < 0 || arrIdx < objIdx) {
		if m := arrayRegex.FindString(trimmed); m != "" {
			return m
		}
	}
	if m := objectRegex.FindString(trimmed); m != "" {
		return m
	}
	return arrayRegex.FindString(trimmed)
}

func parseFailure[T any](message, text, context string) ParseResult[T] {
	if context != "" {
		message = context + ": " + message
	}
	return ParseResult[T]{Error: message, OriginalText: text}
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
