package ai

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5-20250929"

// Config holds AnthropicOracle configuration
type Config struct {
	APIKey    string // if empty, reads ANTHROPIC_API_KEY
	Model     string // default: DefaultModel
	MaxTokens int    // default: 2048
	Retry     RetryConfig
	Logger    *zap.Logger
}

// AnthropicOracle answers prompts with the Anthropic Messages API.
// Identical prompts issued concurrently share a single API call.
type AnthropicOracle struct {
	client    anthropic.Client
	model     string
	maxTokens int
	guard     *callGuard
	flight    singleflight.Group
	send      func(ctx context.Context, prompt string) (string, error)
	logger    *zap.Logger
}

var _ Oracle = (*AnthropicOracle)(nil)

// NewAnthropicOracle creates an oracle backed by the Anthropic API.
func NewAnthropicOracle(cfg Config) (*AnthropicOracle, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set")
		}
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}
	retry := cfg.Retry
	if retry.Timeout == 0 {
		retry = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	o := &AnthropicOracle{
		client:    anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		maxTokens: maxTokens,
		guard:     newCallGuard(retry, logger),
		logger:    logger,
	}
	o.send = o.call
	return o, nil
}

// Process sends the prompt to the model. extra, when set, is appended as a
// separate context section.
//
// The shared call outlives any single caller's cancellation; each caller
// stops waiting when its own ctx is done.
func (o *AnthropicOracle) Process(ctx context.Context, prompt string, extra *string) (*Response, error) {
	full := prompt
	if extra != nil && *extra != "" {
		full = prompt + "\n\nAdditional context:\n" + *extra
	}

	shareCtx := context.WithoutCancel(ctx)
	ch := o.flight.DoChan(full, func() (interface{}, error) {
		return o.send(shareCtx, full)
	})
	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return nil, &OracleError{Operation: "process", Err: ctx.Err()}
	}
	if res.Err != nil {
		return nil, &OracleError{Operation: "process", Err: res.Err}
	}
	if res.Shared {
		o.logger.Debug("oracle response shared between concurrent callers")
	}
	text := res.Val.(string)
	if strings.TrimSpace(text) == "" {
		return &Response{}, nil
	}
	return NewResponse(text), nil
}

func (o *AnthropicOracle) call(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	var msg *anthropic.Message
	err := o.guard.do(ctx, "messages.new", func(attemptCtx context.Context) error {
		resp, apiErr := o.client.Messages.New(attemptCtx, anthropic.MessageNewParams{
			Model:     anthropic.Model(o.model),
			MaxTokens: int64(o.maxTokens),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		})
		if apiErr != nil {
			return apiErr
		}
		msg = resp
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("anthropic API call failed: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	o.logger.Debug("oracle call completed",
		zap.String("model", o.model),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
		zap.Duration("duration", time.Since(start)))
	return sb.String(), nil
}

// CircuitState reports the breaker state, CircuitClosed when disabled.
func (o *AnthropicOracle) CircuitState() CircuitState {
	if o.guard.breaker == nil {
		return CircuitClosed
	}
	return o.guard.breaker.State()
}
