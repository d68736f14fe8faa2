package ai

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hivetechs/hive/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAsk(t *testing.T) {
	ctx := context.Background()

	text, err := Ask(ctx, OracleFunc(func(ctx context.Context, prompt string, extra *string) (*Response, error) {
		return NewResponse("ok: " + prompt), nil
	}), "test", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok: hello", text)

	_, err = Ask(ctx, Unavailable{}, "test", "hello")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrOracle))

	_, err = Ask(ctx, OracleFunc(func(ctx context.Context, prompt string, extra *string) (*Response, error) {
		return &Response{}, nil
	}), "test", "hello")
	require.Error(t, err)
	var oerr *OracleError
	require.True(t, errors.As(err, &oerr))
	assert.Equal(t, "test", oerr.Operation)

	_, err = Ask(ctx, nil, "test", "hello")
	assert.ErrorIs(t, err, types.ErrOracle)
}

func TestResponseText(t *testing.T) {
	var r *Response
	assert.Equal(t, "", r.Text())
	assert.Equal(t, "", (&Response{}).Text())
	assert.Equal(t, "x", NewResponse("x").Text())
}

func TestNewAnthropicOracleRequiresKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	_, err := NewAnthropicOracle(Config{})
	require.Error(t, err)

	o, err := NewAnthropicOracle(Config{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, o.model)
	assert.Equal(t, CircuitClosed, o.CircuitState())
}

func TestProcessSharedCallSurvivesCallerCancel(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	sendErrs := make(chan error, 2)
	o := &AnthropicOracle{logger: zap.NewNop()}
	o.send = func(ctx context.Context, prompt string) (string, error) {
		started <- struct{}{}
		select {
		case <-release:
			sendErrs <- nil
			return "answer", nil
		case <-ctx.Done():
			sendErrs <- ctx.Err()
			return "", ctx.Err()
		}
	}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := o.Process(ctxA, "same prompt", nil)
		errA <- err
	}()
	<-started

	type outcome struct {
		resp *Response
		err  error
	}
	outB := make(chan outcome, 1)
	go func() {
		resp, err := o.Process(context.Background(), "same prompt", nil)
		outB <- outcome{resp, err}
	}()
	// give the second caller time to join the in-flight call
	time.Sleep(20 * time.Millisecond)

	cancelA()
	err := <-errA
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, types.ErrOracle)

	close(release)
	b := <-outB
	require.NoError(t, b.err)
	assert.Equal(t, "answer", b.resp.Text())
	assert.NoError(t, <-sendErrs, "the shared call must not inherit the first caller's cancellation")
}
