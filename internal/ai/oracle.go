// Package ai provides the Oracle collaborator used by mode detection,
// switch recommendations and hybrid task decomposition, along with helpers
// for parsing the loosely formatted JSON that language models return.
package ai

import (
	"context"
	"fmt"

	"github.com/hivetechs/hive/internal/types"
)

// Oracle is the external natural-language collaborator. It may be slow and
// it may fail; every caller in this module recovers from its errors with a
// deterministic fallback.
type Oracle interface {
	// Process sends prompt (plus optional extra context) and returns the
	// model's answer. A nil Result means the oracle had nothing to say.
	Process(ctx context.Context, prompt string, extra *string) (*Response, error)
}

// Response is a single oracle answer.
type Response struct {
	Result *string
}

// Text returns the result text or "" when there is none.
func (r *Response) Text() string {
	if r == nil || r.Result == nil {
		return ""
	}
	return *r.Result
}

// NewResponse wraps s in a Response.
func NewResponse(s string) *Response {
	return &Response{Result: &s}
}

// OracleError wraps a failure talking to the oracle.
type OracleError struct {
	Operation string
	Err       error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle %s failed: %v", e.Operation, e.Err)
}

func (e *OracleError) Unwrap() []error { return []error{types.ErrOracle, e.Err} }

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt string, extra *string) (*Response, error)

// Process calls f.
func (f OracleFunc) Process(ctx context.Context, prompt string, extra *string) (*Response, error) {
	return f(ctx, prompt, extra)
}

// Unavailable is an Oracle that always fails. It is used when no API key
// is configured so that every consumer takes its fallback path.
type Unavailable struct{}

// Process always returns an OracleError.
func (Unavailable) Process(ctx context.Context, prompt string, extra *string) (*Response, error) {
	return nil, &OracleError{Operation: "process", Err: fmt.Errorf("no oracle configured")}
}

// Ask calls the oracle and returns its text. Errors and empty answers are
// both reported as an OracleError so callers have a single failure path.
func Ask(ctx context.Context, o Oracle, operation, prompt string) (string, error) {
	if o == nil {
		return "", &OracleError{Operation: operation, Err: fmt.Errorf("no oracle configured")}
	}
	resp, err := o.Process(ctx, prompt, nil)
	if err != nil {
		return "", &OracleError{Operation: operation, Err: err}
	}
	text := resp.Text()
	if text == "" {
		return "", &OracleError{Operation: operation, Err: fmt.Errorf("empty result")}
	}
	return text, nil
}
