package ai

import (
	"context"
	"errors"
	"time"
)

// ErrEmptyResponse is returned by an Oracle whose backend answered without
// any text payload.
var ErrEmptyResponse = errors.New("oracle returned an empty response")

// Oracle turns a flat prompt string into generated text.
type Oracle interface {
	Generate(ctx context.Context, prompt string, opts Options) (*Response, error)
	GetStatus() *Status
}

// Options are generation parameters passed through to the backend. Zero
// values leave the backend default in place.
type Options struct {
	Provider      string         `yaml:"-"` // routing hint for multiplexed oracles
	ModelName     string         `yaml:"model_name,omitempty"`
	Temperature   *float64       `yaml:"temperature,omitempty"`
	TopP          *float64       `yaml:"top_p,omitempty"`
	TopK          int            `yaml:"top_k,omitempty"`
	MaxTokens     int            `yaml:"num_predict,omitempty"`
	ContextWindow int            `yaml:"num_ctx,omitempty"`
	Extra         map[string]any `yaml:"extra,omitempty"`
}

// Response is the outcome of one oracle call.
type Response struct {
	Text           string
	Model          string
	Duration       time.Duration // zero when the backend did not report timing
	PromptTokens   int
	ResponseTokens int
}

// HasTiming reports whether Duration is usable for throughput accounting.
func (r *Response) HasTiming() bool {
	return r != nil && r.Duration > 0
}

// Throughput returns processed tokens per second, or 0 without timing.
func (r *Response) Throughput() float64 {
	if !r.HasTiming() {
		return 0
	}
	return float64(r.PromptTokens+r.ResponseTokens) / r.Duration.Seconds()
}

// Status describes the backend an Oracle talks to.
type Status struct {
	Connected bool
	Backend   string
	Model     string
	Message   string
}

// Float returns a pointer to v, for optional sampling parameters.
func Float(v float64) *float64 {
	return &v
}
