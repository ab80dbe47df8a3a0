package ai

import (
	"context"
	"fmt"
	"time"
)

// TimeoutConfig configures the timeout middleware
type TimeoutConfig struct {
	Timeout time.Duration
}

// TimeoutMiddleware bounds every call to the underlying Oracle. It never
// retries: a call that runs out of time fails.
type TimeoutMiddleware struct {
	underlying Oracle
	timeout    time.Duration
}

var _ Oracle = (*TimeoutMiddleware)(nil)

// WithTimeout wraps underlying when config carries a positive timeout and
// returns it unchanged otherwise.
func WithTimeout(underlying Oracle, config TimeoutConfig) Oracle {
	if config.Timeout <= 0 {
		return underlying
	}
	return &TimeoutMiddleware{
		underlying: underlying,
		timeout:    config.Timeout,
	}
}

// Generate implements the Oracle interface with a per-call deadline
func (m *TimeoutMiddleware) Generate(ctx context.Context, prompt string, opts Options) (*Response, error) {
	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp, err := m.underlying.Generate(callCtx, prompt, opts)
	if err != nil && callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		return nil, fmt.Errorf("oracle call exceeded %v: %w", m.timeout, err)
	}
	return resp, err
}

// Unwrap returns the wrapped oracle.
func (m *TimeoutMiddleware) Unwrap() Oracle {
	return m.underlying
}

// GetStatus delegates to the underlying oracle
func (m *TimeoutMiddleware) GetStatus() *Status {
	return m.underlying.GetStatus()
}
