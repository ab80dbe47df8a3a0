package condense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/document"
	"github.com/kcaldas/synopsis/pkg/logging"
	"github.com/kcaldas/synopsis/pkg/prompt"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

// Condenser performs one oracle call: it fits as much input as the budget
// allows next to the backstory and returns the response plus the unread
// remainder.
type Condenser struct {
	oracle    ai.Oracle
	builder   *prompt.Builder
	splitter  *document.Splitter
	tokenizer tokens.Tokenizer
	ceiling   int
	options   ai.Options
	logger    logging.Logger
}

// SectionResult is the outcome of one condensation call.
type SectionResult struct {
	Text           string
	Chunk          document.Document
	Rest           document.Document
	PromptTokens   int
	ResponseTokens int
	Duration       time.Duration
}

// NewCondenser wires a condenser for a model that accepts ceiling tokens
// per prompt.
func NewCondenser(oracle ai.Oracle, builder *prompt.Builder, splitter *document.Splitter, tokenizer tokens.Tokenizer, ceiling int, options ai.Options, logger logging.Logger) *Condenser {
	if logger == nil {
		logger = logging.NewComponentLogger("condenser")
	}
	return &Condenser{
		oracle:    oracle,
		builder:   builder,
		splitter:  splitter,
		tokenizer: tokenizer,
		ceiling:   ceiling,
		options:   options,
		logger:    logger,
	}
}

// CondenseSection condenses the leading part of input that fits the
// budget left after the prompt overhead for backstory.
func (c *Condenser) CondenseSection(ctx context.Context, input document.Document, backstory string) (*SectionResult, error) {
	overhead, err := c.builder.Overhead(backstory)
	if err != nil {
		return nil, err
	}
	budget := c.ceiling - overhead
	if budget <= 0 {
		return nil, fmt.Errorf("%w: %d tokens of templates and backstory against a limit of %d",
			ErrBudgetExceeded, overhead, c.ceiling)
	}

	chunk, rest := c.splitter.Split(input, budget)
	text, err := c.builder.Build(chunk.Text(), backstory)
	if err != nil {
		return nil, err
	}
	promptTokens := c.tokenizer.Measure(text)
	chunkTokens := chunk.Tokens()
	c.logger.Info("processing section",
		"chunk_tokens", chunkTokens,
		"overhead_pct", percent(float64(promptTokens-chunkTokens)/float64(c.ceiling)))

	resp, err := c.oracle.Generate(ctx, text, c.options)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrOracleFailure, err)
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, fmt.Errorf("%w: %w", ErrOracleFailure, ai.ErrEmptyResponse)
	}

	responseTokens := c.tokenizer.Measure(resp.Text)
	if resp.HasTiming() {
		speed := float64(promptTokens+responseTokens) / resp.Duration.Seconds()
		c.logger.Info("section done", "seconds", int(resp.Duration.Round(time.Second).Seconds()), "tokens_per_second", int(speed))
	} else {
		c.logger.Info("section done")
	}
	if !rest.IsEmpty() {
		c.logger.Info("remaining input", "tokens", rest.Tokens())
	}

	return &SectionResult{
		Text:           resp.Text,
		Chunk:          chunk,
		Rest:           rest,
		PromptTokens:   promptTokens,
		ResponseTokens: responseTokens,
		Duration:       resp.Duration,
	}, nil
}

// Ceiling returns the model token limit the condenser budgets against.
func (c *Condenser) Ceiling() int {
	return c.ceiling
}

func percent(ratio float64) int {
	return int(ratio*100 + 0.5)
}
