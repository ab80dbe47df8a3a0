package condense

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/document"
	"github.com/kcaldas/synopsis/pkg/events"
	"github.com/kcaldas/synopsis/pkg/logging"
	"github.com/kcaldas/synopsis/pkg/prompt"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

// Config holds the run parameters of a Summarizer.
type Config struct {
	ModelTokenLimit      int
	ContextRatio         float64
	ReasonableTextLength int // characters
	Strength             Strength
	Separator            string
	MaxRounds            int // 0 means unbounded
	Options              ai.Options
}

// Validate rejects configurations the round loop cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.ModelTokenLimit <= 0 {
		errs = append(errs, fmt.Errorf("model token limit must be positive, got %d", c.ModelTokenLimit))
	}
	if c.ContextRatio <= 0 || c.ContextRatio > 1 {
		errs = append(errs, fmt.Errorf("context ratio must be in (0, 1], got %g", c.ContextRatio))
	}
	if c.ReasonableTextLength <= 0 {
		errs = append(errs, fmt.Errorf("reasonable text length must be positive, got %d", c.ReasonableTextLength))
	}
	if c.MaxRounds < 0 {
		errs = append(errs, fmt.Errorf("max rounds must not be negative, got %d", c.MaxRounds))
	}
	if _, err := ParseStrength(string(c.Strength)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Result holds both outputs of a summarization.
type Result struct {
	// Detailed is the first round's responses joined with the separator.
	Detailed string
	// Short is the final aggregate, shorter than the reasonable length.
	Short       string
	Rounds      int
	InputTokens int
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithLogger injects a custom logger implementation.
func WithLogger(logger logging.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventBus publishes progress events to bus.
func WithEventBus(bus events.Publisher) Option {
	return func(s *Summarizer) {
		if bus != nil {
			s.bus = bus
		}
	}
}

// WithResponseLog replaces the in-memory response log.
func WithResponseLog(open LogOpener) Option {
	return func(s *Summarizer) {
		if open != nil {
			s.openLog = open
		}
	}
}

// Summarizer drives rounds of section condensation until the aggregate
// output is short enough.
type Summarizer struct {
	config    Config
	tokenizer tokens.Tokenizer
	condenser *Condenser
	context   *ContextManager
	openLog   LogOpener
	bus       events.Publisher
	logger    logging.Logger
}

// NewSummarizer assembles the condensation pipeline around oracle.
func NewSummarizer(config Config, oracle ai.Oracle, builder *prompt.Builder, tokenizer tokens.Tokenizer, opts ...Option) (*Summarizer, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("condense: invalid config: %w", err)
	}

	s := &Summarizer{
		config:    config,
		tokenizer: tokenizer,
		openLog:   OpenMemoryLog,
		bus:       &events.NoOpEventBus{},
		logger:    logging.NewComponentLogger("summarizer"),
	}
	for _, opt := range opts {
		opt(s)
	}

	splitter := document.NewSplitter(tokenizer, document.WithLogger(s.logger.With("stage", "split")))
	s.condenser = NewCondenser(oracle, builder, splitter, tokenizer, config.ModelTokenLimit, config.Options,
		s.logger.With("stage", "condense"))

	manager, err := NewContextManager(config.Strength, float64(config.ModelTokenLimit)*config.ContextRatio,
		config.Separator, tokenizer, splitter, s.condenser, s.bus, s.logger.With("stage", "context"))
	if err != nil {
		return nil, err
	}
	s.context = manager
	return s, nil
}

// Summarize condenses text, identified by source in logs and journals.
func (s *Summarizer) Summarize(ctx context.Context, source, text string) (result *Result, err error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyInput
	}

	log, err := s.openLog(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("opening response log: %w", err)
	}
	if finisher, ok := log.(Finisher); ok {
		defer func() {
			if finishErr := finisher.Finish(ctx, err); finishErr != nil {
				s.logger.Warn("failed to finish response log", "source", source, "error", finishErr)
			}
		}()
	}

	result = &Result{InputTokens: s.tokenizer.Measure(text)}
	s.logger.Info("condensing text", "source", source, "tokens", result.InputTokens)

	input := text
	for round := 0; ; round++ {
		if s.config.MaxRounds > 0 && round >= s.config.MaxRounds {
			return nil, fmt.Errorf("%w: %d rounds left %d characters, want fewer than %d",
				ErrNonConvergence, round, utf8.RuneCountInString(input), s.config.ReasonableTextLength)
		}

		aggregate, responses, err := s.runRound(ctx, log, round, input)
		if err != nil {
			return nil, err
		}
		result.Rounds = round + 1
		if round == 0 {
			result.Detailed = strings.Join(responses, s.config.Separator)
		}

		inputTokens := s.tokenizer.Measure(input)
		outputTokens := s.tokenizer.Measure(aggregate)
		factor := 0.0
		if inputTokens > 0 {
			factor = 1 - float64(outputTokens)/float64(inputTokens)
		}
		chars := utf8.RuneCountInString(aggregate)
		final := chars < s.config.ReasonableTextLength

		s.logger.Info("round finished", "round", round+1, "sections", len(responses),
			"condensation_pct", fmt.Sprintf("%.2f", factor*100), "characters", chars)
		s.bus.Publish(events.TopicRoundCompleted, events.RoundCompletedEvent{
			Round:              round + 1,
			Sections:           len(responses),
			InputTokens:        inputTokens,
			OutputTokens:       outputTokens,
			OutputChars:        chars,
			CondensationFactor: factor,
			Final:              final,
		})

		if final {
			result.Short = aggregate
			s.logger.Info("processing complete", "source", source, "rounds", result.Rounds)
			return result, nil
		}
		if factor <= 0 {
			s.logger.Warn("round did not shrink the text", "round", round+1, "condensation_pct", fmt.Sprintf("%.2f", factor*100))
		}
		input = aggregate
	}
}

// runRound consumes input section by section and returns the round's
// aggregate and its responses.
func (s *Summarizer) runRound(ctx context.Context, log ResponseLog, round int, input string) (string, []string, error) {
	doc := document.New(input, s.tokenizer)
	if doc.IsEmpty() {
		return "", nil, fmt.Errorf("round %d: %w", round+1, ErrEmptyInput)
	}

	var responses []string
	backstory := ""
	for section := 0; ; section++ {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		s.logger.Info("condensing section", "round", round+1, "section", section+1)

		result, err := s.condenser.CondenseSection(ctx, doc, backstory)
		if err != nil {
			return "", nil, fmt.Errorf("round %d section %d: %w", round+1, section+1, err)
		}
		if err := log.Append(ctx, round, section, result.Text); err != nil {
			return "", nil, fmt.Errorf("recording round %d section %d: %w", round+1, section+1, err)
		}
		if responses, err = log.Round(ctx, round); err != nil {
			return "", nil, fmt.Errorf("reading round %d: %w", round+1, err)
		}

		s.bus.Publish(events.TopicSectionCondensed, events.SectionCondensedEvent{
			Round:           round + 1,
			Section:         section + 1,
			ChunkTokens:     result.Chunk.Tokens(),
			PromptTokens:    result.PromptTokens,
			ResponseTokens:  result.ResponseTokens,
			RemainingTokens: result.Rest.Tokens(),
			Duration:        result.Duration,
		})

		if result.Rest.IsEmpty() {
			break
		}
		doc = result.Rest
		if backstory, err = s.context.Backstory(ctx, responses); err != nil {
			return "", nil, fmt.Errorf("round %d backstory: %w", round+1, err)
		}
	}

	aggregate, err := s.context.BuildContext(ctx, responses)
	if err != nil {
		return "", nil, fmt.Errorf("round %d aggregate: %w", round+1, err)
	}
	return aggregate, responses, nil
}
