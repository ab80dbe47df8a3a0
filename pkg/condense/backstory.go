package condense

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/kcaldas/synopsis/pkg/document"
	"github.com/kcaldas/synopsis/pkg/events"
	"github.com/kcaldas/synopsis/pkg/logging"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

// Strength selects how accumulated responses are reduced once they exceed
// the backstory budget.
type Strength string

const (
	// StrengthNone never seeds prompts with a backstory.
	StrengthNone Strength = "none"
	// StrengthWeak keeps the most recent responses that fit.
	StrengthWeak Strength = "weak"
	// StrengthStrong re-condenses the responses through the oracle.
	StrengthStrong Strength = "strong"
)

// ParseStrength converts a configuration value into a Strength.
func ParseStrength(value string) (Strength, error) {
	switch s := Strength(strings.ToLower(strings.TrimSpace(value))); s {
	case StrengthNone, StrengthWeak, StrengthStrong:
		return s, nil
	default:
		return "", fmt.Errorf("unknown backstory strength %q (want none, weak or strong)", value)
	}
}

// reducer shrinks an oversized context below the backstory budget.
type reducer interface {
	reduce(ctx context.Context, text string) (string, error)
}

// ContextManager builds the backstory for the next section and the
// aggregate output of a round from the responses produced so far.
type ContextManager struct {
	strength  Strength
	budget    float64
	separator string
	tokenizer tokens.Tokenizer
	reducer   reducer
	bus       events.Publisher
	logger    logging.Logger
}

// NewContextManager selects the reduction strategy for strength once.
// budget is the backstory token allowance (ceiling times context ratio).
// condenser is only used by StrengthStrong.
func NewContextManager(strength Strength, budget float64, separator string, tokenizer tokens.Tokenizer,
	splitter *document.Splitter, condenser *Condenser, bus events.Publisher, logger logging.Logger) (*ContextManager, error) {
	if logger == nil {
		logger = logging.NewComponentLogger("context")
	}
	if bus == nil {
		bus = &events.NoOpEventBus{}
	}
	m := &ContextManager{
		strength:  strength,
		budget:    budget,
		separator: separator,
		tokenizer: tokenizer,
		bus:       bus,
		logger:    logger,
	}

	switch strength {
	case StrengthNone:
		m.reducer = keepAll{}
	case StrengthWeak:
		m.reducer = &truncator{manager: m, splitter: splitter}
	case StrengthStrong:
		if condenser == nil {
			return nil, fmt.Errorf("strong backstory requires a condenser")
		}
		m.reducer = &recondenser{manager: m, condenser: condenser}
	default:
		return nil, fmt.Errorf("unknown backstory strength %q", strength)
	}
	return m, nil
}

// Backstory returns the prompt context for the next section, always empty
// for StrengthNone.
func (m *ContextManager) Backstory(ctx context.Context, responses []string) (string, error) {
	if m.strength == StrengthNone {
		return "", nil
	}
	return m.BuildContext(ctx, responses)
}

// BuildContext joins responses with the separator and reduces the result
// with the configured strategy when it reaches the budget.
func (m *ContextManager) BuildContext(ctx context.Context, responses []string) (string, error) {
	joined := strings.Join(responses, m.separator)
	if float64(m.tokenizer.Measure(joined)) < m.budget {
		return joined, nil
	}
	return m.reducer.reduce(ctx, joined)
}

// limit is the integer token limit equivalent to "fewer than budget".
func (m *ContextManager) limit() int {
	return int(math.Ceil(m.budget))
}

// keepAll leaves oversized context untouched; the next round re-splits it.
type keepAll struct{}

func (keepAll) reduce(_ context.Context, text string) (string, error) {
	return text, nil
}

// truncator drops the oldest sentences until the rest fits.
type truncator struct {
	manager  *ContextManager
	splitter *document.Splitter
}

func (t *truncator) reduce(_ context.Context, text string) (string, error) {
	m := t.manager
	doc := document.New(text, m.tokenizer)
	// Long sentences are cut before reversing so their newest fragments
	// survive instead of their first ones.
	fragments := t.splitter.SubdivideLong(doc, m.limit())
	kept, _ := t.splitter.Split(fragments.Reverse(), m.limit())
	kept = kept.Reverse()

	discarded := 0.0
	if doc.Tokens() > 0 {
		discarded = 1 - float64(kept.Tokens())/float64(doc.Tokens())
	}
	m.logger.Info("context limit exceeded, omitting oldest context", "discarded_pct", percent(discarded))
	m.bus.Publish(events.TopicBackstoryCondensed, events.BackstoryCondensedEvent{
		Strength:          string(StrengthWeak),
		TotalTokens:       doc.Tokens(),
		KeptTokens:        kept.Tokens(),
		DiscardedFraction: discarded,
	})
	return kept.Text(), nil
}

// recondenser runs sub-rounds of single-section condensation over the
// context, each seeded with what it has condensed so far.
type recondenser struct {
	manager   *ContextManager
	condenser *Condenser
}

func (r *recondenser) reduce(ctx context.Context, text string) (string, error) {
	m := r.manager
	input := document.New(text, m.tokenizer)
	total := input.Tokens()

	var parts []string
	condensed := ""
	for sub := 0; !input.IsEmpty(); sub++ {
		m.logger.Info("condensing backstory", "sub_round", SubRoundLabel(sub))
		result, err := r.condenser.CondenseSection(ctx, input, condensed)
		if err != nil {
			return "", fmt.Errorf("backstory sub-round %s: %w", SubRoundLabel(sub), err)
		}
		parts = append(parts, result.Text)
		condensed = strings.Join(parts, m.separator)
		input = result.Rest
	}

	m.logger.Info("backstory condensed", "sub_rounds", len(parts))
	kept := m.tokenizer.Measure(condensed)
	discarded := 0.0
	if total > 0 {
		discarded = 1 - float64(kept)/float64(total)
	}
	m.bus.Publish(events.TopicBackstoryCondensed, events.BackstoryCondensedEvent{
		Strength:          string(StrengthStrong),
		TotalTokens:       total,
		KeptTokens:        kept,
		DiscardedFraction: discarded,
		SubRounds:         len(parts),
	})
	return condensed, nil
}

// SubRoundLabel names sub-rounds a, b, ..., z, aa, ab, ...
func SubRoundLabel(index int) string {
	label := ""
	for index >= 0 {
		label = string(rune('a'+index%26)) + label
		index = index/26 - 1
	}
	return label
}
