// Package tokens measures text in model tokens. Chunking relies on repeatable
// counts, so every Tokenizer must return the same value for the same input
// within one run.
package tokens

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultEncoding is used when a tokenizer name is empty or unknown.
	DefaultEncoding = "cl100k_base"

	// NameEstimate selects the chars/4 estimator.
	NameEstimate = "estimate"
	// NameWords selects the whitespace word counter.
	NameWords = "words"
)

// Tokenizer measures the token length of a text.
type Tokenizer interface {
	Measure(text string) int
}

// New returns the tokenizer registered under name. Any name other than the
// built-in estimators is resolved as a tiktoken encoding or model name.
func New(name string) (Tokenizer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameEstimate:
		return Estimator{}, nil
	case NameWords:
		return WordTokenizer{}, nil
	default:
		return NewTiktoken(name)
	}
}

// Tiktoken counts BPE tokens using an OpenAI encoding. For local models it is
// an approximation, but a stable one.
type Tiktoken struct {
	name string
	enc  *tiktoken.Tiktoken
}

// NewTiktoken resolves name first as a model, then as an encoding, and falls
// back to cl100k_base when neither is known.
func NewTiktoken(name string) (*Tiktoken, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultEncoding
	}

	if enc, err := tiktoken.EncodingForModel(name); err == nil {
		return &Tiktoken{name: name, enc: enc}, nil
	}
	if enc, err := tiktoken.GetEncoding(name); err == nil {
		return &Tiktoken{name: name, enc: enc}, nil
	}

	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding: %w", err)
	}
	return &Tiktoken{name: DefaultEncoding, enc: enc}, nil
}

// Name reports the encoding or model the tokenizer resolved to.
func (t *Tiktoken) Name() string {
	return t.name
}

func (t *Tiktoken) Measure(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Estimator is a conservative chars/4 heuristic that slightly overestimates
// English text. It needs no vocabulary download.
type Estimator struct{}

func (Estimator) Measure(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// WordTokenizer counts whitespace separated words. It is exact and cheap,
// which makes token arithmetic in tests easy to reason about.
type WordTokenizer struct{}

func (WordTokenizer) Measure(text string) int {
	return len(strings.Fields(text))
}
