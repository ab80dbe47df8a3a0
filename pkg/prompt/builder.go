// Package prompt assembles oracle prompts from a backstory wrapper and a
// section template, and measures their fixed token overhead.
package prompt

import (
	"fmt"

	"github.com/kcaldas/synopsis/pkg/template"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

const (
	backstoryKey = "backstory"
	textKey      = "text"
)

// Builder renders prompts. It is safe for sequential reuse.
type Builder struct {
	backstory *template.Template
	section   *template.Template
	tokenizer tokens.Tokenizer

	sectionOverhead int
}

// NewBuilder parses both templates. summaryTemplate wraps a non-empty
// backstory through {{.backstory}}; promptTemplate wraps the section text
// through {{.text}}.
func NewBuilder(engine template.Engine, summaryTemplate, promptTemplate string, tokenizer tokens.Tokenizer) (*Builder, error) {
	backstory, err := engine.Parse("summary", summaryTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing summary template: %w", err)
	}
	section, err := engine.Parse("prompt", promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing prompt template: %w", err)
	}

	b := &Builder{backstory: backstory, section: section, tokenizer: tokenizer}
	empty, err := b.Section("")
	if err != nil {
		return nil, err
	}
	b.sectionOverhead = tokenizer.Measure(empty)
	return b, nil
}

// Backstory renders the backstory wrapper, or "" for an empty backstory.
func (b *Builder) Backstory(backstory string) (string, error) {
	if backstory == "" {
		return "", nil
	}
	out, err := b.backstory.Render(map[string]string{backstoryKey: backstory})
	if err != nil {
		return "", fmt.Errorf("rendering summary template: %w", err)
	}
	return out, nil
}

// Section renders the section template around text.
func (b *Builder) Section(text string) (string, error) {
	out, err := b.section.Render(map[string]string{textKey: text})
	if err != nil {
		return "", fmt.Errorf("rendering prompt template: %w", err)
	}
	return out, nil
}

// Build returns the full prompt: the rendered backstory followed by the
// rendered section.
func (b *Builder) Build(text, backstory string) (string, error) {
	head, err := b.Backstory(backstory)
	if err != nil {
		return "", err
	}
	body, err := b.Section(text)
	if err != nil {
		return "", err
	}
	return head + body, nil
}

// Overhead returns the tokens a prompt spends before any section text:
// the rendered backstory plus the empty section template.
func (b *Builder) Overhead(backstory string) (int, error) {
	head, err := b.Backstory(backstory)
	if err != nil {
		return 0, err
	}
	return b.tokenizer.Measure(head) + b.sectionOverhead, nil
}
