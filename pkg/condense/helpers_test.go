package condense

import (
	"strings"
	"testing"

	"github.com/kcaldas/synopsis/pkg/ai"
	"github.com/kcaldas/synopsis/pkg/document"
	"github.com/kcaldas/synopsis/pkg/logging"
	"github.com/kcaldas/synopsis/pkg/prompt"
	"github.com/kcaldas/synopsis/pkg/template"
	"github.com/kcaldas/synopsis/pkg/tokens"
	"github.com/stretchr/testify/require"
)

// Word-count tokenizer and one-word section template keep the arithmetic
// in these tests exact: an empty section prompt costs 1 token and a
// backstory costs its words plus 2.
const (
	testSummaryTemplate = "B: {{.backstory}} | "
	testPromptTemplate  = "T: {{.text}}"
)

var wordTokens = tokens.WordTokenizer{}

func newTestBuilder(t *testing.T) *prompt.Builder {
	t.Helper()
	b, err := prompt.NewBuilder(template.NewEngine(), testSummaryTemplate, testPromptTemplate, wordTokens)
	require.NoError(t, err)
	return b
}

func newTestCondenser(t *testing.T, oracle ai.Oracle, ceiling int) *Condenser {
	t.Helper()
	logger := logging.NewDisabledLogger()
	splitter := document.NewSplitter(wordTokens, document.WithLogger(logger))
	return NewCondenser(oracle, newTestBuilder(t), splitter, wordTokens, ceiling, ai.Options{ModelName: "test"}, logger)
}

// repeatSentence returns n copies of sentence separated by spaces.
func repeatSentence(sentence string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = sentence
	}
	return strings.Join(parts, " ")
}

// recorder collects published events by topic.
type recorder struct {
	events map[string][]interface{}
}

func newRecorder() *recorder {
	return &recorder{events: make(map[string][]interface{})}
}

func (r *recorder) Publish(topic string, event interface{}) {
	r.events[topic] = append(r.events[topic], event)
}
