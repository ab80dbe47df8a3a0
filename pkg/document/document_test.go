package document

import (
	"strings"
	"testing"

	"github.com/kcaldas/synopsis/pkg/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// words builds a sentence of n single-token words under tokens.WordTokenizer.
func words(n int) string {
	return strings.TrimSpace(strings.Repeat("w ", n)) + "."
}

func docOf(t *testing.T, sizes ...int) Document {
	t.Helper()
	sentences := make([]string, len(sizes))
	for i, n := range sizes {
		sentences[i] = words(n)
	}
	return FromSentences(sentences, tokens.WordTokenizer{})
}

func TestNewTokenizesSentences(t *testing.T) {
	t.Parallel()

	doc := New("The cat sat. The dog ran away quickly.", tokens.WordTokenizer{})

	assert.Equal(t, []string{"The cat sat.", "The dog ran away quickly."}, doc.Sentences())
	assert.Equal(t, []int{3, 5}, doc.Counts())
	assert.Equal(t, 8, doc.Tokens())
	assert.Equal(t, "The cat sat. The dog ran away quickly.", doc.Text())
}

func TestZeroValueIsEmpty(t *testing.T) {
	t.Parallel()

	var doc Document
	assert.True(t, doc.IsEmpty())
	assert.Equal(t, 0, doc.Tokens())
	assert.Equal(t, "", doc.Text())
	assert.Equal(t, 0, doc.Chars())
}

func TestFromCountedRejectsMismatchedLengths(t *testing.T) {
	t.Parallel()

	_, err := FromCounted([]string{"a", "b"}, []int{1})
	require.Error(t, err)

	_, err = FromCounted([]string{"a"}, []int{-1})
	require.Error(t, err)

	doc, err := FromCounted([]string{"a", "b"}, []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 5, doc.Tokens())
}

func TestSplitAt(t *testing.T) {
	t.Parallel()

	doc := docOf(t, 1, 2, 3, 4)

	first, rest := doc.SplitAt(2)
	assert.Equal(t, 2, first.Len())
	assert.Equal(t, 3, first.Tokens())
	assert.Equal(t, 2, rest.Len())
	assert.Equal(t, 7, rest.Tokens())
	assert.Equal(t, doc.Sentences(), first.Concat(rest).Sentences())

	first, rest = doc.SplitAt(-3)
	assert.True(t, first.IsEmpty())
	assert.Equal(t, doc.Tokens(), rest.Tokens())

	first, rest = doc.SplitAt(99)
	assert.Equal(t, doc.Tokens(), first.Tokens())
	assert.True(t, rest.IsEmpty())
}

func TestConcatDoesNotAliasParts(t *testing.T) {
	t.Parallel()

	doc := docOf(t, 1, 2, 3)
	first, rest := doc.SplitAt(1)

	merged := first.Concat(docOf(t, 9))
	assert.Equal(t, []int{1, 9}, merged.Counts())
	assert.Equal(t, []int{2, 3}, rest.Counts())
	assert.Equal(t, []int{1, 2, 3}, doc.Counts())
}

func TestReverse(t *testing.T) {
	t.Parallel()

	doc := docOf(t, 1, 2, 3)
	reversed := doc.Reverse()

	assert.Equal(t, []int{3, 2, 1}, reversed.Counts())
	assert.Equal(t, doc.Tokens(), reversed.Tokens())
	assert.Equal(t, doc.Sentences(), reversed.Reverse().Sentences())
}

func TestAccessorsReturnCopies(t *testing.T) {
	t.Parallel()

	doc := docOf(t, 2, 2)
	sentences := doc.Sentences()
	sentences[0] = "changed"
	counts := doc.Counts()
	counts[0] = 100

	assert.Equal(t, words(2), doc.Sentences()[0])
	assert.Equal(t, 4, doc.Tokens())
	assert.Equal(t, 2, doc.Counts()[0])
}
