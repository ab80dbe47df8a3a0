// Package document holds text as an immutable sequence of sentences with
// their token counts, so slicing and merging never re-tokenize.
package document

import (
	"fmt"
	"strings"

	"github.com/kcaldas/synopsis/pkg/sentence"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

// Document is an ordered sequence of (sentence, token count) pairs. The zero
// value is a valid empty document. Every operation returns a new Document.
type Document struct {
	sentences []string
	counts    []int
	total     int
}

// New splits text into sentences and measures each one.
func New(text string, tokenizer tokens.Tokenizer) Document {
	return FromSentences(sentence.Split(text), tokenizer)
}

// FromSentences measures each sentence with tokenizer.
func FromSentences(sentences []string, tokenizer tokens.Tokenizer) Document {
	counts := make([]int, len(sentences))
	for i, s := range sentences {
		counts[i] = tokenizer.Measure(s)
	}
	doc, _ := FromCounted(sentences, counts)
	return doc
}

// FromCounted builds a document from sentences whose token counts are
// already known. Both slices must have the same length.
func FromCounted(sentences []string, counts []int) (Document, error) {
	if len(sentences) != len(counts) {
		return Document{}, fmt.Errorf("document: %d sentences but %d token counts", len(sentences), len(counts))
	}
	doc := Document{
		sentences: append([]string(nil), sentences...),
		counts:    append([]int(nil), counts...),
	}
	for i, c := range doc.counts {
		if c < 0 {
			return Document{}, fmt.Errorf("document: negative token count %d for sentence %d", c, i)
		}
		doc.total += c
	}
	return doc, nil
}

// Len returns the number of sentences.
func (d Document) Len() int {
	return len(d.sentences)
}

// IsEmpty reports whether the document has no sentences.
func (d Document) IsEmpty() bool {
	return len(d.sentences) == 0
}

// Tokens returns the sum of the per-sentence token counts.
func (d Document) Tokens() int {
	return d.total
}

// Chars returns the character length of Text.
func (d Document) Chars() int {
	return len([]rune(d.Text()))
}

// Sentences returns a copy of the sentences.
func (d Document) Sentences() []string {
	return append([]string(nil), d.sentences...)
}

// Counts returns a copy of the per-sentence token counts.
func (d Document) Counts() []int {
	return append([]int(nil), d.counts...)
}

// Text joins the sentences with single spaces.
func (d Document) Text() string {
	return strings.Join(d.sentences, " ")
}

// SplitAt returns the first index sentences and the rest. index is clamped
// to [0, Len()].
func (d Document) SplitAt(index int) (Document, Document) {
	index = max(0, min(index, d.Len()))
	first := Document{
		sentences: d.sentences[:index:index],
		counts:    d.counts[:index:index],
		total:     d.prefixTokens(index),
	}
	rest := Document{
		sentences: d.sentences[index:],
		counts:    d.counts[index:],
		total:     d.total - first.total,
	}
	return first, rest
}

// Concat returns d followed by other.
func (d Document) Concat(other Document) Document {
	sentences := make([]string, 0, d.Len()+other.Len())
	sentences = append(append(sentences, d.sentences...), other.sentences...)
	counts := make([]int, 0, d.Len()+other.Len())
	counts = append(append(counts, d.counts...), other.counts...)
	return Document{sentences: sentences, counts: counts, total: d.total + other.total}
}

// Reverse returns the sentences in reverse order.
func (d Document) Reverse() Document {
	n := d.Len()
	sentences := make([]string, n)
	counts := make([]int, n)
	for i := range d.sentences {
		sentences[n-1-i] = d.sentences[i]
		counts[n-1-i] = d.counts[i]
	}
	return Document{sentences: sentences, counts: counts, total: d.total}
}

func (d Document) prefixTokens(index int) int {
	sum := 0
	for _, c := range d.counts[:index] {
		sum += c
	}
	return sum
}

// replace returns a copy of d with sentence i replaced by parts.
func (d Document) replace(i int, parts []string, counts []int) Document {
	sentences := make([]string, 0, d.Len()+len(parts)-1)
	sentences = append(sentences, d.sentences[:i]...)
	sentences = append(sentences, parts...)
	sentences = append(sentences, d.sentences[i+1:]...)

	newCounts := make([]int, 0, len(sentences))
	newCounts = append(newCounts, d.counts[:i]...)
	newCounts = append(newCounts, counts...)
	newCounts = append(newCounts, d.counts[i+1:]...)

	total := d.total - d.counts[i]
	for _, c := range counts {
		total += c
	}
	return Document{sentences: sentences, counts: newCounts, total: total}
}
