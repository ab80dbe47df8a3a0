package document

import (
	"strings"
	"unicode"

	"github.com/kcaldas/synopsis/pkg/logging"
	"github.com/kcaldas/synopsis/pkg/tokens"
)

const (
	// nearCeilingFactor bounds the range where an even sentence split is
	// tried before searching.
	nearCeilingFactor = 1.9
	// maxFallbackPasses caps how often long sentences are subdivided
	// during a single split.
	maxFallbackPasses = 3
)

// Splitter cuts documents into a head that fits a token limit and a
// remainder.
type Splitter struct {
	tokenizer tokens.Tokenizer
	logger    logging.Logger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithLogger overrides the splitter logger.
func WithLogger(logger logging.Logger) SplitterOption {
	return func(s *Splitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSplitter returns a splitter that measures subdivided sentences with
// tokenizer.
func NewSplitter(tokenizer tokens.Tokenizer, opts ...SplitterOption) *Splitter {
	s := &Splitter{
		tokenizer: tokenizer,
		logger:    logging.NewComponentLogger("splitter"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Split returns (first, rest) where first.Concat(rest) holds the sentences
// of doc in order, with any sentence too long for limit replaced by its
// fragments. first has fewer than limit tokens unless a single sentence
// could not be subdivided below it, in which case that sentence is emitted
// alone so the caller always makes progress.
func (s *Splitter) Split(doc Document, limit int) (Document, Document) {
	if doc.IsEmpty() {
		return Document{}, Document{}
	}
	total := doc.Tokens()
	if total < limit {
		return doc, Document{}
	}

	if total > limit && float64(total) < nearCeilingFactor*float64(limit) {
		if first, rest, ok := s.halve(doc, limit); ok {
			return first, rest
		}
	}

	point := search(doc, limit)
	if point == 0 || point == doc.Len() {
		for pass := 0; pass < maxFallbackPasses; pass++ {
			revised, changed := s.subdivideLong(doc, limit)
			if !changed {
				break
			}
			doc = revised
			point = search(doc, limit)
			if point > 0 {
				break
			}
		}
	}
	if point == 0 {
		s.logger.Warn("sentence exceeds token limit after subdivision, emitting it alone",
			"tokens", doc.counts[0], "limit", limit)
		point = 1
	}
	return doc.SplitAt(point)
}

// halve splits doc at its sentence midpoint. A single sentence is first
// subdivided in two.
func (s *Splitter) halve(doc Document, limit int) (Document, Document, bool) {
	if doc.Len() == 1 {
		parts := Subdivide(doc.sentences[0], 2)
		if len(parts) < 2 {
			return Document{}, Document{}, false
		}
		doc = doc.replace(0, parts, s.measure(parts))
	}
	first, rest := doc.SplitAt(doc.Len() / 2)
	if first.IsEmpty() || first.Tokens() >= limit {
		return Document{}, Document{}, false
	}
	s.logger.Debug("split near ceiling at midpoint", "sentences", doc.Len(), "tokens", doc.Tokens(), "limit", limit)
	return first, rest, true
}

// search returns the largest index i such that the first i sentences hold
// fewer than limit tokens. It never returns Len().
func search(doc Document, limit int) int {
	prefix := make([]int, doc.Len()+1)
	for i, c := range doc.counts {
		prefix[i+1] = prefix[i] + c
	}
	low, high, best := 0, doc.Len(), 0
	for low < high {
		mid := (low + high) / 2
		if prefix[mid] < limit {
			best = mid
			low = mid + 1
		} else {
			high = mid
		}
	}
	return best
}

// SubdivideLong cuts every sentence of at least limit tokens into
// fragments kept in reading order, repeating while fragments still reach
// the limit. Callers that split a reversed document use it first so the
// fragments become separate sentences before the order flips.
func (s *Splitter) SubdivideLong(doc Document, limit int) Document {
	for pass := 0; pass < maxFallbackPasses; pass++ {
		revised, changed := s.subdivideLong(doc, limit)
		if !changed {
			break
		}
		doc = revised
	}
	return doc
}

// subdivideLong replaces every sentence of at least limit tokens with
// fragmentCount fragments.
func (s *Splitter) subdivideLong(doc Document, limit int) (Document, bool) {
	changed := false
	for i := doc.Len() - 1; i >= 0; i-- {
		count := doc.counts[i]
		if count < limit || limit <= 0 {
			continue
		}
		parts := Subdivide(doc.sentences[i], fragmentCount(count, limit))
		if len(parts) < 2 {
			continue
		}
		s.logger.Debug("subdividing long sentence", "tokens", count, "limit", limit, "parts", len(parts))
		doc = doc.replace(i, parts, s.measure(parts))
		changed = true
	}
	return doc, changed
}

// fragmentCount is ceil(count/limit), but never below two: a sentence of
// exactly limit tokens does not fit the strict "fewer than limit" test.
func fragmentCount(count, limit int) int {
	return max((count+limit-1)/limit, 2)
}

func (s *Splitter) measure(parts []string) []int {
	counts := make([]int, len(parts))
	for i, p := range parts {
		counts[i] = s.tokenizer.Measure(p)
	}
	return counts
}

// Subdivide breaks a sentence into at most parts non-empty fragments. It
// cuts on the most frequent non-alphanumeric character and falls back to
// equal character runs when that yields fewer than two fragments.
func Subdivide(sentence string, parts int) []string {
	if parts < 2 {
		return []string{sentence}
	}
	if sep, ok := commonSeparator(sentence); ok {
		atoms := strings.Split(sentence, string(sep))
		if fragments := join(chunk(atoms, parts), string(sep)); len(fragments) >= 2 {
			return fragments
		}
	}
	runes := []rune(sentence)
	cut := make([]string, 0, parts)
	for _, group := range chunk(runes, parts) {
		if frag := strings.TrimSpace(string(group)); frag != "" {
			cut = append(cut, frag)
		}
	}
	if len(cut) == 0 {
		return []string{sentence}
	}
	return cut
}

func commonSeparator(sentence string) (rune, bool) {
	counts := make(map[rune]int)
	var order []rune
	for _, r := range sentence {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
	}
	var best rune
	found := false
	for _, r := range order {
		if !found || counts[r] > counts[best] {
			best, found = r, true
		}
	}
	return best, found
}

// chunk groups items into at most n consecutive runs of ceil(len/n).
func chunk[T any](items []T, n int) [][]T {
	if len(items) == 0 {
		return nil
	}
	size := (len(items) + n - 1) / n
	var out [][]T
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}

func join(groups [][]string, sep string) []string {
	var out []string
	for _, g := range groups {
		if frag := strings.TrimSpace(strings.Join(g, sep)); frag != "" {
			out = append(out, frag)
		}
	}
	return out
}
