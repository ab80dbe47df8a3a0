// Package sentence splits English prose into sentences without stumbling over
// abbreviations, acronyms, decimal numbers, domain suffixes or ellipses.
//
// Splitting normalizes whitespace: newlines become spaces and every sentence is
// trimmed. Joining the result with single spaces therefore approximates the
// input but does not reproduce it byte for byte.
package sentence

import (
	"regexp"
	"strings"
)

// Private-use runes stand in for protected periods and sentence stops while
// the rules run, so they never collide with ordinary text.
const (
	periodMark = "\uE000"
	stopMark   = "\uE001"
)

const (
	alphabets = `([A-Za-z])`
	prefixes  = `(Mr|St|Mrs|Ms|Dr|Prof|Capt|Cpt|Lt|Mt)[.]`
	suffixes  = `(Inc|Ltd|Jr|Sr|Co)`
	starters  = `(Mr|Mrs|Ms|Dr|Prof|Capt|Cpt|Lt|He\s|She\s|It\s|They\s|Their\s|Our\s|We\s|But\s|However\s|That\s|This\s|Wherever)`
	acronyms  = `([A-Z][.][A-Z][.](?:[A-Z][.])?)`
	websites  = `[.](com|net|org|io|gov|me|edu)`
	digits    = `([0-9])`
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

var (
	prefixRule      = rule{regexp.MustCompile(prefixes), "${1}" + periodMark}
	websiteRule     = rule{regexp.MustCompile(websites), periodMark + "${1}"}
	decimalRule     = rule{regexp.MustCompile(digits + `[.]` + digits), "${1}" + periodMark + "${2}"}
	multipleDots    = regexp.MustCompile(`\.{2,}`)
	initialRule     = rule{regexp.MustCompile(`\s` + alphabets + `[.] `), " ${1}" + periodMark + " "}
	acronymStarter  = rule{regexp.MustCompile(acronyms + " " + starters), "${1}" + stopMark + " ${2}"}
	threeLetterAbbr = rule{regexp.MustCompile(alphabets + `[.]` + alphabets + `[.]` + alphabets + `[.]`), "${1}" + periodMark + "${2}" + periodMark + "${3}" + periodMark}
	twoLetterAbbr   = rule{regexp.MustCompile(alphabets + `[.]` + alphabets + `[.]`), "${1}" + periodMark + "${2}" + periodMark}
	suffixStarter   = rule{regexp.MustCompile(" " + suffixes + `[.] ` + starters), " ${1}" + stopMark + " ${2}"}
	suffixRule      = rule{regexp.MustCompile(" " + suffixes + `[.]`), " ${1}" + periodMark}
	singleLetter    = rule{regexp.MustCompile(" " + alphabets + `[.]`), " ${1}" + periodMark}
)

// quoteSwaps move terminal punctuation outside closing quotes so the quote
// stays with the sentence it closes.
var quoteSwaps = strings.NewReplacer(
	".”", "”.",
	".\"", "\".",
	"!\"", "\"!",
	"?\"", "\"?",
)

var terminators = strings.NewReplacer(
	".", "."+stopMark,
	"?", "?"+stopMark,
	"!", "!"+stopMark,
)

// Split returns the sentences of text in order. It is deterministic and keeps
// no state between calls. Empty sentences are never returned.
func Split(text string) []string {
	text = " " + text + "  "
	text = strings.ReplaceAll(text, "\n", " ")

	text = apply(text, prefixRule, websiteRule, decimalRule)
	text = multipleDots.ReplaceAllStringFunc(text, func(dots string) string {
		return strings.Repeat(periodMark, len(dots)) + stopMark
	})
	text = strings.ReplaceAll(text, "Ph.D.", "Ph"+periodMark+"D"+periodMark)
	text = apply(text,
		initialRule,
		acronymStarter,
		threeLetterAbbr,
		twoLetterAbbr,
		suffixStarter,
		suffixRule,
		singleLetter,
	)

	text = quoteSwaps.Replace(text)
	text = terminators.Replace(text)
	text = strings.ReplaceAll(text, periodMark, ".")

	parts := strings.Split(text, stopMark)
	sentences := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := strings.TrimSpace(part); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func apply(text string, rules ...rule) string {
	for _, r := range rules {
		text = r.pattern.ReplaceAllString(text, r.replacement)
	}
	return text
}
