// Package textmatch folds free text and matches keyword phrases on word boundaries.
package textmatch

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s in NFKC form, case-folded, with whitespace collapsed to single spaces.
func Fold(s string) string {
	folded := cases.Fold().String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// Tokens splits folded text into words made of letters and digits.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// Matcher checks phrases against a tokenized text.
type Matcher struct {
	padded string
}

// NewMatcher tokenizes text once for repeated phrase lookups.
func NewMatcher(text string) Matcher {
	return Matcher{padded: " " + strings.Join(Tokens(text), " ") + " "}
}

// Contains reports whether phrase occurs as a run of whole words.
func (m Matcher) Contains(phrase string) bool {
	words := Tokens(phrase)
	if len(words) == 0 {
		return false
	}
	return strings.Contains(m.padded, " "+strings.Join(words, " ")+" ")
}

// ContainsAny reports whether any phrase matches.
func (m Matcher) ContainsAny(phrases []string) bool {
	for _, p := range phrases {
		if m.Contains(p) {
			return true
		}
	}
	return false
}

// WordCount counts whitespace separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}
