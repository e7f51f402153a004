// Package keyword holds the one normalization rule shared by topic keywords and item text.
package keyword

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonTokenChars = regexp.MustCompile(`[^\pL\pN\s]+`)

// Tokenize splits free-form text into lower-case tokens with diacritics folded.
// Punctuation separates tokens.
func Tokenize(text string) []string {
	// transform.Chain is stateful, build it per call
	fold := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	split := strings.ToLower(nonTokenChars.ReplaceAllString(text, " "))
	folded, _, err := transform.String(fold, split)
	if err != nil {
		slog.Warn("Unicode normalization failed", "error", err)
		folded = split
	}
	return strings.Fields(folded)
}

// Normalize tokenizes every input and returns the set of tokens that are not stopwords.
func Normalize(texts ...string) Set {
	set := make(Set)
	for _, text := range texts {
		for _, tok := range Tokenize(text) {
			if IsStopword(tok) {
				continue
			}
			set[tok] = struct{}{}
		}
	}
	return set
}

// Set is a set of normalized tokens.
type Set map[string]struct{}

func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, tok := range tokens {
		s[tok] = struct{}{}
	}
	return s
}

func (s Set) Has(tok string) bool {
	_, ok := s[tok]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Intersect returns the tokens present in both sets.
func (s Set) Intersect(other Set) Set {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(Set)
	for tok := range small {
		if large.Has(tok) {
			out[tok] = struct{}{}
		}
	}
	return out
}

// Sorted returns the tokens in lexical order.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for tok := range s {
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for tok := range s {
		out[tok] = struct{}{}
	}
	return out
}
