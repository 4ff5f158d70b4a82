// Package anchor decides how an anchor relates to a word and whether an
// (anchor, words) pair is a playable challenge.
package anchor

import "strings"

const (
	MinWords = 4
	MaxWords = 6
)

// Position is where the anchor sits inside a word.
type Position int

const (
	Prefix Position = iota
	Suffix
)

func (p Position) String() string {
	if p == Suffix {
		return "suffix"
	}
	return "prefix"
}

// Decomposition is a word split into its anchor and the visible remainder.
type Decomposition struct {
	Position  Position
	Remainder string
}

// Oracle answers whether a string is a real word.
type Oracle interface {
	IsWord(s string) bool
}

// Classify strips anchor from whichever end of word it matches. A word that
// matches at both ends is treated as a prefix match. ok is false when the
// anchor is at neither end or nothing would remain.
func Classify(anchor, word string) (d Decomposition, ok bool) {
	if anchor == "" || len(word) <= len(anchor) {
		return Decomposition{}, false
	}
	if strings.HasPrefix(word, anchor) {
		return Decomposition{Position: Prefix, Remainder: word[len(anchor):]}, true
	}
	if strings.HasSuffix(word, anchor) {
		return Decomposition{Position: Suffix, Remainder: word[:len(word)-len(anchor)]}, true
	}
	return Decomposition{}, false
}

// Clues maps every word to its remainder, keeping word order. Words that do
// not classify are dropped so legacy rows never break the init view.
func Clues(anchor string, words []string) []string {
	a := strings.ToLower(anchor)
	clues := make([]string, 0, len(words))
	for _, w := range words {
		if d, ok := Classify(a, strings.ToLower(w)); ok {
			clues = append(clues, d.Remainder)
		}
	}
	return clues
}

// Normalize trims and lowercases the anchor and words and drops blank words.
func Normalize(anchor string, words []string) (string, []string) {
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			out = append(out, w)
		}
	}
	return strings.ToLower(strings.TrimSpace(anchor)), out
}
