package anchor

import (
	"fmt"
	"strings"
)

// Kind identifies which creation rule a challenge broke.
type Kind string

const (
	EmptyAnchor          Kind = "EmptyAnchor"
	WordCountOutOfRange  Kind = "WordCountOutOfRange"
	AnchorNotAWord       Kind = "AnchorNotAWord"
	WordNotAWord         Kind = "WordNotAWord"
	NoAnchorRelationship Kind = "NoAnchorRelationship"
	RemainderNotAWord    Kind = "RemainderNotAWord"
	DuplicateWord        Kind = "DuplicateWord"
)

// ValidationError reports the first rule a challenge breaks, naming the
// offending anchor, word or remainder.
type ValidationError struct {
	Kind      Kind
	Anchor    string
	Word      string
	Remainder string
	Count     int
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case EmptyAnchor:
		return "Enter the shared anchor substring."
	case WordCountOutOfRange:
		return fmt.Sprintf("Provide an anchor and %d–%d words (got %d).", MinWords, MaxWords, e.Count)
	case AnchorNotAWord:
		return fmt.Sprintf("Anchor must be a real word (letters only): %s", e.Anchor)
	case WordNotAWord:
		return fmt.Sprintf("Invalid word: %s. All words must be real.", e.Word)
	case NoAnchorRelationship:
		return fmt.Sprintf("Each word must start or end with the anchor and be longer than it: %s", e.Word)
	case RemainderNotAWord:
		return fmt.Sprintf("Each remainder must be a valid word too: %s → %s", e.Word, e.Remainder)
	case DuplicateWord:
		return fmt.Sprintf("Duplicate word: %s", e.Word)
	default:
		return "invalid challenge"
	}
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Validate checks a normalized challenge and returns nil or a
// *ValidationError for the first failing rule. Rules run in this order:
// anchor present, word count, anchor is a word, every word is a word, every
// word starts or ends with the anchor, every remainder is a word, no
// duplicates.
func Validate(oracle Oracle, anchor string, words []string) error {
	if anchor == "" {
		return &ValidationError{Kind: EmptyAnchor}
	}
	if !isAlpha(anchor) {
		return &ValidationError{Kind: AnchorNotAWord, Anchor: anchor}
	}
	if len(words) < MinWords || len(words) > MaxWords {
		return &ValidationError{Kind: WordCountOutOfRange, Anchor: anchor, Count: len(words)}
	}
	if !oracle.IsWord(anchor) {
		return &ValidationError{Kind: AnchorNotAWord, Anchor: anchor}
	}
	for _, w := range words {
		if !isAlpha(w) || !oracle.IsWord(w) {
			return &ValidationError{Kind: WordNotAWord, Anchor: anchor, Word: w}
		}
	}

	remainders := make([]string, len(words))
	for i, w := range words {
		d, ok := Classify(anchor, w)
		if !ok {
			return &ValidationError{Kind: NoAnchorRelationship, Anchor: anchor, Word: w}
		}
		remainders[i] = d.Remainder
	}
	for i, r := range remainders {
		if !oracle.IsWord(r) {
			return &ValidationError{Kind: RemainderNotAWord, Anchor: anchor, Word: words[i], Remainder: r}
		}
	}

	seen := make(map[string]struct{}, len(words))
	for _, w := range words {
		key := strings.ToLower(w)
		if _, dup := seen[key]; dup {
			return &ValidationError{Kind: DuplicateWord, Anchor: anchor, Word: w}
		}
		seen[key] = struct{}{}
	}
	return nil
}
