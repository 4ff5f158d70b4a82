// Package dictionary is the word validity oracle: a fixed lowercase
// vocabulary loaded once per process.
package dictionary

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

//go:embed words.txt
var embeddedWords string

// Dictionary is an immutable set of lowercase words. Safe for concurrent use.
type Dictionary struct {
	words map[string]struct{}
}

// Load reads one word per line. Blank lines and lines starting with '#'
// are skipped; words are lowercased and trimmed.
func Load(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		d.words[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return d, nil
}

// LoadFile loads a word list from disk.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
)

// Default returns the embedded word list, parsed on first use.
func Default() *Dictionary {
	defaultOnce.Do(func() {
		// the embedded list is part of the binary; a read error here is impossible
		defaultDict, _ = Load(strings.NewReader(embeddedWords))
	})
	return defaultDict
}

// Open loads path when set and falls back to the embedded list otherwise.
func Open(path string) (*Dictionary, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// IsWord reports whether s is in the vocabulary, ignoring case.
func (d *Dictionary) IsWord(s string) bool {
	_, ok := d.words[strings.ToLower(s)]
	return ok
}

// Len is the vocabulary size.
func (d *Dictionary) Len() int {
	return len(d.words)
}
