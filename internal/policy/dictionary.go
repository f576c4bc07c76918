package policy

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Words shorter than this are never treated as dictionary hits in contains
// mode; almost every password contains some three letter word.
const minDictionaryWordLength = 4

// Dictionary is a word list held in a hash set so membership checks stay
// O(1) for large lists.
type Dictionary struct {
	words map[string]struct{}
}

// NewDictionary builds a dictionary from the given words.
func NewDictionary(words []string) *Dictionary {
	d := &Dictionary{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			d.words[w] = struct{}{}
		}
	}
	return d
}

// LoadDictionary reads a word list file with one word per line. Blank lines
// and lines starting with '#' are skipped.
func LoadDictionary(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer f.Close()

	d := &Dictionary{words: make(map[string]struct{})}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		w := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if w == "" || strings.HasPrefix(w, "#") {
			continue
		}
		d.words[w] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dictionary: %w", err)
	}
	return d, nil
}

// Contains reports whether word is in the dictionary. Lookup is
// case-insensitive.
func (d *Dictionary) Contains(word string) bool {
	_, ok := d.words[strings.ToLower(word)]
	return ok
}

// Len returns the number of words loaded.
func (d *Dictionary) Len() int {
	return len(d.words)
}

// DictionaryWords rejects passwords matching a dictionary entry. With
// contains enabled it also rejects passwords embedding a dictionary word of
// at least four characters.
func DictionaryWords(d *Dictionary, contains bool) Check {
	return CheckFunc(func(ctx Context) []Violation {
		if d == nil || d.Len() == 0 {
			return nil
		}
		password := strings.ToLower(ctx.Password)
		if d.Contains(password) {
			return violationf(CheckDictionaryWord, "password is a dictionary word")
		}
		if !contains {
			return nil
		}
		runes := []rune(password)
		for i := 0; i <= len(runes)-minDictionaryWordLength; i++ {
			for j := i + minDictionaryWordLength; j <= len(runes); j++ {
				if d.Contains(string(runes[i:j])) {
					return violationf(CheckDictionaryWord,
						"password contains the dictionary word %q", string(runes[i:j]))
				}
			}
		}
		return nil
	})
}
