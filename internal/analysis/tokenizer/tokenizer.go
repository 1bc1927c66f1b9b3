// Package tokenizer turns document text into the word stream fed to the term
// dictionary. Raw mode splits on ASCII white space only, exactly like
// scanning with "%s" in the C locale. Normalized mode also lower-cases input, splits on non-alphanumeric
// boundaries, removes stop-words, and applies a simple suffix-based stemmer.
package tokenizer

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode"

	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

// Mode selects how words are extracted.
type Mode string

const (
	Raw        Mode = "raw"
	Normalized Mode = "normalized"
)

// ParseMode maps a configuration value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case Raw, "":
		return Raw, nil
	case Normalized:
		return Normalized, nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput, "unknown tokenizer mode %q", s)
	}
}

// maxScanToken bounds a single white-space separated field. Longer fields
// are cut to this size and the rest is skipped.
const maxScanToken = 1 << 20

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
}

// Scan streams the words of r. Read errors are yielded once with an empty
// word and end the sequence.
func Scan(r io.Reader, mode Mode) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxScanToken)
		scanner.Split(new(fieldSplitter).split)
		for scanner.Scan() {
			for _, word := range split(scanner.Text(), mode) {
				if !yield(word, nil) {
					return
				}
			}
		}
		if err := scanner.Err(); err != nil {
			yield("", fmt.Errorf("scanning words: %w", err))
		}
	}
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// fieldSplitter is a bufio.SplitFunc over ASCII white space. A field longer
// than maxScanToken yields its first maxScanToken bytes and the remainder up
// to the next white space is dropped.
type fieldSplitter struct {
	skipping bool
}

func (s *fieldSplitter) split(data []byte, atEOF bool) (int, []byte, error) {
	i := 0
	if s.skipping {
		for i < len(data) && !isSpace(data[i]) {
			i++
		}
		if i == len(data) {
			return i, nil, nil
		}
		s.skipping = false
	}
	for i < len(data) && isSpace(data[i]) {
		i++
	}
	if i > 0 {
		// Drop leading white space so a field always starts the buffer.
		return i, nil, nil
	}
	for j := 0; j < len(data); j++ {
		if isSpace(data[j]) {
			return j + 1, data[:j], nil
		}
		if j+1 == maxScanToken {
			s.skipping = true
			return j + 1, data[:j+1], nil
		}
	}
	if atEOF && len(data) > 0 {
		return len(data), data, nil
	}
	return 0, nil, nil
}

func split(field string, mode Mode) []string {
	if mode != Normalized {
		return []string{field}
	}
	return normalize(field)
}

// normalize lower-cases a white-space field, splits it on non-alphanumeric
// runes, drops short words and stop-words, and stems the rest.
func normalize(field string) []string {
	words := strings.FieldsFunc(strings.ToLower(field), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := words[:0]
	for _, word := range words {
		if len([]rune(word)) < 2 {
			continue
		}
		if _, isStop := stopWords[word]; isStop {
			continue
		}
		stemmed := stem(word)
		if stemmed == "" {
			continue
		}
		out = append(out, stemmed)
	}
	return out
}

var suffixes = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ational", "ate", 2},
	{"tional", "tion", 2},
	{"encies", "ence", 2},
	{"ances", "ance", 2},
	{"ments", "ment", 2},
	{"izing", "ize", 2},
	{"ating", "ate", 2},
	{"iness", "y", 2},
	{"ously", "ous", 2},
	{"ively", "ive", 2},
	{"eness", "ene", 2},
	{"tion", "t", 3},
	{"sion", "s", 3},
	{"ying", "y", 2},
	{"ling", "l", 3},
	{"ies", "y", 2},
	{"ing", "", 3},
	{"ers", "er", 2},
	{"est", "", 3},
	{"ful", "", 3},
	{"ous", "", 3},
	{"ess", "", 3},
	{"ble", "", 3},
	{"ed", "", 3},
	{"er", "", 3},
	{"ly", "", 3},
	{"es", "", 3},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// stem strips the first matching suffix whose remainder is long enough.
func stem(word string) string {
	for _, rule := range suffixes {
		if strings.HasSuffix(word, rule.suffix) {
			newWord := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(newWord) >= rule.minLen {
				return newWord
			}
		}
	}
	return word
}
