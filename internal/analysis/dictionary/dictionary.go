// Package dictionary owns every distinct term of a corpus. Terms live in an
// arena addressed by TermID; a separate index keeps them in the order of an
// injected CompareFunc so enumeration is deterministic for equal inputs.
package dictionary

import (
	"iter"
	"sort"
	"unicode/utf8"
)

// MaxTermLength is the default cap, in bytes, on a stored term.
const MaxTermLength = 25

// TermID is the stable arena index of a term. IDs are dense and assigned in
// insertion order; they never change once handed out.
type TermID uint32

type Dictionary struct {
	compare CompareFunc
	maxLen  int
	terms   []string
	ordered []TermID
}

// New creates an empty dictionary ordered by compare. A nil compare selects
// ByteOrder. maxLen <= 0 selects MaxTermLength; smaller positive limits are
// raised to utf8.UTFMax so every term keeps at least its first rune.
func New(compare CompareFunc, maxLen int) *Dictionary {
	if compare == nil {
		compare = ByteOrder
	}
	switch {
	case maxLen <= 0:
		maxLen = MaxTermLength
	case maxLen < utf8.UTFMax:
		maxLen = utf8.UTFMax
	}
	return &Dictionary{
		compare: compare,
		maxLen:  maxLen,
	}
}

// Truncate caps word at the dictionary's maximum length without splitting a
// UTF-8 sequence. The bool reports whether anything was cut.
func (d *Dictionary) Truncate(word string) (string, bool) {
	return Truncate(word, d.maxLen)
}

// Truncate caps word at maxLen bytes on a rune boundary. When no boundary
// lies inside the limit, as with invalid UTF-8, the cut falls back to maxLen
// bytes so a non-empty word never truncates to nothing.
func Truncate(word string, maxLen int) (string, bool) {
	if len(word) <= maxLen {
		return word, false
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(word[cut]) {
		cut--
	}
	if cut == 0 {
		cut = maxLen
	}
	return word[:cut], true
}

// search returns the position of the first ordered term not sorting before
// word.
func (d *Dictionary) search(word string) int {
	return sort.Search(len(d.ordered), func(i int) bool {
		return d.compare(d.terms[d.ordered[i]], word) >= 0
	})
}

// Find looks word up. Callers are expected to pass already-truncated text.
func (d *Dictionary) Find(word string) (TermID, bool) {
	i := d.search(word)
	if i < len(d.ordered) && d.compare(d.terms[d.ordered[i]], word) == 0 {
		return d.ordered[i], true
	}
	return 0, false
}

// FindOrInsert returns the id of word, inserting it at its sorted position
// first if absent. The bool reports whether a new term was created.
func (d *Dictionary) FindOrInsert(word string) (TermID, bool) {
	i := d.search(word)
	if i < len(d.ordered) && d.compare(d.terms[d.ordered[i]], word) == 0 {
		return d.ordered[i], false
	}
	id := TermID(len(d.terms))
	d.terms = append(d.terms, word)
	d.ordered = append(d.ordered, 0)
	copy(d.ordered[i+1:], d.ordered[i:])
	d.ordered[i] = id
	return id, true
}

func (d *Dictionary) Len() int {
	return len(d.terms)
}

// Text returns the stored text of id.
func (d *Dictionary) Text(id TermID) string {
	return d.terms[id]
}

// Ordered returns a copy of all ids in dictionary order.
func (d *Dictionary) Ordered() []TermID {
	out := make([]TermID, len(d.ordered))
	copy(out, d.ordered)
	return out
}

// All yields ids in dictionary order. The sequence may be ranged over any
// number of times but must not be used while terms are being inserted.
func (d *Dictionary) All() iter.Seq[TermID] {
	return func(yield func(TermID) bool) {
		for _, id := range d.ordered {
			if !yield(id) {
				return
			}
		}
	}
}
