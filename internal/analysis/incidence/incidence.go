// Package incidence records how often each term occurs in each document.
package incidence

import (
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

// Store holds one count vector per term, indexed by document ordinal.
// Vectors grow on demand and are zero-filled; recorded counts are never
// dropped by growth.
type Store struct {
	counts [][]int
	docs   int
}

func New() *Store {
	return &Store{}
}

// SetDocuments announces that n documents have been discovered. It may only
// grow.
func (s *Store) SetDocuments(n int) error {
	if n < s.docs {
		return apperrors.Precondition("document count cannot shrink from %d to %d", s.docs, n)
	}
	s.docs = n
	return nil
}

func (s *Store) Documents() int {
	return s.docs
}

// Record increments the count of term in doc. The document must already be
// discovered.
func (s *Store) Record(term dictionary.TermID, doc int) error {
	if doc < 0 || doc >= s.docs {
		return apperrors.Precondition("document %d is not discovered (known documents: %d)", doc, s.docs)
	}
	for int(term) >= len(s.counts) {
		s.counts = append(s.counts, nil)
	}
	vec := s.counts[term]
	if vec == nil {
		vec = make([]int, s.docs)
	}
	if doc >= len(vec) {
		vec = grow(vec, doc+1)
	}
	vec[doc]++
	s.counts[term] = vec
	return nil
}

// grow extends vec with zeroes to at least n entries.
func grow(vec []int, n int) []int {
	if n <= len(vec) {
		return vec
	}
	if n <= cap(vec) {
		return vec[:n]
	}
	out := make([]int, n, max(n, 2*cap(vec)))
	copy(out, vec)
	return out
}

// Occurrences returns the count of term in doc, 0 when never recorded.
func (s *Store) Occurrences(term dictionary.TermID, doc int) int {
	if int(term) >= len(s.counts) {
		return 0
	}
	vec := s.counts[term]
	if doc < 0 || doc >= len(vec) {
		return 0
	}
	return vec[doc]
}

// Vector returns a copy of term's counts padded to the known document count.
func (s *Store) Vector(term dictionary.TermID) []int {
	out := make([]int, s.docs)
	if int(term) < len(s.counts) {
		copy(out, s.counts[term])
	}
	return out
}

// DocumentsOf lists, ascending, the ordinals where term occurs at least once.
func (s *Store) DocumentsOf(term dictionary.TermID) []int {
	if int(term) >= len(s.counts) {
		return nil
	}
	var docs []int
	for doc, n := range s.counts[term] {
		if n != 0 {
			docs = append(docs, doc)
		}
	}
	return docs
}

// Sum adds term's counts over the ordinal range [offset, offset+size) and
// reports how many of those documents contain the term.
func (s *Store) Sum(term dictionary.TermID, offset, size int) (total int, containing int) {
	if int(term) >= len(s.counts) {
		return 0, 0
	}
	vec := s.counts[term]
	end := min(offset+size, len(vec))
	for doc := offset; doc < end; doc++ {
		if vec[doc] != 0 {
			total += vec[doc]
			containing++
		}
	}
	return total, containing
}
