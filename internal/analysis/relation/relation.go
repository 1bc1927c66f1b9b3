// Package relation enumerates first, second and third order co-occurrence
// relations from a finished graph.
//
// Every pass walks the dictionary in order and keeps a closed set of source
// terms that have been fully reported. A source joins the closed set only
// after all of its relations are emitted, so a pair found from one side is
// not reported again from the other side later in the same pass.
package relation

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

// MaxOrder is the longest path length enumerated.
const MaxOrder = 3

// Relation is one reported pair. Source is the term whose pass emitted it.
type Relation struct {
	Order  int
	Source dictionary.TermID
	Target dictionary.TermID
}

// Graph is the read-only view of the co-occurrence graph enumeration needs.
type Graph interface {
	Neighbors(id dictionary.TermID) []dictionary.TermID
	AreLinked(a, b dictionary.TermID) bool
}

// Terms yields source terms in dictionary order.
type Terms interface {
	Ordered() []dictionary.TermID
}

type Options struct {
	// DistinctTargets reports a (source, target) pair at most once per
	// source even when several paths reach the target. Off by default: each
	// qualifying path is reported.
	DistinctTargets bool
}

// Enumerate runs one pass of the given order.
func Enumerate(terms Terms, g Graph, order int, opts Options) ([]Relation, error) {
	var visit func(src dictionary.TermID, closed *roaring.Bitmap, emit func(dictionary.TermID))
	switch order {
	case 1:
		visit = func(src dictionary.TermID, closed *roaring.Bitmap, emit func(dictionary.TermID)) {
			firstOrder(g, src, closed, emit)
		}
	case 2:
		visit = func(src dictionary.TermID, closed *roaring.Bitmap, emit func(dictionary.TermID)) {
			secondOrder(g, src, closed, emit)
		}
	case 3:
		visit = func(src dictionary.TermID, closed *roaring.Bitmap, emit func(dictionary.TermID)) {
			thirdOrder(g, src, closed, emit)
		}
	default:
		return nil, apperrors.Precondition("relation order %d out of range 1..%d", order, MaxOrder)
	}

	var out []Relation
	closed := roaring.New()
	seen := roaring.New()
	for _, src := range terms.Ordered() {
		seen.Clear()
		visit(src, closed, func(target dictionary.TermID) {
			if opts.DistinctTargets && !seen.CheckedAdd(uint32(target)) {
				return
			}
			out = append(out, Relation{Order: order, Source: src, Target: target})
		})
		closed.Add(uint32(src))
	}
	return out, nil
}

// firstOrder reports every neighbour of src that is not closed.
func firstOrder(g Graph, src dictionary.TermID, closed *roaring.Bitmap, emit func(dictionary.TermID)) {
	for _, n := range g.Neighbors(src) {
		if !closed.Contains(uint32(n)) {
			emit(n)
		}
	}
}

// secondOrder reports terms two hops away that are neither src nor a direct
// neighbour of src.
func secondOrder(g Graph, src dictionary.TermID, closed *roaring.Bitmap, emit func(dictionary.TermID)) {
	for _, n := range g.Neighbors(src) {
		for _, m := range g.Neighbors(n) {
			if m == src || g.AreLinked(src, m) || closed.Contains(uint32(m)) {
				continue
			}
			emit(m)
		}
	}
}

// thirdOrder extends the second-order walk by one hop. The third hop k must
// not fold back onto the first hop n nor be adjacent to it. k is not checked
// against src's neighbours, so a direct neighbour of src can be reported.
func thirdOrder(g Graph, src dictionary.TermID, closed *roaring.Bitmap, emit func(dictionary.TermID)) {
	for _, n := range g.Neighbors(src) {
		for _, m := range g.Neighbors(n) {
			if m == src || g.AreLinked(src, m) {
				continue
			}
			for _, k := range g.Neighbors(m) {
				if k == n || g.AreLinked(n, k) || closed.Contains(uint32(k)) {
					continue
				}
				emit(k)
			}
		}
	}
}

// Passes holds the output of EnumerateAll keyed by order.
type Passes map[int][]Relation

// EnumerateAll runs one independent pass per requested order. With parallel
// set the passes run concurrently; they share only read-only inputs so the
// result is identical either way.
func EnumerateAll(ctx context.Context, terms Terms, g Graph, orders []int, opts Options, parallel bool) (Passes, error) {
	results := make([][]Relation, len(orders))
	run := func(i int) error {
		rels, err := Enumerate(terms, g, orders[i], opts)
		if err != nil {
			return fmt.Errorf("enumerating order %d: %w", orders[i], err)
		}
		results[i] = rels
		return nil
	}

	if parallel {
		eg, ctx := errgroup.WithContext(ctx)
		for i := range orders {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				return run(i)
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range orders {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := run(i); err != nil {
				return nil, err
			}
		}
	}

	passes := make(Passes, len(orders))
	for i, order := range orders {
		passes[order] = results[i]
	}
	return passes, nil
}
