package relation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/graph"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/incidence"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

type fixture struct {
	dict *dictionary.Dictionary
	g    *graph.Graph
}

func build(t testing.TB, docs ...string) fixture {
	t.Helper()
	dict := dictionary.New(dictionary.ByteOrder, 0)
	inc := incidence.New()
	require.NoError(t, inc.SetDocuments(len(docs)))
	for ordinal, doc := range docs {
		for _, w := range strings.Fields(doc) {
			id, _ := dict.FindOrInsert(w)
			require.NoError(t, inc.Record(id, ordinal))
		}
	}
	return fixture{dict: dict, g: graph.Build(dict, inc)}
}

func (f fixture) pairs(t *testing.T, order int, opts Options) []string {
	t.Helper()
	rels, err := Enumerate(f.dict, f.g, order, opts)
	require.NoError(t, err)
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		assert.Equal(t, order, r.Order)
		out = append(out, f.dict.Text(r.Source)+"-"+f.dict.Text(r.Target))
	}
	return out
}

func TestTwoDocumentScenario(t *testing.T) {
	f := build(t, "a b", "b c")

	assert.Equal(t, []string{"a-b", "b-c"}, f.pairs(t, 1, Options{}))
	assert.Equal(t, []string{"a-c"}, f.pairs(t, 2, Options{}))
	assert.Empty(t, f.pairs(t, 3, Options{}))
}

// The four-cycle k-m-n-t-k: every order-3 walk ends on a direct neighbour of
// its source, because order 3 does not re-check adjacency to the source.
func TestFourCycle(t *testing.T) {
	f := build(t, "t n", "n m", "m k", "k t")

	assert.Equal(t, []string{"k-m", "k-t", "m-n", "n-t"}, f.pairs(t, 1, Options{}))
	assert.Equal(t, []string{"k-n", "k-n", "m-t", "m-t"}, f.pairs(t, 2, Options{}))
	assert.Equal(t, []string{"k-n", "m-t"}, f.pairs(t, 2, Options{DistinctTargets: true}))
	assert.Equal(t, []string{"k-t", "k-m", "m-n", "n-t"}, f.pairs(t, 3, Options{}))
}

func TestPathOfFive(t *testing.T) {
	f := build(t, "a b", "b c", "c d", "d e")

	assert.Equal(t, []string{"a-b", "b-c", "c-d", "d-e"}, f.pairs(t, 1, Options{}))
	assert.Equal(t, []string{"a-c", "b-d", "c-e"}, f.pairs(t, 2, Options{}))
	assert.Equal(t, []string{"a-d", "b-e"}, f.pairs(t, 3, Options{}))
}

func TestIsolatedTermsProduceNothing(t *testing.T) {
	f := build(t, "alone", "single")
	for order := 1; order <= MaxOrder; order++ {
		assert.Empty(t, f.pairs(t, order, Options{}))
	}
}

func TestInvalidOrder(t *testing.T) {
	f := build(t, "a b")
	for _, order := range []int{0, 4, -1} {
		_, err := Enumerate(f.dict, f.g, order, Options{})
		assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)
	}
}

func randomFixture(t testing.TB, seed int64, docs, vocab, length int) fixture {
	rng := rand.New(rand.NewSource(seed))
	corpus := make([]string, docs)
	for d := range corpus {
		words := make([]string, length)
		for i := range words {
			words[i] = fmt.Sprintf("t%03d", rng.Intn(vocab))
		}
		corpus[d] = strings.Join(words, " ")
	}
	return build(t, corpus...)
}

type pair struct{ a, b dictionary.TermID }

func unordered(a, b dictionary.TermID) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

func TestFirstOrderReportsEachEdgeOnce(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		f := randomFixture(t, seed, 10, 60, 4)
		rels, err := Enumerate(f.dict, f.g, 1, Options{})
		require.NoError(t, err)

		seen := make(map[pair]bool)
		for _, r := range rels {
			p := unordered(r.Source, r.Target)
			assert.False(t, seen[p], "duplicate edge")
			seen[p] = true
			assert.True(t, f.g.AreLinked(r.Source, r.Target))
		}
		assert.Len(t, seen, f.g.EdgeCount())
	}
}

func TestSecondOrderExcludesDirectAndReversePairs(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		f := randomFixture(t, seed, 12, 50, 4)
		rels, err := Enumerate(f.dict, f.g, 2, Options{})
		require.NoError(t, err)

		direction := make(map[pair]dictionary.TermID)
		for _, r := range rels {
			assert.NotEqual(t, r.Source, r.Target)
			assert.False(t, f.g.AreLinked(r.Source, r.Target), "order-2 pair is also order-1")
			p := unordered(r.Source, r.Target)
			if src, ok := direction[p]; ok {
				assert.Equal(t, src, r.Source, "pair reported from both ends")
			}
			direction[p] = r.Source
		}
	}
}

func TestThirdOrderTargetsAvoidFirstHop(t *testing.T) {
	for seed := int64(1); seed <= 10; seed++ {
		f := randomFixture(t, seed, 12, 50, 4)
		rels, err := Enumerate(f.dict, f.g, 3, Options{})
		require.NoError(t, err)

		for _, r := range rels {
			assert.True(t, hasQualifyingPath(f.g, r.Source, r.Target),
				"no walk justifies %s-%s", f.dict.Text(r.Source), f.dict.Text(r.Target))
		}
	}
}

// hasQualifyingPath reports whether src-n-m-k exists with m not src, m not
// adjacent to src, k not n and k not adjacent to n.
func hasQualifyingPath(g *graph.Graph, src, k dictionary.TermID) bool {
	for _, n := range g.Neighbors(src) {
		if n == k || g.AreLinked(n, k) {
			continue
		}
		for _, m := range g.Neighbors(n) {
			if m == src || g.AreLinked(src, m) {
				continue
			}
			if g.AreLinked(m, k) {
				return true
			}
		}
	}
	return false
}

func TestEnumerateAllParallelMatchesSequential(t *testing.T) {
	f := randomFixture(t, 42, 15, 80, 5)
	orders := []int{1, 2, 3}

	seq, err := EnumerateAll(context.Background(), f.dict, f.g, orders, Options{}, false)
	require.NoError(t, err)
	par, err := EnumerateAll(context.Background(), f.dict, f.g, orders, Options{}, true)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
	for _, order := range orders {
		single, err := Enumerate(f.dict, f.g, order, Options{})
		require.NoError(t, err)
		assert.Equal(t, single, seq[order])
	}
}

func TestEnumerateAllRejectsBadOrder(t *testing.T) {
	f := build(t, "a b")
	for _, parallel := range []bool{false, true} {
		_, err := EnumerateAll(context.Background(), f.dict, f.g, []int{1, 5}, Options{}, parallel)
		assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)
	}
}

func TestEnumerateAllHonoursCancellation(t *testing.T) {
	f := build(t, "a b")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := EnumerateAll(ctx, f.dict, f.g, []int{1}, Options{}, false)
	assert.ErrorIs(t, err, context.Canceled)
}

func BenchmarkEnumerateThirdOrder(b *testing.B) {
	f := randomFixture(b, 3, 60, 400, 12)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Enumerate(f.dict, f.g, 3, Options{}); err != nil {
			b.Fatal(err)
		}
	}
}
