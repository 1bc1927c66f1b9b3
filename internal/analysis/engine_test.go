package analysis

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/ranking"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/relation"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/metrics"
)

func pairs(e *Engine, rels []relation.Relation) []string {
	out := make([]string, 0, len(rels))
	for _, r := range rels {
		out = append(out, e.Dictionary().Text(r.Source)+"-"+e.Dictionary().Text(r.Target))
	}
	return out
}

func TestTwoDocumentPipeline(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(Options{})
	src := corpus.NewMemory().Add(0, "doc0", "a b").Add(0, "doc1", "b c")

	require.NoError(t, e.Load(ctx, src, tokenizer.Raw))

	var words []string
	for id := range e.Dictionary().All() {
		words = append(words, e.Dictionary().Text(id))
	}
	assert.Equal(t, []string{"a", "b", "c"}, words)

	b, ok := e.Dictionary().Find("b")
	require.True(t, ok)
	assert.Equal(t, []int{1, 1}, e.Incidence().Vector(b))

	g, err := e.Build()
	require.NoError(t, err)
	a, _ := e.Dictionary().Find("a")
	c, _ := e.Dictionary().Find("c")
	assert.True(t, g.AreLinked(a, b))
	assert.True(t, g.AreLinked(b, c))
	assert.False(t, g.AreLinked(a, c))

	passes, err := e.Relations(ctx, []int{1, 2, 3}, relation.Options{}, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a-b", "b-c"}, pairs(e, passes[1]))
	assert.Equal(t, []string{"a-c"}, pairs(e, passes[2]))
	assert.Empty(t, passes[3])

	assert.Equal(t, Stats{Documents: 2, Tokens: 4, Terms: 3, Edges: 2}, e.Stats())
}

func TestRankAcrossCategories(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(Options{})
	src := corpus.NewMemory().
		Add(0, "s1", "gol gol maç").
		Add(0, "s2", "gol hakem").
		Add(1, "e1", "faiz faiz enflasyon").
		Add(2, "m1", "dizi gol")
	require.NoError(t, e.Load(ctx, src, tokenizer.Raw))

	assert.Equal(t, []ranking.Category{
		{ID: 0, Offset: 0, Size: 2},
		{ID: 1, Offset: 2, Size: 1},
		{ID: 2, Offset: 3, Size: 1},
	}, e.Categories())

	_, err := e.Build()
	require.NoError(t, err)
	r, err := e.Rank(ctx, ranking.Options{Parallel: true})
	require.NoError(t, err)

	top, err := r.Top(0, ranking.ByTF, 1)
	require.NoError(t, err)
	assert.Equal(t, "gol", top[0].Text)
	assert.Equal(t, 3, top[0].TF)
	assert.Zero(t, top[0].IDF, "gol appears in every sports document")

	byScore, err := r.Top(0, ranking.ByTFIDF, r.Len(0))
	require.NoError(t, err)
	assert.Equal(t, "gol", byScore[len(byScore)-1].Text)
}

func TestStageOrderIsEnforced(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(Options{})

	_, err := e.Relations(ctx, []int{1}, relation.Options{}, false)
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)
	_, err = e.Rank(ctx, ranking.Options{})
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)

	_, err = e.Ingest(0, "early")
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation, "no document discovered yet")
	assert.Zero(t, e.Dictionary().Len())

	doc, err := e.Discover(0, "d0")
	require.NoError(t, err)
	_, err = e.Ingest(doc.Ordinal, "word")
	require.NoError(t, err)

	_, err = e.Build()
	require.NoError(t, err)
	_, err = e.Build()
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)

	_, err = e.Discover(1, "late")
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)
	_, err = e.Ingest(doc.Ordinal, "late")
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)
}

func TestDiscoverKeepsCategoriesContiguous(t *testing.T) {
	e := NewEngine(Options{})

	_, err := e.Discover(0, "a")
	require.NoError(t, err)
	_, err = e.Discover(1, "b")
	require.NoError(t, err)
	_, err = e.Discover(0, "c")
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)

	_, err = e.Discover(NumCategories, "d")
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)
	_, err = e.Discover(-1, "d")
	assert.ErrorIs(t, err, apperrors.ErrPreconditionViolation)

	assert.Len(t, e.Documents(), 2)
}

func TestIngestTruncatesLongWords(t *testing.T) {
	m := metrics.New(nil)
	e := NewEngine(Options{MaxTermLength: 5, Metrics: m})
	doc, err := e.Discover(0, "d0")
	require.NoError(t, err)

	first, err := e.Ingest(doc.Ordinal, "abcdefgh")
	require.NoError(t, err)
	second, err := e.Ingest(doc.Ordinal, "abcdexyz")
	require.NoError(t, err)

	assert.Equal(t, first, second, "both words truncate to the same term")
	assert.Equal(t, "abcde", e.Dictionary().Text(first))
	assert.Equal(t, 2, e.Incidence().Occurrences(first, doc.Ordinal))
	assert.Equal(t, 2, e.Stats().Truncated)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TermsTruncated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokensIngested))
}

func TestLoadContinuesPastHugeWords(t *testing.T) {
	ctx := context.Background()
	e := NewEngine(Options{})
	src := corpus.NewMemory().
		Add(0, "d0", "alpha "+strings.Repeat("x", 2<<20)+" beta").
		Add(1, "d1", "gamma").
		Add(2, "d2", "delta")

	require.NoError(t, e.Load(ctx, src, tokenizer.Raw))

	_, ok := e.Dictionary().Find("beta")
	assert.True(t, ok)
	_, ok = e.Dictionary().Find(strings.Repeat("x", dictionary.MaxTermLength))
	assert.True(t, ok)
	assert.Equal(t, Stats{Documents: 3, Tokens: 5, Truncated: 1, Terms: 5}, e.Stats())
}

func TestIngestKeepsFirstRuneUnderTinyLimit(t *testing.T) {
	e := NewEngine(Options{MaxTermLength: 1})
	doc, err := e.Discover(0, "d0")
	require.NoError(t, err)

	id, err := e.Ingest(doc.Ordinal, "çaylar")
	require.NoError(t, err)
	assert.Equal(t, "çay", e.Dictionary().Text(id))
	assert.Equal(t, 1, e.Stats().Truncated)

	_, err = e.Ingest(doc.Ordinal, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestEmptyCategoryRanksAsZeros(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	logger.SetupWriter(&logs, "info", "json")
	t.Cleanup(func() { slog.SetDefault(prev) })

	ctx := context.Background()
	e := NewEngine(Options{})
	src := corpus.NewMemory().
		Add(0, "s1", "gol maç").
		Add(2, "m1", "dizi gol")
	require.NoError(t, e.Load(ctx, src, tokenizer.Raw))
	assert.Equal(t, ranking.Category{ID: 1, Offset: 0, Size: 0}, e.Categories()[1])

	_, err := e.Build()
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "category has no documents")
	assert.Contains(t, logs.String(), `"category":1`)

	r, err := e.Rank(ctx, ranking.Options{})
	require.NoError(t, err)
	require.Equal(t, 3, r.Len(1))
	for _, view := range []ranking.View{ranking.ByTF, ranking.ByTFIDF} {
		entries, err := r.Top(1, view, r.Len(1))
		require.NoError(t, err)
		for _, entry := range entries {
			assert.Zero(t, entry.TF, entry.Text)
			assert.Zero(t, entry.IDF, entry.Text)
		}
	}
}

func TestIngestWordsSurfacesReadErrors(t *testing.T) {
	e := NewEngine(Options{})
	doc, err := e.Discover(0, "d0")
	require.NoError(t, err)

	words := func(yield func(string, error) bool) {
		if !yield("ok", nil) {
			return
		}
		yield("", assert.AnError)
	}
	err = e.IngestWords(doc.Ordinal, words)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, 1, e.Dictionary().Len())
}

func TestLoadUsesInjectedComparator(t *testing.T) {
	caseless := func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	}
	e := NewEngine(Options{Compare: caseless})
	src := corpus.NewMemory().Add(0, "d", "Go go GO stop")
	require.NoError(t, e.Load(context.Background(), src, tokenizer.Raw))

	assert.Equal(t, 2, e.Dictionary().Len())
	id, ok := e.Dictionary().Find("go")
	require.True(t, ok)
	assert.Equal(t, "Go", e.Dictionary().Text(id), "first spelling is kept")
	assert.Equal(t, 3, e.Incidence().Occurrences(id, 0))
}

func TestLoadRecordsMetrics(t *testing.T) {
	m := metrics.New(nil)
	e := NewEngine(Options{Compare: dictionary.ByteOrder, Metrics: m})
	src := corpus.NewMemory().Add(0, "a", "x y").Add(1, "b", "y z").Add(1, "c", "z")
	require.NoError(t, e.Load(context.Background(), src, tokenizer.Raw))
	_, err := e.Build()
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsDiscovered.WithLabelValues("0")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DocumentsDiscovered.WithLabelValues("1")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DictionaryTerms))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GraphEdges))
}

func TestLoadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	e := NewEngine(Options{})
	err := e.Load(ctx, corpus.NewMemory().Add(0, "a", "x"), tokenizer.Raw)
	assert.ErrorIs(t, err, context.Canceled)
}
