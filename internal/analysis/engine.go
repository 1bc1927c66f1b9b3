// Package analysis wires the co-occurrence pipeline together. An Engine owns
// the dictionary, incidence store and graph and enforces the stage order:
// documents are discovered, their tokens ingested, the graph built once, and
// only then are relations enumerated and rankings computed.
package analysis

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/graph"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/incidence"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/ranking"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/relation"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/corpus"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/metrics"
)

// NumCategories is the fixed number of corpus partitions.
const NumCategories = 3

// Document is a discovered document. Its ordinal indexes every term's count
// vector.
type Document struct {
	Ordinal  int
	Category int
	Source   string
}

type Stats struct {
	Documents int `json:"documents"`
	Tokens    int `json:"tokens"`
	Truncated int `json:"truncated"`
	Terms     int `json:"terms"`
	Edges     int `json:"edges"`
}

type Options struct {
	// Compare orders the dictionary; nil selects byte order.
	Compare       dictionary.CompareFunc
	MaxTermLength int
	Metrics       *metrics.Metrics
}

type Engine struct {
	dict    *dictionary.Dictionary
	inc     *incidence.Store
	graph   *graph.Graph
	docs    []Document
	cats    [NumCategories]ranking.Category
	names   [NumCategories]string
	seen    [NumCategories]bool
	current int
	tokens  int
	cut     int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewEngine(opts Options) *Engine {
	e := &Engine{
		dict:    dictionary.New(opts.Compare, opts.MaxTermLength),
		inc:     incidence.New(),
		current: -1,
		metrics: opts.Metrics,
		logger:  logger.WithComponent("analysis-engine"),
	}
	for i := range e.cats {
		e.cats[i].ID = i
	}
	return e
}

func (e *Engine) built() bool {
	return e.graph != nil
}

// Discover registers a document of category and returns it with its ordinal.
// A category's documents must be discovered back to back.
func (e *Engine) Discover(category int, source string) (Document, error) {
	if e.built() {
		return Document{}, apperrors.Precondition("cannot discover %s after the graph is built", source)
	}
	if category < 0 || category >= NumCategories {
		return Document{}, apperrors.Precondition("category %d out of range 0..%d", category, NumCategories-1)
	}
	if category != e.current && e.seen[category] {
		return Document{}, apperrors.Precondition("category %d documents are not contiguous (%s)", category, source)
	}

	doc := Document{Ordinal: len(e.docs), Category: category, Source: source}
	if !e.seen[category] {
		e.seen[category] = true
		e.cats[category].Offset = doc.Ordinal
	}
	e.current = category
	e.cats[category].Size++
	e.docs = append(e.docs, doc)
	if err := e.inc.SetDocuments(len(e.docs)); err != nil {
		return Document{}, err
	}
	if e.metrics != nil {
		e.metrics.DocumentsDiscovered.WithLabelValues(fmt.Sprint(category)).Inc()
	}
	return doc, nil
}

// Ingest records one word of a discovered document. Over-long words are
// truncated and still recorded.
func (e *Engine) Ingest(doc int, word string) (dictionary.TermID, error) {
	if e.built() {
		return 0, apperrors.Precondition("cannot ingest into document %d after the graph is built", doc)
	}
	if doc < 0 || doc >= len(e.docs) {
		return 0, apperrors.Precondition("document %d is not discovered (known documents: %d)", doc, len(e.docs))
	}
	term, truncated := e.dict.Truncate(word)
	if term == "" {
		return 0, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"empty term in document %d", doc)
	}
	if truncated {
		e.cut++
		if e.metrics != nil {
			e.metrics.TermsTruncated.Inc()
		}
		e.logger.Debug("term truncated",
			"error", apperrors.ErrInputTruncated,
			"document", doc,
			"original_length", len(word),
			"term", term,
		)
	}
	id, _ := e.dict.FindOrInsert(term)
	if err := e.inc.Record(id, doc); err != nil {
		return 0, err
	}
	e.tokens++
	if e.metrics != nil {
		e.metrics.TokensIngested.Inc()
	}
	return id, nil
}

// IngestWords records every word of a stream, stopping at the first stream
// or ingestion error.
func (e *Engine) IngestWords(doc int, words iter.Seq2[string, error]) error {
	for word, err := range words {
		if err != nil {
			return fmt.Errorf("reading document %d: %w", doc, err)
		}
		if word == "" {
			continue
		}
		if _, err := e.Ingest(doc, word); err != nil {
			return err
		}
	}
	return nil
}

// Load discovers every document of src first and then ingests them in
// discovery order.
func (e *Engine) Load(ctx context.Context, src corpus.Source, mode tokenizer.Mode) error {
	start := time.Now()
	docs, err := src.Documents(ctx)
	if err != nil {
		return fmt.Errorf("discovering documents: %w", err)
	}
	discovered := make([]Document, len(docs))
	for i, d := range docs {
		doc, err := e.Discover(d.Category, d.Path)
		if err != nil {
			return err
		}
		discovered[i] = doc
		e.names[d.Category] = d.CategoryName
	}
	e.observe("discover", start)
	e.logger.Info("documents discovered", "documents", len(discovered), "categories", e.Categories())

	start = time.Now()
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.loadOne(src, d, discovered[i].Ordinal, mode); err != nil {
			return err
		}
	}
	e.observe("ingest", start)
	if e.metrics != nil {
		e.metrics.DictionaryTerms.Set(float64(e.dict.Len()))
	}
	e.logger.Info("ingestion complete",
		"tokens", e.tokens,
		"terms", e.dict.Len(),
		"truncated", e.cut,
	)
	return nil
}

func (e *Engine) loadOne(src corpus.Source, d corpus.Document, ordinal int, mode tokenizer.Mode) error {
	rc, err := src.Open(d)
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := e.IngestWords(ordinal, tokenizer.Scan(rc, mode)); err != nil {
		return fmt.Errorf("ingesting %s: %w", d.Path, err)
	}
	return nil
}

// Build freezes ingestion and constructs the co-occurrence graph. It may be
// called once.
func (e *Engine) Build() (*graph.Graph, error) {
	if e.built() {
		return nil, apperrors.Precondition("graph already built")
	}
	for i, seen := range e.seen {
		if !seen {
			e.logger.Warn("category has no documents, its rankings will be empty", "category", i)
		}
	}
	start := time.Now()
	e.graph = graph.Build(e.dict, e.inc)
	e.observe("build", start)
	if e.metrics != nil {
		e.metrics.GraphEdges.Set(float64(e.graph.EdgeCount()))
		e.metrics.DictionaryTerms.Set(float64(e.dict.Len()))
	}
	e.logger.Info("co-occurrence graph built",
		"terms", e.graph.TermCount(),
		"edges", e.graph.EdgeCount(),
		"duration", time.Since(start),
	)
	return e.graph, nil
}

// Relations enumerates the requested orders over the built graph.
func (e *Engine) Relations(ctx context.Context, orders []int, opts relation.Options, parallel bool) (relation.Passes, error) {
	if !e.built() {
		return nil, apperrors.Precondition("relations requested before the graph is built")
	}
	start := time.Now()
	passes, err := relation.EnumerateAll(ctx, e.dict, e.graph, orders, opts, parallel)
	if err != nil {
		return nil, err
	}
	e.observe("relations", start)
	for order, rels := range passes {
		if e.metrics != nil {
			e.metrics.AddRelations(order, len(rels))
		}
		e.logger.Info("relations enumerated", "order", order, "count", len(rels))
	}
	return passes, nil
}

// Rank computes the per-category frequency views.
func (e *Engine) Rank(ctx context.Context, opts ranking.Options) (*ranking.Ranking, error) {
	if !e.built() {
		return nil, apperrors.Precondition("ranking requested before ingestion is finished")
	}
	start := time.Now()
	r, err := ranking.Rank(ctx, e.dict, e.inc, e.Categories(), opts)
	if err != nil {
		return nil, err
	}
	e.observe("rank", start)
	return r, nil
}

func (e *Engine) observe(stage string, start time.Time) {
	if e.metrics != nil {
		e.metrics.ObserveStage(stage, start)
	}
}

func (e *Engine) Dictionary() *dictionary.Dictionary { return e.dict }

func (e *Engine) Incidence() *incidence.Store { return e.inc }

// Graph returns the built graph, or nil before Build.
func (e *Engine) Graph() *graph.Graph { return e.graph }

func (e *Engine) Documents() []Document {
	out := make([]Document, len(e.docs))
	copy(out, e.docs)
	return out
}

// Categories returns every category with its ordinal range. Categories
// without documents have Size 0.
func (e *Engine) Categories() []ranking.Category {
	out := make([]ranking.Category, NumCategories)
	copy(out, e.cats[:])
	return out
}

// CategoryNames returns the names Load saw for each category, indexed by
// category id.
func (e *Engine) CategoryNames() []string {
	return append([]string(nil), e.names[:]...)
}

func (e *Engine) Stats() Stats {
	s := Stats{
		Documents: len(e.docs),
		Tokens:    e.tokens,
		Truncated: e.cut,
		Terms:     e.dict.Len(),
	}
	if e.graph != nil {
		s.Edges = e.graph.EdgeCount()
	}
	return s
}
