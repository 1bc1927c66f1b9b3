// Package graph builds the undirected co-occurrence graph of a corpus: two
// terms are linked when they occur together in at least one document.
//
// # Lifecycle
//
// A Graph is produced once by Build after ingestion has finished and is
// read-only afterwards, so it may be shared by concurrent readers.
//
// # Neighbour order
//
// Relation reports are emitted in neighbour order, so Build reproduces the
// exact link order of the direct construction: for every term T in
// dictionary order, for every document D (ascending) containing T, for every
// other term T2 in D in dictionary order, link T and T2 unless already linked.
package graph

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/incidence"
)

// Dictionary is the subset of the term dictionary Build needs.
type Dictionary interface {
	Len() int
	Ordered() []dictionary.TermID
}

// Incidence is the subset of the incidence store Build needs.
type Incidence interface {
	Documents() int
	DocumentsOf(term dictionary.TermID) []int
}

var (
	_ Dictionary = (*dictionary.Dictionary)(nil)
	_ Incidence  = (*incidence.Store)(nil)
)

type Graph struct {
	adj     [][]dictionary.TermID
	members []*roaring.Bitmap
	edges   int
}

func newGraph(terms int) *Graph {
	g := &Graph{
		adj:     make([][]dictionary.TermID, terms),
		members: make([]*roaring.Bitmap, terms),
	}
	for i := range g.members {
		g.members[i] = roaring.New()
	}
	return g
}

// Build derives the graph from a fully ingested dictionary and incidence
// store.
func Build(dict Dictionary, inc Incidence) *Graph {
	order := dict.Ordered()
	g := newGraph(dict.Len())

	// postings[d] lists the terms of document d in dictionary order
	postings := make([][]dictionary.TermID, inc.Documents())
	docsOf := make([][]int, dict.Len())
	for _, id := range order {
		docs := inc.DocumentsOf(id)
		docsOf[id] = docs
		for _, d := range docs {
			postings[d] = append(postings[d], id)
		}
	}

	for _, t := range order {
		for _, d := range docsOf[t] {
			for _, t2 := range postings[d] {
				if t2 == t {
					continue
				}
				g.link(t, t2)
			}
		}
	}
	for _, m := range g.members {
		m.RunOptimize()
	}
	return g
}

func (g *Graph) link(a, b dictionary.TermID) {
	if g.members[a].CheckedAdd(uint32(b)) {
		g.adj[a] = append(g.adj[a], b)
	}
	if g.members[b].CheckedAdd(uint32(a)) {
		g.adj[b] = append(g.adj[b], a)
		g.edges++
	}
}

// Neighbors returns the terms linked to id in link order. The slice is owned
// by the graph and must not be modified.
func (g *Graph) Neighbors(id dictionary.TermID) []dictionary.TermID {
	if int(id) >= len(g.adj) {
		return nil
	}
	return g.adj[id]
}

func (g *Graph) AreLinked(a, b dictionary.TermID) bool {
	if int(a) >= len(g.members) {
		return false
	}
	return g.members[a].Contains(uint32(b))
}

func (g *Graph) Degree(id dictionary.TermID) int {
	return len(g.Neighbors(id))
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	return g.edges
}

func (g *Graph) TermCount() int {
	return len(g.adj)
}
