// Package report assembles the results of one analysis run into a single
// value that can be rendered to the console or handed to publishers.
package report

import (
	"fmt"
	"slices"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/ranking"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/relation"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/logger"
)

type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// Pass holds the pairs of one relation order in generation order.
type Pass struct {
	Order int    `json:"order"`
	Pairs []Pair `json:"pairs"`
}

type Ranked struct {
	Rank  int     `json:"rank"`
	Term  string  `json:"term"`
	TF    int     `json:"tf"`
	IDF   float64 `json:"idf"`
	Score float64 `json:"score"`
}

type CategoryRanking struct {
	Category  int      `json:"category"`
	Name      string   `json:"name,omitempty"`
	Documents int      `json:"documents"`
	ByTF      []Ranked `json:"by_tf"`
	ByTFIDF   []Ranked `json:"by_tfidf"`
}

type Report struct {
	RunID       string            `json:"run_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Locale      string            `json:"locale"`
	Degraded    bool              `json:"collation_degraded"`
	TopK        int               `json:"top_k"`
	Stats       analysis.Stats    `json:"stats"`
	Passes      []Pass            `json:"passes"`
	Rankings    []CategoryRanking `json:"rankings"`
}

// Input carries everything Build needs from a finished run.
type Input struct {
	RunID    string
	Locale   string
	Degraded bool
	TopK     int
	// Names labels categories by ID; missing entries stay unnamed.
	Names   []string
	Engine  *analysis.Engine
	Passes  relation.Passes
	Ranking *ranking.Ranking
	Now     func() time.Time
}

// Build resolves term ids to text and cuts each ranking view to TopK
// entries. A category holding fewer terms than TopK is reported in full.
func Build(in Input) (*Report, error) {
	if in.Engine == nil {
		return nil, fmt.Errorf("building report: nil engine")
	}
	now := time.Now
	if in.Now != nil {
		now = in.Now
	}
	r := &Report{
		RunID:       in.RunID,
		GeneratedAt: now().UTC(),
		Locale:      in.Locale,
		Degraded:    in.Degraded,
		TopK:        in.TopK,
		Stats:       in.Engine.Stats(),
	}

	dict := in.Engine.Dictionary()
	orders := make([]int, 0, len(in.Passes))
	for order := range in.Passes {
		orders = append(orders, order)
	}
	slices.Sort(orders)
	for _, order := range orders {
		rels := in.Passes[order]
		p := Pass{Order: order, Pairs: make([]Pair, len(rels))}
		for i, rel := range rels {
			p.Pairs[i] = Pair{A: dict.Text(rel.Source), B: dict.Text(rel.Target)}
		}
		r.Passes = append(r.Passes, p)
	}

	if in.Ranking == nil {
		return r, nil
	}
	log := logger.WithComponent("report")
	for _, c := range in.Ranking.Categories() {
		k := in.TopK
		if n := in.Ranking.Len(c.ID); k > n {
			log.Warn("category holds fewer terms than requested", "category", c.ID, "requested", k, "available", n)
			k = n
		}
		cr := CategoryRanking{Category: c.ID, Documents: c.Size}
		if c.ID >= 0 && c.ID < len(in.Names) {
			cr.Name = in.Names[c.ID]
		}
		var err error
		if cr.ByTF, err = top(in.Ranking, c.ID, ranking.ByTF, k); err != nil {
			return nil, err
		}
		if cr.ByTFIDF, err = top(in.Ranking, c.ID, ranking.ByTFIDF, k); err != nil {
			return nil, err
		}
		r.Rankings = append(r.Rankings, cr)
	}
	return r, nil
}

func top(r *ranking.Ranking, category int, view ranking.View, k int) ([]Ranked, error) {
	entries, err := r.Top(category, view, k)
	if err != nil {
		return nil, err
	}
	out := make([]Ranked, len(entries))
	for i, e := range entries {
		out[i] = Ranked{Rank: i + 1, Term: e.Text, TF: e.TF, IDF: e.IDF, Score: e.Score()}
	}
	return out, nil
}

// Relations counts the pairs reported across all passes.
func (r *Report) Relations() int {
	n := 0
	for _, p := range r.Passes {
		n += len(p.Pairs)
	}
	return n
}
