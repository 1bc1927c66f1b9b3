package ranking

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

// View selects one of the two orderings kept per category.
type View int

const (
	ByTF View = iota
	ByTFIDF
)

func (v View) String() string {
	switch v {
	case ByTF:
		return "tf"
	case ByTFIDF:
		return "tfidf"
	default:
		return "unknown"
	}
}

// Category is a contiguous block of document ordinals.
type Category struct {
	ID     int
	Offset int
	Size   int
}

// Entry holds a term's statistics within one category.
type Entry struct {
	Term     dictionary.TermID `json:"-"`
	Text     string            `json:"term"`
	Category int               `json:"category"`
	TF       int               `json:"tf"`
	IDF      float64           `json:"idf"`
}

// Score is the tf·idf key of the second view.
func (e Entry) Score() float64 {
	return float64(e.TF) * e.IDF
}

type Terms interface {
	Ordered() []dictionary.TermID
	Text(id dictionary.TermID) string
}

// Counts reports a term's total occurrences over [offset, offset+size) and
// the number of those documents containing it.
type Counts interface {
	Sum(term dictionary.TermID, offset, size int) (total int, containing int)
}

type Options struct {
	Parallel bool
}

// table keeps both orderings of one category's entries as index slices into
// entries.
type table struct {
	entries []Entry
	byTF    []int
	byScore []int
}

// insert places idx after every existing entry whose key is >= key, so equal
// keys keep insertion order.
func insert(view []int, idx int, key func(int) float64) []int {
	k := key(idx)
	pos := sort.Search(len(view), func(i int) bool {
		return key(view[i]) < k
	})
	view = append(view, 0)
	copy(view[pos+1:], view[pos:])
	view[pos] = idx
	return view
}

func (t *table) add(e Entry) {
	idx := len(t.entries)
	t.entries = append(t.entries, e)
	t.byTF = insert(t.byTF, idx, func(i int) float64 { return float64(t.entries[i].TF) })
	t.byScore = insert(t.byScore, idx, func(i int) float64 { return t.entries[i].Score() })
}

type Ranking struct {
	categories []Category
	tables     []*table
}

// Rank computes tf and idf for every term in every category and keeps the
// tf and tf·idf views. Terms are inserted in dictionary order.
func Rank(ctx context.Context, terms Terms, counts Counts, categories []Category, opts Options) (*Ranking, error) {
	order := terms.Ordered()
	r := &Ranking{
		categories: categories,
		tables:     make([]*table, len(categories)),
	}
	build := func(i int) {
		c := categories[i]
		t := &table{
			entries: make([]Entry, 0, len(order)),
			byTF:    make([]int, 0, len(order)),
			byScore: make([]int, 0, len(order)),
		}
		for _, id := range order {
			tf, df := counts.Sum(id, c.Offset, c.Size)
			t.add(Entry{
				Term:     id,
				Text:     terms.Text(id),
				Category: c.ID,
				TF:       tf,
				IDF:      computeIDF(c.Size, df),
			})
		}
		r.tables[i] = t
	}

	if opts.Parallel {
		eg, ctx := errgroup.WithContext(ctx)
		for i := range categories {
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				build(i)
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
		return r, nil
	}
	for i := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		build(i)
	}
	return r, nil
}

// computeIDF is ln(docs/containing), or 0 when no document contains the term.
func computeIDF(docs, containing int) float64 {
	if containing == 0 {
		return 0
	}
	return math.Log(float64(docs) / float64(containing))
}

func (r *Ranking) table(category int) (*table, error) {
	for i, c := range r.categories {
		if c.ID == category {
			return r.tables[i], nil
		}
	}
	return nil, apperrors.Precondition("unknown category %d", category)
}

// Len returns the number of entries in a category's views.
func (r *Ranking) Len(category int) int {
	t, err := r.table(category)
	if err != nil {
		return 0
	}
	return len(t.entries)
}

// Categories returns the ranked categories in the order given to Rank.
func (r *Ranking) Categories() []Category {
	out := make([]Category, len(r.categories))
	copy(out, r.categories)
	return out
}

// Top returns the first k entries of a view. Asking for more entries than the
// view holds is a caller error.
func (r *Ranking) Top(category int, view View, k int) ([]Entry, error) {
	t, err := r.table(category)
	if err != nil {
		return nil, err
	}
	var idx []int
	switch view {
	case ByTF:
		idx = t.byTF
	case ByTFIDF:
		idx = t.byScore
	default:
		return nil, apperrors.Precondition("unknown ranking view %d", view)
	}
	if k < 0 || k > len(idx) {
		return nil, apperrors.Precondition("requested top %d of %s view for category %d holding %d entries",
			k, view, category, len(idx))
	}
	out := make([]Entry, k)
	for i := range out {
		out[i] = t.entries[idx[i]]
	}
	return out, nil
}
