package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
)

const cellWidth = 25

var banners = map[int]string{
	1: "==========FIRST ORDER START==========",
	2: "==========SECOND ORDER START==========",
	3: "==========THIRD ORDER START==========",
}

// Write renders r in the named format, "text" or "json".
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case "", "text":
		return WriteText(w, r)
	case "json":
		return WriteJSON(w, r)
	default:
		return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput, "unknown report format %q", format)
	}
}

// WriteText prints the relation passes followed by the tf and tf·idf grids,
// one column per category.
func WriteText(w io.Writer, r *Report) error {
	var b strings.Builder
	for _, p := range r.Passes {
		banner, ok := banners[p.Order]
		if !ok {
			banner = fmt.Sprintf("==========ORDER %d START==========", p.Order)
		}
		b.WriteString(banner)
		b.WriteByte('\n')
		for _, pair := range p.Pairs {
			fmt.Fprintf(&b, "/%s-%s/\n", pair.A, pair.B)
		}
	}
	b.WriteByte('\n')

	if len(r.Rankings) > 0 {
		grid(&b, r, func(cr CategoryRanking) []Ranked { return cr.ByTF }, func(e Ranked) string {
			return fmt.Sprintf("%s,%d", e.Term, e.TF)
		})
		b.WriteByte('\n')
		grid(&b, r, func(cr CategoryRanking) []Ranked { return cr.ByTFIDF }, func(e Ranked) string {
			return fmt.Sprintf("%s, %.2f, %d", e.Term, e.IDF, e.TF)
		})
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func grid(b *strings.Builder, r *Report, view func(CategoryRanking) []Ranked, cell func(Ranked) string) {
	rows := r.TopK
	for _, cr := range r.Rankings {
		rows = max(rows, len(view(cr)))
	}
	for row := 0; row < rows; row++ {
		for _, cr := range r.Rankings {
			text := ""
			if entries := view(cr); row < len(entries) {
				text = cell(entries[row])
			}
			fmt.Fprintf(b, "|%-*s|", cellWidth, text)
		}
		b.WriteByte('\n')
	}
}

func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
