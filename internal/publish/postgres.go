package publish

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/report"
)

// Schema creates the tables the postgres sink writes to.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS cooccurrence_runs (
		run_id       TEXT PRIMARY KEY,
		generated_at TIMESTAMPTZ NOT NULL,
		locale       TEXT NOT NULL,
		degraded     BOOLEAN NOT NULL DEFAULT FALSE,
		documents    INTEGER NOT NULL,
		tokens       INTEGER NOT NULL,
		terms        INTEGER NOT NULL,
		edges        INTEGER NOT NULL,
		truncated    INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS cooccurrence_relations (
		run_id TEXT NOT NULL REFERENCES cooccurrence_runs(run_id) ON DELETE CASCADE,
		ord    SMALLINT NOT NULL,
		seq    INTEGER NOT NULL,
		term_a TEXT NOT NULL,
		term_b TEXT NOT NULL,
		PRIMARY KEY (run_id, ord, seq)
	)`,
	`CREATE TABLE IF NOT EXISTS cooccurrence_rankings (
		run_id   TEXT NOT NULL REFERENCES cooccurrence_runs(run_id) ON DELETE CASCADE,
		category SMALLINT NOT NULL,
		view     TEXT NOT NULL,
		rank     INTEGER NOT NULL,
		term     TEXT NOT NULL,
		tf       INTEGER NOT NULL,
		idf      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, category, view, rank)
	)`,
}

// Postgres caps bind parameters at 65535 per statement.
const maxRowsPerInsert = 1000

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type txClient interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
	Migrate(ctx context.Context, statements ...string) error
	Close() error
}

type PostgresPublisher struct {
	client txClient
}

func NewPostgresPublisher(client txClient) *PostgresPublisher {
	return &PostgresPublisher{client: client}
}

func (p *PostgresPublisher) Name() string { return "postgres" }

func (p *PostgresPublisher) EnsureSchema(ctx context.Context) error {
	return p.client.Migrate(ctx, Schema...)
}

// Publish writes the run and all its rows in one transaction. Republishing a
// run id replaces its rows.
func (p *PostgresPublisher) Publish(ctx context.Context, r *report.Report) error {
	return p.client.InTx(ctx, func(tx *sql.Tx) error {
		return writeReport(ctx, tx, r)
	})
}

func (p *PostgresPublisher) Close() error { return p.client.Close() }

func writeReport(ctx context.Context, ex execer, r *report.Report) error {
	if _, err := ex.ExecContext(ctx, `DELETE FROM cooccurrence_runs WHERE run_id = $1`, r.RunID); err != nil {
		return fmt.Errorf("clearing run %s: %w", r.RunID, err)
	}
	_, err := ex.ExecContext(ctx,
		`INSERT INTO cooccurrence_runs (run_id, generated_at, locale, degraded, documents, tokens, terms, edges, truncated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.RunID, r.GeneratedAt, r.Locale, r.Degraded,
		r.Stats.Documents, r.Stats.Tokens, r.Stats.Terms, r.Stats.Edges, r.Stats.Truncated,
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", r.RunID, err)
	}

	var relations [][]any
	for _, pass := range r.Passes {
		for i, pair := range pass.Pairs {
			relations = append(relations, []any{r.RunID, pass.Order, i, pair.A, pair.B})
		}
	}
	if err := insertRows(ctx, ex, "cooccurrence_relations",
		[]string{"run_id", "ord", "seq", "term_a", "term_b"}, relations); err != nil {
		return err
	}

	var rankings [][]any
	for _, cr := range r.Rankings {
		for _, row := range cr.ByTF {
			rankings = append(rankings, []any{r.RunID, cr.Category, "tf", row.Rank, row.Term, row.TF, row.IDF})
		}
		for _, row := range cr.ByTFIDF {
			rankings = append(rankings, []any{r.RunID, cr.Category, "tfidf", row.Rank, row.Term, row.TF, row.IDF})
		}
	}
	return insertRows(ctx, ex, "cooccurrence_rankings",
		[]string{"run_id", "category", "view", "rank", "term", "tf", "idf"}, rankings)
}

// insertRows issues multi-row INSERTs of at most maxRowsPerInsert rows.
func insertRows(ctx context.Context, ex execer, table string, columns []string, rows [][]any) error {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = pq.QuoteIdentifier(c)
	}
	head := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", pq.QuoteIdentifier(table), strings.Join(quoted, ", "))

	for start := 0; start < len(rows); start += maxRowsPerInsert {
		chunk := rows[start:min(start+maxRowsPerInsert, len(rows))]
		var b strings.Builder
		b.WriteString(head)
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			for j, v := range row {
				if j > 0 {
					b.WriteString(", ")
				}
				args = append(args, v)
				fmt.Fprintf(&b, "$%d", len(args))
			}
			b.WriteByte(')')
		}
		if _, err := ex.ExecContext(ctx, b.String(), args...); err != nil {
			return fmt.Errorf("inserting into %s: %w", table, err)
		}
	}
	return nil
}
