package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/ranking"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/relation"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/publish"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/tracing"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Build the co-occurrence graph, print relations and per-category rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
			return run(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

func addAnalysisFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("root", "", "dataset root holding one directory per category")
	f.String("locale", "", "collation locale for term order, e.g. tr_TR.utf8 or C")
	f.String("tokenizer", "", "raw or normalized")
	f.Int("top", 0, "entries printed per category and view")
	f.IntSlice("orders", nil, "relation orders to enumerate")
	f.String("format", "", "report format: text or json")
	f.Bool("distinct", false, "report each (source, target) pair once per order")
}

// loadConfig reads the config file and lets explicitly set flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("root") {
		cfg.Corpus.Root, _ = f.GetString("root")
	}
	if f.Changed("locale") {
		cfg.Analysis.Locale, _ = f.GetString("locale")
	}
	if f.Changed("tokenizer") {
		cfg.Analysis.Tokenizer, _ = f.GetString("tokenizer")
	}
	if f.Changed("top") {
		cfg.Ranking.TopK, _ = f.GetInt("top")
	}
	if f.Changed("orders") {
		cfg.Relations.Orders, _ = f.GetIntSlice("orders")
	}
	if f.Changed("format") {
		cfg.Report.Format, _ = f.GetString("format")
	}
	if f.Changed("distinct") {
		cfg.Relations.DistinctTargets, _ = f.GetBool("distinct")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run executes one analysis: ingest, build, enumerate, rank, print, then
// publish to whichever sinks are enabled.
func run(ctx context.Context, cfg *config.Config, stdout io.Writer) error {
	start := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRunID(ctx, runID)
	log := logger.FromContext(ctx).With("component", "analyzer")

	ctx, span := tracing.Start(ctx, "analyze", runID)
	defer func() {
		span.End()
		span.Log(log)
	}()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdown := m.StartServer(cfg.Metrics.Port, map[string]http.Handler{
			"/healthz": health.LiveHandler(),
			"/readyz":  newChecker(cfg).ReadyHandler(),
		})
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(sctx)
		}()
	}

	compare, err := dictionary.NewComparator(cfg.Analysis.Locale)
	degraded := false
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrConfigurationDegraded) {
			return err
		}
		degraded = true
		log.Warn("collation for the requested locale is not available; terms with non-ASCII characters will be sorted byte-wise",
			"locale", cfg.Analysis.Locale,
			"error", err,
		)
	}
	mode, err := tokenizer.ParseMode(cfg.Analysis.Tokenizer)
	if err != nil {
		return err
	}

	log.Info("starting analysis",
		"root", cfg.Corpus.Root,
		"locale", cfg.Analysis.Locale,
		"tokenizer", mode,
		"orders", cfg.Relations.Orders,
	)
	engine := analysis.NewEngine(analysis.Options{
		Compare:       compare,
		MaxTermLength: cfg.Analysis.MaxTermLength,
		Metrics:       m,
	})
	src := corpus.NewDirSource(cfg.Corpus.Root, analysis.NumCategories, cfg.Corpus.Extensions)
	if err := stage(ctx, "load", func(ctx context.Context) error { return engine.Load(ctx, src, mode) }); err != nil {
		return err
	}
	if err := stage(ctx, "build", func(context.Context) error {
		_, err := engine.Build()
		return err
	}); err != nil {
		return err
	}
	var passes relation.Passes
	err = stage(ctx, "relations", func(ctx context.Context) error {
		var err error
		passes, err = engine.Relations(ctx, cfg.Relations.Orders,
			relation.Options{DistinctTargets: cfg.Relations.DistinctTargets}, cfg.Relations.Parallel)
		return err
	})
	if err != nil {
		return err
	}
	var rk *ranking.Ranking
	err = stage(ctx, "rank", func(ctx context.Context) error {
		var err error
		rk, err = engine.Rank(ctx, ranking.Options{Parallel: cfg.Ranking.Parallel})
		return err
	})
	if err != nil {
		return err
	}

	rep, err := report.Build(report.Input{
		RunID:    runID,
		Locale:   cfg.Analysis.Locale,
		Degraded: degraded,
		TopK:     cfg.Ranking.TopK,
		Names:    engine.CategoryNames(),
		Engine:   engine,
		Passes:   passes,
		Ranking:  rk,
	})
	if err != nil {
		return err
	}
	if err := report.Write(stdout, rep, cfg.Report.Format); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	sinks, err := publish.Open(ctx, cfg, m)
	if err != nil {
		return err
	}
	defer sinks.Close()
	if sinks.Len() > 0 {
		if err := stage(ctx, "publish", func(ctx context.Context) error { return sinks.Publish(ctx, rep) }); err != nil {
			return err
		}
	}

	stats := engine.Stats()
	log.Info("analysis complete",
		"documents", stats.Documents,
		"terms", stats.Terms,
		"edges", stats.Edges,
		"relations", rep.Relations(),
		"truncated", stats.Truncated,
		"sinks", sinks.Len(),
		"duration", time.Since(start),
	)
	return nil
}

// stage runs fn under a child span of ctx.
func stage(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	ctx, span := tracing.Start(ctx, name, "")
	defer span.End()
	err := fn(ctx)
	if err != nil {
		span.SetAttr("error", err.Error())
	}
	return err
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the SQL schema used by the postgres sink",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := io.WriteString(cmd.OutOrStdout(), strings.Join(publish.Schema, ";\n\n")+";\n")
			return err
		},
	}
}
