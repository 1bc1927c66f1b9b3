package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis/dictionary"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/redis"
)

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Probe the corpus layout, collation and enabled sinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			report := newChecker(cfg).Run(cmd.Context())
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return err
			}
			return checkError(report)
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

// sinkProbes names the probes whose outage only affects publishing.
var sinkProbes = map[string]bool{"kafka": true, "redis": true, "postgres": true}

// checkError maps a down report to an exit status. A broken corpus or
// locale is an input problem; unreachable sinks are a publish problem.
func checkError(report health.Report) error {
	if report.Status != health.StatusDown {
		return nil
	}
	var down []string
	sinksOnly := true
	for _, name := range report.Names() {
		if report.Components[name].Status != health.StatusDown {
			continue
		}
		down = append(down, name)
		if !sinkProbes[name] {
			sinksOnly = false
		}
	}
	if sinksOnly {
		return apperrors.Newf(apperrors.ErrPublishFailed, apperrors.ExitPublish, "unreachable sinks: %v", down)
	}
	return apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput, "unhealthy components: %v", down)
}

// newChecker registers a probe for the corpus, the collation and each
// enabled sink.
func newChecker(cfg *config.Config) *health.Checker {
	c := health.NewChecker()
	c.Register("corpus", func(ctx context.Context) error {
		src := corpus.NewDirSource(cfg.Corpus.Root, analysis.NumCategories, cfg.Corpus.Extensions)
		docs, err := src.Documents(ctx)
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			return fmt.Errorf("no documents under %s", cfg.Corpus.Root)
		}
		return nil
	})
	c.Register("collation", func(context.Context) error {
		_, err := dictionary.NewComparator(cfg.Analysis.Locale)
		return err
	})
	if cfg.Kafka.Enabled {
		c.Register("kafka", func(ctx context.Context) error {
			return kafka.Ping(ctx, cfg.Kafka.Brokers)
		})
	}
	if cfg.Redis.Enabled {
		c.Register("redis", func(ctx context.Context) error {
			client, err := redis.NewClient(cfg.Redis)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.Ping(ctx)
		})
	}
	if cfg.Postgres.Enabled {
		c.Register("postgres", func(ctx context.Context) error {
			client, err := postgres.New(cfg.Postgres)
			if err != nil {
				return err
			}
			defer client.Close()
			return client.DB.PingContext(ctx)
		})
	}
	return c
}
