package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/publish"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/redis"
)

func newShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print a report stored by the redis sink, the latest one by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if !cfg.Redis.Enabled {
				return apperrors.New(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
					"show needs the redis sink; set redis.enabled or CA_REDIS_ADDR")
			}
			client, err := redis.NewClient(cfg.Redis)
			if err != nil {
				return apperrors.Newf(apperrors.ErrPublishFailed, apperrors.ExitPublish, "connecting redis: %v", err)
			}
			store := publish.NewRedisPublisher(client, cfg.Redis.TTL)
			defer store.Close()

			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return show(cmd.Context(), store, runID, cfg.Report.Format, cmd.OutOrStdout())
		},
	}
	addAnalysisFlags(cmd)
	return cmd
}

type reportStore interface {
	Latest(ctx context.Context) (*report.Report, error)
	Fetch(ctx context.Context, runID string) (*report.Report, error)
}

func show(ctx context.Context, store reportStore, runID, format string, w io.Writer) error {
	var (
		r   *report.Report
		err error
	)
	if runID == "" {
		r, err = store.Latest(ctx)
	} else {
		r, err = store.Fetch(ctx, runID)
	}
	if err != nil {
		return err
	}
	return report.Write(w, r, format)
}
