// Package publish ships finished reports to the configured sinks. Every sink
// is optional; the console report never depends on them.
package publish

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/resilience"
)

type Publisher interface {
	Name() string
	Publish(ctx context.Context, r *report.Report) error
	Close() error
}

type MultiOptions struct {
	Retry   resilience.RetryConfig
	Timeout time.Duration
	Metrics *metrics.Metrics
}

// Multi fans a report out to several sinks concurrently. A failing sink does
// not stop the others.
type Multi struct {
	sinks  []Publisher
	opts   MultiOptions
	logger *slog.Logger
}

func NewMulti(sinks []Publisher, opts MultiOptions) *Multi {
	return &Multi{
		sinks:  sinks,
		opts:   opts,
		logger: logger.WithComponent("publisher"),
	}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Len() int { return len(m.sinks) }

// Publish sends r to every sink with retries and returns the joined sink
// errors as ErrPublishFailed.
func (m *Multi) Publish(ctx context.Context, r *report.Report) error {
	errs := make([]error, len(m.sinks))
	var eg errgroup.Group
	for i, sink := range m.sinks {
		eg.Go(func() error {
			start := time.Now()
			err := resilience.Retry(ctx, sink.Name(), m.opts.Retry, func() error {
				return resilience.WithTimeout(ctx, m.opts.Timeout, sink.Name(), func(ctx context.Context) error {
					return sink.Publish(ctx, r)
				})
			})
			if m.opts.Metrics != nil {
				m.opts.Metrics.Published(sink.Name(), err)
			}
			if err != nil {
				m.logger.Error("report not published", "sink", sink.Name(), "run_id", r.RunID, "error", err)
				errs[i] = err
				return nil
			}
			m.logger.Info("report published", "sink", sink.Name(), "run_id", r.RunID, "duration", time.Since(start))
			return nil
		})
	}
	_ = eg.Wait()

	if err := errors.Join(errs...); err != nil {
		return &apperrors.AppError{
			Err:      apperrors.ErrPublishFailed,
			Message:  err.Error(),
			ExitCode: apperrors.ExitPublish,
		}
	}
	return nil
}

func (m *Multi) Close() error {
	var errs []error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open connects every enabled sink in cfg. A sink that cannot be reached
// fails the whole call and closes the sinks already opened.
func Open(ctx context.Context, cfg *config.Config, m *metrics.Metrics) (*Multi, error) {
	var sinks []Publisher
	fail := func(name string, err error) (*Multi, error) {
		for _, s := range sinks {
			s.Close()
		}
		return nil, apperrors.Newf(apperrors.ErrPublishFailed, apperrors.ExitPublish, "connecting %s sink: %v", name, err)
	}

	if cfg.Kafka.Enabled {
		sinks = append(sinks, NewKafkaPublisher(kafka.NewProducer(cfg.Kafka)))
	}
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(cfg.Redis)
		if err != nil {
			return fail("redis", err)
		}
		sinks = append(sinks, NewRedisPublisher(client, cfg.Redis.TTL))
	}
	if cfg.Postgres.Enabled {
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return fail("postgres", err)
		}
		pub := NewPostgresPublisher(client)
		if err := pub.EnsureSchema(ctx); err != nil {
			pub.Close()
			return fail("postgres", err)
		}
		sinks = append(sinks, pub)
	}

	return NewMulti(sinks, MultiOptions{
		Retry:   resilience.FromConfig(cfg.Publish.Retry),
		Timeout: cfg.Publish.Timeout,
		Metrics: m,
	}), nil
}
