package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/report"
	apperrors "github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/resilience"
)

const (
	reportKeyPrefix = "cooccurrence:report:"
	// LatestKey holds the run id of the most recent report.
	LatestKey = "cooccurrence:latest"
	// ReportsChannel announces each stored run id.
	ReportsChannel = "cooccurrence:reports"
)

func ReportKey(runID string) string {
	return reportKeyPrefix + runID
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	SetMany(ctx context.Context, values map[string]any, ttl time.Duration) error
	Notify(ctx context.Context, channel string, message any) error
	Close() error
}

// RedisPublisher stores the report as JSON under its run key with a TTL and
// points LatestKey at it.
type RedisPublisher struct {
	store kvStore
	ttl   time.Duration
}

func NewRedisPublisher(store kvStore, ttl time.Duration) *RedisPublisher {
	return &RedisPublisher{store: store, ttl: ttl}
}

func (p *RedisPublisher) Name() string { return "redis" }

func (p *RedisPublisher) Publish(ctx context.Context, r *report.Report) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return resilience.Permanent(fmt.Errorf("encoding report %s: %w", r.RunID, err))
	}
	values := map[string]any{
		ReportKey(r.RunID): payload,
		LatestKey:          r.RunID,
	}
	if err := p.store.SetMany(ctx, values, p.ttl); err != nil {
		return fmt.Errorf("storing report %s: %w", r.RunID, err)
	}
	if err := p.store.Notify(ctx, ReportsChannel, r.RunID); err != nil {
		return fmt.Errorf("announcing report %s: %w", r.RunID, err)
	}
	return nil
}

// Latest reads back the most recently stored report.
func (p *RedisPublisher) Latest(ctx context.Context) (*report.Report, error) {
	runID, ok, err := p.store.Get(ctx, LatestKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.New(apperrors.ErrPreconditionViolation, apperrors.ExitPrecondition, "no report stored")
	}
	return p.Fetch(ctx, runID)
}

// Fetch reads back the report stored for runID.
func (p *RedisPublisher) Fetch(ctx context.Context, runID string) (*report.Report, error) {
	payload, ok, err := p.store.Get(ctx, ReportKey(runID))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, apperrors.ExitInvalidInput,
			"report %s expired or was never stored", runID)
	}
	var r report.Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return nil, fmt.Errorf("decoding report %s: %w", runID, err)
	}
	return &r, nil
}

func (p *RedisPublisher) Close() error { return p.store.Close() }
