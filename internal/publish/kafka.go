package publish

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/analysis"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/internal/report"
	"github.com/Adithya-Monish-Kumar-K/Cooccurrence-Analytics/pkg/kafka"
)

// Event types carried in the "type" message header.
const (
	EventRun      = "run"
	EventRelation = "relation"
	EventRanking  = "ranking"
)

type RunEvent struct {
	RunID       string         `json:"run_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Locale      string         `json:"locale"`
	Stats       analysis.Stats `json:"stats"`
	Relations   int            `json:"relations"`
}

type RelationEvent struct {
	RunID string `json:"run_id"`
	Order int    `json:"order"`
	Seq   int    `json:"seq"`
	A     string `json:"a"`
	B     string `json:"b"`
}

type RankingEvent struct {
	RunID    string  `json:"run_id"`
	Category int     `json:"category"`
	View     string  `json:"view"`
	Rank     int     `json:"rank"`
	Term     string  `json:"term"`
	TF       int     `json:"tf"`
	IDF      float64 `json:"idf"`
}

// Events flattens a report into one run event followed by its relations and
// ranking rows, all keyed by run id so they land on one partition in order.
func Events(r *report.Report) []kafka.Event {
	events := []kafka.Event{{
		Key:  r.RunID,
		Type: EventRun,
		Value: RunEvent{
			RunID:       r.RunID,
			GeneratedAt: r.GeneratedAt,
			Locale:      r.Locale,
			Stats:       r.Stats,
			Relations:   r.Relations(),
		},
	}}
	for _, p := range r.Passes {
		for i, pair := range p.Pairs {
			events = append(events, kafka.Event{
				Key:   r.RunID,
				Type:  EventRelation,
				Value: RelationEvent{RunID: r.RunID, Order: p.Order, Seq: i, A: pair.A, B: pair.B},
			})
		}
	}
	for _, cr := range r.Rankings {
		events = appendRanking(events, r.RunID, cr.Category, "tf", cr.ByTF)
		events = appendRanking(events, r.RunID, cr.Category, "tfidf", cr.ByTFIDF)
	}
	return events
}

func appendRanking(events []kafka.Event, runID string, category int, view string, rows []report.Ranked) []kafka.Event {
	for _, row := range rows {
		events = append(events, kafka.Event{
			Key:  runID,
			Type: EventRanking,
			Value: RankingEvent{
				RunID:    runID,
				Category: category,
				View:     view,
				Rank:     row.Rank,
				Term:     row.Term,
				TF:       row.TF,
				IDF:      row.IDF,
			},
		})
	}
	return events
}

type batchProducer interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
	Close() error
}

type KafkaPublisher struct {
	producer batchProducer
}

func NewKafkaPublisher(p batchProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: p}
}

func (k *KafkaPublisher) Name() string { return "kafka" }

func (k *KafkaPublisher) Publish(ctx context.Context, r *report.Report) error {
	return k.producer.PublishBatch(ctx, Events(r))
}

func (k *KafkaPublisher) Close() error { return k.producer.Close() }
