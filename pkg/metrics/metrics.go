// Package metrics defines the Prometheus collectors of the analysis pipeline
// and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cooccurrence"

// Metrics holds all Prometheus collectors for the pipeline.
type Metrics struct {
	DocumentsDiscovered *prometheus.CounterVec
	TokensIngested      prometheus.Counter
	TermsTruncated      prometheus.Counter
	DictionaryTerms     prometheus.Gauge
	GraphEdges          prometheus.Gauge
	RelationsReported   *prometheus.CounterVec
	StageDuration       *prometheus.HistogramVec
	PublishTotal        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New creates the collectors and registers them with reg. A nil reg uses a
// fresh private registry, so repeated runs in one process never collide.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		DocumentsDiscovered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "documents_discovered_total",
				Help:      "Documents discovered per category.",
			},
			[]string{"category"},
		),
		TokensIngested: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tokens_ingested_total",
				Help:      "Tokens recorded in the incidence store.",
			},
		),
		TermsTruncated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "terms_truncated_total",
				Help:      "Tokens cut to the maximum term length.",
			},
		),
		DictionaryTerms: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dictionary_terms",
				Help:      "Distinct terms in the dictionary.",
			},
		),
		GraphEdges: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "graph_edges",
				Help:      "Undirected edges in the co-occurrence graph.",
			},
		),
		RelationsReported: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "relations_reported_total",
				Help:      "Relations reported by enumeration order.",
			},
			[]string{"order"},
		),
		StageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "stage_duration_seconds",
				Help:      "Wall time of each pipeline stage.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"stage"},
		),
		PublishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "publish_total",
				Help:      "Report publications by sink and status.",
			},
			[]string{"sink", "status"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.DocumentsDiscovered,
		m.TokensIngested,
		m.TermsTruncated,
		m.DictionaryTerms,
		m.GraphEdges,
		m.RelationsReported,
		m.StageDuration,
		m.PublishTotal,
	)
	return m
}

// ObserveStage records how long a stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

func (m *Metrics) AddRelations(order, n int) {
	m.RelationsReported.WithLabelValues(strconv.Itoa(order)).Add(float64(n))
}

func (m *Metrics) Published(sink string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.PublishTotal.WithLabelValues(sink, status).Inc()
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
