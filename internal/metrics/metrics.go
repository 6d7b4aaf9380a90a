// Package metrics exposes Prometheus instrumentation for the aggregation pipeline.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "jobradar"

// Fetch outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeEmpty   = "empty"
	OutcomeFailed  = "failed"
	OutcomePanic   = "panic"
	OutcomeSkipped = "skipped"
)

// Metrics holds the collectors shared by fetchers, the aggregator and the publisher.
type Metrics struct {
	FetchTotal        *prometheus.CounterVec
	FetchJobs         *prometheus.CounterVec
	AggregateDuration prometheus.Histogram
	AggregateJobs     prometheus.Gauge
	Abandoned         prometheus.Counter
	CacheReads        *prometheus.CounterVec
	Published         prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		FetchTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_total",
			Help:      "Source fetches by outcome.",
		}, []string{"source", "outcome"}),
		FetchJobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_jobs_total",
			Help:      "Normalized jobs returned per source.",
		}, []string{"source"}),
		AggregateDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_duration_seconds",
			Help:      "Wall time of one fan-out pass.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 15, 20, 30},
		}),
		AggregateJobs: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregate_jobs",
			Help:      "Jobs in the last stored snapshot.",
		}),
		Abandoned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetchers_abandoned_total",
			Help:      "Fetchers still running when the fan-out deadline expired.",
		}),
		CacheReads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_reads_total",
			Help:      "Cache reads by result.",
		}, []string{"result"}),
		Published: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "published_total",
			Help:      "Jobs written to the snapshot topic.",
		}),
	}
}

func (m *Metrics) ObserveFetch(source, outcome string, jobs int) {
	if m == nil {
		return
	}
	m.FetchTotal.WithLabelValues(source, outcome).Inc()
	if jobs > 0 {
		m.FetchJobs.WithLabelValues(source).Add(float64(jobs))
	}
}

func (m *Metrics) ObserveAggregate(d time.Duration, abandoned int) {
	if m == nil {
		return
	}
	m.AggregateDuration.Observe(d.Seconds())
	if abandoned > 0 {
		m.Abandoned.Add(float64(abandoned))
	}
}

func (m *Metrics) SetStoredJobs(n int) {
	if m == nil {
		return
	}
	m.AggregateJobs.Set(float64(n))
}

func (m *Metrics) CacheRead(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheReads.WithLabelValues(result).Inc()
}

func (m *Metrics) AddPublished(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Published.Add(float64(n))
}
