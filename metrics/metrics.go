// Package metrics exposes Prometheus instrumentation for ingestion and search.
//
// A nil *Metrics is valid and records nothing, so components take one as an
// optional dependency.
package metrics

import (
	"net/http"
	"time"

	"github.com/poiesic/cookbook/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cookbook"

// Search outcomes.
const (
	SearchReranked = "reranked"
	SearchFallback = "fallback"
	SearchFailed   = "failed"
	SearchEmpty    = "empty"
)

// Metrics holds the collectors shared by the ingestion and search paths.
type Metrics struct {
	jobs           *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	recipes        *prometheus.CounterVec
	indexFailures  prometheus.Counter
	searches       *prometheus.CounterVec
	searchDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      "Ingestion jobs by terminal status.",
		}, []string{"status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each ingestion stage.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		}, []string{"stage"}),
		recipes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipes_stored_total",
			Help:      "Recipe writes by result (created or merged).",
		}, []string{"result"}),
		indexFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "index_failures_total",
			Help:      "Records stored but not indexed.",
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "searches_total",
			Help:      "Searches by outcome.",
		}, []string{"outcome"}),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_duration_seconds",
			Help:      "End to end search latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	for _, c := range []prometheus.Collector{
		m.jobs, m.stageDuration, m.recipes, m.indexFailures, m.searches, m.searchDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// JobFinished counts a job by its terminal status.
func (m *Metrics) JobFinished(code core.StatusCode) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(string(code)).Inc()
}

// ObserveStage records how long stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecipeStored counts one upsert.
func (m *Metrics) RecipeStored(created bool) {
	if m == nil {
		return
	}
	result := "merged"
	if created {
		result = "created"
	}
	m.recipes.WithLabelValues(result).Inc()
}

// IndexFailed counts a record that could not be indexed.
func (m *Metrics) IndexFailed() {
	if m == nil {
		return
	}
	m.indexFailures.Inc()
}

// SearchFinished counts a search by outcome and records its latency.
func (m *Metrics) SearchFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
	m.searchDuration.Observe(d.Seconds())
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
