// Package metrics exposes prometheus collectors for search, embedding and
// vector index activity on a private registry.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

type recallMetrics struct {
	registry *prometheus.Registry

	searchTotal    *prometheus.CounterVec
	searchDuration *prometheus.HistogramVec
	degradedTotal  *prometheus.CounterVec

	embeddingTotal   *prometheus.CounterVec
	embeddedChunks   *prometheus.CounterVec
	embeddingLatency prometheus.Histogram

	indexEntries    prometheus.Gauge
	rebuildTotal    *prometheus.CounterVec
	rebuildDuration prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *recallMetrics
)

func getMetrics() *recallMetrics {
	metricsOnce.Do(func() {
		m := &recallMetrics{
			registry: prometheus.NewRegistry(),
			searchTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_search_requests_total",
					Help: "Total search requests by mode and outcome.",
				},
				[]string{"mode", "outcome"},
			),
			searchDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recall_search_duration_seconds",
					Help:    "Search duration in seconds by mode.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"mode"},
			),
			degradedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_search_degraded_total",
					Help: "Hybrid searches that ran on one signal, by missing signal.",
				},
				[]string{"missing"},
			),
			embeddingTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_embedding_requests_total",
					Help: "Embedding provider calls by outcome.",
				},
				[]string{"outcome"},
			),
			embeddedChunks: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_embedded_chunks_total",
					Help: "Chunks processed by embedding jobs, by outcome.",
				},
				[]string{"outcome"},
			),
			embeddingLatency: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "recall_embedding_duration_seconds",
					Help:    "Embedding provider call duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			indexEntries: prometheus.NewGauge(
				prometheus.GaugeOpts{
					Name: "recall_vector_index_entries",
					Help: "Vectors in the current in-memory index.",
				},
			),
			rebuildTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_vector_index_rebuilds_total",
					Help: "Vector index rebuilds by outcome.",
				},
				[]string{"outcome"},
			),
			rebuildDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "recall_vector_index_rebuild_duration_seconds",
					Help:    "Vector index rebuild duration in seconds.",
					Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
				},
			),
		}

		m.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			m.searchTotal,
			m.searchDuration,
			m.degradedTotal,
			m.embeddingTotal,
			m.embeddedChunks,
			m.embeddingLatency,
			m.indexEntries,
			m.rebuildTotal,
			m.rebuildDuration,
		)
		metricsInst = m
	})
	return metricsInst
}

// Handler serves the registry in the prometheus text format.
func Handler() http.Handler {
	m := getMetrics()
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveSearch records one search request.
func ObserveSearch(mode string, err error, elapsed time.Duration) {
	m := getMetrics()
	m.searchTotal.WithLabelValues(mode, outcome(err)).Inc()
	m.searchDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
}

// IncDegraded records a hybrid search that ran without one signal
// ("lexical" or "semantic").
func IncDegraded(missing string) {
	getMetrics().degradedTotal.WithLabelValues(missing).Inc()
}

// ObserveEmbeddingCall records one provider call.
func ObserveEmbeddingCall(err error, elapsed time.Duration) {
	m := getMetrics()
	m.embeddingTotal.WithLabelValues(outcome(err)).Inc()
	m.embeddingLatency.Observe(elapsed.Seconds())
}

// AddEmbeddedChunks records the result of an embedding job.
func AddEmbeddedChunks(succeeded, failed int) {
	m := getMetrics()
	m.embeddedChunks.WithLabelValues(OutcomeOK).Add(float64(succeeded))
	m.embeddedChunks.WithLabelValues(OutcomeError).Add(float64(failed))
}

// ObserveRebuild records a vector index rebuild and, on success, the new size.
func ObserveRebuild(entries int, err error, elapsed time.Duration) {
	m := getMetrics()
	m.rebuildTotal.WithLabelValues(outcome(err)).Inc()
	m.rebuildDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.indexEntries.Set(float64(entries))
	}
}

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
