// Package prometheus records pipeline metrics with the Prometheus client.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/custodia-labs/ragcore/internal/core/ports/driven"
)

// Ensure Recorder implements the interface.
var _ driven.Metrics = (*Recorder)(nil)

// Recorder exports embedding, search and index metrics.
type Recorder struct {
	embeddingRequests *prometheus.CounterVec
	embeddingRetries  prometheus.Counter
	embeddingDuration prometheus.Histogram
	searchDuration    *prometheus.HistogramVec
	indexEntries      prometheus.Gauge
}

// NewRecorder creates a recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		embeddingRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragcore_embedding_requests_total",
				Help: "Embedding provider calls by outcome",
			},
			[]string{"outcome"},
		),
		embeddingRetries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ragcore_embedding_retries_total",
				Help: "Embedding provider calls that were retried",
			},
		),
		embeddingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ragcore_embedding_duration_seconds",
				Help:    "Duration of embedding provider calls in seconds",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~20s
			},
		),
		searchDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragcore_search_duration_seconds",
				Help:    "Duration of vector index searches in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14), // 100µs to ~800ms
			},
			[]string{"index"},
		),
		indexEntries: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "ragcore_index_entries",
				Help: "Number of entries in the vector index",
			},
		),
	}

	collectors := []prometheus.Collector{
		r.embeddingRequests,
		r.embeddingRetries,
		r.embeddingDuration,
		r.searchDuration,
		r.indexEntries,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveEmbedding records one provider call.
func (r *Recorder) ObserveEmbedding(outcome string, _ int, elapsed time.Duration) {
	r.embeddingRequests.WithLabelValues(outcome).Inc()
	if outcome == "retry" {
		r.embeddingRetries.Inc()
	}
	r.embeddingDuration.Observe(elapsed.Seconds())
}

// ObserveSearch records one index search.
func (r *Recorder) ObserveSearch(kind string, _ int, elapsed time.Duration) {
	r.searchDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// SetIndexEntries records the current index size.
func (r *Recorder) SetIndexEntries(n int) {
	r.indexEntries.Set(float64(n))
}
