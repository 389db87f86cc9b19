package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers both the write path and the read path. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	// Ingested events by action and outcome (inserted, duplicate, rejected, failed)
	IngestOutcome *prometheus.CounterVec

	// One increment per batch fetch, labelled by entity kind
	EnrichmentFetches *prometheus.CounterVec

	// Distinct keys requested per batch fetch
	EnrichmentKeys *prometheus.HistogramVec

	// Full timeline build, authorization through rendering
	ViewerLatency prometheus.Histogram

	// Records rendered through the fallback handler
	FallbackRenders *prometheus.CounterVec
}

// New registers every metric with reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		IngestOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookingaudit_ingest_events_total",
			Help: "Booking action events handled by the write path, by action and outcome",
		}, []string{"action", "outcome"}),

		EnrichmentFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookingaudit_enrichment_fetches_total",
			Help: "Batch fetches issued while building timelines, by entity kind",
		}, []string{"kind"}),

		EnrichmentKeys: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookingaudit_enrichment_batch_keys",
			Help:    "Distinct keys per batch fetch, by entity kind",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		}, []string{"kind"}),

		ViewerLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bookingaudit_viewer_duration_seconds",
			Help:    "Duration of building one booking timeline",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),

		FallbackRenders: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bookingaudit_fallback_renders_total",
			Help: "Records rendered by the generic fallback handler, by action",
		}, []string{"action"}),
	}
}

func (m *Metrics) IncrementIngest(action, outcome string) {
	if m != nil {
		m.IngestOutcome.WithLabelValues(action, outcome).Inc()
	}
}

func (m *Metrics) ObserveBatchFetch(kind string, keys int) {
	if m != nil {
		m.EnrichmentFetches.WithLabelValues(kind).Inc()
		m.EnrichmentKeys.WithLabelValues(kind).Observe(float64(keys))
	}
}

func (m *Metrics) ObserveViewerLatency(d time.Duration) {
	if m != nil {
		m.ViewerLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementFallback(action string) {
	if m != nil {
		m.FallbackRenders.WithLabelValues(action).Inc()
	}
}
