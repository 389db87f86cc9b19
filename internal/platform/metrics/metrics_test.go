package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecorders(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementIngest("CREATED", "inserted")
	m.IncrementIngest("CREATED", "inserted")
	m.IncrementIngest("CREATED", "duplicate")
	m.ObserveBatchFetch("userUuids", 3)
	m.ObserveViewerLatency(20 * time.Millisecond)
	m.IncrementFallback("TELEPORTED")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.IngestOutcome.WithLabelValues("CREATED", "inserted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IngestOutcome.WithLabelValues("CREATED", "duplicate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EnrichmentFetches.WithLabelValues("userUuids")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackRenders.WithLabelValues("TELEPORTED")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncrementIngest("CREATED", "inserted")
		m.ObserveBatchFetch("userUuids", 1)
		m.ObserveViewerLatency(time.Second)
		m.IncrementFallback("X")
	})
}
