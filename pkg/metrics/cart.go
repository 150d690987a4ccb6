package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// CartMetrics records cart mutations, badge counts and storage failures.
type CartMetrics struct {
	mutations       *prometheus.CounterVec
	badgeCount      prometheus.Histogram
	storageFailures *prometheus.CounterVec
	checkouts       prometheus.Counter
	streams         prometheus.Gauge
}

// NewCartMetrics registers the cart metrics on the provided registerer.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations applied, by operation.",
	}, []string{"op"})
	badgeCount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_badge_count",
		Help:    "Item count exposed on the header badge after each write.",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
	})
	storageFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_storage_failures_total",
		Help: "Swallowed storage failures, by operation.",
	}, []string{"op"})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_checkouts_total",
		Help: "Completed checkout simulations.",
	})
	streams := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_event_streams",
		Help: "Open cart event streams.",
	})
	reg.MustRegister(mutations, badgeCount, storageFailures, checkouts, streams)
	return &CartMetrics{
		mutations:       mutations,
		badgeCount:      badgeCount,
		storageFailures: storageFailures,
		checkouts:       checkouts,
		streams:         streams,
	}
}

// IncMutation counts one applied mutation.
func (c *CartMetrics) IncMutation(op string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// ObserveBadgeCount records the count published with a snapshot.
func (c *CartMetrics) ObserveBadgeCount(count int) {
	if c == nil || c.badgeCount == nil {
		return
	}
	c.badgeCount.Observe(float64(count))
}

// IncStorageFailure counts a read or write failure that was degraded silently.
func (c *CartMetrics) IncStorageFailure(op string) {
	if c == nil || c.storageFailures == nil {
		return
	}
	c.storageFailures.WithLabelValues(normalizeLabel(op)).Inc()
}

func (c *CartMetrics) IncCheckout() {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.Inc()
}

// StreamOpened and StreamClosed track live SSE subscribers.
func (c *CartMetrics) StreamOpened() {
	if c == nil || c.streams == nil {
		return
	}
	c.streams.Inc()
}

func (c *CartMetrics) StreamClosed() {
	if c == nil || c.streams == nil {
		return
	}
	c.streams.Dec()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
