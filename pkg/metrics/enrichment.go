package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomePatched = "patched"
	OutcomeStale   = "stale"
	OutcomeFailed  = "failed"
)

// EnrichmentMetrics records product API traffic and enrichment outcomes.
type EnrichmentMetrics struct {
	outcomes *prometheus.CounterVec
	duration prometheus.Histogram
	requests *prometheus.CounterVec
}

// NewEnrichmentMetrics registers the enrichment metrics on the provided registerer.
func NewEnrichmentMetrics(reg prometheus.Registerer) *EnrichmentMetrics {
	if reg == nil {
		return &EnrichmentMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_enrichment_total",
		Help: "Enrichment tasks by outcome (patched, stale, failed).",
	}, []string{"outcome"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cart_enrichment_duration_seconds",
		Help:    "Duration of enrichment tasks in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_api_requests_total",
		Help: "Product API requests by endpoint and status class.",
	}, []string{"endpoint", "status"})
	reg.MustRegister(outcomes, duration, requests)
	return &EnrichmentMetrics{
		outcomes: outcomes,
		duration: duration,
		requests: requests,
	}
}

// ObserveTask records the outcome and duration of one enrichment task.
func (e *EnrichmentMetrics) ObserveTask(outcome string, duration time.Duration) {
	if e == nil || e.outcomes == nil {
		return
	}
	e.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
	e.duration.Observe(duration.Seconds())
}

// IncRequest counts one product API call. status is the HTTP status class
// ("2xx", "4xx") or "error" for transport failures.
func (e *EnrichmentMetrics) IncRequest(endpoint, status string) {
	if e == nil || e.requests == nil {
		return
	}
	e.requests.WithLabelValues(normalizeLabel(endpoint), normalizeLabel(status)).Inc()
}
