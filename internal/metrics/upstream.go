// SPDX-License-Identifier: MIT

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_upstream_requests_total",
		Help: "Outbound requests by upstream, operation and status class",
	}, []string{"upstream", "operation", "status"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portfolio_upstream_request_duration_seconds",
		Help:    "Outbound request latency by upstream and operation",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"upstream", "operation"})

	upstreamCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_upstream_cache_lookups_total",
		Help: "Response cache lookups by upstream and result",
	}, []string{"upstream", "result"})
)

// RecordUpstreamRequest records one outbound call. status is the HTTP status
// code as text, or a short error class such as "timeout" or "error".
func RecordUpstreamRequest(upstream, operation, status string, d time.Duration) {
	upstreamRequests.WithLabelValues(upstream, operation, status).Inc()
	upstreamDuration.WithLabelValues(upstream, operation).Observe(d.Seconds())
}

// RecordUpstreamCacheLookup counts a response cache hit or miss.
func RecordUpstreamCacheLookup(upstream string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	upstreamCacheLookups.WithLabelValues(upstream, result).Inc()
}
