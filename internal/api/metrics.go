// SPDX-License-Identifier: MIT

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	staticRequestsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_static_requests_denied_total",
		Help: "Static file requests denied, by reason",
	}, []string{"reason"})

	staticRequestsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_static_requests_served_total",
		Help: "Static file requests served, by result (hit=304, miss=200)",
	}, []string{"result"})
)

func recordStaticDenied(reason string) { staticRequestsDenied.WithLabelValues(reason).Inc() }

func recordStaticServed(notModified bool) {
	result := "miss"
	if notModified {
		result = "hit"
	}
	staticRequestsServed.WithLabelValues(result).Inc()
}
