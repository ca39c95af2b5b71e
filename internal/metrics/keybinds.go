// SPDX-License-Identifier: MIT

// Package metrics provides the Prometheus collectors shared across the
// portfolio services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	keybindCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_keybind_cache_lookups_total",
		Help: "Keybind cache lookups by platform and result",
	}, []string{"platform", "result"}) // result=hit|miss

	keybindsParsed = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "portfolio_keybinds_parsed",
		Help: "Keybinds produced by the last successful parse, by platform and source",
	}, []string{"platform", "source"})

	keybindFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_keybind_fallbacks_total",
		Help: "Times a platform fell through its preferred source to the next one",
	}, []string{"platform", "from"})

	keybindCacheClears = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_keybind_cache_clears_total",
		Help: "Explicit keybind cache invalidations",
	})
)

// RecordKeybindCacheLookup counts a cache hit or miss for platform.
func RecordKeybindCacheLookup(platform string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	keybindCacheLookups.WithLabelValues(platform, result).Inc()
}

// RecordKeybindsParsed records how many bindings a source produced.
func RecordKeybindsParsed(platform, source string, n int) {
	keybindsParsed.WithLabelValues(platform, source).Set(float64(n))
}

// IncKeybindFallback counts a fallthrough away from source from.
func IncKeybindFallback(platform, from string) {
	keybindFallbacks.WithLabelValues(platform, from).Inc()
}

func IncKeybindCacheClear() { keybindCacheClears.Inc() }
