// SPDX-License-Identifier: MIT
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	configValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portfolio_config_validation_errors_total",
		Help: "Total number of configuration validation errors",
	})

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_config_reloads_total",
		Help: "Configuration hot reloads by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	configFilesRendered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_config_files_rendered_total",
		Help: "Highlighted config file renders by detected language",
	}, []string{"language"})

	auditEventsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portfolio_audit_events_total",
		Help: "Audit events persisted by type and outcome",
	}, []string{"type", "outcome"})
)

func IncConfigValidationError() { configValidationErrors.Inc() }

// RecordConfigReload counts a hot reload attempt.
func RecordConfigReload(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	configReloads.WithLabelValues(outcome).Inc()
}

func IncConfigFileRendered(language string) { configFilesRendered.WithLabelValues(language).Inc() }

// RecordAuditEvent counts an audit event written to the store.
func RecordAuditEvent(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	auditEventsWritten.WithLabelValues(eventType, outcome).Inc()
}
