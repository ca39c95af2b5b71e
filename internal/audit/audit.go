// SPDX-License-Identifier: MIT

// Package audit records operational events such as cache refreshes and
// configuration reloads. Events go to the structured log and, when a store
// is attached, to SQLite for later inspection.
package audit

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/metrics"
)

// EventType represents the type of audit event.
type EventType string

const (
	EventConfigReload      EventType = "config.reload"
	EventConfigReloadError EventType = "config.reload.error"

	EventCacheRefresh EventType = "cache.refresh"

	EventAPIRateLimit EventType = "api.ratelimit"
)

// Result values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultDenied  = "denied"
)

// Event represents a structured audit event.
type Event struct {
	ID         int64             `json:"id,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
	Type       EventType         `json:"type"`
	Actor      string            `json:"actor"`    // WHO: client address or "system"
	Action     string            `json:"action"`   // WHAT: human-readable description
	Resource   string            `json:"resource"` // affected endpoint, cache or file
	Result     string            `json:"result"`
	RemoteAddr string            `json:"remote_addr,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// Sink persists events.
type Sink interface {
	Append(ctx context.Context, ev Event) error
}

// Logger writes audit events to the log and the optional sink.
type Logger struct {
	logger zerolog.Logger
	sink   Sink
	now    func() time.Time
}

// NewLogger creates an audit logger with a dedicated "audit" component.
// sink may be nil.
func NewLogger(sink Sink) *Logger {
	return &Logger{
		logger: log.WithComponent("audit").With().Str("log_type", "audit").Logger(),
		sink:   sink,
		now:    time.Now,
	}
}

// Log writes ev. Sink failures are logged and counted, never returned.
func (l *Logger) Log(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = l.now().UTC()
	}
	if ev.RequestID == "" {
		ev.RequestID = log.RequestIDFromContext(ctx)
	}
	if ev.RequestID == "" {
		ev.RequestID = log.CorrelationIDFromContext(ctx)
	}

	logEvent := l.logger.Info().
		Time("timestamp", ev.Timestamp).
		Str("event_type", string(ev.Type)).
		Str("actor", ev.Actor).
		Str("action", ev.Action).
		Str("resource", ev.Resource).
		Str("result", ev.Result)
	if ev.RemoteAddr != "" {
		logEvent.Str("remote_addr", ev.RemoteAddr)
	}
	if ev.UserAgent != "" {
		logEvent.Str("user_agent", ev.UserAgent)
	}
	if ev.RequestID != "" {
		logEvent.Str(log.FieldRequestID, ev.RequestID)
	}
	for k, v := range ev.Details {
		logEvent.Str(k, v)
	}
	logEvent.Msg("audit event")

	if l.sink == nil {
		return
	}
	err := l.sink.Append(ctx, ev)
	metrics.RecordAuditEvent(string(ev.Type), err)
	if err != nil {
		l.logger.Warn().Err(err).Str(log.FieldEvent, "audit.persist_failed").Msg("failed to persist audit event")
	}
}

// ConfigReload records a configuration reload attempt.
func (l *Logger) ConfigReload(ctx context.Context, actor string, err error) {
	ev := Event{
		Type:     EventConfigReload,
		Actor:    actor,
		Action:   "reloaded configuration",
		Resource: "config",
		Result:   ResultSuccess,
	}
	if err != nil {
		ev.Type = EventConfigReloadError
		ev.Result = ResultFailure
		ev.Details = map[string]string{"error": err.Error()}
	}
	l.Log(ctx, ev)
}

// CacheRefresh records a cache clear requested by a client or by a reload.
func (l *Logger) CacheRefresh(ctx context.Context, actor, resource string, entries int) {
	l.Log(ctx, Event{
		Type:       EventCacheRefresh,
		Actor:      actor,
		Action:     "cleared cache",
		Resource:   resource,
		Result:     ResultSuccess,
		RemoteAddr: actorAddr(actor),
		Details:    map[string]string{"entries": strconv.Itoa(entries)},
	})
}

// RateLimitExceeded records a rejected request.
func (l *Logger) RateLimitExceeded(ctx context.Context, remoteAddr, endpoint string) {
	l.Log(ctx, Event{
		Type:       EventAPIRateLimit,
		Actor:      remoteAddr,
		Action:     "rate limit exceeded",
		Resource:   endpoint,
		Result:     ResultDenied,
		RemoteAddr: remoteAddr,
	})
}

func actorAddr(actor string) string {
	if actor == "system" {
		return ""
	}
	return actor
}
