// SPDX-License-Identifier: MIT

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/duma799/portfolio/internal/persistence/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	ts          INTEGER NOT NULL,
	type        TEXT    NOT NULL,
	actor       TEXT    NOT NULL,
	action      TEXT    NOT NULL,
	resource    TEXT    NOT NULL,
	result      TEXT    NOT NULL,
	remote_addr TEXT    NOT NULL DEFAULT '',
	user_agent  TEXT    NOT NULL DEFAULT '',
	request_id  TEXT    NOT NULL DEFAULT '',
	details     TEXT    NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_audit_events_ts ON audit_events (ts DESC);
`

// MaxRecent caps Recent regardless of the requested limit.
const MaxRecent = 500

// ErrStoreClosed is returned after Close.
var ErrStoreClosed = errors.New("audit store closed")

// Store persists audit events in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and migrates) the database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sqlite.Open(path, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("audit: migrate schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Append implements Sink.
func (s *Store) Append(ctx context.Context, ev Event) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	details := []byte("{}")
	if len(ev.Details) > 0 {
		var err error
		if details, err = json.Marshal(ev.Details); err != nil {
			return fmt.Errorf("audit: encode details: %w", err)
		}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (ts, type, actor, action, resource, result, remote_addr, user_agent, request_id, details)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Timestamp.UnixMilli(), string(ev.Type), ev.Actor, ev.Action, ev.Resource, ev.Result,
		ev.RemoteAddr, ev.UserAgent, ev.RequestID, string(details))
	if err != nil {
		return fmt.Errorf("audit: insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. limit <= 0 or above
// MaxRecent is clamped to MaxRecent.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if s == nil || s.db == nil {
		return nil, ErrStoreClosed
	}
	if limit <= 0 || limit > MaxRecent {
		limit = MaxRecent
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ts, type, actor, action, resource, result, remote_addr, user_agent, request_id, details
		 FROM audit_events ORDER BY ts DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			ev      Event
			ts      int64
			typ     string
			details string
		)
		if err := rows.Scan(&ev.ID, &ts, &typ, &ev.Actor, &ev.Action, &ev.Resource, &ev.Result,
			&ev.RemoteAddr, &ev.UserAgent, &ev.RequestID, &details); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		ev.Timestamp = time.UnixMilli(ts).UTC()
		ev.Type = EventType(typ)
		if details != "" && details != "{}" {
			if err := json.Unmarshal([]byte(details), &ev.Details); err != nil {
				return nil, fmt.Errorf("audit: decode details of event %d: %w", ev.ID, err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return events, nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return ErrStoreClosed
	}
	return s.db.PingContext(ctx)
}

// Close releases the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
