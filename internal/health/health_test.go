// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duma799/portfolio/internal/config"
)

type mockChecker struct {
	name   string
	status Status
}

func (m *mockChecker) Name() string { return m.name }

func (m *mockChecker) Check(context.Context) CheckResult {
	return CheckResult{Status: m.status}
}

func TestManager_Health(t *testing.T) {
	m := NewManager("v1.0.0")

	resp := m.Health(context.Background(), true)
	assert.Equal(t, StatusHealthy, resp.Status)
	assert.Equal(t, "v1.0.0", resp.Version)
	assert.GreaterOrEqual(t, resp.Uptime, int64(0))
	assert.Nil(t, resp.Checks)

	m.RegisterChecker(&mockChecker{name: "cache", status: StatusDegraded})
	assert.Nil(t, m.Health(context.Background(), false).Checks, "terse liveness skips checks")

	resp = m.Health(context.Background(), true)
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Len(t, resp.Checks, 1)
}

func TestManager_Ready(t *testing.T) {
	tests := []struct {
		name      string
		statuses  []Status
		wantReady bool
		want      Status
	}{
		{"no checkers", nil, true, StatusHealthy},
		{"all healthy", []Status{StatusHealthy, StatusHealthy}, true, StatusHealthy},
		{"degraded still ready", []Status{StatusHealthy, StatusDegraded}, true, StatusDegraded},
		{"unhealthy wins", []Status{StatusUnhealthy, StatusDegraded}, false, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager("v")
			for i, s := range tt.statuses {
				m.RegisterChecker(&mockChecker{name: string(rune('a' + i)), status: s})
			}
			resp := m.Ready(context.Background())
			assert.Equal(t, tt.wantReady, resp.Ready)
			assert.Equal(t, tt.want, resp.Status)
		})
	}
}

func TestManager_ChecksGetDeadline(t *testing.T) {
	m := NewManager("v")
	m.timeout = 50 * time.Millisecond
	m.RegisterChecker(NewPingChecker("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, false))

	start := time.Now()
	resp := m.Ready(context.Background())
	assert.False(t, resp.Ready)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Contains(t, resp.Checks["slow"].Error, "deadline")
}

func TestServeHandlers(t *testing.T) {
	m := NewManager("v2")
	m.RegisterChecker(&mockChecker{name: "db", status: StatusUnhealthy})

	rec := httptest.NewRecorder()
	m.ServeHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "liveness is always 200")
	var hr HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&hr))
	assert.Equal(t, StatusUnhealthy, hr.Status)

	rec = httptest.NewRecorder()
	m.ServeReady(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestPingChecker(t *testing.T) {
	ok := NewPingChecker("redis", func(context.Context) error { return nil }, false)
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	failing := func(context.Context) error { return errors.New("conn refused") }
	assert.Equal(t, StatusUnhealthy, NewPingChecker("db", failing, false).Check(context.Background()).Status)

	res := NewPingChecker("github", failing, true).Check(context.Background())
	assert.Equal(t, StatusDegraded, res.Status)
	assert.Equal(t, "conn refused", res.Error)
}

func TestDirChecker(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(file, nil, 0o600))

	assert.Equal(t, StatusHealthy, NewDirChecker("static", dir, true).Check(context.Background()).Status)
	assert.Equal(t, StatusHealthy, NewDirChecker("static", "", true).Check(context.Background()).Status)
	assert.Equal(t, StatusDegraded, NewDirChecker("static", filepath.Join(dir, "x"), true).Check(context.Background()).Status)
	assert.Equal(t, StatusUnhealthy, NewDirChecker("data", file, false).Check(context.Background()).Status)
}

func TestFuncChecker(t *testing.T) {
	c := NewFuncChecker("breaker", func(context.Context) CheckResult {
		return CheckResult{Status: StatusDegraded, Message: "open"}
	})
	assert.Equal(t, "breaker", c.Name())
	assert.Equal(t, "open", c.Check(context.Background()).Message)
}

func TestPerformStartupChecks(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.DataDir = dir
	cfg.DatabasePath = filepath.Join(dir, "db", "portfolio.db")
	cfg.StaticDir = filepath.Join(dir, "missing-static")

	require.NoError(t, PerformStartupChecks(cfg))
	_, err := os.Stat(filepath.Join(dir, "db"))
	assert.NoError(t, err, "database directory is created")

	cfg.DataDir = filepath.Join(dir, "absent")
	assert.Error(t, PerformStartupChecks(cfg))
}
