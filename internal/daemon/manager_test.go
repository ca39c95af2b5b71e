// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/duma799/portfolio/internal/config"
)

func reserveListenAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func waitForListen(t *testing.T, addr string) {
	t.Helper()
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}, 3*time.Second, 20*time.Millisecond)
}

func testServerConfig(addr string) config.ServerConfig {
	return config.ServerConfig{
		ListenAddr:      addr,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		MaxHeaderBytes:  1 << 16,
		ShutdownTimeout: 3 * time.Second,
	}
}

func okHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, body)
	})
}

func TestNewManager_ValidatesDeps(t *testing.T) {
	_, err := NewManager(testServerConfig(":0"), Deps{Logger: zerolog.New(io.Discard)})
	require.ErrorIs(t, err, ErrMissingAPIHandler)

	_, err = NewManager(testServerConfig(":0"), Deps{
		Logger:     zerolog.New(io.Discard).Level(zerolog.Disabled),
		APIHandler: okHandler("ok"),
	})
	require.ErrorIs(t, err, ErrMissingLogger)
}

func TestManager_ServesAndShutsDown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	apiAddr := reserveListenAddr(t)
	metricsAddr := reserveListenAddr(t)

	m, err := NewManager(testServerConfig(apiAddr), Deps{
		Logger:         zerolog.New(io.Discard),
		APIHandler:     okHandler("api"),
		MetricsHandler: okHandler("metrics"),
		MetricsAddr:    metricsAddr,
	})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string) ShutdownHook {
		return func(context.Context) error {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, name)
			return nil
		}
	}
	m.RegisterShutdownHook("first", record("first"))
	m.RegisterShutdownHook("second", record("second"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()

	waitForListen(t, apiAddr)
	waitForListen(t, metricsAddr)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	for addr, want := range map[string]string{apiAddr: "api", metricsAddr: "metrics"} {
		resp, err := client.Get("http://" + addr + "/")
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		assert.Equal(t, want, string(body))
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("manager did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"second", "first"}, order)
}

func TestManager_StartFailsOnBusyAddress(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	m, err := NewManager(testServerConfig(ln.Addr().String()), Deps{
		Logger:     zerolog.New(io.Discard),
		APIHandler: okHandler("api"),
	})
	require.NoError(t, err)

	err = m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start API server")
}

func TestManager_ShutdownBeforeStart(t *testing.T) {
	m, err := NewManager(testServerConfig(":0"), Deps{
		Logger:     zerolog.New(io.Discard),
		APIHandler: okHandler("api"),
	})
	require.NoError(t, err)
	require.ErrorIs(t, m.Shutdown(context.Background()), ErrManagerNotStarted)
}

func TestManager_HookErrorsAreJoined(t *testing.T) {
	addr := reserveListenAddr(t)
	m, err := NewManager(testServerConfig(addr), Deps{
		Logger:     zerolog.New(io.Discard),
		APIHandler: okHandler("api"),
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	m.RegisterShutdownHook("broken", func(context.Context) error { return boom })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Start(ctx) }()
	waitForListen(t, addr)
	cancel()

	err = <-done
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "hook broken")
}

type stubManager struct {
	started chan struct{}
}

func (s *stubManager) Start(ctx context.Context) error {
	close(s.started)
	<-ctx.Done()
	return nil
}

func (s *stubManager) Shutdown(context.Context) error { return nil }

func (s *stubManager) RegisterShutdownHook(string, ShutdownHook) {}

func TestApp_RunRequiresManager(t *testing.T) {
	app := NewApp(zerolog.New(io.Discard), nil, nil, nil)
	require.ErrorIs(t, app.Run(context.Background()), ErrMissingManager)
}

func TestApp_RunStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	stub := &stubManager{started: make(chan struct{})}
	app := NewApp(zerolog.New(io.Discard), stub, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	<-stub.started
	cancel()
	require.NoError(t, <-done)
}
