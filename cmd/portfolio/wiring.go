// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/duma799/portfolio/internal/api"
	"github.com/duma799/portfolio/internal/audit"
	"github.com/duma799/portfolio/internal/cache"
	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/configfile"
	"github.com/duma799/portfolio/internal/daemon"
	"github.com/duma799/portfolio/internal/github"
	"github.com/duma799/portfolio/internal/health"
	"github.com/duma799/portfolio/internal/keybind"
	"github.com/duma799/portfolio/internal/keybind/parsers"
	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/persistence/sqlite"
	"github.com/duma799/portfolio/internal/telemetry"
	"github.com/duma799/portfolio/internal/version"
)

type namedHook struct {
	name string
	fn   daemon.ShutdownHook
}

// stack is the wired service graph for one daemon run.
type stack struct {
	deps     daemon.Deps
	hooks    []namedHook
	onReload daemon.ReloadFunc

	onReloadFailure func(ctx context.Context, err error)
}

// close runs the hooks in reverse order. Used when the manager never starts.
func (s *stack) close(ctx context.Context) {
	for i := len(s.hooks) - 1; i >= 0; i-- {
		_ = s.hooks[i].fn(ctx)
	}
}

// holderRepos resolves platforms against the live configuration so reloads
// take effect on the next cache miss.
type holderRepos struct {
	holder *config.ConfigHolder
}

func (r holderRepos) RepoFor(p keybind.Platform) (string, bool) {
	repo, ok := r.holder.Repos()[p.String()]
	return repo, ok && repo != ""
}

type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

func newGitHubClient(cfg config.AppConfig) (*github.Client, error) {
	return github.NewClient(github.Options{
		APIURL:            cfg.GitHub.APIURL,
		RawURL:            cfg.GitHub.RawURL,
		Token:             cfg.GitHub.Token,
		UserAgent:         "portfolio/" + version.Version,
		Timeout:           cfg.GitHub.Timeout,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
	})
}

func buildStack(ctx context.Context, holder *config.ConfigHolder, logger zerolog.Logger) (*stack, error) {
	cfg := holder.Get()
	st := &stack{}
	fail := func(err error) (*stack, error) {
		st.close(context.WithoutCancel(ctx))
		return nil, err
	}

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version.Version,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fail(fmt.Errorf("init telemetry: %w", err))
	}
	st.hooks = append(st.hooks, namedHook{"telemetry", tp.Shutdown})

	c, err := cache.New(ctx, cache.Config{
		Backend:         cfg.Cache.Backend,
		CleanupInterval: cfg.Cache.CleanupInterval,
		BadgerDir:       cfg.Cache.BadgerDir,
		Redis: cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		},
	}, log.WithComponent("cache"))
	if err != nil {
		return fail(fmt.Errorf("init cache: %w", err))
	}
	if closer, ok := c.(io.Closer); ok {
		st.hooks = append(st.hooks, namedHook{"cache", func(context.Context) error { return closer.Close() }})
	}

	store, err := audit.OpenStore(cfg.DatabasePath)
	if err != nil {
		return fail(fmt.Errorf("open audit store: %w", err))
	}
	st.hooks = append(st.hooks, namedHook{"audit-store", func(context.Context) error { return store.Close() }})
	auditLog := audit.NewLogger(store)

	client, err := newGitHubClient(cfg)
	if err != nil {
		return fail(err)
	}
	gh := github.NewService(client, func() github.Settings {
		cur := holder.Get()
		return github.Settings{Username: cur.GitHub.Username, Repos: cur.Repos}
	}, c, cfg.GitHub.CacheTTL)

	keybinds := keybind.NewService(client, holderRepos{holder}, parsers.DefaultSources(),
		keybind.WithLogger(log.WithComponent("keybinds")))
	configs := configfile.NewService(client)

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewPingChecker("audit_store", store.Ping, false))
	hm.RegisterChecker(health.NewDirChecker("data_dir", cfg.DataDir, false))
	if hc, ok := c.(healthChecker); ok {
		hm.RegisterChecker(health.NewPingChecker("cache", hc.HealthCheck, true))
	}

	srv, err := api.New(api.Deps{
		Keybinds:    keybinds,
		Configs:     configs,
		GitHub:      gh,
		Health:      hm,
		Settings:    holder.Get,
		Audit:       auditLog,
		AuditReader: store,
		Version:     version.Version,
	})
	if err != nil {
		return fail(fmt.Errorf("create api server: %w", err))
	}

	st.deps = daemon.Deps{
		Logger:         logger,
		APIHandler:     srv.Handler(),
		MetricsHandler: promhttp.Handler(),
		MetricsAddr:    cfg.MetricsListenAddr,
	}
	st.onReload = func(ctx context.Context, _ config.AppConfig) {
		keybinds.ClearCache()
		gh.ClearCache()
		auditLog.ConfigReload(ctx, "system", nil)
	}
	st.onReloadFailure = func(ctx context.Context, err error) {
		auditLog.ConfigReload(ctx, "system", err)
	}
	return st, nil
}

// verifyDatabase runs a quick integrity check on an existing database file.
// A fresh install has nothing to check.
func verifyDatabase(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	problems, err := sqlite.VerifyIntegrity(path, sqlite.VerifyQuick)
	if err != nil {
		return fmt.Errorf("verify database: %w", err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("database %s failed integrity check: %v", path, problems)
	}
	return nil
}
