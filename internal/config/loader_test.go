// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duma799/portfolio/internal/validate"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("PORTFOLIO_DATA", dataDir)

	cfg, err := NewLoader("", "1.2.3").Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultAppName, cfg.AppName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, ":8000", cfg.APIListenAddr)
	assert.Empty(t, cfg.MetricsListenAddr)
	assert.Equal(t, "duma799", cfg.GitHub.Username)
	assert.Equal(t, time.Hour, cfg.GitHub.CacheTTL)
	assert.Equal(t, DefaultRepos(), cfg.Repos)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 10, cfg.RateLimit.RefreshPerMinute)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, filepath.Join(dataDir, "portfolio.db"), cfg.DatabasePath)
	assert.Equal(t, filepath.Join(dataDir, "cache"), cfg.Cache.BadgerDir)
	assert.Equal(t, "1.2.3", cfg.Version)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
appName: Test Folio
dataDir: `+dir+`
api:
  listenAddr: ":9000"
metrics:
  listenAddr: ":9100"
github:
  username: someone
  cacheTTL: 10m
  requestsPerSecond: 2.5
repos:
  Hyprland: someone/hypr
cache:
  backend: redis
  redis:
    addr: localhost:6379
    db: 2
rateLimit:
  enabled: false
server:
  shutdownTimeout: 20s
`)

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, "Test Folio", cfg.AppName)
	assert.Equal(t, ":9000", cfg.APIListenAddr)
	assert.Equal(t, ":9100", cfg.MetricsListenAddr)
	assert.Equal(t, "someone", cfg.GitHub.Username)
	assert.Equal(t, 10*time.Minute, cfg.GitHub.CacheTTL)
	assert.InDelta(t, 2.5, cfg.GitHub.RequestsPerSecond, 1e-9)
	assert.Equal(t, map[string]string{"hyprland": "someone/hypr"}, cfg.Repos)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, 20*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "dataDir: "+dir+"\ngithub:\n  username: from-file\n  token: file-token\n")

	t.Setenv("PORTFOLIO_GITHUB_USERNAME", "from-env")
	t.Setenv("PORTFOLIO_REPOS", "yabai=a/b, hyprland = c/d")
	t.Setenv("PORTFOLIO_ALLOWED_ORIGINS", "https://duma.dev, http://localhost:3000")
	t.Setenv("GITHUB_TOKEN", "ci-token")

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.GitHub.Username)
	assert.Equal(t, "ci-token", cfg.GitHub.Token)
	assert.Equal(t, map[string]string{"yabai": "a/b", "hyprland": "c/d"}, cfg.Repos)
	assert.Equal(t, []string{"https://duma.dev", "http://localhost:3000"}, cfg.AllowedOrigins)

	t.Setenv("PORTFOLIO_GITHUB_TOKEN", "explicit")
	cfg, err = NewLoader(path, "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.GitHub.Token)
}

func TestLoad_DebugImpliesDebugLevel(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA", t.TempDir())
	t.Setenv("PORTFOLIO_DEBUG", "true")

	cfg, err := NewLoader("", "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)

	t.Setenv("PORTFOLIO_LOG_LEVEL", "warn")
	cfg, err = NewLoader("", "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel, "an explicit level wins over debug")
}

func TestLoad_StrictFile(t *testing.T) {
	dir := t.TempDir()

	_, err := NewLoader(writeConfig(t, dir, "dataDir: "+dir+"\nbouquets: [x]\n"), "dev").Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownConfigField)

	_, err = NewLoader(writeConfig(t, dir, "appName: a\n---\nappName: b\n"), "dev").Load()
	assert.ErrorContains(t, err, "multiple documents")

	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte("{}"), 0o600))
	_, err = NewLoader(jsonPath, "dev").Load()
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = NewLoader(filepath.Join(dir, "absent.yaml"), "dev").Load()
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA", t.TempDir())
	path := writeConfig(t, t.TempDir(), "")

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultAppName, cfg.AppName)
}

func TestLoad_InvalidEnvRepos(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA", t.TempDir())
	t.Setenv("PORTFOLIO_REPOS", "hyprland")

	_, err := NewLoader("", "dev").Load()

	var verr validate.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields(), "repos")
}

func TestLoader_TracksConsumedEnvKeys(t *testing.T) {
	t.Setenv("PORTFOLIO_DATA", t.TempDir())
	l := NewLoader("", "dev")
	_, err := l.Load()
	require.NoError(t, err)

	for _, key := range []string{"PORTFOLIO_LISTEN", "PORTFOLIO_GITHUB_TOKEN", "GITHUB_TOKEN", "PORTFOLIO_REPOS", "PORTFOLIO_CACHE_BACKEND"} {
		assert.Contains(t, l.ConsumedEnvKeys, key)
	}
}

func TestValidate(t *testing.T) {
	valid := func() AppConfig {
		cfg := Defaults()
		cfg.DataDir = t.TempDir()
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "portfolio.db")
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*AppConfig)
		field  string
	}{
		{"log level", func(c *AppConfig) { c.LogLevel = "loud" }, "logLevel"},
		{"listen addr", func(c *AppConfig) { c.APIListenAddr = "nope" }, "api.listenAddr"},
		{"metrics clash", func(c *AppConfig) { c.MetricsListenAddr = c.APIListenAddr }, "metrics.listenAddr"},
		{"api url", func(c *AppConfig) { c.GitHub.APIURL = "ftp://x" }, "github.apiURL"},
		{"rps", func(c *AppConfig) { c.GitHub.RequestsPerSecond = 0 }, "github.requestsPerSecond"},
		{"repo slug", func(c *AppConfig) { c.Repos["yabai"] = "not-a-slug" }, "repos.yabai"},
		{"backend", func(c *AppConfig) { c.Cache.Backend = "memcached" }, "cache.backend"},
		{"redis addr", func(c *AppConfig) { c.Cache.Backend = "redis" }, "cache.redis.addr"},
		{"rate limit", func(c *AppConfig) { c.RateLimit.RefreshPerMinute = 0 }, "rateLimit.refreshPerMinute"},
		{"telemetry exporter", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = "localhost:4317"
			c.Telemetry.Exporter = "zipkin"
		}, "telemetry.exporter"},
		{"sampling", func(c *AppConfig) {
			c.Telemetry.Enabled = true
			c.Telemetry.Endpoint = "localhost:4317"
			c.Telemetry.SamplingRate = 2
		}, "telemetry.samplingRate"},
		{"origin", func(c *AppConfig) { c.AllowedOrigins = []string{"duma.dev"} }, "allowedOrigins"},
		{"proxy", func(c *AppConfig) { c.TrustedProxies = []string{"10.0.0.0/33"} }, "trustedProxies"},
	}

	require.NoError(t, Validate(valid()))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			var verr validate.ValidationError
			require.ErrorAs(t, Validate(cfg), &verr)
			assert.Contains(t, verr.Fields(), tt.field)
		})
	}
}

func TestParseRepos(t *testing.T) {
	got, err := ParseRepos("Yabai=a/b,,hyprland=c/d ")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"yabai": "a/b", "hyprland": "c/d"}, got)

	_, err = ParseRepos("=a/b")
	assert.Error(t, err)
}

func TestServerConfigFor(t *testing.T) {
	cfg := Defaults()
	cfg.APIListenAddr = ":9999"
	cfg.Server.ShutdownTimeout = time.Second
	cfg.Server.ReadTimeout = 0

	sc := ServerConfigFor(cfg)
	assert.Equal(t, ":9999", sc.ListenAddr)
	assert.Equal(t, 3*time.Second, sc.ShutdownTimeout, "clamped to the minimum")
	assert.Equal(t, defaultReadTimeout, sc.ReadTimeout)
	assert.Equal(t, defaultMaxHeaderBytes, sc.MaxHeaderBytes)
}

func TestAppConfig_CloneIsDeep(t *testing.T) {
	cfg := Defaults()
	cfg.AllowedOrigins = []string{"https://a"}
	clone := cfg.Clone()

	clone.Repos["yabai"] = "x/y"
	clone.AllowedOrigins[0] = "https://b"

	assert.Equal(t, "duma799/yabaduma-config", cfg.Repos["yabai"])
	assert.Equal(t, "https://a", cfg.AllowedOrigins[0])
}
