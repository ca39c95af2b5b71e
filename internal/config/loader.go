// SPDX-License-Identifier: MIT

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied before the file and environment layers.
const (
	DefaultAppName         = "Duma Portfolio"
	DefaultLogLevel        = "info"
	DefaultDataDir         = "./data"
	DefaultStaticDir       = "./static"
	DefaultListenAddr      = ":8000"
	DefaultGitHubUsername  = "duma799"
	DefaultGitHubAPIURL    = "https://api.github.com"
	DefaultGitHubRawURL    = "https://raw.githubusercontent.com"
	DefaultGitHubCacheTTL  = time.Hour
	DefaultGitHubRPS       = 5.0
	DefaultGitHubBurst     = 5
	DefaultGitHubTimeout   = 10 * time.Second
	DefaultCacheBackend    = "memory"
	DefaultCleanupInterval = 5 * time.Minute
	DefaultRequestsPerMin  = 600
	DefaultRefreshPerMin   = 10
	DefaultTelemetryExport = "grpc"
	DefaultSamplingRate    = 1.0
	databaseFileName       = "portfolio.db"
)

// DefaultRepos returns the stock platform → repository mapping.
func DefaultRepos() map[string]string {
	return map[string]string{
		"hyprland": "duma799/hyprduma-config",
		"yabai":    "duma799/yabaduma-config",
	}
}

// Loader handles configuration loading with precedence
type Loader struct {
	configPath      string
	version         string
	ConsumedEnvKeys map[string]struct{} // Mechanical tracking of consumed keys
}

// NewLoader creates a new configuration loader
func NewLoader(configPath, version string) *Loader {
	return &Loader{
		configPath:      configPath,
		version:         version,
		ConsumedEnvKeys: make(map[string]struct{}),
	}
}

// ConfigPath returns the YAML file the loader reads, if any.
func (l *Loader) ConfigPath() string { return l.configPath }

func (l *Loader) envString(key, defaultVal string) string {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseString(key, defaultVal)
}

func (l *Loader) envBool(key string, defaultVal bool) bool {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseBool(key, defaultVal)
}

func (l *Loader) envInt(key string, defaultVal int) int {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseInt(key, defaultVal)
}

func (l *Loader) envDuration(key string, defaultVal time.Duration) time.Duration {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseDuration(key, defaultVal)
}

func (l *Loader) envFloat(key string, defaultVal float64) float64 {
	l.ConsumedEnvKeys[key] = struct{}{}
	return ParseFloat(key, defaultVal)
}

func (l *Loader) envLookup(key string) (string, bool) {
	l.ConsumedEnvKeys[key] = struct{}{}
	return lookupNonEmpty(key)
}

// Load loads configuration with precedence: ENV > File > Defaults, then
// validates the result.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	var explicitLevel bool
	if l.configPath != "" {
		fileCfg, err := l.loadFile(l.configPath)
		if err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
		mergeFileConfig(&cfg, fileCfg)
		explicitLevel = fileCfg.LogLevel != ""
	}

	if _, ok := l.envLookup("PORTFOLIO_LOG_LEVEL"); ok {
		explicitLevel = true
	}
	l.mergeEnvConfig(&cfg)

	if cfg.Debug && !explicitLevel {
		cfg.LogLevel = "debug"
	}
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, databaseFileName)
	}
	if cfg.Cache.BadgerDir == "" {
		cfg.Cache.BadgerDir = filepath.Join(cfg.DataDir, "cache")
	}
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Defaults returns the configuration used when neither file nor environment
// set a value.
func Defaults() AppConfig {
	return AppConfig{
		AppName:       DefaultAppName,
		LogLevel:      DefaultLogLevel,
		DataDir:       DefaultDataDir,
		StaticDir:     DefaultStaticDir,
		APIListenAddr: DefaultListenAddr,
		Server:        defaultServerRuntimeConfig(),
		GitHub: GitHubConfig{
			Username:          DefaultGitHubUsername,
			APIURL:            DefaultGitHubAPIURL,
			RawURL:            DefaultGitHubRawURL,
			CacheTTL:          DefaultGitHubCacheTTL,
			RequestsPerSecond: DefaultGitHubRPS,
			Burst:             DefaultGitHubBurst,
			Timeout:           DefaultGitHubTimeout,
		},
		Repos: DefaultRepos(),
		Cache: CacheConfig{
			Backend:         DefaultCacheBackend,
			CleanupInterval: DefaultCleanupInterval,
		},
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: DefaultRequestsPerMin,
			RefreshPerMinute:  DefaultRefreshPerMin,
		},
		Telemetry: TelemetryConfig{
			Exporter:     DefaultTelemetryExport,
			ServiceName:  "portfolio",
			SamplingRate: DefaultSamplingRate,
		},
	}
}

// loadFile loads configuration from a YAML file with STRICT parsing.
// Unknown fields will cause a fatal error to prevent misconfiguration.
func (l *Loader) loadFile(path string) (*FileConfig, error) {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: %s (only YAML supported)", ErrUnsupportedFormat, ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return parseFileConfig(data)
}

func parseFileConfig(data []byte) (*FileConfig, error) {
	var fileCfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&fileCfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &FileConfig{}, nil
		}
		if strings.Contains(err.Error(), "field") && strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("strict config parse error: %w: %w", ErrUnknownConfigField, err)
		}
		return nil, fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return &fileCfg, nil
}

func mergeFileConfig(cfg *AppConfig, f *FileConfig) {
	setString(&cfg.AppName, f.AppName)
	setPtr(&cfg.Debug, f.Debug)
	setString(&cfg.LogLevel, f.LogLevel)
	setString(&cfg.DataDir, f.DataDir)
	setString(&cfg.StaticDir, f.StaticDir)
	setString(&cfg.DatabasePath, f.DatabasePath)
	setString(&cfg.APIListenAddr, f.API.ListenAddr)
	setString(&cfg.MetricsListenAddr, f.Metrics.ListenAddr)

	setPtr(&cfg.Server.ReadTimeout, f.Server.ReadTimeout)
	setPtr(&cfg.Server.WriteTimeout, f.Server.WriteTimeout)
	setPtr(&cfg.Server.IdleTimeout, f.Server.IdleTimeout)
	setPtr(&cfg.Server.MaxHeaderBytes, f.Server.MaxHeaderBytes)
	setPtr(&cfg.Server.ShutdownTimeout, f.Server.ShutdownTimeout)

	setString(&cfg.GitHub.Token, f.GitHub.Token)
	setString(&cfg.GitHub.Username, f.GitHub.Username)
	setString(&cfg.GitHub.APIURL, f.GitHub.APIURL)
	setString(&cfg.GitHub.RawURL, f.GitHub.RawURL)
	setPtr(&cfg.GitHub.CacheTTL, f.GitHub.CacheTTL)
	setPtr(&cfg.GitHub.RequestsPerSecond, f.GitHub.RequestsPerSecond)
	setPtr(&cfg.GitHub.Burst, f.GitHub.Burst)
	setPtr(&cfg.GitHub.Timeout, f.GitHub.Timeout)

	if f.Repos != nil {
		cfg.Repos = make(map[string]string, len(f.Repos))
		for p, repo := range f.Repos {
			cfg.Repos[strings.ToLower(strings.TrimSpace(p))] = strings.TrimSpace(repo)
		}
	}

	setString(&cfg.Cache.Backend, f.Cache.Backend)
	setPtr(&cfg.Cache.CleanupInterval, f.Cache.CleanupInterval)
	setString(&cfg.Cache.BadgerDir, f.Cache.BadgerDir)
	setString(&cfg.Cache.Redis.Addr, f.Cache.Redis.Addr)
	setString(&cfg.Cache.Redis.Password, f.Cache.Redis.Password)
	setPtr(&cfg.Cache.Redis.DB, f.Cache.Redis.DB)

	setPtr(&cfg.RateLimit.Enabled, f.RateLimit.Enabled)
	setPtr(&cfg.RateLimit.RequestsPerMinute, f.RateLimit.RequestsPerMinute)
	setPtr(&cfg.RateLimit.RefreshPerMinute, f.RateLimit.RefreshPerMinute)

	setPtr(&cfg.Telemetry.Enabled, f.Telemetry.Enabled)
	setString(&cfg.Telemetry.Exporter, f.Telemetry.Exporter)
	setString(&cfg.Telemetry.Endpoint, f.Telemetry.Endpoint)
	setString(&cfg.Telemetry.ServiceName, f.Telemetry.ServiceName)
	setPtr(&cfg.Telemetry.SamplingRate, f.Telemetry.SamplingRate)

	if f.AllowedOrigins != nil {
		cfg.AllowedOrigins = append([]string(nil), f.AllowedOrigins...)
	}
	if f.TrustedProxies != nil {
		cfg.TrustedProxies = append([]string(nil), f.TrustedProxies...)
	}
}

func (l *Loader) mergeEnvConfig(cfg *AppConfig) {
	cfg.AppName = l.envString("PORTFOLIO_APP_NAME", cfg.AppName)
	cfg.Debug = l.envBool("PORTFOLIO_DEBUG", cfg.Debug)
	cfg.LogLevel = l.envString("PORTFOLIO_LOG_LEVEL", cfg.LogLevel)
	cfg.DataDir = l.envString("PORTFOLIO_DATA", cfg.DataDir)
	cfg.StaticDir = l.envString("PORTFOLIO_STATIC_DIR", cfg.StaticDir)
	cfg.DatabasePath = l.envString("PORTFOLIO_DATABASE_PATH", cfg.DatabasePath)
	cfg.APIListenAddr = l.envString("PORTFOLIO_LISTEN", cfg.APIListenAddr)
	cfg.MetricsListenAddr = l.envString("PORTFOLIO_METRICS_LISTEN", cfg.MetricsListenAddr)

	cfg.Server.ReadTimeout = l.envDuration("PORTFOLIO_SERVER_READ_TIMEOUT", cfg.Server.ReadTimeout)
	cfg.Server.WriteTimeout = l.envDuration("PORTFOLIO_SERVER_WRITE_TIMEOUT", cfg.Server.WriteTimeout)
	cfg.Server.IdleTimeout = l.envDuration("PORTFOLIO_SERVER_IDLE_TIMEOUT", cfg.Server.IdleTimeout)
	cfg.Server.MaxHeaderBytes = l.envInt("PORTFOLIO_SERVER_MAX_HEADER_BYTES", cfg.Server.MaxHeaderBytes)
	cfg.Server.ShutdownTimeout = l.envDuration("PORTFOLIO_SERVER_SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout)

	// GITHUB_TOKEN is honoured as a fallback so CI tokens work unchanged.
	token := l.envString("GITHUB_TOKEN", cfg.GitHub.Token)
	cfg.GitHub.Token = l.envString("PORTFOLIO_GITHUB_TOKEN", token)
	cfg.GitHub.Username = l.envString("PORTFOLIO_GITHUB_USERNAME", cfg.GitHub.Username)
	cfg.GitHub.APIURL = l.envString("PORTFOLIO_GITHUB_API_URL", cfg.GitHub.APIURL)
	cfg.GitHub.RawURL = l.envString("PORTFOLIO_GITHUB_RAW_URL", cfg.GitHub.RawURL)
	cfg.GitHub.CacheTTL = l.envDuration("PORTFOLIO_GITHUB_CACHE_TTL", cfg.GitHub.CacheTTL)
	cfg.GitHub.RequestsPerSecond = l.envFloat("PORTFOLIO_GITHUB_RPS", cfg.GitHub.RequestsPerSecond)
	cfg.GitHub.Burst = l.envInt("PORTFOLIO_GITHUB_BURST", cfg.GitHub.Burst)
	cfg.GitHub.Timeout = l.envDuration("PORTFOLIO_GITHUB_TIMEOUT", cfg.GitHub.Timeout)

	if raw, ok := l.envLookup("PORTFOLIO_REPOS"); ok {
		repos, err := ParseRepos(raw)
		if err != nil {
			cfg.reposParseErr = err
		} else {
			cfg.Repos = repos
		}
	}

	cfg.Cache.Backend = l.envString("PORTFOLIO_CACHE_BACKEND", cfg.Cache.Backend)
	cfg.Cache.CleanupInterval = l.envDuration("PORTFOLIO_CACHE_CLEANUP_INTERVAL", cfg.Cache.CleanupInterval)
	cfg.Cache.BadgerDir = l.envString("PORTFOLIO_BADGER_DIR", cfg.Cache.BadgerDir)
	cfg.Cache.Redis.Addr = l.envString("PORTFOLIO_REDIS_ADDR", cfg.Cache.Redis.Addr)
	cfg.Cache.Redis.Password = l.envString("PORTFOLIO_REDIS_PASSWORD", cfg.Cache.Redis.Password)
	cfg.Cache.Redis.DB = l.envInt("PORTFOLIO_REDIS_DB", cfg.Cache.Redis.DB)

	cfg.RateLimit.Enabled = l.envBool("PORTFOLIO_RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = l.envInt("PORTFOLIO_RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.RefreshPerMinute = l.envInt("PORTFOLIO_RATE_LIMIT_REFRESH_RPM", cfg.RateLimit.RefreshPerMinute)

	cfg.Telemetry.Enabled = l.envBool("PORTFOLIO_TELEMETRY_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = l.envString("PORTFOLIO_TELEMETRY_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = l.envString("PORTFOLIO_TELEMETRY_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.ServiceName = l.envString("PORTFOLIO_TELEMETRY_SERVICE_NAME", cfg.Telemetry.ServiceName)
	cfg.Telemetry.SamplingRate = l.envFloat("PORTFOLIO_TELEMETRY_SAMPLING_RATE", cfg.Telemetry.SamplingRate)

	if raw, ok := l.envLookup("PORTFOLIO_ALLOWED_ORIGINS"); ok {
		cfg.AllowedOrigins = ParseList(raw)
	}
	if raw, ok := l.envLookup("PORTFOLIO_TRUSTED_PROXIES"); ok {
		cfg.TrustedProxies = ParseList(raw)
	}
}

// Clone returns a deep copy of cfg.
func (cfg AppConfig) Clone() AppConfig {
	out := cfg
	out.Repos = maps.Clone(cfg.Repos)
	out.AllowedOrigins = append([]string(nil), cfg.AllowedOrigins...)
	out.TrustedProxies = append([]string(nil), cfg.TrustedProxies...)
	return out
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setPtr[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
