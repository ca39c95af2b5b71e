// SPDX-License-Identifier: MIT

package config

import "time"

// AppConfig is the effective, merged configuration.
type AppConfig struct {
	Version string

	AppName  string
	Debug    bool
	LogLevel string

	DataDir      string
	StaticDir    string
	DatabasePath string

	APIListenAddr     string
	MetricsListenAddr string
	Server            ServerRuntimeConfig

	GitHub GitHubConfig
	// Repos maps a dotfiles platform name to its owner/name repository.
	Repos map[string]string

	Cache     CacheConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig

	AllowedOrigins []string
	TrustedProxies []string

	reposParseErr error
}

// GitHubConfig configures the upstream client and metadata cache.
type GitHubConfig struct {
	Token             string
	Username          string
	APIURL            string
	RawURL            string
	CacheTTL          time.Duration
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// CacheConfig selects the metadata cache backend.
type CacheConfig struct {
	Backend         string // memory|redis|badger|none
	CleanupInterval time.Duration
	BadgerDir       string
	Redis           RedisConfig
}

// RedisConfig addresses the Redis cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig bounds inbound request rates per client IP.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RefreshPerMinute  int
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool
	Exporter     string // grpc|http
	Endpoint     string
	ServiceName  string
	SamplingRate float64
}

// ServerRuntimeConfig holds HTTP server timeouts as configured.
type ServerRuntimeConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// FileConfig mirrors the YAML file. Pointer fields distinguish "unset" from
// zero values.
type FileConfig struct {
	AppName      string `yaml:"appName,omitempty"`
	Debug        *bool  `yaml:"debug,omitempty"`
	LogLevel     string `yaml:"logLevel,omitempty"`
	DataDir      string `yaml:"dataDir,omitempty"`
	StaticDir    string `yaml:"staticDir,omitempty"`
	DatabasePath string `yaml:"databasePath,omitempty"`

	API     APIFileConfig     `yaml:"api,omitempty"`
	Metrics MetricsFileConfig `yaml:"metrics,omitempty"`
	Server  ServerFileConfig  `yaml:"server,omitempty"`

	GitHub GitHubFileConfig  `yaml:"github,omitempty"`
	Repos  map[string]string `yaml:"repos,omitempty"`

	Cache     CacheFileConfig     `yaml:"cache,omitempty"`
	RateLimit RateLimitFileConfig `yaml:"rateLimit,omitempty"`
	Telemetry TelemetryFileConfig `yaml:"telemetry,omitempty"`

	AllowedOrigins []string `yaml:"allowedOrigins,omitempty"`
	TrustedProxies []string `yaml:"trustedProxies,omitempty"`
}

type APIFileConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

type MetricsFileConfig struct {
	ListenAddr string `yaml:"listenAddr,omitempty"`
}

type ServerFileConfig struct {
	ReadTimeout     *time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout    *time.Duration `yaml:"writeTimeout,omitempty"`
	IdleTimeout     *time.Duration `yaml:"idleTimeout,omitempty"`
	MaxHeaderBytes  *int           `yaml:"maxHeaderBytes,omitempty"`
	ShutdownTimeout *time.Duration `yaml:"shutdownTimeout,omitempty"`
}

type GitHubFileConfig struct {
	Token             string         `yaml:"token,omitempty"`
	Username          string         `yaml:"username,omitempty"`
	APIURL            string         `yaml:"apiURL,omitempty"`
	RawURL            string         `yaml:"rawURL,omitempty"`
	CacheTTL          *time.Duration `yaml:"cacheTTL,omitempty"`
	RequestsPerSecond *float64       `yaml:"requestsPerSecond,omitempty"`
	Burst             *int           `yaml:"burst,omitempty"`
	Timeout           *time.Duration `yaml:"timeout,omitempty"`
}

type CacheFileConfig struct {
	Backend         string          `yaml:"backend,omitempty"`
	CleanupInterval *time.Duration  `yaml:"cleanupInterval,omitempty"`
	BadgerDir       string          `yaml:"badgerDir,omitempty"`
	Redis           RedisFileConfig `yaml:"redis,omitempty"`
}

type RedisFileConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       *int   `yaml:"db,omitempty"`
}

type RateLimitFileConfig struct {
	Enabled           *bool `yaml:"enabled,omitempty"`
	RequestsPerMinute *int  `yaml:"requestsPerMinute,omitempty"`
	RefreshPerMinute  *int  `yaml:"refreshPerMinute,omitempty"`
}

type TelemetryFileConfig struct {
	Enabled      *bool    `yaml:"enabled,omitempty"`
	Exporter     string   `yaml:"exporter,omitempty"`
	Endpoint     string   `yaml:"endpoint,omitempty"`
	ServiceName  string   `yaml:"serviceName,omitempty"`
	SamplingRate *float64 `yaml:"samplingRate,omitempty"`
}
