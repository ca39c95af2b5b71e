// SPDX-License-Identifier: MIT

package config

import (
	"net"
	"strings"

	"github.com/duma799/portfolio/internal/metrics"
	"github.com/duma799/portfolio/internal/validate"
)

// Cache backends accepted by cache.backend.
var cacheBackends = []string{"memory", "redis", "badger", "none"}

// Validate validates an AppConfig using the centralized validation package
func Validate(cfg AppConfig) error {
	v := validate.New()

	v.NotEmpty("appName", cfg.AppName)
	if _, err := validate.ParseLogLevel(cfg.LogLevel); err != nil {
		v.AddError("logLevel", err.Error(), cfg.LogLevel)
	}
	v.Directory("dataDir", cfg.DataDir, false)
	v.NotEmpty("databasePath", cfg.DatabasePath)

	v.ListenAddr("api.listenAddr", cfg.APIListenAddr, false)
	v.ListenAddr("metrics.listenAddr", cfg.MetricsListenAddr, true)
	if cfg.MetricsListenAddr != "" && cfg.MetricsListenAddr == cfg.APIListenAddr {
		v.AddError("metrics.listenAddr", "must differ from api.listenAddr", cfg.MetricsListenAddr)
	}

	v.NonNegative("server.maxHeaderBytes", cfg.Server.MaxHeaderBytes)
	v.MinDuration("server.readTimeout", cfg.Server.ReadTimeout, 0)
	v.MinDuration("server.writeTimeout", cfg.Server.WriteTimeout, 0)
	v.MinDuration("server.idleTimeout", cfg.Server.IdleTimeout, 0)

	v.NotEmpty("github.username", cfg.GitHub.Username)
	v.URL("github.apiURL", cfg.GitHub.APIURL, []string{"http", "https"})
	v.URL("github.rawURL", cfg.GitHub.RawURL, []string{"http", "https"})
	v.MinDuration("github.cacheTTL", cfg.GitHub.CacheTTL, 0)
	if cfg.GitHub.RequestsPerSecond <= 0 {
		v.AddError("github.requestsPerSecond", "must be positive", cfg.GitHub.RequestsPerSecond)
	}
	v.Positive("github.burst", cfg.GitHub.Burst)

	if cfg.reposParseErr != nil {
		v.AddError("repos", cfg.reposParseErr.Error(), "")
	}
	for platform, repo := range cfg.Repos {
		if strings.TrimSpace(platform) == "" {
			v.AddError("repos", "platform name cannot be empty", repo)
			continue
		}
		v.RepoSlug("repos."+platform, repo)
	}

	v.OneOf("cache.backend", cfg.Cache.Backend, cacheBackends)
	if cfg.Cache.Backend == "redis" {
		v.NotEmpty("cache.redis.addr", cfg.Cache.Redis.Addr)
		v.Range("cache.redis.db", cfg.Cache.Redis.DB, 0, 15)
	}

	if cfg.RateLimit.Enabled {
		v.Positive("rateLimit.requestsPerMinute", cfg.RateLimit.RequestsPerMinute)
		v.Positive("rateLimit.refreshPerMinute", cfg.RateLimit.RefreshPerMinute)
	}

	if cfg.Telemetry.Enabled {
		v.OneOf("telemetry.exporter", cfg.Telemetry.Exporter, []string{"grpc", "http"})
		v.NotEmpty("telemetry.endpoint", cfg.Telemetry.Endpoint)
		v.Fraction("telemetry.samplingRate", cfg.Telemetry.SamplingRate)
	}

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			continue
		}
		v.URL("allowedOrigins", origin, []string{"http", "https"})
	}

	// Trusted proxies must be valid IPs or CIDRs
	for _, entry := range cfg.TrustedProxies {
		entry = strings.TrimSpace(entry)
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err == nil {
			continue
		}
		v.AddError("trustedProxies", "must be a valid IP or CIDR", entry)
	}

	if err := v.Err(); err != nil {
		metrics.IncConfigValidationError()
		return err
	}
	return nil
}
