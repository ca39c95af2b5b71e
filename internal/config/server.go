// SPDX-License-Identifier: MIT

package config

import "time"

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes of the response
	WriteTimeout time.Duration

	// IdleTimeout is the maximum amount of time to wait for the next request
	IdleTimeout time.Duration

	// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header's keys and values
	MaxHeaderBytes int

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown
	ShutdownTimeout time.Duration
}

const (
	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 120 * time.Second
	defaultMaxHeaderBytes  = 1 << 20 // 1 MB
	defaultShutdownTimeout = 15 * time.Second
	minShutdownTimeout     = 3 * time.Second
)

func defaultServerRuntimeConfig() ServerRuntimeConfig {
	return ServerRuntimeConfig{
		ReadTimeout:     defaultReadTimeout,
		WriteTimeout:    defaultWriteTimeout,
		IdleTimeout:     defaultIdleTimeout,
		MaxHeaderBytes:  defaultMaxHeaderBytes,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// ServerConfigFor derives the API server settings from cfg. Unset values
// fall back to defaults and the shutdown budget never drops below 3s.
func ServerConfigFor(cfg AppConfig) ServerConfig {
	base := defaultServerRuntimeConfig()
	if cfg.Server.ReadTimeout > 0 {
		base.ReadTimeout = cfg.Server.ReadTimeout
	}
	if cfg.Server.WriteTimeout >= 0 {
		base.WriteTimeout = cfg.Server.WriteTimeout
	}
	if cfg.Server.IdleTimeout > 0 {
		base.IdleTimeout = cfg.Server.IdleTimeout
	}
	if cfg.Server.MaxHeaderBytes > 0 {
		base.MaxHeaderBytes = cfg.Server.MaxHeaderBytes
	}
	if cfg.Server.ShutdownTimeout > 0 {
		base.ShutdownTimeout = cfg.Server.ShutdownTimeout
	}
	base.ShutdownTimeout = max(base.ShutdownTimeout, minShutdownTimeout)

	listen := cfg.APIListenAddr
	if listen == "" {
		listen = DefaultListenAddr
	}

	return ServerConfig{
		ListenAddr:      listen,
		ReadTimeout:     base.ReadTimeout,
		WriteTimeout:    base.WriteTimeout,
		IdleTimeout:     base.IdleTimeout,
		MaxHeaderBytes:  base.MaxHeaderBytes,
		ShutdownTimeout: base.ShutdownTimeout,
	}
}
