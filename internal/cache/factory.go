// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendNone   = "none"
)

// Config selects and configures a backend.
type Config struct {
	Backend         string
	CleanupInterval time.Duration
	Redis           RedisConfig
	// BadgerDir is the on-disk location for the badger backend.
	BadgerDir string
}

// New builds the configured backend. Backends holding resources implement
// io.Closer.
func New(ctx context.Context, cfg Config, logger zerolog.Logger) (Cache, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		interval := cfg.CleanupInterval
		if interval <= 0 {
			interval = time.Minute
		}
		return NewMemoryCache(interval), nil
	case BackendRedis:
		return NewRedisCache(ctx, cfg.Redis, logger)
	case BackendBadger:
		dir := cfg.BadgerDir
		if dir != "" {
			dir = filepath.Clean(dir)
		}
		return OpenBadgerCache(dir, logger)
	case BackendNone:
		return NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
