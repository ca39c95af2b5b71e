// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/duma799/portfolio/internal/log"
)

// ParseString reads a string from environment variable or returns default value.
// It logs the source (environment or default) for observability.
func ParseString(key, defaultValue string) string {
	return parseStringWithLogger(log.WithComponent("config"), key, defaultValue)
}

func parseStringWithLogger(logger zerolog.Logger, key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		switch {
		case isSensitiveKey(key):
			if value == "" {
				return defaultValue
			}
			logger.Debug().
				Str("key", key).
				Str("source", "environment").
				Bool("sensitive", true).
				Msg("using environment variable")
		case value == "":
			logger.Debug().
				Str("key", key).
				Str("default", defaultValue).
				Str("source", "default").
				Msg("using default value (environment variable is empty)")
			return defaultValue
		default:
			logger.Debug().
				Str("key", key).
				Str("value", value).
				Str("source", "environment").
				Msg("using environment variable")
		}
		return value
	}
	return defaultValue
}

// ParseInt reads an integer from environment variable or returns default value.
// It falls back to default on parse errors.
func ParseInt(key string, defaultValue int) int {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		warnInvalid(key, v, "integer")
		return defaultValue
	}
	logFromEnv(key)
	return i
}

// ParseDuration reads a duration in Go duration format (e.g. "5s").
func ParseDuration(key string, defaultValue time.Duration) time.Duration {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		warnInvalid(key, v, "duration")
		return defaultValue
	}
	logFromEnv(key)
	return d
}

// ParseBool reads a boolean from environment variable or returns default value.
// It accepts "true", "false", "1", "0", "yes", "no" (case-insensitive).
func ParseBool(key string, defaultValue bool) bool {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		logFromEnv(key)
		return true
	case "false", "0", "no":
		logFromEnv(key)
		return false
	default:
		warnInvalid(key, v, "boolean")
		return defaultValue
	}
}

// ParseFloat reads a float64 from environment variable or returns default value.
func ParseFloat(key string, defaultValue float64) float64 {
	v, ok := lookupNonEmpty(key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		warnInvalid(key, v, "float")
		return defaultValue
	}
	logFromEnv(key)
	return f
}

// ParseList splits a comma separated value, dropping empty entries.
func ParseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseRepos parses "platform=owner/repo,platform=owner/repo".
func ParseRepos(raw string) (map[string]string, error) {
	out := make(map[string]string)
	for _, entry := range ParseList(raw) {
		platform, repo, ok := strings.Cut(entry, "=")
		platform = strings.ToLower(strings.TrimSpace(platform))
		repo = strings.TrimSpace(repo)
		if !ok || platform == "" || repo == "" {
			return nil, fmt.Errorf("invalid repos entry %q (want platform=owner/repo)", entry)
		}
		out[platform] = repo
	}
	return out, nil
}

func lookupNonEmpty(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func logFromEnv(key string) {
	logger := log.WithComponent("config")
	logger.Debug().Str("key", key).Str("source", "environment").Msg("using environment variable")
}

func warnInvalid(key, value, kind string) {
	logger := log.WithComponent("config")
	logger.Warn().
		Str("key", key).
		Str("value", value).
		Msgf("invalid %s in environment variable, using default", kind)
}
