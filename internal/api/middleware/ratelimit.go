// SPDX-License-Identifier: MIT

package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/httprate"

	"github.com/duma799/portfolio/internal/api/problem"
)

// RateLimitConfig holds configuration for rate limiting middleware.
type RateLimitConfig struct {
	// RequestLimit is the maximum number of requests allowed in the window
	RequestLimit int
	// WindowSize is the time window for rate limiting
	WindowSize time.Duration
	// TrustedProxies are IPs or CIDRs whose forwarding headers are honoured
	// when deriving the client key.
	TrustedProxies []string
	// OnLimit is called for every rejected request.
	OnLimit func(r *http.Request, clientKey string)
}

// RateLimit creates a sliding-window limiter keyed by client IP. Rejected
// requests get a 429 problem with Retry-After.
func RateLimit(cfg RateLimitConfig) func(http.Handler) http.Handler {
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = time.Minute
	}
	keyFunc := ClientKeyFunc(cfg.TrustedProxies)
	retryAfter := strconv.Itoa(int(cfg.WindowSize.Seconds()))

	return httprate.Limit(
		cfg.RequestLimit,
		cfg.WindowSize,
		httprate.WithKeyFuncs(keyFunc),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			if cfg.OnLimit != nil {
				key, _ := keyFunc(r)
				cfg.OnLimit(r, key)
			}
			w.Header().Set("Retry-After", retryAfter)
			problem.Write(w, r, http.StatusTooManyRequests, problem.TypeRateLimited, "Too Many Requests",
				"RATE_LIMITED", "Too many requests. Please try again later.", nil)
		}),
	)
}

// ClientKeyFunc keys by the connection's IP, switching to the forwarded
// client IP only when the connection comes from a trusted proxy.
func ClientKeyFunc(trustedProxies []string) httprate.KeyFunc {
	prefixes := parsePrefixes(trustedProxies)
	if len(prefixes) == 0 {
		return httprate.KeyByIP
	}
	return func(r *http.Request) (string, error) {
		if remoteTrusted(r.RemoteAddr, prefixes) {
			return httprate.KeyByRealIP(r)
		}
		return httprate.KeyByIP(r)
	}
}

func parsePrefixes(entries []string) []netip.Prefix {
	var out []netip.Prefix
	for _, e := range entries {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		if a, err := netip.ParseAddr(e); err == nil {
			out = append(out, netip.PrefixFrom(a.Unmap(), a.Unmap().BitLen()))
		}
	}
	return out
}

func remoteTrusted(remoteAddr string, prefixes []netip.Prefix) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
