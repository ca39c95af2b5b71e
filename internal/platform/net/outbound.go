// SPDX-License-Identifier: MIT

// Package net validates outbound URLs against a host allowlist.
package net

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

var (
	// ErrOutboundNotAllowed indicates the URL did not match the allowlist.
	ErrOutboundNotAllowed = errors.New("outbound url not allowed")
)

// OutboundAllowlist defines the allowed outbound URL components. Empty Ports
// allows the scheme default ports only.
type OutboundAllowlist struct {
	Hosts   []string
	Ports   []int
	Schemes []string
}

// Outbound is a compiled allowlist. The zero value rejects everything.
type Outbound struct {
	hosts   map[string]struct{}
	ports   map[int]struct{}
	schemes map[string]struct{}
}

// NewOutbound normalizes the allowlist entries.
func NewOutbound(allow OutboundAllowlist) (*Outbound, error) {
	o := &Outbound{
		hosts:   make(map[string]struct{}, len(allow.Hosts)),
		ports:   make(map[int]struct{}, len(allow.Ports)),
		schemes: make(map[string]struct{}, len(allow.Schemes)),
	}
	for _, h := range allow.Hosts {
		host, err := NormalizeHost(h)
		if err != nil {
			return nil, err
		}
		o.hosts[host] = struct{}{}
	}
	for _, p := range allow.Ports {
		if p <= 0 || p > 65535 {
			return nil, fmt.Errorf("invalid port %d", p)
		}
		o.ports[p] = struct{}{}
	}
	for _, s := range allow.Schemes {
		o.schemes[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	return o, nil
}

// AllowlistForURLs builds an allowlist admitting exactly the hosts, ports and
// schemes of the given base URLs.
func AllowlistForURLs(bases ...string) (OutboundAllowlist, error) {
	var allow OutboundAllowlist
	for _, base := range bases {
		u, ok := ParseDirectHTTPURL(base)
		if !ok {
			return OutboundAllowlist{}, fmt.Errorf("invalid base url %q", SanitizeURL(base))
		}
		scheme := strings.ToLower(u.Scheme)
		port, err := urlPort(u, scheme)
		if err != nil {
			return OutboundAllowlist{}, err
		}
		allow.Hosts = append(allow.Hosts, u.Hostname())
		allow.Ports = append(allow.Ports, port)
		allow.Schemes = append(allow.Schemes, scheme)
	}
	return allow, nil
}

// Check verifies raw against the allowlist and returns the parsed URL.
func (o *Outbound) Check(raw string) (*url.URL, error) {
	u, ok := ParseDirectHTTPURL(raw)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrOutboundNotAllowed, SanitizeURL(raw))
	}
	scheme := strings.ToLower(u.Scheme)
	if _, ok := o.schemes[scheme]; !ok {
		return nil, fmt.Errorf("%w: scheme %q", ErrOutboundNotAllowed, scheme)
	}
	port, err := urlPort(u, scheme)
	if err != nil {
		return nil, err
	}
	if _, ok := o.ports[port]; !ok {
		return nil, fmt.Errorf("%w: port %d", ErrOutboundNotAllowed, port)
	}
	host, err := NormalizeHost(u.Hostname())
	if err != nil {
		return nil, err
	}
	if _, ok := o.hosts[host]; !ok {
		return nil, fmt.Errorf("%w: host %q", ErrOutboundNotAllowed, host)
	}
	return u, nil
}

// NormalizeHost validates and normalizes a host for comparison.
func NormalizeHost(raw string) (string, error) {
	host := strings.TrimSpace(raw)
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if strings.Contains(host, "://") {
		return "", fmt.Errorf("host must not include scheme: %s", raw)
	}
	if strings.Contains(host, "/") {
		return "", fmt.Errorf("host must not include path: %s", raw)
	}
	if strings.Contains(host, "@") {
		return "", fmt.Errorf("host must not include userinfo: %s", raw)
	}
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	}
	if strings.Contains(host, ":") && net.ParseIP(host) == nil {
		return "", fmt.Errorf("host must not include port: %s", raw)
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("host is empty")
	}
	if ip := net.ParseIP(host); ip != nil {
		return strings.ToLower(ip.String()), nil
	}
	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil {
		return "", fmt.Errorf("invalid host %q: %w", raw, err)
	}
	return strings.ToLower(ascii), nil
}

func urlPort(u *url.URL, scheme string) (int, error) {
	if u.Port() == "" {
		switch scheme {
		case "http":
			return 80, nil
		case "https":
			return 443, nil
		default:
			return 0, fmt.Errorf("unknown scheme %q", scheme)
		}
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", u.Port(), err)
	}
	return port, nil
}
