// SPDX-License-Identifier: MIT

// Package github talks to the GitHub REST API and raw content host, and
// derives the portfolio's repository views from it.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/metrics"
	"github.com/duma799/portfolio/internal/platform/httpx"
	platformnet "github.com/duma799/portfolio/internal/platform/net"
	"github.com/duma799/portfolio/internal/resilience"
	"github.com/duma799/portfolio/internal/telemetry"
)

const (
	DefaultAPIURL = "https://api.github.com"
	DefaultRawURL = "https://raw.githubusercontent.com"

	acceptJSON     = "application/vnd.github.v3+json"
	defaultTimeout = 10 * time.Second
	defaultRPS     = 5
	maxBodyBytes   = 5 << 20
	upstreamLabel  = "github"
	tracerName     = "portfolio/github"
)

// Options configures a Client. Zero values select GitHub's public endpoints
// and conservative limits.
type Options struct {
	APIURL            string
	RawURL            string
	Token             string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int

	// HTTPClient replaces the hardened default client. Tests use this to
	// talk to httptest servers.
	HTTPClient *http.Client
	// Breaker replaces the default circuit breaker.
	Breaker *resilience.CircuitBreaker
	Logger  *zerolog.Logger
}

// Client is a rate limited, circuit broken GitHub client.
type Client struct {
	apiURL   string
	rawURL   string
	token    string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *resilience.CircuitBreaker
	outbound *platformnet.Outbound
	logger   zerolog.Logger
}

// NewClient validates opts and builds a Client.
func NewClient(opts Options) (*Client, error) {
	apiURL := strings.TrimRight(firstNonEmpty(opts.APIURL, DefaultAPIURL), "/")
	rawURL := strings.TrimRight(firstNonEmpty(opts.RawURL, DefaultRawURL), "/")

	allow, err := platformnet.AllowlistForURLs(apiURL, rawURL)
	if err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}
	outbound, err := platformnet.NewOutbound(allow)
	if err != nil {
		return nil, fmt.Errorf("github: %w", err)
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(timeout,
			httpx.WithUserAgent(firstNonEmpty(opts.UserAgent, "portfolio")),
			httpx.WithTransportWrapper(func(rt http.RoundTripper) http.RoundTripper {
				return otelhttp.NewTransport(rt)
			}),
		)
	}

	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = defaultRPS
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = int(rps) + 1
	}

	breaker := opts.Breaker
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(upstreamLabel, 5, 30*time.Second,
			resilience.WithFailureFilter(countsAsOutage))
	}

	logger := log.WithComponent("github")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	return &Client{
		apiURL:   apiURL,
		rawURL:   rawURL,
		token:    opts.Token,
		http:     hc,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		breaker:  breaker,
		outbound: outbound,
		logger:   logger,
	}, nil
}

// RawFile fetches a file from the raw content host.
func (c *Client) RawFile(ctx context.Context, repo, path, branch string) (string, error) {
	if branch == "" {
		branch = "main"
	}
	u := c.rawURL + "/" + repo + "/" + url.PathEscape(branch) + "/" + escapePath(path)
	body, err := c.get(ctx, "raw_file", u, "")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FetchRawFile reads path from the main branch of repo. Every failure is
// reported as absent content.
func (c *Client) FetchRawFile(ctx context.Context, repo, path string) (string, bool) {
	content, err := c.RawFile(ctx, repo, path, "main")
	if err != nil {
		c.logger.Debug().
			Err(err).
			Str(log.FieldEvent, "github.raw_file_absent").
			Str(log.FieldRepo, repo).
			Str(log.FieldPath, path).
			Msg("raw file unavailable")
		return "", false
	}
	return content, true
}

// RepoInfo returns metadata for owner/name.
func (c *Client) RepoInfo(ctx context.Context, repo string) (*RepoInfo, error) {
	doc, err := c.getJSON(ctx, "repo_info", c.apiURL+"/repos/"+repo, nil)
	if err != nil {
		return nil, err
	}
	if !doc.IsObject() {
		return nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: "repo_info"}
	}
	info := repoFromJSON(doc)
	return &info, nil
}

// UserRepos lists the repositories of user, most recently updated first.
func (c *Client) UserRepos(ctx context.Context, user string) ([]RepoInfo, error) {
	q := url.Values{"sort": {"updated"}, "per_page": {"100"}}
	doc, err := c.getJSON(ctx, "user_repos", c.apiURL+"/users/"+url.PathEscape(user)+"/repos", q)
	if err != nil {
		return nil, err
	}
	return collect(doc, "user_repos", repoFromJSON)
}

// Releases lists up to n releases of repo.
func (c *Client) Releases(ctx context.Context, repo string, n int) ([]Release, error) {
	q := url.Values{"per_page": {strconv.Itoa(n)}}
	doc, err := c.getJSON(ctx, "releases", c.apiURL+"/repos/"+repo+"/releases", q)
	if err != nil {
		return nil, err
	}
	return collect(doc, "releases", releaseFromJSON)
}

// Commits lists up to n recent commits of repo.
func (c *Client) Commits(ctx context.Context, repo string, n int) ([]Commit, error) {
	q := url.Values{"per_page": {strconv.Itoa(n)}}
	doc, err := c.getJSON(ctx, "commits", c.apiURL+"/repos/"+repo+"/commits", q)
	if err != nil {
		return nil, err
	}
	return collect(doc, "commits", commitFromJSON)
}

// Contents lists a directory of repo at branch. A file path yields a single
// entry.
func (c *Client) Contents(ctx context.Context, repo, path, branch string) ([]ContentEntry, error) {
	if branch == "" {
		branch = "main"
	}
	q := url.Values{"ref": {branch}}
	doc, err := c.getJSON(ctx, "contents", c.apiURL+"/repos/"+repo+"/contents/"+escapePath(path), q)
	if err != nil {
		return nil, err
	}
	if doc.IsObject() {
		return []ContentEntry{contentFromJSON(doc)}, nil
	}
	return collect(doc, "contents", contentFromJSON)
}

// Readme returns README.md from the main or master branch with relative
// image links rewritten to absolute raw URLs.
func (c *Client) Readme(ctx context.Context, repo string) (string, error) {
	var lastErr error
	for _, branch := range []string{"main", "master"} {
		content, err := c.RawFile(ctx, repo, "README.md", branch)
		if err == nil && content != "" {
			return FixRelativeURLs(content, c.rawURL+"/"+repo+"/"+branch), nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			return "", err
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = &APIError{Sentinel: ErrNotFound, Operation: "readme"}
	}
	return "", lastErr
}

func (c *Client) getJSON(ctx context.Context, op, endpoint string, q url.Values) (gjson.Result, error) {
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}
	body, err := c.get(ctx, op, endpoint, acceptJSON)
	if err != nil {
		return gjson.Result{}, err
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Body: "invalid json"}
	}
	return gjson.ParseBytes(body), nil
}

func collect[T any](doc gjson.Result, op string, decode func(gjson.Result) T) ([]T, error) {
	if !doc.IsArray() {
		return nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Body: "expected array"}
	}
	out := []T{}
	doc.ForEach(func(_, item gjson.Result) bool {
		out = append(out, decode(item))
		return true
	})
	return out, nil
}

// get performs a rate limited, circuit broken GET and returns the body of a
// 2xx response.
func (c *Client) get(ctx context.Context, op, endpoint, accept string) (body []byte, err error) {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "github."+op,
		trace.WithAttributes(telemetry.GitHubAttributes(op, "")...))
	defer func() {
		telemetry.RecordError(span, err, op)
		span.End()
	}()

	if _, err := c.outbound.Check(endpoint); err != nil {
		return nil, &APIError{Sentinel: ErrForbidden, Operation: op, Err: err}
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, &APIError{Sentinel: ErrCanceled, Operation: op, Err: err}
		}
		return nil, &APIError{Sentinel: ErrRateLimited, Operation: op, Err: err}
	}

	err = c.breaker.Execute(func() error {
		var doErr error
		body, doErr = c.do(ctx, op, endpoint, accept)
		return doErr
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		return nil, &APIError{Sentinel: ErrUpstreamUnavailable, Operation: op, Err: err}
	}
	return body, err
}

func (c *Client) do(ctx context.Context, op, endpoint, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Err: err}
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			metrics.RecordUpstreamRequest(upstreamLabel, op, "canceled", time.Since(start))
			return nil, &APIError{Sentinel: ErrCanceled, Operation: op, Err: err}
		}
		status := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			status = "timeout"
		}
		metrics.RecordUpstreamRequest(upstreamLabel, op, status, time.Since(start))
		return nil, &APIError{Sentinel: ErrUpstreamUnavailable, Operation: op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	metrics.RecordUpstreamRequest(upstreamLabel, op, strconv.Itoa(resp.StatusCode), time.Since(start))
	if err != nil {
		sentinel := ErrUpstreamUnavailable
		if ctx.Err() != nil {
			sentinel = ErrCanceled
		}
		return nil, &APIError{Sentinel: sentinel, Operation: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := statusError(op, resp, body)
		c.logger.Debug().
			Str(log.FieldEvent, "github.request_failed").
			Str(log.FieldOperation, op).
			Int(log.FieldStatus, resp.StatusCode).
			Str("url", platformnet.SanitizeURL(endpoint)).
			Msg("upstream returned non-success status")
		return nil, apiErr
	}
	return body, nil
}

// escapePath escapes each segment of a slash separated repository path.
func escapePath(p string) string {
	segs := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
