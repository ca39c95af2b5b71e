// SPDX-License-Identifier: MIT

package github

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// Sentinel errors for errors.Is checks at the boundary.
	ErrNotFound            = errors.New("upstream: resource not found")
	ErrForbidden           = errors.New("upstream: access forbidden")
	ErrRateLimited         = errors.New("upstream: rate limited")
	ErrUpstreamUnavailable = errors.New("upstream: host unreachable or transport failure")
	ErrUpstreamError       = errors.New("upstream: internal error (5xx)")
	ErrUpstreamBadResponse = errors.New("upstream: invalid response format or malformed data")
	// ErrCanceled marks a request abandoned by its caller. It says nothing
	// about upstream health.
	ErrCanceled = errors.New("upstream: request canceled by caller")
)

// maxErrorBody bounds the upstream body excerpt kept on an APIError.
const maxErrorBody = 256

// APIError wraps a sentinel error with the failing operation.
type APIError struct {
	Sentinel  error
	Operation string
	Status    int
	Body      string
	Err       error // Nested lower-level error (e.g. net.Error)
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("github: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *APIError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Sentinel}
	}
	return []error{e.Sentinel, e.Err}
}

// statusError maps a non-2xx response to an APIError. GitHub reports an
// exhausted rate limit as 403 or 429 with X-RateLimit-Remaining: 0.
func statusError(op string, resp *http.Response, body []byte) *APIError {
	excerpt := string(body)
	if len(excerpt) > maxErrorBody {
		excerpt = excerpt[:maxErrorBody]
	}
	e := &APIError{Operation: op, Status: resp.StatusCode, Body: excerpt}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		e.Sentinel = ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests,
		resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0":
		e.Sentinel = ErrRateLimited
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		e.Sentinel = ErrForbidden
	case resp.StatusCode >= 500:
		e.Sentinel = ErrUpstreamError
	default:
		e.Sentinel = ErrUpstreamBadResponse
	}
	return e
}

// countsAsOutage reports whether err indicates the upstream is unhealthy.
// Client-side outcomes such as 404 or a caller cancelling do not trip the
// breaker.
func countsAsOutage(err error) bool {
	if errors.Is(err, ErrCanceled) {
		return false
	}
	return errors.Is(err, ErrUpstreamUnavailable) || errors.Is(err, ErrUpstreamError)
}
