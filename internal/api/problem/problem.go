// SPDX-License-Identifier: MIT

// Package problem writes RFC 7807 problem details responses.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/duma799/portfolio/internal/log"
)

// HeaderRequestID carries the request ID on requests and responses.
const HeaderRequestID = "X-Request-ID"

// ContentType is the media type of every problem response.
const ContentType = "application/problem+json"

// Problem types.
const (
	TypeBadRequest   = "about:blank/bad_request"
	TypeNotFound     = "about:blank/not_found"
	TypeRateLimited  = "about:blank/rate_limited"
	TypeUnavailable  = "about:blank/unavailable"
	TypeInternal     = "about:blank/internal"
	TypeInvalidInput = "about:blank/invalid_input"
)

var reserved = map[string]struct{}{
	"type": {}, "title": {}, "status": {}, "detail": {}, "instance": {}, "code": {}, "request_id": {},
}

// Write writes a problem response.
//
//   - type: machine identifier (TypeNotFound, ...)
//   - title: short human label, defaults to the status text
//   - code: stable machine-readable code such as "NOT_FOUND"
//   - detail: explanation of this occurrence
//
// Reserved keys in extra are dropped.
func Write(w http.ResponseWriter, r *http.Request, status int, problemType, title, code, detail string, extra map[string]any) {
	if title == "" {
		title = http.StatusText(status)
	}

	res := map[string]any{
		"type":   problemType,
		"title":  title,
		"status": status,
		"code":   code,
	}
	if detail != "" {
		res["detail"] = detail
	}

	reqID := w.Header().Get(HeaderRequestID)
	if r != nil {
		res["instance"] = r.URL.EscapedPath()
		if id := log.RequestIDFromContext(r.Context()); id != "" {
			reqID = id
		}
	}
	if reqID != "" {
		res["request_id"] = reqID
		w.Header().Set(HeaderRequestID, reqID)
	}

	for k, v := range extra {
		if _, ok := reserved[k]; ok {
			log.L().Warn().Str("key", k).Str("problem_type", problemType).Msg("ignoring reserved key in problem extras")
			continue
		}
		res[k] = v
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		log.L().Error().Err(err).Str("type", problemType).Int("status", status).Msg("failed to encode problem response")
	}
}

// BadRequest writes a 400 problem.
func BadRequest(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusBadRequest, TypeBadRequest, "", "BAD_REQUEST", detail, nil)
}

// NotFound writes a 404 problem.
func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusNotFound, TypeNotFound, "", "NOT_FOUND", detail, nil)
}

// Unavailable writes a 503 problem.
func Unavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Write(w, r, http.StatusServiceUnavailable, TypeUnavailable, "", "UNAVAILABLE", detail, nil)
}

// Internal writes a 500 problem without leaking err to the client.
func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, http.StatusInternalServerError, TypeInternal, "", "INTERNAL", "An unexpected error occurred. Please try again later.", nil)
}
