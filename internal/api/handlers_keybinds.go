// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/duma799/portfolio/internal/api/problem"
	"github.com/duma799/portfolio/internal/log"
)

func (s *Server) handleKeybinds(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r, chi.URLParam(r, "platform"))
	if !ok {
		return
	}
	binds := s.keybinds.Keybinds(r.Context(), p)
	if len(binds) == 0 {
		problem.NotFound(w, r, fmt.Sprintf("No keybinds found for %s", p))
		return
	}
	writeJSON(w, r, http.StatusOK, binds)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r, chi.URLParam(r, "platform"))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, s.keybinds.Categories(r.Context(), p))
}

func (s *Server) handleKeybindsByCategory(w http.ResponseWriter, r *http.Request) {
	p, ok := platformParam(w, r, chi.URLParam(r, "platform"))
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, s.keybinds.KeybindsByCategory(r.Context(), p, chi.URLParam(r, "category")))
}

func (s *Server) handleRefreshKeybinds(w http.ResponseWriter, r *http.Request) {
	entries := s.keybinds.CacheSize()
	s.keybinds.ClearCache()

	log.FromContext(r.Context()).Info().
		Str(log.FieldEvent, "keybinds.cache_cleared").
		Int(log.FieldCount, entries).
		Msg("keybind cache cleared on request")
	s.audit.CacheRefresh(r.Context(), s.clientIP(r), "keybinds", entries)

	writeJSON(w, r, http.StatusOK, map[string]string{"status": "cache cleared"})
}

func (s *Server) onRateLimited(r *http.Request, clientKey string) {
	s.audit.RateLimitExceeded(r.Context(), clientKey, r.URL.Path)
}

// clientIP is the rate limiter's client key, falling back to RemoteAddr.
func (s *Server) clientIP(r *http.Request) string {
	if s.clientKey != nil {
		if key, err := s.clientKey(r); err == nil && key != "" {
			return key
		}
	}
	return r.RemoteAddr
}
