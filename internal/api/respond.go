// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/duma799/portfolio/internal/api/problem"
	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/keybind"
	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/validate"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).Warn().Err(err).Str(log.FieldPath, r.URL.Path).Msg("failed to encode response")
	}
}

// platformParam resolves {platform} or writes a 400 problem.
func platformParam(w http.ResponseWriter, r *http.Request, raw string) (keybind.Platform, bool) {
	p, err := keybind.ParsePlatform(raw)
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeInvalidInput, "Unknown Platform", "UNKNOWN_PLATFORM",
			err.Error(), map[string]any{"supported": keybind.Platforms()})
		return "", false
	}
	return p, true
}

// repoParam validates an owner/name reference or writes a 400 problem.
func repoParam(w http.ResponseWriter, r *http.Request, raw string) (string, bool) {
	v := validate.New()
	v.RepoSlug("repo", raw)
	if err := v.Err(); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeInvalidInput, "Invalid Repository", "INVALID_REPO", err.Error(), nil)
		return "", false
	}
	return raw, true
}

// configuredPlatforms returns the configured repo platform names sorted.
func configuredPlatforms(cfg config.AppConfig) []string {
	out := make([]string, 0, len(cfg.Repos))
	for p := range cfg.Repos {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (s *Server) handleAPINotFound(w http.ResponseWriter, r *http.Request) {
	problem.NotFound(w, r, "no such endpoint")
}
