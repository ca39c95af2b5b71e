// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/duma799/portfolio/internal/api/problem"
	"github.com/duma799/portfolio/internal/log"
)

const fileSeparator = "/file/"

func (s *Server) handleHighlightCSS(w http.ResponseWriter, r *http.Request) {
	css, err := s.configs.HighlightCSS()
	if err != nil {
		log.FromContext(r.Context()).Error().Err(err).Str(log.FieldEvent, "configs.css_failed").Msg("failed to build highlight stylesheet")
		problem.Internal(w, r)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"css": css})
}

// handleConfigFile serves /api/configs/{owner}/{name}/file/{path...}.
func (s *Server) handleConfigFile(w http.ResponseWriter, r *http.Request) {
	rest := chi.URLParam(r, "*")
	repo, path, ok := strings.Cut(rest, fileSeparator)
	if !ok || path == "" {
		problem.NotFound(w, r, "Config file not found")
		return
	}
	if _, ok := repoParam(w, r, repo); !ok {
		return
	}
	if strings.Contains(path, "..") {
		problem.BadRequest(w, r, "path must not contain parent references")
		return
	}

	file, found := s.configs.File(r.Context(), repo, path)
	if !found {
		problem.NotFound(w, r, "Config file not found")
		return
	}
	writeJSON(w, r, http.StatusOK, file)
}
