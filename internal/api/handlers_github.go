// SPDX-License-Identifier: MIT

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/duma799/portfolio/internal/api/middleware"
	"github.com/duma799/portfolio/internal/api/problem"
	"github.com/duma799/portfolio/internal/github"
	"github.com/duma799/portfolio/internal/log"
)

// Upstream failures degrade to empty results; the portfolio renders what it has.

func (s *Server) handleRepos(w http.ResponseWriter, r *http.Request) {
	repos, err := s.github.AllRepos(r.Context())
	if err != nil {
		logUpstream(r, err, "repos")
		repos = []github.RepoInfo{}
	}
	writeJSON(w, r, http.StatusOK, repos)
}

func (s *Server) handleDotfiles(w http.ResponseWriter, r *http.Request) {
	repos, err := s.github.DotfilesRepos(r.Context())
	if err != nil || repos == nil {
		if err != nil {
			logUpstream(r, err, "dotfiles")
		}
		repos = map[string]github.RepoInfo{}
	}
	writeJSON(w, r, http.StatusOK, repos)
}

// handleRepo answers null for unknown or unreachable repositories.
func (s *Server) handleRepo(w http.ResponseWriter, r *http.Request) {
	repo, ok := repoParam(w, r, chi.URLParam(r, "*"))
	if !ok {
		return
	}
	info, err := s.github.RepoStats(r.Context(), repo)
	if err != nil {
		logUpstream(r, err, "repo")
		info = nil
	}
	writeJSON(w, r, http.StatusOK, info)
}

func (s *Server) handleReadme(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	markdown, html, ok := s.github.ReadmeHTML(r.Context(), platform)
	if !ok {
		problem.NotFound(w, r, "README not found for "+platform)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"markdown": markdown, "html": html})
}

func (s *Server) handleChangelog(w http.ResponseWriter, r *http.Request) {
	repo, ok := repoParam(w, r, chi.URLParam(r, "*"))
	if !ok {
		return
	}
	entries, err := s.github.Changelog(r.Context(), repo)
	if err != nil || entries == nil {
		if err != nil {
			logUpstream(r, err, "changelog")
		}
		entries = []github.ChangelogEntry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}

func logUpstream(r *http.Request, err error, op string) {
	ev := log.FromContext(r.Context()).Warn().
		Err(err).
		Str(log.FieldEvent, "github.degraded").
		Str(log.FieldOperation, op)
	if traceID, spanID := middleware.TraceIDs(r); traceID != "" {
		ev = ev.Str("trace_id", traceID).Str("span_id", spanID)
	}
	ev.Msg("github lookup failed, serving empty result")
}
