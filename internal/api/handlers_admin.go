// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"strconv"

	"github.com/duma799/portfolio/internal/api/problem"
	"github.com/duma799/portfolio/internal/log"
)

const defaultAuditLimit = 50

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditReader == nil {
		problem.Unavailable(w, r, "audit store is not configured")
		return
	}

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			problem.BadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}

	events, err := s.auditReader.Recent(r.Context(), limit)
	if err != nil {
		log.FromContext(r.Context()).Error().Err(err).Str(log.FieldEvent, "audit.query_failed").Msg("failed to list audit events")
		problem.Unavailable(w, r, "audit store unavailable")
		return
	}
	writeJSON(w, r, http.StatusOK, events)
}
