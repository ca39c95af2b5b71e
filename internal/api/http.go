// SPDX-License-Identifier: MIT

// Package api provides the HTTP surface of the portfolio: the JSON API,
// server-rendered pages and static assets.
package api

import (
	"context"
	"net/http"

	"github.com/go-chi/httprate"

	"github.com/duma799/portfolio/internal/audit"
	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/health"
)

// Server represents the HTTP API server.
type Server struct {
	keybinds    KeybindService
	configs     ConfigFileService
	github      GitHubService
	health      *health.Manager
	settings    func() config.AppConfig
	audit       *audit.Logger
	auditReader AuditReader
	version     string
	pages       *pageSet
	openapi     []byte
	clientKey   httprate.KeyFunc
	handler     http.Handler
}

// New builds a Server and its route tree.
func New(deps Deps) (*Server, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	pages, err := loadPages()
	if err != nil {
		return nil, err
	}
	openapi, err := renderOpenAPI(context.Background(), deps.Version)
	if err != nil {
		return nil, err
	}

	s := &Server{
		keybinds:    deps.Keybinds,
		configs:     deps.Configs,
		github:      deps.GitHub,
		health:      deps.Health,
		settings:    deps.Settings,
		audit:       deps.Audit,
		auditReader: deps.AuditReader,
		version:     deps.Version,
		pages:       pages,
		openapi:     openapi,
	}
	if s.audit == nil {
		s.audit = audit.NewLogger(nil)
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.handler.ServeHTTP(w, r) }
