// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/duma799/portfolio/internal/api/middleware"
)

const tracingService = "portfolio-api"

func (s *Server) routes() http.Handler {
	cfg := s.settings()
	s.clientKey = middleware.ClientKeyFunc(cfg.TrustedProxies)

	stack := middleware.StackConfig{
		EnableCORS:            len(cfg.AllowedOrigins) > 0,
		AllowedOrigins:        cfg.AllowedOrigins,
		EnableSecurityHeaders: true,
		EnableMetrics:         true,
		EnableLogging:         true,
	}
	if cfg.Telemetry.Enabled {
		stack.TracingService = tracingService
	}
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute > 0 {
		stack.RateLimit = &middleware.RateLimitConfig{
			RequestLimit:   cfg.RateLimit.RequestsPerMinute,
			WindowSize:     time.Minute,
			TrustedProxies: cfg.TrustedProxies,
			OnLimit:        s.onRateLimited,
		}
	}
	r := middleware.NewRouter(stack)

	r.Get("/healthz", s.health.ServeHealth)
	r.Get("/readyz", s.health.ServeReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/openapi.json", s.handleOpenAPI)
		r.Route("/keybinds", func(r chi.Router) {
			refresh := http.Handler(http.HandlerFunc(s.handleRefreshKeybinds))
			if cfg.RateLimit.Enabled && cfg.RateLimit.RefreshPerMinute > 0 {
				refresh = middleware.RateLimit(middleware.RateLimitConfig{
					RequestLimit:   cfg.RateLimit.RefreshPerMinute,
					WindowSize:     time.Minute,
					TrustedProxies: cfg.TrustedProxies,
					OnLimit:        s.onRateLimited,
				})(refresh)
			}
			r.Method(http.MethodPost, "/refresh", refresh)
			r.Get("/{platform}", s.handleKeybinds)
			r.Get("/{platform}/categories", s.handleCategories)
			r.Get("/{platform}/category/{category}", s.handleKeybindsByCategory)
		})
		r.Route("/configs", func(r chi.Router) {
			r.Get("/highlight-css", s.handleHighlightCSS)
			r.Get("/*", s.handleConfigFile)
		})
		r.Route("/github", func(r chi.Router) {
			r.Get("/repos", s.handleRepos)
			r.Get("/dotfiles", s.handleDotfiles)
			r.Get("/repo/*", s.handleRepo)
			r.Get("/readme/{platform}", s.handleReadme)
			r.Get("/changelog/*", s.handleChangelog)
		})
		r.Get("/admin/audit", s.handleAudit)
		r.NotFound(s.handleAPINotFound)
	})

	r.Get("/", s.page(pageHome))
	r.Get("/about", s.page(pageAbout))
	r.Get("/projects", s.page(pageProjects))
	r.Get("/dotfiles", s.page(pageDotfiles))
	r.Get("/dotfiles/keybinds", s.page(pageKeybinds))
	r.Get("/dotfiles/configs", s.page(pageConfigs))

	static := http.StripPrefix("/static", s.staticFileServer())
	r.Method(http.MethodGet, "/static/*", static)
	r.Method(http.MethodHead, "/static/*", static)

	return r
}
