// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/duma799/portfolio/internal/api/problem"
	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/github"
	"github.com/duma799/portfolio/internal/keybind"
	"github.com/duma799/portfolio/internal/log"
)

//go:embed web/templates
var templateFS embed.FS

type pageName string

const (
	pageHome     pageName = "home"
	pageAbout    pageName = "about"
	pageProjects pageName = "projects"
	pageDotfiles pageName = "dotfiles"
	pageKeybinds pageName = "keybinds"
	pageConfigs  pageName = "configs"
)

var pageDefs = map[pageName]struct{ file, title string }{
	pageHome:     {"index.html", "Home"},
	pageAbout:    {"about.html", "About"},
	pageProjects: {"projects.html", "Projects"},
	pageDotfiles: {"dotfiles/index.html", "Dotfiles"},
	pageKeybinds: {"dotfiles/keybinds.html", "Keybinds"},
	pageConfigs:  {"dotfiles/configs.html", "Configs"},
}

// configFiles lists the viewable dotfiles per platform.
var configFiles = map[string][]string{
	"hyprland": {"hyprland.conf"},
	"yabai":    {"yabairc", "skhdrc"},
}

type pageSet struct {
	templates map[pageName]*template.Template
}

func loadPages() (*pageSet, error) {
	set := &pageSet{templates: make(map[pageName]*template.Template, len(pageDefs))}
	for name, def := range pageDefs {
		t, err := template.ParseFS(templateFS, "web/templates/layout.html", "web/templates/"+def.file)
		if err != nil {
			return nil, fmt.Errorf("api: parse page %s: %w", name, err)
		}
		set.templates[name] = t
	}
	return set, nil
}

type keybindGroup struct {
	Category string
	Keybinds []keybind.Keybind
}

type configLink struct {
	Platform string
	Repo     string
	Path     string
}

type configView struct {
	Repo     string
	Path     string
	Language string
	HTML     template.HTML
}

type pageData struct {
	Title     string
	AppName   string
	Username  string
	Version   string
	Active    pageName
	Platforms []string
	Error     string
	CSS       template.CSS

	Repos    []github.RepoInfo
	Dotfiles map[string]github.RepoInfo
	Readme   template.HTML

	Platform         string
	KeybindPlatforms []keybind.Platform
	Groups           []keybindGroup

	ConfigLinks []configLink
	Config      *configView
}

func (s *Server) page(name pageName) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg := s.settings()
		data := &pageData{
			Title:     pageDefs[name].title,
			AppName:   cfg.AppName,
			Username:  cfg.GitHub.Username,
			Version:   s.version,
			Active:    name,
			Platforms: configuredPlatforms(cfg),
		}

		status := http.StatusOK
		switch name {
		case pageProjects:
			s.loadProjects(r, data)
		case pageDotfiles:
			s.loadDotfiles(r, data)
		case pageKeybinds:
			status = s.loadKeybinds(r, data)
		case pageConfigs:
			status = s.loadConfigs(r, cfg, data)
		}
		s.render(w, r, name, status, data)
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name pageName, status int, data *pageData) {
	var buf bytes.Buffer
	if err := s.pages.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		log.FromContext(r.Context()).Error().Err(err).Str(log.FieldEvent, "page.render_failed").Str("page", string(name)).Msg("failed to render page")
		problem.Internal(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (s *Server) loadProjects(r *http.Request, data *pageData) {
	repos, err := s.github.AllRepos(r.Context())
	if err != nil {
		logUpstream(r, err, "repos")
	}
	data.Repos = repos
}

func (s *Server) loadDotfiles(r *http.Request, data *pageData) {
	repos, err := s.github.DotfilesRepos(r.Context())
	if err != nil {
		logUpstream(r, err, "dotfiles")
	}
	data.Dotfiles = repos

	platform := r.URL.Query().Get("platform")
	if platform == "" && len(data.Platforms) > 0 {
		platform = data.Platforms[0]
	}
	if platform == "" {
		return
	}
	if _, html, ok := s.github.ReadmeHTML(r.Context(), platform); ok {
		// Sanitized by the github service's bluemonday policy.
		data.Readme = template.HTML(html) //nolint:gosec
	}
}

func (s *Server) loadKeybinds(r *http.Request, data *pageData) int {
	data.KeybindPlatforms = keybind.Platforms()

	raw := r.URL.Query().Get("platform")
	if raw == "" {
		raw = string(data.KeybindPlatforms[0])
	}
	p, err := keybind.ParsePlatform(raw)
	if err != nil {
		data.Platform = raw
		data.Error = err.Error()
		return http.StatusBadRequest
	}
	data.Platform = string(p)
	data.Groups = groupByCategory(s.keybinds.Keybinds(r.Context(), p))
	return http.StatusOK
}

func (s *Server) loadConfigs(r *http.Request, cfg config.AppConfig, data *pageData) int {
	for _, platform := range data.Platforms {
		for _, path := range configFiles[platform] {
			data.ConfigLinks = append(data.ConfigLinks, configLink{Platform: platform, Repo: cfg.Repos[platform], Path: path})
		}
	}

	q := r.URL.Query()
	repo, path := q.Get("repo"), q.Get("path")
	if repo == "" || path == "" {
		return http.StatusOK
	}

	file, ok := s.configs.File(r.Context(), repo, path)
	if !ok {
		data.Error = fmt.Sprintf("Config file %s not found in %s", path, repo)
		return http.StatusNotFound
	}
	if css, err := s.configs.HighlightCSS(); err == nil {
		data.CSS = template.CSS(css) //nolint:gosec // generated by chroma
	}
	data.Config = &configView{
		Repo:     file.Repo,
		Path:     file.Path,
		Language: file.Language,
		HTML:     template.HTML(file.HighlightedHTML), //nolint:gosec // chroma escapes the source
	}
	return http.StatusOK
}

// groupByCategory groups binds by category in first-seen order.
func groupByCategory(binds []keybind.Keybind) []keybindGroup {
	var groups []keybindGroup
	index := map[string]int{}
	for _, kb := range binds {
		i, ok := index[kb.Category]
		if !ok {
			i = len(groups)
			index[kb.Category] = i
			groups = append(groups, keybindGroup{Category: kb.Category})
		}
		groups[i].Keybinds = append(groups[i].Keybinds, kb)
	}
	return groups
}
