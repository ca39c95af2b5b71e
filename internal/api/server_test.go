// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duma799/portfolio/internal/api/problem"
	"github.com/duma799/portfolio/internal/audit"
	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/configfile"
	"github.com/duma799/portfolio/internal/github"
	"github.com/duma799/portfolio/internal/health"
	"github.com/duma799/portfolio/internal/keybind"
)

type fakeKeybinds struct {
	mu      sync.Mutex
	binds   map[keybind.Platform][]keybind.Keybind
	cleared int
}

func (f *fakeKeybinds) Keybinds(_ context.Context, p keybind.Platform) []keybind.Keybind {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.binds[p]; ok {
		return b
	}
	return []keybind.Keybind{}
}

func (f *fakeKeybinds) KeybindsByCategory(ctx context.Context, p keybind.Platform, category string) []keybind.Keybind {
	out := []keybind.Keybind{}
	for _, kb := range f.Keybinds(ctx, p) {
		if strings.EqualFold(kb.Category, category) {
			out = append(out, kb)
		}
	}
	return out
}

func (f *fakeKeybinds) Categories(ctx context.Context, p keybind.Platform) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, kb := range f.Keybinds(ctx, p) {
		if !seen[kb.Category] {
			seen[kb.Category] = true
			out = append(out, kb.Category)
		}
	}
	return out
}

func (f *fakeKeybinds) ClearCache() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeKeybinds) CacheSize() int { return 2 }

type fakeConfigs struct {
	files map[string]*configfile.ConfigFile
	cssErr error
}

func (f *fakeConfigs) File(_ context.Context, repo, path string) (*configfile.ConfigFile, bool) {
	cf, ok := f.files[repo+"|"+path]
	return cf, ok
}

func (f *fakeConfigs) HighlightCSS() (string, error) {
	if f.cssErr != nil {
		return "", f.cssErr
	}
	return ".highlight .k { color: #f92672 }", nil
}

type fakeGitHub struct {
	repos    []github.RepoInfo
	reposErr error
	dotfiles map[string]github.RepoInfo
	readme   map[string]string
	log      []github.ChangelogEntry
}

func (f *fakeGitHub) RepoStats(_ context.Context, repo string) (*github.RepoInfo, error) {
	for _, r := range f.repos {
		if r.FullName == repo {
			r := r
			return &r, nil
		}
	}
	return nil, github.ErrNotFound
}

func (f *fakeGitHub) AllRepos(context.Context) ([]github.RepoInfo, error) {
	return f.repos, f.reposErr
}

func (f *fakeGitHub) DotfilesRepos(context.Context) (map[string]github.RepoInfo, error) {
	return f.dotfiles, nil
}

func (f *fakeGitHub) ReadmeHTML(_ context.Context, platform string) (string, string, bool) {
	md, ok := f.readme[platform]
	if !ok {
		return "", "", false
	}
	return md, "<h1>" + platform + "</h1>", true
}

func (f *fakeGitHub) Changelog(_ context.Context, repo string) ([]github.ChangelogEntry, error) {
	if repo == "duma799/broken" {
		return nil, errors.New("upstream down")
	}
	return f.log, nil
}

type fakeAudit struct {
	events []audit.Event
	err    error
	limit  int
}

func (f *fakeAudit) Recent(_ context.Context, limit int) ([]audit.Event, error) {
	f.limit = limit
	return f.events, f.err
}

type fixture struct {
	srv      *Server
	keybinds *fakeKeybinds
	configs  *fakeConfigs
	github   *fakeGitHub
	audit    *fakeAudit
	cfg      config.AppConfig
}

func newFixture(t *testing.T, mutate ...func(*config.AppConfig)) *fixture {
	t.Helper()
	cfg := config.Defaults()
	cfg.StaticDir = t.TempDir()
	cfg.RateLimit.Enabled = false
	for _, m := range mutate {
		m(&cfg)
	}

	desc := "Hyprland dotfiles"
	f := &fixture{
		keybinds: &fakeKeybinds{binds: map[keybind.Platform][]keybind.Keybind{
			keybind.PlatformYabai: {
				{Platform: keybind.PlatformYabai, Category: "Focus", Modifiers: []string{"opt"}, Key: "h", Action: "Focus window west", Command: keybind.StringPtr("yabai -m window --focus west")},
				{Platform: keybind.PlatformYabai, Category: "Apps", Modifiers: []string{"cmd"}, Key: "enter", Action: "Open Terminal"},
			},
		}},
		configs: &fakeConfigs{files: map[string]*configfile.ConfigFile{
			"duma799/yabaduma-config|skhdrc": {Repo: "duma799/yabaduma-config", Path: "skhdrc", Content: "alt - h : x", HighlightedHTML: `<div class="highlight"><pre>alt - h</pre></div>`, Language: "bash"},
		}},
		github: &fakeGitHub{
			repos: []github.RepoInfo{{Name: "hyprduma-config", FullName: "duma799/hyprduma-config", Description: &desc, Stars: 3, URL: "https://github.com/duma799/hyprduma-config"}},
			dotfiles: map[string]github.RepoInfo{
				"hyprland": {Name: "hyprduma-config", FullName: "duma799/hyprduma-config"},
			},
			readme: map[string]string{"hyprland": "# hyprland"},
			log:    []github.ChangelogEntry{{Title: "v1", Date: "2026-01-01", Type: "release"}},
		},
		audit: &fakeAudit{events: []audit.Event{{ID: 1, Type: audit.EventCacheRefresh, Actor: "system", Result: audit.ResultSuccess}}},
		cfg:   cfg,
	}

	srv, err := New(Deps{
		Keybinds:    f.keybinds,
		Configs:     f.configs,
		GitHub:      f.github,
		Health:      health.NewManager("test"),
		Settings:    func() config.AppConfig { return f.cfg },
		AuditReader: f.audit,
		Version:     "test",
	})
	require.NoError(t, err)
	f.srv = srv
	return f
}

func (f *fixture) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	require.ErrorIs(t, err, errMissingKeybinds)
}

func TestKeybindRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("list", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/keybinds/yabai")
		require.Equal(t, http.StatusOK, rec.Code)
		binds := decodeJSON[[]map[string]any](t, rec)
		require.Len(t, binds, 2)
		assert.Equal(t, "h", binds[0]["key"])
		assert.Nil(t, binds[1]["command"])
	})

	t.Run("case insensitive platform", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/keybinds/YABAI").Code)
	})

	t.Run("empty is 404", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/keybinds/hyprland")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))
		assert.Equal(t, "No keybinds found for hyprland", decodeJSON[map[string]any](t, rec)["detail"])
	})

	t.Run("unknown platform is 400", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/keybinds/i3")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "UNKNOWN_PLATFORM", decodeJSON[map[string]any](t, rec)["code"])
	})

	t.Run("categories", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/keybinds/yabai/categories")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"Focus", "Apps"}, decodeJSON[[]string](t, rec))
	})

	t.Run("empty categories", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/keybinds/hyprland/categories")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("by category", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/keybinds/yabai/category/focus")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeJSON[[]map[string]any](t, rec), 1)
	})

	t.Run("refresh", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/keybinds/refresh")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"cache cleared"}`, rec.Body.String())
		assert.Equal(t, 1, f.keybinds.cleared)
	})
}

func TestRefreshIsRateLimited(t *testing.T) {
	f := newFixture(t, func(cfg *config.AppConfig) {
		cfg.RateLimit.Enabled = true
		cfg.RateLimit.RefreshPerMinute = 1
		cfg.RateLimit.RequestsPerMinute = 1000
	})

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/keybinds/refresh").Code)
	rec := f.do(t, http.MethodPost, "/api/keybinds/refresh")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, 1, f.keybinds.cleared)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/keybinds/yabai").Code)
}

func TestConfigRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("css", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/configs/highlight-css")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, decodeJSON[map[string]string](t, rec)["css"], ".highlight")
	})

	t.Run("file", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/configs/duma799/yabaduma-config/file/skhdrc")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON[map[string]string](t, rec)
		assert.Equal(t, "bash", body["language"])
		assert.Contains(t, body["highlighted_html"], `class="highlight"`)
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/configs/duma799/yabaduma-config/file/nope").Code)
	})

	t.Run("no file separator", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/configs/duma799/yabaduma-config").Code)
	})

	t.Run("bad repo", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/configs/justone/file/skhdrc").Code)
	})

	t.Run("css failure", func(t *testing.T) {
		f.configs.cssErr = errors.New("style missing")
		defer func() { f.configs.cssErr = nil }()
		assert.Equal(t, http.StatusInternalServerError, f.do(t, http.MethodGet, "/api/configs/highlight-css").Code)
	})
}

func TestGitHubRoutes(t *testing.T) {
	f := newFixture(t)

	t.Run("repos", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/github/repos")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeJSON[[]map[string]any](t, rec), 1)
	})

	t.Run("repos degrade to empty list", func(t *testing.T) {
		f.github.reposErr = errors.New("rate limited")
		defer func() { f.github.reposErr = nil }()
		rec := f.do(t, http.MethodGet, "/api/github/repos")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("dotfiles", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/github/dotfiles")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, decodeJSON[map[string]any](t, rec), "hyprland")
	})

	t.Run("repo", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/github/repo/duma799/hyprduma-config")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "hyprduma-config", decodeJSON[map[string]any](t, rec)["name"])
	})

	t.Run("unknown repo is null", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/github/repo/duma799/missing")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null", strings.TrimSpace(rec.Body.String()))
	})

	t.Run("readme", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/github/readme/hyprland")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeJSON[map[string]string](t, rec)
		assert.Equal(t, "# hyprland", body["markdown"])
		assert.Equal(t, "<h1>hyprland</h1>", body["html"])
	})

	t.Run("readme missing", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/github/readme/yabai").Code)
	})

	t.Run("changelog", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/github/changelog/duma799/hyprduma-config")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeJSON[[]map[string]any](t, rec), 1)
	})

	t.Run("changelog degrades", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/github/changelog/duma799/broken")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}

func TestAuditRoute(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/admin/audit?limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, f.audit.limit)
	assert.Len(t, decodeJSON[[]map[string]any](t, rec), 1)

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/api/admin/audit?limit=-1").Code)

	f.audit.err = errors.New("locked")
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/api/admin/audit").Code)
	assert.Equal(t, defaultAuditLimit, f.audit.limit)
}

func TestAuditRoute_NoStore(t *testing.T) {
	f := newFixture(t)
	f.srv.auditReader = nil
	assert.Equal(t, http.StatusServiceUnavailable, f.do(t, http.MethodGet, "/api/admin/audit").Code)
}

func TestUnknownAPIRouteIsProblem(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/nothing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, problem.ContentType, rec.Header().Get("Content-Type"))
}

func TestHealthRoutes(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz").Code)
}

func TestStaticFiles(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Join(f.cfg.StaticDir, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(f.cfg.StaticDir, "css", "site.css"), []byte("body{}"), 0o600))

	rec := f.do(t, http.MethodGet, "/static/css/site.css")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "body{}", rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/static/css/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/static/css/").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/static/css").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/static/missing.js").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/static/%252e%252e/secret").Code)
}

func TestIsPathTraversal(t *testing.T) {
	tests := map[string]bool{
		"css/site.css":    false,
		"fonts/a..b.woff": false,
		"../etc/passwd":   true,
		"css/../../x":     true,
		"%2e%2e/x":        true,
		"%252e%252e/x":    true,
		"a%00b":           true,
		"%c0%ae%c0%ae/x":  true,
		"css\\..\\x":      true,
	}
	for in, want := range tests {
		assert.Equal(t, want, isPathTraversal(in), in)
	}
}

func TestPages(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		target string
		status int
		want   []string
	}{
		{"/", http.StatusOK, []string{"<title>Home | Duma Portfolio</title>", "/dotfiles/keybinds?platform=hyprland"}},
		{"/about", http.StatusOK, []string{"github.com/duma799"}},
		{"/projects", http.StatusOK, []string{"hyprduma-config", "Hyprland dotfiles"}},
		{"/dotfiles", http.StatusOK, []string{"duma799/hyprduma-config", "<h1>hyprland</h1>"}},
		{"/dotfiles/keybinds?platform=yabai", http.StatusOK, []string{"<h2>Focus</h2>", "<kbd>opt</kbd>", "yabai -m window --focus west"}},
		{"/dotfiles/keybinds?platform=hyprland", http.StatusOK, []string{"No keybinds found for hyprland"}},
		{"/dotfiles/keybinds?platform=amiga", http.StatusBadRequest, []string{"unknown platform"}},
		{"/dotfiles/configs", http.StatusOK, []string{"yabai: skhdrc"}},
		{"/dotfiles/configs?repo=duma799/yabaduma-config&path=skhdrc", http.StatusOK, []string{`<div class="highlight"><pre>alt - h</pre></div>`, ".highlight .k"}},
		{"/dotfiles/configs?repo=duma799/yabaduma-config&path=nope", http.StatusNotFound, []string{"Config file nope not found"}},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.target)
			require.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
			for _, w := range tt.want {
				assert.Contains(t, rec.Body.String(), w)
			}
		})
	}
}

func TestGroupByCategory(t *testing.T) {
	groups := groupByCategory([]keybind.Keybind{
		{Category: "B", Key: "1"},
		{Category: "A", Key: "2"},
		{Category: "B", Key: "3"},
	})
	require.Len(t, groups, 2)
	assert.Equal(t, "B", groups[0].Category)
	assert.Len(t, groups[0].Keybinds, 2)
	assert.Equal(t, "A", groups[1].Category)
}

func TestSecurityHeadersOnPages(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/about")
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Header().Get(problem.HeaderRequestID))
}
