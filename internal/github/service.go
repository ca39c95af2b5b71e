// SPDX-License-Identifier: MIT

package github

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/duma799/portfolio/internal/cache"
	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/metrics"
)

const (
	defaultCacheTTL  = time.Hour
	changelogSize    = 10
	dotfilesParallel = 4
)

// API is the subset of Client used by Service.
type API interface {
	RepoInfo(ctx context.Context, repo string) (*RepoInfo, error)
	UserRepos(ctx context.Context, user string) ([]RepoInfo, error)
	Releases(ctx context.Context, repo string, n int) ([]Release, error)
	Commits(ctx context.Context, repo string, n int) ([]Commit, error)
	Readme(ctx context.Context, repo string) (string, error)
}

// Settings are read on every call so configuration reloads take effect
// without rebuilding the service.
type Settings struct {
	Username string
	// Repos maps a dotfiles platform name to its owner/name repository.
	Repos map[string]string
}

// SettingsFunc returns the current Settings.
type SettingsFunc func() Settings

// Service derives the portfolio's repository views and caches them.
type Service struct {
	api      API
	settings SettingsFunc
	cache    cache.Cache
	ttl      time.Duration
	renderer *MarkdownRenderer
	logger   zerolog.Logger
}

// NewService wires a Service. A nil cache disables caching; a non-positive
// ttl selects one hour.
func NewService(api API, settings SettingsFunc, c cache.Cache, ttl time.Duration) *Service {
	if c == nil {
		c = cache.NewNoOpCache()
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &Service{
		api:      api,
		settings: settings,
		cache:    c,
		ttl:      ttl,
		renderer: NewMarkdownRenderer(),
		logger:   log.WithComponent("github"),
	}
}

// RepoStats returns metadata for owner/name.
func (s *Service) RepoStats(ctx context.Context, repo string) (*RepoInfo, error) {
	return cached(s, "repo:"+repo, func() (*RepoInfo, error) {
		return s.api.RepoInfo(ctx, repo)
	})
}

// AllRepos lists the configured user's repositories, forks excluded.
func (s *Service) AllRepos(ctx context.Context) ([]RepoInfo, error) {
	user := s.settings().Username
	return cached(s, "user_repos:"+user, func() ([]RepoInfo, error) {
		repos, err := s.api.UserRepos(ctx, user)
		if err != nil {
			return nil, err
		}
		out := make([]RepoInfo, 0, len(repos))
		for _, r := range repos {
			if !r.Fork {
				out = append(out, r)
			}
		}
		return out, nil
	})
}

// DotfilesRepos returns metadata for every configured dotfiles repository,
// keyed by platform. Repositories that fail to load are omitted.
func (s *Service) DotfilesRepos(ctx context.Context) (map[string]RepoInfo, error) {
	repos := s.settings().Repos
	platforms := make([]string, 0, len(repos))
	for p := range repos {
		platforms = append(platforms, p)
	}
	sort.Strings(platforms)

	var (
		mu  sync.Mutex
		out = make(map[string]RepoInfo, len(repos))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(dotfilesParallel)
	for _, p := range platforms {
		repo := repos[p]
		g.Go(func() error {
			info, err := s.RepoStats(gctx, repo)
			if err != nil {
				s.logger.Warn().Err(err).
					Str(log.FieldEvent, "github.dotfiles_repo_failed").
					Str(log.FieldPlatform, p).
					Str(log.FieldRepo, repo).
					Msg("skipping dotfiles repository")
				return nil
			}
			mu.Lock()
			out[p] = *info
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

// Readme returns the README Markdown of the platform's dotfiles repository.
func (s *Service) Readme(ctx context.Context, platform string) (string, bool) {
	repo, ok := s.settings().Repos[platform]
	if !ok || repo == "" {
		return "", false
	}
	content, err := cached(s, "readme:"+repo, func() (string, error) {
		return s.api.Readme(ctx, repo)
	})
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).
				Str(log.FieldEvent, "github.readme_failed").
				Str(log.FieldRepo, repo).
				Msg("readme unavailable")
		}
		return "", false
	}
	return content, true
}

// ReadmeHTML returns the README both as Markdown and as sanitized HTML.
func (s *Service) ReadmeHTML(ctx context.Context, platform string) (markdown, html string, ok bool) {
	markdown, ok = s.Readme(ctx, platform)
	if !ok {
		return "", "", false
	}
	html, err := s.renderer.Render(markdown)
	if err != nil {
		s.logger.Warn().Err(err).Str(log.FieldPlatform, platform).Msg("readme render failed")
		return markdown, "", true
	}
	return markdown, html, true
}

// Changelog lists recent releases of repo, or recent commits when the
// repository has no releases.
func (s *Service) Changelog(ctx context.Context, repo string) ([]ChangelogEntry, error) {
	return cached(s, "changelog:"+repo, func() ([]ChangelogEntry, error) {
		releases, err := s.api.Releases(ctx, repo, changelogSize)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if len(releases) > 0 {
			return releasesToChangelog(releases), nil
		}

		commits, err := s.api.Commits(ctx, repo, changelogSize)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return []ChangelogEntry{}, nil
			}
			return nil, err
		}
		return commitsToChangelog(commits), nil
	})
}

// ClearCache drops every cached upstream response.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

func releasesToChangelog(releases []Release) []ChangelogEntry {
	out := make([]ChangelogEntry, 0, len(releases))
	for _, r := range releases {
		title := firstNonEmpty(r.Name, r.TagName, "Release")
		var version *string
		if r.TagName != "" {
			v := r.TagName
			version = &v
		}
		out = append(out, ChangelogEntry{
			Version: version,
			Title:   title,
			Body:    r.Body,
			Date:    datePart(r.PublishedAt),
			URL:     r.HTMLURL,
			Type:    "release",
		})
	}
	return out
}

func commitsToChangelog(commits []Commit) []ChangelogEntry {
	out := make([]ChangelogEntry, 0, len(commits))
	for _, c := range commits {
		title, rest, _ := strings.Cut(c.Message, "\n")
		var body *string
		if b := strings.TrimSpace(rest); b != "" {
			body = &b
		}
		out = append(out, ChangelogEntry{
			Title: title,
			Body:  body,
			Date:  datePart(c.Date),
			URL:   c.HTMLURL,
			Type:  "commit",
		})
	}
	return out
}

// datePart trims an ISO-8601 timestamp to YYYY-MM-DD.
func datePart(ts string) string {
	if len(ts) > 10 {
		return ts[:10]
	}
	return ts
}

// cached serves key from the cache or fills it with load. Errors are not
// cached.
func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	key = "github:" + key
	if v, ok := cache.GetJSON[T](s.cache, key); ok {
		metrics.RecordUpstreamCacheLookup(upstreamLabel, true)
		return v, nil
	}
	metrics.RecordUpstreamCacheLookup(upstreamLabel, false)

	v, err := load()
	if err != nil {
		return v, err
	}
	if err := cache.SetJSON(s.cache, key, v, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
	}
	return v, nil
}
