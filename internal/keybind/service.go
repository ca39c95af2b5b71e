// SPDX-License-Identifier: MIT

package keybind

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/metrics"
	"github.com/duma799/portfolio/internal/telemetry"
)

const tracerName = "portfolio/keybinds"

// Fetcher retrieves raw file text from a repository. A missing file and a
// failed fetch are both reported as ok=false.
type Fetcher interface {
	FetchRawFile(ctx context.Context, repo, path string) (string, bool)
}

// RepoResolver maps a platform to the repository holding its dotfiles.
type RepoResolver interface {
	RepoFor(p Platform) (string, bool)
}

// RepoMap is a static RepoResolver.
type RepoMap map[Platform]string

// RepoFor implements RepoResolver.
func (m RepoMap) RepoFor(p Platform) (string, bool) {
	repo, ok := m[p]
	return repo, ok && repo != ""
}

// Source is one candidate file for a platform and the parser that reads it.
type Source struct {
	Name   string
	Path   string
	Parser Parser
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) ServiceOption {
	return func(s *Service) { s.logger = l }
}

// Service aggregates keybinds per platform. Sources are tried in order and
// the first one that yields at least one binding is used exclusively.
// Results, including empty ones, are cached until ClearCache.
type Service struct {
	fetcher Fetcher
	repos   RepoResolver
	sources map[Platform][]Source
	logger  zerolog.Logger

	mu    sync.RWMutex
	cache map[Platform][]Keybind
	group singleflight.Group
}

// NewService wires a Service. sources is copied.
func NewService(f Fetcher, repos RepoResolver, sources map[Platform][]Source, opts ...ServiceOption) *Service {
	s := &Service{
		fetcher: f,
		repos:   repos,
		sources: make(map[Platform][]Source, len(sources)),
		logger:  log.WithComponent("keybinds"),
		cache:   make(map[Platform][]Keybind),
	}
	for p, list := range sources {
		s.sources[p] = append([]Source(nil), list...)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Keybinds returns every binding for p in source order. It never fails; an
// unknown platform or unreachable repository yields an empty slice. The
// returned slice belongs to the caller.
//
// Concurrent misses share one load. The load is detached from the caller's
// cancellation so a disconnecting client cannot empty the cache for the
// others; it keeps the caller's deadline. A load cut short by its deadline is
// not cached.
func (s *Service) Keybinds(ctx context.Context, p Platform) []Keybind {
	if kbs, ok := s.cached(p); ok {
		metrics.RecordKeybindCacheLookup(string(p), true)
		return slices.Clone(kbs)
	}
	metrics.RecordKeybindCacheLookup(string(p), false)

	repo, ok := s.repos.RepoFor(p)
	if !ok {
		s.logger.Debug().
			Str(log.FieldEvent, "keybinds.no_repo").
			Str(log.FieldPlatform, string(p)).
			Msg("no repository configured for platform")
		return []Keybind{}
	}

	ch := s.group.DoChan(string(p), func() (any, error) {
		// A concurrent caller may have populated the entry while we waited.
		if kbs, ok := s.cached(p); ok {
			return kbs, nil
		}

		loadCtx := context.WithoutCancel(ctx)
		if dl, ok := ctx.Deadline(); ok {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithDeadline(loadCtx, dl)
			defer cancel()
		}

		kbs := s.load(loadCtx, p, repo)
		if err := loadCtx.Err(); err != nil {
			s.logger.Warn().
				Err(err).
				Str(log.FieldEvent, "keybinds.load_aborted").
				Str(log.FieldPlatform, string(p)).
				Msg("keybind load ran out of time, result not cached")
			return kbs, nil
		}
		s.mu.Lock()
		s.cache[p] = kbs
		s.mu.Unlock()
		return kbs, nil
	})

	select {
	case <-ctx.Done():
		return []Keybind{}
	case res := <-ch:
		return slices.Clone(res.Val.([]Keybind))
	}
}

// KeybindsByCategory returns the bindings of p whose category matches
// category case-insensitively.
func (s *Service) KeybindsByCategory(ctx context.Context, p Platform, category string) []Keybind {
	out := []Keybind{}
	for _, kb := range s.Keybinds(ctx, p) {
		if strings.EqualFold(kb.Category, category) {
			out = append(out, kb)
		}
	}
	return out
}

// Categories returns the distinct categories of p in first-seen order.
func (s *Service) Categories(ctx context.Context, p Platform) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, kb := range s.Keybinds(ctx, p) {
		if _, dup := seen[kb.Category]; dup {
			continue
		}
		seen[kb.Category] = struct{}{}
		out = append(out, kb.Category)
	}
	return out
}

// ClearCache drops every cached platform.
func (s *Service) ClearCache() {
	s.mu.Lock()
	n := len(s.cache)
	s.cache = make(map[Platform][]Keybind)
	s.mu.Unlock()

	metrics.IncKeybindCacheClear()
	s.logger.Info().
		Str(log.FieldEvent, "keybinds.cache_cleared").
		Int(log.FieldCount, n).
		Msg("keybind cache cleared")
}

// CacheSize reports the number of cached platforms.
func (s *Service) CacheSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cache)
}

func (s *Service) cached(p Platform) ([]Keybind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	kbs, ok := s.cache[p]
	return kbs, ok
}

func (s *Service) load(ctx context.Context, p Platform, repo string) []Keybind {
	ctx, span := telemetry.Tracer(tracerName).Start(ctx, "keybinds.load",
		trace.WithAttributes(telemetry.KeybindAttributes(string(p), repo)...))
	defer span.End()

	logger := s.logger.With().
		Str(log.FieldPlatform, string(p)).
		Str(log.FieldRepo, repo).
		Logger()

	for _, src := range s.sources[p] {
		content, ok := s.fetcher.FetchRawFile(ctx, repo, src.Path)
		if ok && content != "" {
			kbs := src.Parser.Parse(content)
			if len(kbs) > 0 {
				span.SetAttributes(telemetry.KeybindResultAttributes(src.Name, len(kbs))...)
				metrics.RecordKeybindsParsed(string(p), src.Name, len(kbs))
				logger.Info().
					Str(log.FieldEvent, "keybinds.fetch").
					Str(log.FieldSource, src.Name).
					Str(log.FieldPath, src.Path).
					Int(log.FieldCount, len(kbs)).
					Msg("keybinds loaded")
				return kbs
			}
		}
		metrics.IncKeybindFallback(string(p), src.Name)
		logger.Debug().
			Str(log.FieldEvent, "keybinds.source_empty").
			Str(log.FieldSource, src.Name).
			Str(log.FieldPath, src.Path).
			Bool("fetched", ok).
			Msg("source produced no keybinds")
	}

	span.SetAttributes(telemetry.KeybindResultAttributes("", 0)...)
	logger.Warn().
		Str(log.FieldEvent, "keybinds.empty").
		Msg("no source produced keybinds")
	return []Keybind{}
}
