// SPDX-License-Identifier: MIT

// Package configfile serves dotfiles from a repository as highlighted HTML.
package configfile

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/metrics"
)

// Fetcher retrieves raw file text. ok is false when the file is missing or
// the fetch failed.
type Fetcher interface {
	FetchRawFile(ctx context.Context, repo, path string) (string, bool)
}

// ConfigFile is a fetched file with its highlighted rendering.
type ConfigFile struct {
	Repo            string `json:"repo"`
	Path            string `json:"path"`
	Content         string `json:"content"`
	HighlightedHTML string `json:"highlighted_html"`
	Language        string `json:"language"`
}

// Service fetches and highlights configuration files.
type Service struct {
	fetcher     Fetcher
	highlighter *Highlighter
	logger      zerolog.Logger

	cssOnce sync.Once
	css     string
	cssErr  error
}

// NewService returns a Service reading through f.
func NewService(f Fetcher) *Service {
	return &Service{
		fetcher:     f,
		highlighter: NewHighlighter(),
		logger:      log.WithComponent("configfile"),
	}
}

// File fetches path from repo and highlights it. ok is false when the file
// is absent or empty.
func (s *Service) File(ctx context.Context, repo, path string) (*ConfigFile, bool) {
	content, ok := s.fetcher.FetchRawFile(ctx, repo, path)
	if !ok || content == "" {
		return nil, false
	}

	language := DetectLanguage(path)
	html, err := s.highlighter.Highlight(content, language)
	if err != nil {
		s.logger.Warn().Err(err).
			Str(log.FieldRepo, repo).
			Str(log.FieldPath, path).
			Msg("highlight failed, serving escaped text")
		html, err = s.highlighter.Highlight(content, fallbackLanguage)
		if err != nil {
			return nil, false
		}
	}
	metrics.IncConfigFileRendered(language)

	return &ConfigFile{
		Repo:            repo,
		Path:            path,
		Content:         content,
		HighlightedHTML: html,
		Language:        language,
	}, true
}

// HighlightCSS returns the style sheet matching File's HTML.
func (s *Service) HighlightCSS() (string, error) {
	s.cssOnce.Do(func() {
		s.css, s.cssErr = s.highlighter.CSS()
	})
	return s.css, s.cssErr
}
