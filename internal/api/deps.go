// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"errors"

	"github.com/duma799/portfolio/internal/audit"
	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/configfile"
	"github.com/duma799/portfolio/internal/github"
	"github.com/duma799/portfolio/internal/health"
	"github.com/duma799/portfolio/internal/keybind"
)

// KeybindService is the keybind aggregator.
type KeybindService interface {
	Keybinds(ctx context.Context, p keybind.Platform) []keybind.Keybind
	KeybindsByCategory(ctx context.Context, p keybind.Platform, category string) []keybind.Keybind
	Categories(ctx context.Context, p keybind.Platform) []string
	ClearCache()
	CacheSize() int
}

// ConfigFileService renders highlighted dotfiles.
type ConfigFileService interface {
	File(ctx context.Context, repo, path string) (*configfile.ConfigFile, bool)
	HighlightCSS() (string, error)
}

// GitHubService serves repository metadata.
type GitHubService interface {
	RepoStats(ctx context.Context, repo string) (*github.RepoInfo, error)
	AllRepos(ctx context.Context) ([]github.RepoInfo, error)
	DotfilesRepos(ctx context.Context) (map[string]github.RepoInfo, error)
	ReadmeHTML(ctx context.Context, platform string) (markdown, html string, ok bool)
	Changelog(ctx context.Context, repo string) ([]github.ChangelogEntry, error)
}

// AuditReader lists persisted audit events.
type AuditReader interface {
	Recent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Deps holds all dependencies for the API server.
type Deps struct {
	Keybinds KeybindService
	Configs  ConfigFileService
	GitHub   GitHubService
	Health   *health.Manager

	// Settings returns the current configuration. Middleware options are
	// read once at construction; handlers read it per request.
	Settings func() config.AppConfig

	// Optional.
	Audit       *audit.Logger
	AuditReader AuditReader
	Version     string
}

var (
	errMissingKeybinds = errors.New("api: keybind service is required")
	errMissingConfigs  = errors.New("api: config file service is required")
	errMissingGitHub   = errors.New("api: github service is required")
	errMissingHealth   = errors.New("api: health manager is required")
	errMissingSettings = errors.New("api: settings func is required")
)

func (d Deps) validate() error {
	switch {
	case d.Keybinds == nil:
		return errMissingKeybinds
	case d.Configs == nil:
		return errMissingConfigs
	case d.GitHub == nil:
		return errMissingGitHub
	case d.Health == nil:
		return errMissingHealth
	case d.Settings == nil:
		return errMissingSettings
	}
	return nil
}
