// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/renameio/v2"

	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/keybind"
	"github.com/duma799/portfolio/internal/keybind/parsers"
	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/version"
)

// errNoKeybinds is returned when no source yields a binding for the platform.
var errNoKeybinds = errors.New("no keybinds found")

type keybindLister interface {
	Keybinds(ctx context.Context, p keybind.Platform) []keybind.Keybind
}

func runExportCLI(args []string) int {
	return exportMain(args, os.Stdout, os.Stderr)
}

func exportMain(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to config file (YAML)")
	platform := fs.String("platform", "", "platform to export (hyprland or yabai)")
	out := fs.String("out", "", "output file; stdout when empty")
	timeout := fs.Duration("timeout", 30*time.Second, "fetch timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	p, err := keybind.ParsePlatform(*platform)
	if err != nil {
		fmt.Fprintf(stderr, "export: %v\n", err)
		return 2
	}

	log.Configure(log.Config{Level: "warn", Service: config.DefaultAppName, Version: version.Version})
	cfg, err := config.NewLoader(*configPath, version.Version).Load()
	if err != nil {
		fmt.Fprintf(stderr, "export: load config: %v\n", err)
		return 1
	}
	client, err := newGitHubClient(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "export: %v\n", err)
		return 1
	}
	repos := keybind.RepoMap{}
	for name, repo := range cfg.Repos {
		if rp, err := keybind.ParsePlatform(name); err == nil {
			repos[rp] = repo
		}
	}
	svc := keybind.NewService(client, repos, parsers.DefaultSources())

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	n, err := exportKeybinds(ctx, svc, p, *out, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "export: %v\n", err)
		return 1
	}
	if *out != "" {
		fmt.Fprintf(stderr, "exported %d %s keybinds to %s\n", n, p, *out)
	}
	return 0
}

// exportKeybinds writes the platform's keybinds as indented JSON. A named
// output file is replaced atomically. Nothing is written when the platform
// has no keybinds.
func exportKeybinds(ctx context.Context, svc keybindLister, p keybind.Platform, out string, stdout io.Writer) (int, error) {
	kbs := svc.Keybinds(ctx, p)
	if len(kbs) == 0 {
		return 0, fmt.Errorf("%w for %s", errNoKeybinds, p)
	}
	data, err := json.MarshalIndent(kbs, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("encode keybinds: %w", err)
	}
	data = append(data, '\n')

	if out == "" {
		_, err = stdout.Write(data)
		return len(kbs), err
	}
	if err := renameio.WriteFile(out, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", out, err)
	}
	return len(kbs), nil
}
