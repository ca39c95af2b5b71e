// SPDX-License-Identifier: MIT

// Command portfolio serves the portfolio site, its JSON API and the
// dotfiles keybind viewer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/daemon"
	"github.com/duma799/portfolio/internal/health"
	"github.com/duma799/portfolio/internal/log"
	"github.com/duma799/portfolio/internal/version"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "export":
			os.Exit(runExportCLI(os.Args[2:]))
		case "healthcheck":
			os.Exit(runHealthcheckCLI(os.Args[2:]))
		}
	}

	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "", "path to config file (YAML)")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		os.Exit(0)
	}

	// Safe defaults until the config is loaded.
	log.Configure(log.Config{
		Level:   "info",
		Service: config.DefaultAppName,
		Version: version.Version,
	})
	logger := log.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, strings.TrimSpace(*configPath), logger); err != nil {
		logger.Fatal().Err(err).Str(log.FieldEvent, "daemon.failed").Msg("portfolio exited with error")
	}
	logger.Info().Str(log.FieldEvent, "daemon.stopped").Msg("portfolio stopped")
}

func run(ctx context.Context, configPath string, logger zerolog.Logger) error {
	loader := config.NewLoader(configPath, version.Version)
	cfg, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Configure(log.Config{
		Level:   cfg.LogLevel,
		Service: cfg.AppName,
		Version: version.Version,
	})
	logger = log.WithComponent("daemon")
	logger.Info().
		Str(log.FieldEvent, "config.loaded").
		Str("config_path", configPath).
		Str("listen", cfg.APIListenAddr).
		Str("cache_backend", cfg.Cache.Backend).
		Int(log.FieldCount, len(cfg.Repos)).
		Msg("configuration loaded")

	if err := health.PerformStartupChecks(cfg); err != nil {
		return fmt.Errorf("startup checks: %w", err)
	}
	if err := verifyDatabase(cfg.DatabasePath); err != nil {
		return err
	}

	holder := config.NewConfigHolder(cfg, loader)
	stack, err := buildStack(ctx, holder, logger)
	if err != nil {
		return err
	}

	mgr, err := daemon.NewManager(config.ServerConfigFor(cfg), stack.deps)
	if err != nil {
		stack.close(ctx)
		return fmt.Errorf("create daemon manager: %w", err)
	}
	for _, hook := range stack.hooks {
		mgr.RegisterShutdownHook(hook.name, hook.fn)
	}

	app := daemon.NewApp(logger, mgr, holder, stack.onReload)
	app.OnReloadFailure(stack.onReloadFailure)
	return app.Run(ctx)
}
