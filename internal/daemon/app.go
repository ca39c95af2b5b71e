// SPDX-License-Identifier: MIT

package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/log"
)

// ReloadFunc reacts to a successfully reloaded configuration.
type ReloadFunc func(ctx context.Context, cfg config.AppConfig)

// App owns the long-lived runtime lifecycle (config watcher, reload wiring)
// and delegates server management to Manager.
type App struct {
	logger       zerolog.Logger
	manager      Manager
	cfgHolder    *config.ConfigHolder
	onReload     ReloadFunc
	onFailure    func(ctx context.Context, err error)
	reloadSignal os.Signal
}

// NewApp creates a new App orchestrator. cfgHolder and onReload may be nil.
func NewApp(logger zerolog.Logger, manager Manager, cfgHolder *config.ConfigHolder, onReload ReloadFunc) *App {
	return &App{
		logger:       logger,
		manager:      manager,
		cfgHolder:    cfgHolder,
		onReload:     onReload,
		reloadSignal: syscall.SIGHUP,
	}
}

// OnReloadFailure registers fn for signal-triggered reloads that fail.
func (a *App) OnReloadFailure(fn func(ctx context.Context, err error)) {
	a.onFailure = fn
}

// Run starts all owned background subsystems and blocks until ctx is cancelled or a fatal error occurs.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}

	g, ctx := errgroup.WithContext(ctx)

	if a.cfgHolder != nil {
		// Best-effort: the service runs without hot reload if the watcher fails.
		if err := a.cfgHolder.StartWatcher(ctx); err != nil {
			a.logger.Warn().Err(err).Str(log.FieldEvent, "config.watcher_start_failed").Msg("failed to start config watcher")
		}
	}

	if a.cfgHolder != nil && a.onReload != nil {
		applyCh := make(chan config.AppConfig, 1)
		a.cfgHolder.RegisterListener(applyCh)

		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case cfg := <-applyCh:
					a.onReload(log.ContextWithCorrelationID(ctx, uuid.NewString()), cfg)
				}
			}
		})
	}

	if a.cfgHolder != nil && a.reloadSignal != nil {
		g.Go(func() error {
			hupChan := make(chan os.Signal, 1)
			signal.Notify(hupChan, a.reloadSignal)
			defer signal.Stop(hupChan)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hupChan:
					a.logger.Info().
						Str(log.FieldEvent, "config.reload_signal").
						Str("signal", a.reloadSignal.String()).
						Msg("received reload signal, reloading config")

					if err := a.cfgHolder.Reload(ctx); err != nil {
						a.logger.Warn().
							Err(err).
							Str(log.FieldEvent, "config.reload_failed").
							Msg("config reload failed")
						if a.onFailure != nil {
							a.onFailure(log.ContextWithCorrelationID(ctx, uuid.NewString()), err)
						}
					}
				}
			}
		})
	}

	g.Go(func() error {
		return a.manager.Start(ctx)
	})

	err := g.Wait()
	if a.cfgHolder != nil {
		a.cfgHolder.Stop()
	}
	return err
}
