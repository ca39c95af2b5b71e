// SPDX-License-Identifier: MIT

package health

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/duma799/portfolio/internal/config"
	"github.com/duma799/portfolio/internal/log"
)

// PerformStartupChecks validates the environment before the servers start.
// The data directory and the database's directory must be writable; a
// missing static directory only produces a warning.
func PerformStartupChecks(cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")

	if err := checkWritableDir(cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if dbDir := filepath.Dir(cfg.DatabasePath); dbDir != filepath.Clean(cfg.DataDir) {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return fmt.Errorf("database directory: %w", err)
		}
		if err := checkWritableDir(dbDir); err != nil {
			return fmt.Errorf("database directory check failed: %w", err)
		}
	}
	if info, err := os.Stat(cfg.StaticDir); err != nil || !info.IsDir() {
		logger.Warn().
			Str(log.FieldEvent, "startup.static_missing").
			Str(log.FieldPath, cfg.StaticDir).
			Msg("static directory not found, /static will serve 404s")
	}

	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Msg("all startup checks passed")
	return nil
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s: %w", path, err)
	}
	_ = os.Remove(testFile)
	return nil
}
