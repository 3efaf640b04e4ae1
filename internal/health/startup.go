// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ManuGH/streamcache/internal/config"
	"github.com/ManuGH/streamcache/internal/log"
	"github.com/rs/zerolog"
)

// PerformStartupChecks validates the environment before the daemon starts.
func PerformStartupChecks(ctx context.Context, cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")
	logger.Info().Msg("running pre-flight startup checks")

	if err := checkDataDir(logger, cfg.DataDir); err != nil {
		return fmt.Errorf("data directory check failed: %w", err)
	}
	if err := checkResolver(logger, cfg.Resolver); err != nil {
		return fmt.Errorf("resolver check failed: %w", err)
	}
	checkRoster(logger, cfg.RosterPath)
	warnTempDir(logger, cfg)

	logger.Info().Msg("all startup checks passed")
	return nil
}

func checkDataDir(logger zerolog.Logger, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	// Check write permissions by creating a temp file
	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("ok"), 0o600); err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	_ = os.Remove(testFile)

	logger.Info().Str(log.FieldPath, path).Msg("data directory is writable")
	return nil
}

func checkResolver(logger zerolog.Logger, cfg config.ResolverConfig) error {
	bin := strings.TrimSpace(cfg.Binary)
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("resolver binary not found (%s): %w", bin, err)
	}
	if cfg.CookiesFile != "" {
		if err := checkFileReadable(cfg.CookiesFile); err != nil {
			return fmt.Errorf("cookies file: %w", err)
		}
	}
	logger.Info().Str("binary", resolved).Msg("resolver binary available")
	return nil
}

// checkRoster only warns; a missing roster aborts passes but reads still work.
func checkRoster(logger zerolog.Logger, path string) {
	if err := checkFileReadable(path); err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldPath, path).
			Msg("roster not readable yet; refresh passes will abort until it appears")
		return
	}
	logger.Info().Str(log.FieldPath, path).Msg("roster readable")
}

func warnTempDir(logger zerolog.Logger, cfg config.AppConfig) {
	if cfg.Store.Backend == config.BackendRedis {
		return
	}
	tempDir := filepath.Clean(os.TempDir())
	dataDir := filepath.Clean(cfg.DataDir)
	if tempDir != "." && (dataDir == tempDir || strings.HasPrefix(dataDir, tempDir+string(filepath.Separator))) {
		logger.Warn().
			Str("data_dir", cfg.DataDir).
			Msg("data directory is under temp; cached addresses may be lost on reboot")
	}
}

func checkFileReadable(path string) error {
	f, err := os.Open(path) // #nosec G304 -- path comes from operator config; verifying readability is expected
	if err != nil {
		return err
	}
	return f.Close()
}
