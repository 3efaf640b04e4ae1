// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/ManuGH/streamcache/internal/config"
	"github.com/ManuGH/streamcache/internal/daemon"
	"github.com/ManuGH/streamcache/internal/health"
	sclog "github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/version"
)

// maskURL removes user info from a URL string for safe logging.
func maskURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url-redacted"
	}
	parsedURL.User = nil
	return parsedURL.String()
}

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "config":
			os.Exit(runConfigCLI(os.Args[2:]))
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
	sclog.Configure(sclog.Config{
		Level:   "info",
		Service: "streamcache",
		Version: version.Version,
	})
	logger := sclog.WithComponent("daemon")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := strings.TrimSpace(*configPath)
	if path == "" {
		path = resolveDefaultConfigPath()
	}

	cfg, err := config.NewLoader(path, version.Version).Load()
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(sclog.FieldEvent, "config.invalid").
			Str("config_path", path).
			Msg("failed to load configuration")
	}

	sclog.Reconfigure(sclog.Config{
		Level:   cfg.LogLevel,
		Service: "streamcache",
		Version: version.Version,
	})
	logger = sclog.WithComponent("daemon")

	logger.Info().
		Str("version", version.Version).
		Str("commit", version.Commit).
		Str("build_date", version.Date).
		Str(sclog.FieldEvent, "startup").
		Msg("starting streamcache")

	if path != "" {
		logger.Info().Str("config_path", path).Msg("configuration loaded from file")
	}

	if err := health.PerformStartupChecks(ctx, cfg); err != nil {
		logger.Fatal().
			Err(err).
			Str(sclog.FieldEvent, "startup.checks_failed").
			Msg("startup checks failed")
	}

	w, err := wire(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().
			Err(err).
			Str(sclog.FieldEvent, "startup.wiring_failed").
			Msg("failed to assemble daemon")
	}

	app := daemon.NewApp(logger, w.manager, w.scheduler, w.watcher)
	if err := app.Run(ctx); err != nil {
		logger.Error().
			Err(err).
			Str(sclog.FieldEvent, "daemon.failed").
			Msg("daemon stopped with error")
		os.Exit(1)
	}
	logger.Info().Str(sclog.FieldEvent, "shutdown.complete").Msg("streamcache stopped")
}

// resolveDefaultConfigPath returns STREAMCACHE_CONFIG or <data dir>/config.yaml
// when that file exists.
func resolveDefaultConfigPath() string {
	if p := strings.TrimSpace(os.Getenv("STREAMCACHE_CONFIG")); p != "" {
		return p
	}
	dataDir := strings.TrimSpace(os.Getenv("STREAMCACHE_DATA_DIR"))
	if dataDir == "" {
		dataDir = config.Defaults().DataDir
	}
	autoPath := filepath.Join(dataDir, "config.yaml")
	if _, err := os.Stat(autoPath); err == nil {
		return autoPath
	}
	return ""
}
