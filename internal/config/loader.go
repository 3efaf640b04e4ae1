// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ManuGH/streamcache/internal/log"
	"gopkg.in/yaml.v3"
)

// Loader handles configuration loading with precedence ENV > File > Defaults.
type Loader struct {
	configPath string
	version    string
}

// NewLoader creates a new configuration loader. configPath may be empty.
func NewLoader(configPath, version string) *Loader {
	return &Loader{configPath: configPath, version: version}
}

// Load resolves the configuration: defaults, then the YAML file (strict), then
// environment, then normalization and validation.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	mergeEnv(&cfg)
	normalize(&cfg)
	cfg.Version = l.version

	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadFile decodes a YAML file on top of cfg. Unknown fields are rejected.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("config file contains multiple documents or trailing content")
	}
	return nil
}

func mergeEnv(cfg *AppConfig) {
	cfg.DataDir = ParseString("STREAMCACHE_DATA_DIR", cfg.DataDir)
	cfg.RosterPath = ParseString("STREAMCACHE_ROSTER", cfg.RosterPath)
	cfg.WatchRoster = ParseBool("STREAMCACHE_WATCH_ROSTER", cfg.WatchRoster)
	cfg.LogLevel = ParseString("LOG_LEVEL", cfg.LogLevel)

	cfg.Store.Backend = ParseString("STREAMCACHE_STORE_BACKEND", cfg.Store.Backend)
	cfg.Store.Path = ParseString("STREAMCACHE_STORE_PATH", cfg.Store.Path)
	cfg.Store.RedisAddr = ParseString("STREAMCACHE_REDIS_ADDR", cfg.Store.RedisAddr)
	cfg.Store.RedisPassword = ParseString("STREAMCACHE_REDIS_PASSWORD", cfg.Store.RedisPassword)
	cfg.Store.RedisDB = ParseInt("STREAMCACHE_REDIS_DB", cfg.Store.RedisDB)
	cfg.Store.RedisKey = ParseString("STREAMCACHE_REDIS_KEY", cfg.Store.RedisKey)

	cfg.Refresh.Interval = ParseDuration("STREAMCACHE_REFRESH_INTERVAL", cfg.Refresh.Interval)
	cfg.Refresh.Timeout = ParseDuration("STREAMCACHE_RESOLVE_TIMEOUT", cfg.Refresh.Timeout)
	cfg.Refresh.StartupDelay = ParseDuration("STREAMCACHE_STARTUP_DELAY", cfg.Refresh.StartupDelay)
	cfg.Refresh.PruneRemoved = ParseBool("STREAMCACHE_PRUNE_REMOVED", cfg.Refresh.PruneRemoved)

	cfg.Resolver.Binary = ParseString("STREAMCACHE_YTDLP_BIN", cfg.Resolver.Binary)
	cfg.Resolver.Format = ParseString("STREAMCACHE_YTDLP_FORMAT", cfg.Resolver.Format)
	cfg.Resolver.CookiesFile = ParseString("STREAMCACHE_COOKIES_FILE", cfg.Resolver.CookiesFile)
	cfg.Resolver.Rate = ParseFloat("STREAMCACHE_RESOLVER_RATE", cfg.Resolver.Rate)

	cfg.Server.ListenAddr = ParseString("STREAMCACHE_LISTEN", cfg.Server.ListenAddr)
	cfg.Server.RateLimit = ParseInt("STREAMCACHE_RATE_LIMIT", cfg.Server.RateLimit)

	cfg.Telemetry.Enabled = ParseBool("STREAMCACHE_OTEL_ENABLED", cfg.Telemetry.Enabled)
	cfg.Telemetry.Exporter = ParseString("STREAMCACHE_OTEL_EXPORTER", cfg.Telemetry.Exporter)
	cfg.Telemetry.Endpoint = ParseString("STREAMCACHE_OTEL_ENDPOINT", cfg.Telemetry.Endpoint)
	cfg.Telemetry.Environment = ParseString("STREAMCACHE_OTEL_ENVIRONMENT", cfg.Telemetry.Environment)
	cfg.Telemetry.SamplingRate = ParseFloat("STREAMCACHE_OTEL_SAMPLING_RATE", cfg.Telemetry.SamplingRate)
}

// normalize fills derived defaults and clamps values that have a hard floor.
func normalize(cfg *AppConfig) {
	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	cfg.Store.Backend = strings.ToLower(strings.TrimSpace(cfg.Store.Backend))

	if cfg.Store.Path == "" {
		switch cfg.Store.Backend {
		case BackendSQLite:
			cfg.Store.Path = filepath.Join(cfg.DataDir, "stream_cache.db")
		case BackendBadger:
			cfg.Store.Path = filepath.Join(cfg.DataDir, "badger")
		default:
			cfg.Store.Path = filepath.Join(cfg.DataDir, "stream_cache.json")
		}
	}

	if cfg.Refresh.Interval < MinRefreshInterval {
		log.WithComponent("config").Warn().
			Dur("configured", cfg.Refresh.Interval).
			Dur("floor", MinRefreshInterval).
			Msg("refresh interval below floor, clamping")
		cfg.Refresh.Interval = MinRefreshInterval
	}
}
