// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads the daemon configuration from an optional YAML file and
// the environment.
package config

import "time"

// MinRefreshInterval is the shortest allowed gap between the completion of one
// refresh pass and the start of the next.
const MinRefreshInterval = 60 * time.Second

// Store backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// AppConfig is the fully resolved runtime configuration.
type AppConfig struct {
	Version string `yaml:"-"`

	DataDir     string `yaml:"data_dir"`
	RosterPath  string `yaml:"roster_path"`
	WatchRoster bool   `yaml:"watch_roster"`
	LogLevel    string `yaml:"log_level"`

	Store     StoreConfig     `yaml:"store"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Resolver  ResolverConfig  `yaml:"resolver"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig selects and parameterizes the cache store backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"`
	Path          string `yaml:"path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
	RedisKey      string `yaml:"redis_key"`
}

// RefreshConfig parameterizes the scheduler and refresh engine.
type RefreshConfig struct {
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	StartupDelay time.Duration `yaml:"startup_delay"`
	PruneRemoved bool          `yaml:"prune_removed"`
}

// ResolverConfig configures the yt-dlp resolver.
type ResolverConfig struct {
	Binary      string  `yaml:"binary"`
	Format      string  `yaml:"format"`
	CookiesFile string  `yaml:"cookies_file"`
	Rate        float64 `yaml:"rate"` // resolutions per second, 0 = unlimited
}

// TelemetryConfig configures OpenTelemetry tracing.
type TelemetryConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"` // "grpc" or "http"
	Endpoint     string  `yaml:"endpoint"`
	Environment  string  `yaml:"environment"`
	SamplingRate float64 `yaml:"sampling_rate"`
}

// Defaults returns the baseline configuration before file and environment
// overrides are applied.
func Defaults() AppConfig {
	return AppConfig{
		DataDir:     "/data",
		RosterPath:  "channels.json",
		WatchRoster: true,
		LogLevel:    "info",
		Store: StoreConfig{
			Backend:   BackendFile,
			RedisAddr: "localhost:6379",
			RedisKey:  "streamcache:cache",
		},
		Refresh: RefreshConfig{
			Interval:     30 * time.Minute,
			Timeout:      60 * time.Second,
			StartupDelay: 2 * time.Second,
		},
		Resolver: ResolverConfig{
			Binary: "yt-dlp",
			Format: "best[ext=mp4]/best",
		},
		Server: ServerConfig{
			ListenAddr:      ":8000",
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			MaxHeaderBytes:  1 << 20,
			ShutdownTimeout: 15 * time.Second,
			RateLimit:       120,
		},
		Telemetry: TelemetryConfig{
			Exporter:     "grpc",
			Endpoint:     "localhost:4317",
			Environment:  "production",
			SamplingRate: 1.0,
		},
	}
}
