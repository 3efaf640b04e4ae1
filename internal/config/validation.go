// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate checks a resolved configuration for values the daemon cannot run with.
func Validate(cfg AppConfig) error {
	var errs []error

	if cfg.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if cfg.RosterPath == "" {
		errs = append(errs, errors.New("roster_path must not be empty"))
	}

	switch cfg.Store.Backend {
	case BackendFile, BackendSQLite, BackendBadger:
		if cfg.Store.Path == "" {
			errs = append(errs, fmt.Errorf("store.path must not be empty for backend %q", cfg.Store.Backend))
		}
	case BackendRedis:
		if cfg.Store.RedisAddr == "" {
			errs = append(errs, errors.New("store.redis_addr must not be empty for backend \"redis\""))
		}
		if cfg.Store.RedisKey == "" {
			errs = append(errs, errors.New("store.redis_key must not be empty for backend \"redis\""))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend %q is not one of file, sqlite, redis, badger", cfg.Store.Backend))
	}

	if cfg.Refresh.Interval < MinRefreshInterval {
		errs = append(errs, fmt.Errorf("refresh.interval %s is below the %s floor", cfg.Refresh.Interval, MinRefreshInterval))
	}
	if cfg.Refresh.Timeout <= 0 {
		errs = append(errs, errors.New("refresh.timeout must be positive"))
	}
	if cfg.Refresh.StartupDelay < 0 {
		errs = append(errs, errors.New("refresh.startup_delay must not be negative"))
	}

	if cfg.Resolver.Binary == "" {
		errs = append(errs, errors.New("resolver.binary must not be empty"))
	}
	if cfg.Resolver.Rate < 0 {
		errs = append(errs, errors.New("resolver.rate must not be negative"))
	}

	if _, _, err := net.SplitHostPort(cfg.Server.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("server.listen_addr %q: %w", cfg.Server.ListenAddr, err))
	}
	if cfg.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}

	if cfg.Telemetry.Enabled {
		if cfg.Telemetry.Exporter != "grpc" && cfg.Telemetry.Exporter != "http" {
			errs = append(errs, fmt.Errorf("telemetry.exporter %q must be grpc or http", cfg.Telemetry.Exporter))
		}
		if cfg.Telemetry.SamplingRate < 0 || cfg.Telemetry.SamplingRate > 1 {
			errs = append(errs, fmt.Errorf("telemetry.sampling_rate %v must be within [0,1]", cfg.Telemetry.SamplingRate))
		}
	}

	return errors.Join(errs...)
}
