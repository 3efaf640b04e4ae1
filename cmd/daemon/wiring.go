// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"fmt"

	"github.com/ManuGH/streamcache/internal/api"
	"github.com/ManuGH/streamcache/internal/channels"
	"github.com/ManuGH/streamcache/internal/config"
	"github.com/ManuGH/streamcache/internal/daemon"
	"github.com/ManuGH/streamcache/internal/health"
	sclog "github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/refresh"
	"github.com/ManuGH/streamcache/internal/resolver"
	"github.com/ManuGH/streamcache/internal/scheduler"
	"github.com/ManuGH/streamcache/internal/snapshot"
	"github.com/ManuGH/streamcache/internal/store"
	"github.com/ManuGH/streamcache/internal/telemetry"
	"github.com/ManuGH/streamcache/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const serviceName = "streamcache"

// wiring holds the assembled runtime.
type wiring struct {
	manager   daemon.Manager
	scheduler *scheduler.Scheduler
	watcher   daemon.Watcher
}

// wire builds every subsystem from cfg. Resources that need releasing are
// registered as shutdown hooks on the returned manager; on error anything
// already opened is closed here.
func wire(ctx context.Context, cfg config.AppConfig, logger zerolog.Logger) (w *wiring, err error) {
	var cleanup []func()
	defer func() {
		if err != nil {
			for i := len(cleanup) - 1; i >= 0; i-- {
				cleanup[i]()
			}
		}
	}()

	tp, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    serviceName,
		ServiceVersion: version.Version,
		Environment:    cfg.Telemetry.Environment,
		ExporterType:   cfg.Telemetry.Exporter,
		Endpoint:       cfg.Telemetry.Endpoint,
		SamplingRate:   cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	cleanup = append(cleanup, func() { _ = tp.Shutdown(context.Background()) })

	st, err := openStore(cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	cleanup = append(cleanup, func() { _ = st.Close() })

	roster := channels.NewFileRoster(cfg.RosterPath)
	res := resolver.WithRateLimit(resolver.NewYTDLP(resolver.YTDLPConfig{
		Binary:      cfg.Resolver.Binary,
		Format:      cfg.Resolver.Format,
		CookiesFile: cfg.Resolver.CookiesFile,
	}), cfg.Resolver.Rate)

	engine := refresh.New(roster, res, st, refresh.Config{
		Timeout:      cfg.Refresh.Timeout,
		PruneRemoved: cfg.Refresh.PruneRemoved,
	})

	meta := scheduler.NewRunMetadata()
	sched := scheduler.New(engine, meta, scheduler.Config{
		Interval:     cfg.Refresh.Interval,
		StartupDelay: cfg.Refresh.StartupDelay,
	})

	hm := health.NewManager(version.Version)
	hm.RegisterChecker(health.NewStoreChecker(st.Backend(), st))
	hm.RegisterChecker(health.NewFreshnessChecker(meta, sched.Interval()))
	hm.RegisterChecker(health.NewBinaryChecker(cfg.Resolver.Binary))
	hm.RegisterChecker(health.NewRosterChecker(roster))

	srv, err := api.New(api.Deps{
		Version:        version.Version,
		Reader:         snapshot.NewReader(roster, st, meta),
		Refresher:      sched,
		Health:         hm,
		Metrics:        promhttp.Handler(),
		RateLimit:      cfg.Server.RateLimit,
		TracingService: tracingService(cfg.Telemetry),
	})
	if err != nil {
		return nil, fmt.Errorf("api: %w", err)
	}

	mgr, err := daemon.NewManager(cfg.Server, daemon.Deps{
		Logger:     sclog.WithComponent("manager"),
		APIHandler: srv.Handler(),
	})
	if err != nil {
		return nil, fmt.Errorf("daemon: %w", err)
	}
	// LIFO: the store closes before the tracer provider flushes.
	mgr.RegisterShutdownHook("telemetry", tp.Shutdown)
	mgr.RegisterShutdownHook("store", func(context.Context) error { return st.Close() })

	w = &wiring{manager: mgr, scheduler: sched}
	if cfg.WatchRoster {
		w.watcher = channels.NewWatcher(cfg.RosterPath, func() {
			started := sched.TriggerAsync("roster_change")
			logger.Info().
				Str(sclog.FieldEvent, "roster.changed").
				Bool("started", started).
				Msg("roster file changed")
		})
	}
	return w, nil
}

func openStore(cfg config.StoreConfig, logger zerolog.Logger) (*store.Store, error) {
	ev := logger.Info().
		Str(sclog.FieldBackend, cfg.Backend).
		Str(sclog.FieldEvent, "store.open")
	if cfg.Backend == config.BackendRedis {
		ev = ev.Str("addr", maskURL("redis://"+cfg.RedisAddr))
	} else {
		ev = ev.Str(sclog.FieldPath, cfg.Path)
	}
	ev.Msg("opening cache store")

	st, err := store.Open(store.Options{
		Backend: cfg.Backend,
		Path:    cfg.Path,
		Redis: store.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return st, nil
}

// tracingService names the HTTP server span source, or "" to skip
// instrumentation when tracing is off.
func tracingService(cfg config.TelemetryConfig) string {
	if !cfg.Enabled {
		return ""
	}
	return serviceName
}
