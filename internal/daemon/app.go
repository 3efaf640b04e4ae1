// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/ManuGH/streamcache/internal/log"
	"github.com/rs/zerolog"
)

// Scheduler is the refresh loop owned by the app.
type Scheduler interface {
	Start(ctx context.Context)
	Wait()
	TriggerAsync(trigger string) bool
}

// Watcher runs until ctx is cancelled, e.g. a roster file watcher.
type Watcher interface {
	Run(ctx context.Context) error
}

// App owns the long-lived runtime (scheduler, roster watcher, refresh
// signal) and delegates server management to Manager.
type App struct {
	logger        zerolog.Logger
	manager       Manager
	scheduler     Scheduler
	watcher       Watcher
	refreshSignal os.Signal
}

// NewApp creates a new App orchestrator. watcher may be nil.
func NewApp(logger zerolog.Logger, manager Manager, scheduler Scheduler, watcher Watcher) *App {
	return &App{
		logger:        logger,
		manager:       manager,
		scheduler:     scheduler,
		watcher:       watcher,
		refreshSignal: syscall.SIGHUP,
	}
}

// Run starts all owned subsystems and blocks until ctx is cancelled or the
// server fails. It returns only after any in-flight refresh pass has stopped.
func (a *App) Run(ctx context.Context) error {
	if a.manager == nil {
		return ErrMissingManager
	}
	if a.scheduler == nil {
		return ErrMissingScheduler
	}

	g, ctx := errgroup.WithContext(ctx)

	schedCtx, stopScheduler := context.WithCancel(ctx)
	defer stopScheduler()
	a.scheduler.Start(schedCtx)

	// Registered after the resource hooks, so it runs before them: an
	// in-flight pass must finish its last save before the store closes.
	a.manager.RegisterShutdownHook("scheduler", func(hookCtx context.Context) error {
		stopScheduler()
		return a.drainScheduler(hookCtx)
	})

	// Roster watcher is best-effort: without it, changes are picked up on the next tick.
	if a.watcher != nil {
		g.Go(func() error {
			if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Warn().
					Err(err).
					Str(log.FieldEvent, "roster.watcher_failed").
					Msg("roster watcher stopped")
			}
			return nil
		})
	}

	if a.refreshSignal != nil {
		g.Go(func() error {
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, a.refreshSignal)
			defer signal.Stop(sigCh)

			for {
				select {
				case <-ctx.Done():
					return nil
				case <-sigCh:
					started := a.scheduler.TriggerAsync("signal")
					a.logger.Info().
						Str(log.FieldEvent, "refresh.signal").
						Str("signal", a.refreshSignal.String()).
						Bool("started", started).
						Msg("received refresh signal")
				}
			}
		})
	}

	g.Go(func() error {
		err := a.manager.Start(ctx)
		if err != nil {
			_ = a.manager.Shutdown(context.Background())
		}
		return err
	})

	err := g.Wait()
	a.scheduler.Wait()
	return err
}

// drainScheduler waits for the scheduler to stop, bounded by ctx.
func (a *App) drainScheduler(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		a.scheduler.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		a.logger.Warn().
			Str(log.FieldEvent, "refresh.drain_timeout").
			Msg("refresh pass still running at shutdown deadline")
		return fmt.Errorf("waiting for refresh pass: %w", ctx.Err())
	}
}
