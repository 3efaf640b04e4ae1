// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package scheduler drives refresh passes on a fixed interval and makes sure
// at most one pass runs at a time.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ManuGH/streamcache/internal/config"
	"github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/metrics"
	"github.com/ManuGH/streamcache/internal/refresh"
	"github.com/rs/zerolog"
)

// Runner performs a single refresh pass.
type Runner interface {
	RunOnce(ctx context.Context) (refresh.Summary, error)
}

// Config controls pass cadence.
type Config struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Scheduler owns the single-flight gate around Runner.
type Scheduler struct {
	runner Runner
	meta   *RunMetadata
	cfg    Config
	clock  Clock
	logger zerolog.Logger

	running atomic.Bool
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	baseCtx context.Context
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock injects the clock used for timers and run timestamps.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New creates a scheduler. Intervals below config.MinRefreshInterval are raised
// to the floor.
func New(runner Runner, meta *RunMetadata, cfg Config, opts ...Option) *Scheduler {
	logger := log.WithComponent("scheduler")
	if cfg.Interval < config.MinRefreshInterval {
		logger.Warn().
			Dur("configured", cfg.Interval).
			Dur("floor", config.MinRefreshInterval).
			Msg("refresh interval below floor, clamping")
		cfg.Interval = config.MinRefreshInterval
	}
	if cfg.StartupDelay < 0 {
		cfg.StartupDelay = 0
	}
	if meta == nil {
		meta = NewRunMetadata()
	}
	s := &Scheduler{
		runner:  runner,
		meta:    meta,
		cfg:     cfg,
		clock:   RealClock{},
		logger:  logger,
		done:    make(chan struct{}, 1),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the effective interval after clamping.
func (s *Scheduler) Interval() time.Duration { return s.cfg.Interval }

// Metadata returns the run bookkeeping shared with readers.
func (s *Scheduler) Metadata() *RunMetadata { return s.meta }

// InProgress reports whether a pass is currently running.
func (s *Scheduler) InProgress() bool { return s.running.Load() }

// Start launches the loop. The first pass fires after the startup delay; the
// loop stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.baseCtx = ctx
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop(ctx)
	}()
}

// Wait blocks until the loop and any asynchronous pass have returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.cfg.Interval).
		Dur("startup_delay", s.cfg.StartupDelay).
		Msg("refresh scheduler started")

	timer := s.clock.NewTimer(s.cfg.StartupDelay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("refresh scheduler stopping")
			return
		case <-timer.C():
			if !s.TryRun(ctx, "timer") {
				metrics.RecordRefreshRun("skipped", 0)
				s.logger.Debug().Str(log.FieldEvent, "refresh.cycle.skipped").Msg("pass already running, tick dropped")
			}
			timer.Reset(s.cfg.Interval)
		case <-s.done:
			// An out-of-band pass finished; measure the next interval from now.
			if !timer.Stop() {
				select {
				case <-timer.C():
				default:
				}
			}
			timer.Reset(s.cfg.Interval)
		}
	}
}

// TryRun runs a pass synchronously if none is running. It returns false
// without blocking when another pass holds the gate.
func (s *Scheduler) TryRun(ctx context.Context, trigger string) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.execute(ctx, trigger)
	return true
}

// TriggerAsync starts a pass in the background. It returns false if a pass is
// already running; the request is dropped, not queued.
func (s *Scheduler) TriggerAsync(trigger string) bool {
	if !s.running.CompareAndSwap(false, true) {
		return false
	}
	s.mu.Lock()
	ctx := s.baseCtx
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(ctx, trigger)
		select {
		case s.done <- struct{}{}:
		default:
		}
	}()
	return true
}

// execute runs one pass with the gate already held and releases it on return.
func (s *Scheduler) execute(ctx context.Context, trigger string) {
	defer s.running.Store(false)

	started := s.clock.Now()
	s.meta.Begin(started)
	status := "success"

	defer func() {
		if r := recover(); r != nil {
			status = "panic"
			s.logger.Error().
				Str(log.FieldEvent, "refresh.cycle.panic").
				Str("trigger", trigger).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("refresh pass panicked")
		}
		finished := s.clock.Now()
		s.meta.End(finished)
		metrics.RecordRefreshRun(status, finished.Sub(started))
		if status == "success" {
			metrics.SetLastRefreshSuccess(finished)
		}
	}()

	sum, err := s.runner.RunOnce(ctx)
	if err == nil {
		s.logger.Debug().
			Str(log.FieldRunID, sum.RunID).
			Str("trigger", trigger).
			Msg("refresh cycle finished")
		return
	}

	status = "failed"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = "aborted"
	}
	s.logger.Error().
		Err(err).
		Str(log.FieldRunID, sum.RunID).
		Str("trigger", trigger).
		Str(log.FieldEvent, "refresh.cycle.failed").
		Msg("refresh pass failed")
}
