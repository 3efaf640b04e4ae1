// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package refresh runs resolution passes over the roster and writes each
// outcome through to the cache store.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/streamcache/internal/channels"
	"github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/metrics"
	"github.com/ManuGH/streamcache/internal/resolver"
	"github.com/ManuGH/streamcache/internal/store"
	"github.com/ManuGH/streamcache/internal/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultTimeout bounds a single resolver call when none is configured.
const DefaultTimeout = 60 * time.Second

// ErrRosterUnavailable wraps roster read/parse failures. The pass is aborted
// before anything is written.
var ErrRosterUnavailable = errors.New("roster unavailable")

const outcomeResolved = "resolved"

// CacheStore is the subset of the cache store the engine needs.
type CacheStore interface {
	Load(ctx context.Context) store.Cache
	Save(ctx context.Context, c store.Cache) error
}

// Config parameterizes a pass.
type Config struct {
	// Timeout bounds each resolver call.
	Timeout time.Duration
	// PruneRemoved drops records whose channel is no longer in the roster.
	PruneRemoved bool
}

// Summary describes a completed pass.
type Summary struct {
	RunID         string        `json:"run_id"`
	Total         int           `json:"total"`
	Resolved      int           `json:"resolved"`
	StaleKept     int           `json:"stale_kept"`
	Failed        int           `json:"failed"`
	WriteFailures int           `json:"write_failures"`
	Pruned        int           `json:"pruned"`
	Duplicates    int           `json:"duplicates"`
	Duration      time.Duration `json:"duration"`
}

// Engine is the sole writer of the cache store.
type Engine struct {
	roster   channels.Provider
	resolver resolver.Resolver
	store    CacheStore
	cfg      Config
	now      func() time.Time
	tracer   trace.Tracer
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithTracer overrides the tracer used for pass and channel spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) { e.tracer = t }
}

// New creates an engine.
func New(roster channels.Provider, res resolver.Resolver, st CacheStore, cfg Config, opts ...Option) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	e := &Engine{
		roster:   roster,
		resolver: res,
		store:    st,
		cfg:      cfg,
		now:      time.Now,
		tracer:   telemetry.Tracer("streamcache/refresh"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunOnce performs one sequential pass. Every channel's outcome is saved
// before the next channel is attempted. The only returned errors are a roster
// failure (nothing written) and context cancellation (completed channels kept).
func (e *Engine) RunOnce(ctx context.Context) (Summary, error) {
	sum := Summary{RunID: uuid.NewString()}
	ctx = log.ContextWithRunID(ctx, sum.RunID)
	logger := log.WithComponentFromContext(ctx, "refresh")

	ctx, span := e.tracer.Start(ctx, "refresh.run")
	defer span.End()
	start := e.now()

	roster, err := e.roster.ListChannels(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "roster unavailable")
		logger.Error().
			Err(err).
			Str(log.FieldEvent, "refresh.aborted").
			Msg("roster unavailable, pass aborted before any write")
		return sum, fmt.Errorf("%w: %w", ErrRosterUnavailable, err)
	}

	roster, dups := channels.Dedupe(roster)
	sum.Total = len(roster)
	sum.Duplicates = len(dups)
	if len(dups) > 0 {
		logger.Warn().
			Strs("ids", dups).
			Str(log.FieldEvent, "refresh.duplicate_ids").
			Msg("roster lists the same id more than once, last entry wins")
	}

	cache := e.store.Load(ctx)
	if e.cfg.PruneRemoved {
		sum.Pruned = prune(cache, roster)
	}

	logger.Info().
		Int("channels", sum.Total).
		Int("cached", len(cache)).
		Str(log.FieldEvent, "refresh.start").
		Msg("starting refresh pass")

	// Writes outlive cancellation so the in-flight channel is never lost.
	saveCtx := context.WithoutCancel(ctx)
	cancelled := func(err error) (Summary, error) {
		sum.Duration = e.now().Sub(start)
		span.SetStatus(codes.Error, "cancelled")
		logger.Warn().
			Err(err).
			Int("completed", sum.Resolved+sum.StaleKept+sum.Failed).
			Str(log.FieldEvent, "refresh.cancelled").
			Msg("refresh pass cancelled")
		return sum, err
	}
	for _, ch := range roster {
		if err := ctx.Err(); err != nil {
			return cancelled(err)
		}

		outcome, err := e.resolveChannel(ctx, logger, ch, cache)
		if err != nil {
			// The in-flight channel keeps its previous record.
			return cancelled(err)
		}
		switch outcome {
		case outcomeResolved:
			sum.Resolved++
		case store.CodeStaleKept:
			sum.StaleKept++
		default:
			sum.Failed++
		}

		if err := e.store.Save(saveCtx, cache); err != nil {
			sum.WriteFailures++
			logger.Error().
				Err(err).
				Str(log.FieldChannelID, ch.ID).
				Str(log.FieldEvent, "refresh.write_failed").
				Msg("cache write failed, continuing with next channel")
		}
	}

	if sum.Pruned > 0 && len(roster) == 0 {
		if err := e.store.Save(saveCtx, cache); err != nil {
			sum.WriteFailures++
			logger.Error().Err(err).Str(log.FieldEvent, "refresh.write_failed").Msg("cache write failed after pruning")
		}
	}

	sum.Duration = e.now().Sub(start)
	metrics.SetChannelCounts(sum.Resolved+sum.StaleKept, sum.Failed)
	span.SetAttributes(telemetry.RefreshAttributes(sum.RunID, sum.Total, sum.Resolved, sum.StaleKept, sum.Failed, sum.WriteFailures)...)

	logger.Info().
		Int("channels", sum.Total).
		Int("resolved", sum.Resolved).
		Int("stale_kept", sum.StaleKept).
		Int("failed", sum.Failed).
		Int("write_failures", sum.WriteFailures).
		Int("pruned", sum.Pruned).
		Dur("duration", sum.Duration).
		Str(log.FieldEvent, "refresh.success").
		Msg("refresh pass completed")
	return sum, nil
}

// resolveChannel applies the fallback policy for one channel and stores the
// new record in cache. It returns the outcome label, or ctx's error when the
// pass was cancelled during the call, in which case cache is left untouched.
func (e *Engine) resolveChannel(ctx context.Context, logger zerolog.Logger, ch channels.Channel, cache store.Cache) (string, error) {
	ctx, span := e.tracer.Start(ctx, "refresh.resolve", trace.WithAttributes(telemetry.ChannelAttributes(ch.ID, ch.Name)...))
	defer span.End()

	prior, hadPrior := cache[ch.ID]

	callCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	started := time.Now()
	addr, err := e.resolver.Resolve(callCtx, ch.SourceReference)
	cancel()
	if cerr := ctx.Err(); cerr != nil {
		span.SetStatus(codes.Error, "cancelled")
		return "", cerr
	}
	if err == nil {
		addr, err = resolver.ValidateAddress(addr)
	}

	rec := store.Record{
		ID:              ch.ID,
		Name:            ch.Name,
		SourceReference: ch.SourceReference,
		UpdatedAt:       e.now().UTC(),
	}

	outcome := outcomeResolved
	if err == nil {
		rec.ResolvedAddress = &addr
		rec.OK = true
	} else {
		outcome = store.CodeResolutionFailed
		if hadPrior && prior.ResolvedAddress != nil {
			kept := *prior.ResolvedAddress
			rec.ResolvedAddress = &kept
			rec.OK = true
			outcome = store.CodeStaleKept
		}
		code := outcome
		rec.Error = &code

		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		logger.Warn().
			Err(err).
			Str(log.FieldChannelID, ch.ID).
			Str(log.FieldSourceRef, ch.SourceReference).
			Str("outcome", outcome).
			Str(log.FieldEvent, "refresh.resolve_failed").
			Msg("resolution failed")
	}
	span.SetAttributes(attribute.String(telemetry.ResolutionOutcomeKey, outcome))

	cache[ch.ID] = rec
	metrics.RecordResolution(outcome, time.Since(started))
	return outcome, nil
}

// prune removes records for ids absent from roster and returns how many.
func prune(cache store.Cache, roster []channels.Channel) int {
	keep := make(map[string]struct{}, len(roster))
	for _, ch := range roster {
		keep[ch.ID] = struct{}{}
	}
	removed := 0
	for id := range cache {
		if _, ok := keep[id]; !ok {
			delete(cache, id)
			removed++
		}
	}
	return removed
}
