// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package snapshot answers read queries from the persisted cache. Reads never
// wait on or trigger a refresh pass.
package snapshot

import (
	"context"
	"slices"
	"time"

	"github.com/ManuGH/streamcache/internal/channels"
	"github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/scheduler"
	"github.com/ManuGH/streamcache/internal/store"
)

// CacheLoader is the read side of the cache store.
type CacheLoader interface {
	Load(ctx context.Context) store.Cache
}

// RunSource exposes pass bookkeeping.
type RunSource interface {
	Snapshot() scheduler.RunInfo
}

// Status summarizes cache coverage against the roster.
type Status struct {
	TotalChannels        int      `json:"total_channels"`
	ResolvedCount        int      `json:"resolved_count"`
	UnresolvedIDs        []string `json:"unresolved_ids"`
	LastUpdateStartedAt  *string  `json:"last_update_started_at"`
	LastUpdateFinishedAt *string  `json:"last_update_finished_at"`
	InProgress           bool     `json:"in_progress"`
}

// Entry joins a roster channel with its cached record, if any.
type Entry struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Logo            string     `json:"logo,omitempty"`
	Group           string     `json:"group,omitempty"`
	SourceReference string     `json:"source_reference"`
	ResolvedAddress *string    `json:"resolved_address"`
	OK              bool       `json:"ok"`
	Error           *string    `json:"error"`
	UpdatedAt       *time.Time `json:"updated_at"`
}

// Resolved reports whether the entry has a usable address.
func (e Entry) Resolved() bool {
	return e.OK && e.ResolvedAddress != nil
}

// Address returns the resolved address or "".
func (e Entry) Address() string {
	if e.ResolvedAddress == nil {
		return ""
	}
	return *e.ResolvedAddress
}

// Reader serves snapshot queries.
type Reader struct {
	roster channels.Provider
	cache  CacheLoader
	runs   RunSource
}

// NewReader wires a reader. runs may be nil when no scheduler exists.
func NewReader(roster channels.Provider, cache CacheLoader, runs RunSource) *Reader {
	return &Reader{roster: roster, cache: cache, runs: runs}
}

// Current returns the latest persisted mapping.
func (r *Reader) Current(ctx context.Context) store.Cache {
	return r.cache.Load(ctx)
}

// Entries returns one entry per roster channel in roster order. If the roster
// cannot be read, cached records are returned sorted by id.
func (r *Reader) Entries(ctx context.Context) []Entry {
	cache := r.cache.Load(ctx)

	roster, err := r.roster.ListChannels(ctx)
	if err != nil {
		log.WithComponentFromContext(ctx, "snapshot").Warn().
			Err(err).
			Str(log.FieldEvent, "snapshot.roster_fallback").
			Msg("roster unreadable, serving cached records")
		return fromCache(cache)
	}

	roster, _ = channels.Dedupe(roster)
	out := make([]Entry, 0, len(roster))
	for _, ch := range roster {
		e := Entry{
			ID:              ch.ID,
			Name:            ch.Name,
			Logo:            ch.Logo,
			Group:           ch.Group,
			SourceReference: ch.SourceReference,
		}
		if rec, ok := cache[ch.ID]; ok {
			fill(&e, rec)
		}
		out = append(out, e)
	}
	return out
}

// Status computes coverage of the roster by the cache.
func (r *Reader) Status(ctx context.Context) Status {
	entries := r.Entries(ctx)
	st := Status{
		TotalChannels: len(entries),
		UnresolvedIDs: []string{},
	}
	for _, e := range entries {
		if e.Resolved() {
			st.ResolvedCount++
		} else {
			st.UnresolvedIDs = append(st.UnresolvedIDs, e.ID)
		}
	}
	if r.runs != nil {
		info := r.runs.Snapshot()
		st.LastUpdateStartedAt = formatTime(info.StartedAt)
		st.LastUpdateFinishedAt = formatTime(info.FinishedAt)
		st.InProgress = info.InProgress
	}
	return st
}

func fromCache(cache store.Cache) []Entry {
	ids := make([]string, 0, len(cache))
	for id := range cache {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	out := make([]Entry, 0, len(ids))
	for _, id := range ids {
		rec := cache[id]
		e := Entry{ID: id, Name: rec.Name, SourceReference: rec.SourceReference}
		fill(&e, rec)
		out = append(out, e)
	}
	return out
}

func fill(e *Entry, rec store.Record) {
	e.ResolvedAddress = rec.ResolvedAddress
	e.OK = rec.OK
	e.Error = rec.Error
	if !rec.UpdatedAt.IsZero() {
		updated := rec.UpdatedAt
		e.UpdatedAt = &updated
	}
}

func formatTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
