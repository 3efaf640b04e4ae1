// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package store persists the resolution cache as a single document with
// atomic whole-document replacement.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/metrics"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned by a Backend when no document has been written yet.
var ErrNotFound = errors.New("cache document not found")

// Backend stores one opaque document. Write must replace the document
// atomically: a concurrent Read returns either the old or the new bytes.
type Backend interface {
	Name() string
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

// Store is the cache store used by the refresh engine (sole writer) and the
// snapshot reader. Readers take no locks.
type Store struct {
	backend Backend
	logger  zerolog.Logger
}

// New wraps a backend.
func New(backend Backend) *Store {
	return &Store{
		backend: backend,
		logger:  log.WithComponent("store").With().Str(log.FieldBackend, backend.Name()).Logger(),
	}
}

// Backend returns the underlying backend name.
func (s *Store) Backend() string {
	return s.backend.Name()
}

// Load returns the persisted cache. Missing, unreadable and corrupt documents
// all yield an empty cache; each case is logged under its own event.
func (s *Store) Load(ctx context.Context) Cache {
	data, err := s.backend.Read(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Debug().Str(log.FieldEvent, "store.load.empty").Msg("no cache document yet")
		metrics.IncStoreLoad("empty")
		return Cache{}
	case err != nil:
		s.logger.Error().Err(err).Str(log.FieldEvent, "store.load.unreadable").Msg("cache document unreadable, serving empty cache")
		metrics.IncStoreLoad("unreadable")
		return Cache{}
	}

	cache, err := Decode(data)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("bytes", len(data)).
			Str(log.FieldEvent, "store.load.corrupt").
			Msg("cache document corrupt, treating as empty")
		metrics.IncStoreLoad("corrupt")
		return Cache{}
	}

	metrics.IncStoreLoad("ok")
	return cache
}

// Save atomically replaces the persisted cache with c.
func (s *Store) Save(ctx context.Context, c Cache) error {
	data, err := Encode(c)
	if err != nil {
		return err
	}

	start := time.Now()
	err = s.backend.Write(ctx, data)
	metrics.RecordStoreWrite(s.backend.Name(), err, time.Since(start))
	if err != nil {
		return fmt.Errorf("save cache (%s): %w", s.backend.Name(), err)
	}
	return nil
}

// Check reports whether the backend can currently be read. A missing document
// is healthy.
func (s *Store) Check(ctx context.Context) error {
	if _, err := s.backend.Read(ctx); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
