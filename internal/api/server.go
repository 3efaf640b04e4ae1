// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package api serves the playlist, status and refresh endpoints.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/ManuGH/streamcache/internal/api/middleware"
	"github.com/ManuGH/streamcache/internal/health"
	"github.com/ManuGH/streamcache/internal/snapshot"
	"github.com/go-chi/chi/v5"
)

var (
	ErrMissingReader    = errors.New("api: snapshot reader is required")
	ErrMissingRefresher = errors.New("api: refresher is required")
)

// Reader is the read side the handlers need.
type Reader interface {
	Status(ctx context.Context) snapshot.Status
	Entries(ctx context.Context) []snapshot.Entry
}

// Refresher starts an out-of-band refresh pass. It reports false when a
// pass is already running.
type Refresher interface {
	TriggerAsync(trigger string) bool
}

// Deps bundles everything the server needs.
type Deps struct {
	Version   string
	Reader    Reader
	Refresher Refresher
	// Health is optional; without it the health endpoints always answer healthy.
	Health *health.Manager
	// Metrics is optional; nil leaves /metrics unrouted.
	Metrics http.Handler

	RateLimit      int
	TracingService string
}

// Server is the HTTP surface of the daemon.
type Server struct {
	deps   Deps
	router chi.Router
}

// New validates deps and builds the router.
func New(deps Deps) (*Server, error) {
	if deps.Reader == nil {
		return nil, ErrMissingReader
	}
	if deps.Refresher == nil {
		return nil, ErrMissingRefresher
	}
	if deps.Health == nil {
		deps.Health = health.NewManager(deps.Version)
	}
	s := &Server{deps: deps}
	s.router = s.routes()
	return s, nil
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	middleware.ApplyStack(r, middleware.StackConfig{
		TracingService: s.deps.TracingService,
		RateLimit:      s.deps.RateLimit,
		EnableGzip:     true,
	})

	r.Get("/", s.handleRoot)
	r.Get("/playlist.m3u", s.handlePlaylist)
	r.Get("/status", s.handleStatus)
	r.Get("/channels", s.handleChannels)
	r.With(middleware.RefreshRateLimit()).Post("/api/refresh", s.handleRefresh)

	r.Get("/healthz", s.deps.Health.ServeHealth)
	r.Get("/readyz", s.deps.Health.ServeReady)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics)
	}
	return r
}
