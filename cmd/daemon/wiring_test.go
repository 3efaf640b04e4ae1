// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/ManuGH/streamcache/internal/config"
	"github.com/ManuGH/streamcache/internal/daemon"
	sclog "github.com/ManuGH/streamcache/internal/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWire_AssemblesDaemon(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Defaults()
	cfg.DataDir = dir
	cfg.RosterPath = filepath.Join(dir, "channels.json")
	cfg.Store.Path = filepath.Join(dir, "stream_cache.json")
	cfg.WatchRoster = false

	w, err := wire(context.Background(), cfg, sclog.WithComponent("test"))
	require.NoError(t, err)
	assert.NotNil(t, w.manager)
	assert.NotNil(t, w.scheduler)
	assert.Nil(t, w.watcher)
	assert.Equal(t, cfg.Refresh.Interval, w.scheduler.Interval())
	require.ErrorIs(t, w.manager.Shutdown(context.Background()), daemon.ErrManagerNotStarted)

	cfg.WatchRoster = true
	w, err = wire(context.Background(), cfg, sclog.WithComponent("test"))
	require.NoError(t, err)
	assert.NotNil(t, w.watcher)
	require.ErrorIs(t, w.manager.Shutdown(context.Background()), daemon.ErrManagerNotStarted)
}

func TestWire_UnknownBackend(t *testing.T) {
	cfg := config.Defaults()
	cfg.DataDir = t.TempDir()
	cfg.Store.Backend = "etcd"

	_, err := wire(context.Background(), cfg, sclog.WithComponent("test"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store")
}

func TestTracingService(t *testing.T) {
	assert.Empty(t, tracingService(config.TelemetryConfig{}))
	assert.Equal(t, serviceName, tracingService(config.TelemetryConfig{Enabled: true}))
}

func TestHealthcheckURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8000/readyz", healthcheckURL("ready", 8000))
	assert.Equal(t, "http://localhost:9000/healthz", healthcheckURL("live", 9000))
}

func TestRunHealthcheckCLI(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/readyz", r.URL.Path)
		w.WriteHeader(status)
	}))
	defer srv.Close()

	_, portStr, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	assert.Equal(t, 0, runHealthcheckCLI([]string{"-port", portStr}))

	status = http.StatusServiceUnavailable
	assert.Equal(t, 1, runHealthcheckCLI([]string{"-port", strconv.Itoa(port)}))
}
