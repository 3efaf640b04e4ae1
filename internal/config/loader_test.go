// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoader_DefaultsOnly(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STREAMCACHE_DATA_DIR", dir)

	cfg, err := NewLoader("", "v1.0.0").Load()
	require.NoError(t, err)

	assert.Equal(t, "v1.0.0", cfg.Version)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "stream_cache.json"), cfg.Store.Path)
	assert.Equal(t, 30*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, "best[ext=mp4]/best", cfg.Resolver.Format)
	assert.Equal(t, ":8000", cfg.Server.ListenAddr)
}

func TestLoader_FileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
data_dir: `+dir+`
roster_path: /etc/streamcache/channels.yaml
store:
  backend: sqlite
refresh:
  interval: 10m
  timeout: 45s
resolver:
  format: best
server:
  listen_addr: ":9000"
`)
	t.Setenv("STREAMCACHE_RESOLVE_TIMEOUT", "20s")

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)

	assert.Equal(t, "/etc/streamcache/channels.yaml", cfg.RosterPath)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "stream_cache.db"), cfg.Store.Path)
	assert.Equal(t, 10*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 20*time.Second, cfg.Refresh.Timeout, "env must override file")
	assert.Equal(t, "best", cfg.Resolver.Format)
	assert.Equal(t, ":9000", cfg.Server.ListenAddr)
}

func TestLoader_ClampsIntervalToFloor(t *testing.T) {
	t.Setenv("STREAMCACHE_DATA_DIR", t.TempDir())
	t.Setenv("STREAMCACHE_REFRESH_INTERVAL", "5s")

	cfg, err := NewLoader("", "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, MinRefreshInterval, cfg.Refresh.Interval)
}

func TestLoader_StrictRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, "data_dir: /tmp\nunknown_key: 1\n")

	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "strict config parse error")
}

func TestLoader_RejectsMultipleDocuments(t *testing.T) {
	path := writeConfig(t, "data_dir: /tmp\n---\ndata_dir: /var\n")

	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "multiple documents")
}

func TestLoader_RejectsNonYAMLExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	_, err := NewLoader(path, "dev").Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported config format")
}

func TestLoader_EmptyFileUsesDefaults(t *testing.T) {
	t.Setenv("STREAMCACHE_DATA_DIR", t.TempDir())
	path := writeConfig(t, "")

	cfg, err := NewLoader(path, "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
}

func TestLoader_BadgerDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STREAMCACHE_DATA_DIR", dir)
	t.Setenv("STREAMCACHE_STORE_BACKEND", "BADGER")

	cfg, err := NewLoader("", "dev").Load()
	require.NoError(t, err)
	assert.Equal(t, BackendBadger, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(dir, "badger"), cfg.Store.Path)
}
