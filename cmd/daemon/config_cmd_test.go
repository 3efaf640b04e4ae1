// SPDX-License-Identifier: MIT
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ManuGH/streamcache/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestConfigCLI_Validate(t *testing.T) {
	dataDir := t.TempDir()

	tests := []struct {
		name     string
		body     string
		wantCode int
		wantErr  string
	}{
		{
			name:     "valid",
			body:     "data_dir: " + dataDir + "\nstore:\n  backend: sqlite\n",
			wantCode: 0,
		},
		{
			name:     "unknown backend",
			body:     "data_dir: " + dataDir + "\nstore:\n  backend: etcd\n",
			wantCode: 1,
			wantErr:  "store.backend",
		},
		{
			name:     "unknown field",
			body:     "data_dir: " + dataDir + "\nbouquets: [a]\n",
			wantCode: 1,
			wantErr:  "strict config parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.body)
			var stdout, stderr bytes.Buffer

			code := configCLI([]string{"validate", "-f", path}, &stdout, &stderr)

			assert.Equal(t, tt.wantCode, code)
			if tt.wantErr != "" {
				assert.Contains(t, stderr.String(), tt.wantErr)
			} else {
				assert.Contains(t, stdout.String(), "is valid")
			}
		})
	}
}

func TestConfigCLI_DumpRedactsSecrets(t *testing.T) {
	dataDir := t.TempDir()
	path := writeConfig(t, "data_dir: "+dataDir+"\nstore:\n  backend: redis\n  redis_password: hunter2\n")

	t.Run("yaml", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.Equal(t, 0, configCLI([]string{"dump", "-f", path}, &stdout, &stderr), stderr.String())
		assert.NotContains(t, stdout.String(), "hunter2")

		var got config.AppConfig
		require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &got))
		assert.Equal(t, redacted, got.Store.RedisPassword)
		assert.Equal(t, config.BackendRedis, got.Store.Backend)
		assert.Equal(t, config.Defaults().Refresh.Interval, got.Refresh.Interval)
	})

	t.Run("json", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		require.Equal(t, 0, configCLI([]string{"dump", "-f", path, "--format=json"}, &stdout, &stderr), stderr.String())
		assert.NotContains(t, stdout.String(), "hunter2")
		assert.True(t, json.Valid(stdout.Bytes()))
	})
}

func TestConfigCLI_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 0, configCLI(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "streamcache config validate")

	stderr.Reset()
	assert.Equal(t, 2, configCLI([]string{"frobnicate"}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Unknown subcommand: frobnicate")

	stderr.Reset()
	assert.Equal(t, 2, configCLI([]string{"dump", "--format=toml", "-f", writeConfig(t, "data_dir: "+t.TempDir()+"\n")}, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Unsupported format")
}

func TestResolveDefaultConfigPath(t *testing.T) {
	t.Run("explicit env wins", func(t *testing.T) {
		t.Setenv("STREAMCACHE_CONFIG", "/etc/streamcache.yaml")
		assert.Equal(t, "/etc/streamcache.yaml", resolveDefaultConfigPath())
	})

	t.Run("data dir autodetect", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("STREAMCACHE_CONFIG", "")
		t.Setenv("STREAMCACHE_DATA_DIR", dir)
		assert.Empty(t, resolveDefaultConfigPath())

		path := filepath.Join(dir, "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
		assert.Equal(t, path, resolveDefaultConfigPath())
	})
}
