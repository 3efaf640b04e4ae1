// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build unix

package resolver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeYTDLP writes an executable shell script standing in for yt-dlp.
func fakeYTDLP(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	script := "#!/bin/sh\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o700))
	return path
}

func TestYTDLP_Args(t *testing.T) {
	y := NewYTDLP(YTDLPConfig{CookiesFile: "/data/cookies.txt"})
	args := y.args("https://youtube.com/watch?v=x")

	joined := strings.Join(args, " ")
	assert.Contains(t, joined, "--format best[ext=mp4]/best")
	assert.Contains(t, joined, "--cookies /data/cookies.txt")
	assert.Contains(t, joined, "--get-url")
	assert.Equal(t, "https://youtube.com/watch?v=x", args[len(args)-1])
	assert.Equal(t, "--", args[len(args)-2])
	assert.Equal(t, "yt-dlp", y.Binary())
}

func TestYTDLP_ResolveSuccess(t *testing.T) {
	bin := fakeYTDLP(t, `echo "https://manifest.example/hls/$#/index.m3u8"; echo "https://audio.example/a"`)
	y := NewYTDLP(YTDLPConfig{Binary: bin})

	addr, err := y.Resolve(context.Background(), "ref")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(addr, "https://manifest.example/hls/"))
}

func TestYTDLP_ResolveExitCode(t *testing.T) {
	bin := fakeYTDLP(t, `echo "ERROR: This live event has ended" >&2; exit 1`)
	y := NewYTDLP(YTDLPConfig{Binary: bin})

	_, err := y.Resolve(context.Background(), "ref")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exited with code 1")
	assert.Contains(t, err.Error(), "live event has ended")
}

func TestYTDLP_ResolveMalformedOutput(t *testing.T) {
	bin := fakeYTDLP(t, `echo "not a url"`)
	y := NewYTDLP(YTDLPConfig{Binary: bin})

	_, err := y.Resolve(context.Background(), "ref")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestYTDLP_ResolveEmptyOutput(t *testing.T) {
	bin := fakeYTDLP(t, `exit 0`)
	y := NewYTDLP(YTDLPConfig{Binary: bin})

	_, err := y.Resolve(context.Background(), "ref")
	require.ErrorIs(t, err, ErrInvalidAddress)
}

func TestYTDLP_ResolveTimeoutKillsChild(t *testing.T) {
	bin := fakeYTDLP(t, `sleep 30 & sleep 30; echo "http://late"`)
	y := NewYTDLP(YTDLPConfig{Binary: bin})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := y.Resolve(ctx, "ref")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestYTDLP_MissingBinary(t *testing.T) {
	y := NewYTDLP(YTDLPConfig{Binary: filepath.Join(t.TempDir(), "missing")})

	_, err := y.Resolve(context.Background(), "ref")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run yt-dlp")
}
