// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package resolver

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/ManuGH/streamcache/internal/log"
	"github.com/ManuGH/streamcache/internal/procgroup"
)

const (
	// DefaultFormat picks a progressive mp4 where available.
	DefaultFormat = "best[ext=mp4]/best"

	waitDelay     = 2 * time.Second
	maxStderrTail = 512
)

// YTDLPConfig configures the yt-dlp resolver.
type YTDLPConfig struct {
	Binary      string
	Format      string
	CookiesFile string
	ExtraArgs   []string
}

// YTDLP resolves source references by running yt-dlp in URL-extraction mode.
type YTDLP struct {
	cfg YTDLPConfig
}

// NewYTDLP returns a yt-dlp backed resolver.
func NewYTDLP(cfg YTDLPConfig) *YTDLP {
	if cfg.Binary == "" {
		cfg.Binary = "yt-dlp"
	}
	if cfg.Format == "" {
		cfg.Format = DefaultFormat
	}
	return &YTDLP{cfg: cfg}
}

// Binary returns the configured executable name or path.
func (y *YTDLP) Binary() string {
	return y.cfg.Binary
}

func (y *YTDLP) args(sourceRef string) []string {
	args := []string{
		"--quiet",
		"--no-warnings",
		"--no-playlist",
		"--no-check-certificates",
		"--format", y.cfg.Format,
		"--get-url",
	}
	if y.cfg.CookiesFile != "" {
		args = append(args, "--cookies", y.cfg.CookiesFile)
	}
	args = append(args, y.cfg.ExtraArgs...)
	return append(args, "--", sourceRef)
}

// Resolve runs yt-dlp and returns the first address it prints. The child and
// anything it spawned are killed when ctx ends.
func (y *YTDLP) Resolve(ctx context.Context, sourceRef string) (string, error) {
	logger := log.WithComponentFromContext(ctx, "resolver")

	// #nosec G204 -- binary is operator configuration; sourceRef follows "--"
	cmd := exec.CommandContext(ctx, y.cfg.Binary, y.args(sourceRef)...)
	procgroup.Bind(cmd, waitDelay)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", fmt.Errorf("yt-dlp aborted after %s: %w", time.Since(start).Round(time.Millisecond), ctxErr)
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("yt-dlp exited with code %d: %s", exitErr.ExitCode(), tail(stderr.String()))
		}
		return "", fmt.Errorf("run yt-dlp: %w", err)
	}

	addr, err := ValidateAddress(firstLine(stdout.String()))
	if err != nil {
		return "", err
	}

	logger.Debug().
		Str(log.FieldSourceRef, sourceRef).
		Dur("duration", time.Since(start)).
		Msg("yt-dlp resolved address")
	return addr, nil
}

// firstLine returns the first non-blank line. yt-dlp prints one URL per
// selected format; for split audio/video formats the first is the video.
func firstLine(out string) string {
	sc := bufio.NewScanner(strings.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			return line
		}
	}
	return ""
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderrTail {
		s = "..." + s[len(s)-maxStderrTail:]
	}
	return s
}
