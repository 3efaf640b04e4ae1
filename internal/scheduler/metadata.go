// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package scheduler

import (
	"sync"
	"time"
)

// RunInfo is a point-in-time copy of the pass bookkeeping.
type RunInfo struct {
	StartedAt  *time.Time
	FinishedAt *time.Time
	InProgress bool
}

// RunMetadata records when the most recent pass started and finished. It is
// written by the scheduler and read by the snapshot reader.
type RunMetadata struct {
	mu         sync.RWMutex
	startedAt  time.Time
	finishedAt time.Time
	inProgress bool
}

// NewRunMetadata returns empty metadata; no pass has run yet.
func NewRunMetadata() *RunMetadata {
	return &RunMetadata{}
}

// Begin marks a pass as started at t.
func (m *RunMetadata) Begin(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startedAt = t.UTC()
	m.inProgress = true
}

// End marks the current pass as finished at t.
func (m *RunMetadata) End(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishedAt = t.UTC()
	m.inProgress = false
}

// Snapshot returns a copy safe to hand out to readers.
func (m *RunMetadata) Snapshot() RunInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info := RunInfo{InProgress: m.inProgress}
	if !m.startedAt.IsZero() {
		started := m.startedAt
		info.StartedAt = &started
	}
	if !m.finishedAt.IsZero() {
		finished := m.finishedAt
		info.FinishedAt = &finished
	}
	return info
}
