// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/ManuGH/streamcache/internal/channels"
	"github.com/ManuGH/streamcache/internal/scheduler"
)

// RosterLister is the roster read the RosterChecker exercises.
type RosterLister interface {
	ListChannels(ctx context.Context) ([]channels.Channel, error)
}

// RosterChecker reports whether the roster can be read. A broken roster only
// degrades the service: cached addresses keep being served.
type RosterChecker struct {
	roster RosterLister
}

func NewRosterChecker(roster RosterLister) *RosterChecker {
	return &RosterChecker{roster: roster}
}

func (c *RosterChecker) Name() string { return "roster" }

func (c *RosterChecker) Check(ctx context.Context) CheckResult {
	list, err := c.roster.ListChannels(ctx)
	if err != nil {
		return CheckResult{
			Status:  StatusDegraded,
			Error:   err.Error(),
			Message: "roster unreadable, serving cached records",
		}
	}
	if len(list) == 0 {
		return CheckResult{
			Status:  StatusDegraded,
			Message: "roster is empty",
		}
	}
	return CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%d channels", len(list)),
	}
}

// Pinger is anything that can verify its own backing storage.
type Pinger interface {
	Check(ctx context.Context) error
}

// StoreChecker reports whether the cache backend is reachable.
type StoreChecker struct {
	backend string
	store   Pinger
	timeout time.Duration
}

// NewStoreChecker wraps a store. backend is used in the message only.
func NewStoreChecker(backend string, store Pinger) *StoreChecker {
	return &StoreChecker{backend: backend, store: store, timeout: 2 * time.Second}
}

func (c *StoreChecker) Name() string { return "cache_store" }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.store.Check(ctx); err != nil {
		return CheckResult{
			Status:  StatusUnhealthy,
			Error:   err.Error(),
			Message: c.backend,
		}
	}
	return CheckResult{Status: StatusHealthy, Message: c.backend + " reachable"}
}

// RunSource exposes pass bookkeeping.
type RunSource interface {
	Snapshot() scheduler.RunInfo
}

// FreshnessChecker degrades when no refresh pass has finished recently.
// Serving stale addresses is still possible, so it never reports unhealthy.
type FreshnessChecker struct {
	runs   RunSource
	maxAge time.Duration
	now    func() time.Time
}

// NewFreshnessChecker treats passes older than three intervals as stale.
func NewFreshnessChecker(runs RunSource, interval time.Duration) *FreshnessChecker {
	return &FreshnessChecker{runs: runs, maxAge: 3 * interval, now: time.Now}
}

func (c *FreshnessChecker) Name() string { return "last_refresh" }

func (c *FreshnessChecker) Check(ctx context.Context) CheckResult {
	info := c.runs.Snapshot()
	if info.FinishedAt == nil {
		msg := "no refresh pass completed yet"
		if info.InProgress {
			msg = "first refresh pass in progress"
		}
		return CheckResult{Status: StatusDegraded, Message: msg}
	}
	age := c.now().Sub(*info.FinishedAt)
	if age > c.maxAge {
		return CheckResult{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("last refresh finished %s ago", age.Round(time.Second)),
		}
	}
	return CheckResult{Status: StatusHealthy, Message: "cache refreshed recently"}
}

// BinaryChecker verifies an external executable is on PATH.
type BinaryChecker struct {
	binary string
}

// NewBinaryChecker creates a checker for binary.
func NewBinaryChecker(binary string) *BinaryChecker {
	return &BinaryChecker{binary: binary}
}

func (c *BinaryChecker) Name() string { return "resolver_binary" }

func (c *BinaryChecker) Check(ctx context.Context) CheckResult {
	path, err := exec.LookPath(c.binary)
	if err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.binary}
	}
	return CheckResult{Status: StatusHealthy, Message: path}
}
