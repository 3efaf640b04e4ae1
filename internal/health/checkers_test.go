// SPDX-License-Identifier: MIT

package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ManuGH/streamcache/internal/channels"
	"github.com/ManuGH/streamcache/internal/scheduler"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(context.Context) error

func (f pingFunc) Check(ctx context.Context) error { return f(ctx) }

func TestStoreChecker(t *testing.T) {
	ok := NewStoreChecker("sqlite", pingFunc(func(context.Context) error { return nil }))
	assert.Equal(t, "cache_store", ok.Name())
	assert.Equal(t, StatusHealthy, ok.Check(context.Background()).Status)

	bad := NewStoreChecker("redis", pingFunc(func(context.Context) error { return errors.New("connection refused") }))
	res := bad.Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.Contains(t, res.Error, "connection refused")
	assert.Equal(t, "redis", res.Message)
}

func TestStoreChecker_AppliesTimeout(t *testing.T) {
	c := NewStoreChecker("file", pingFunc(func(ctx context.Context) error {
		_, hasDeadline := ctx.Deadline()
		if !hasDeadline {
			return errors.New("no deadline")
		}
		return nil
	}))
	assert.Equal(t, StatusHealthy, c.Check(context.Background()).Status)
}

type runInfo scheduler.RunInfo

func (r runInfo) Snapshot() scheduler.RunInfo { return scheduler.RunInfo(r) }

func TestFreshnessChecker(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-10 * time.Minute)
	old := now.Add(-4 * time.Hour)

	tests := []struct {
		name   string
		info   scheduler.RunInfo
		status Status
		msg    string
	}{
		{name: "never ran", info: scheduler.RunInfo{}, status: StatusDegraded, msg: "no refresh pass completed yet"},
		{name: "first pass running", info: scheduler.RunInfo{StartedAt: &recent, InProgress: true}, status: StatusDegraded, msg: "in progress"},
		{name: "recent", info: scheduler.RunInfo{StartedAt: &recent, FinishedAt: &recent}, status: StatusHealthy},
		{name: "stale", info: scheduler.RunInfo{StartedAt: &old, FinishedAt: &old}, status: StatusDegraded, msg: "4h0m0s ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewFreshnessChecker(runInfo(tt.info), 30*time.Minute)
			c.now = func() time.Time { return now }
			res := c.Check(context.Background())
			assert.Equal(t, tt.status, res.Status)
			if tt.msg != "" {
				assert.Contains(t, res.Message, tt.msg)
			}
		})
	}
}

func TestBinaryChecker(t *testing.T) {
	assert.Equal(t, StatusHealthy, NewBinaryChecker("sh").Check(context.Background()).Status)

	res := NewBinaryChecker("definitely-not-a-real-binary-xyz").Check(context.Background())
	assert.Equal(t, StatusUnhealthy, res.Status)
	assert.NotEmpty(t, res.Error)
}

type rosterFunc func(context.Context) ([]channels.Channel, error)

func (f rosterFunc) ListChannels(ctx context.Context) ([]channels.Channel, error) { return f(ctx) }

func TestRosterChecker(t *testing.T) {
	tests := []struct {
		name    string
		list    []channels.Channel
		err     error
		want    Status
		message string
	}{
		{name: "readable", list: []channels.Channel{{ID: "a"}, {ID: "b"}}, want: StatusHealthy, message: "2 channels"},
		{name: "empty", want: StatusDegraded, message: "roster is empty"},
		{name: "unreadable", err: channels.ErrMalformedRoster, want: StatusDegraded, message: "serving cached records"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewRosterChecker(rosterFunc(func(context.Context) ([]channels.Channel, error) {
				return tt.list, tt.err
			}))
			res := c.Check(context.Background())
			assert.Equal(t, "roster", c.Name())
			assert.Equal(t, tt.want, res.Status)
			assert.Contains(t, res.Message, tt.message)
		})
	}
}
