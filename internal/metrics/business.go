// SPDX-License-Identifier: MIT

// Package metrics holds the Prometheus collectors for the resolution cache.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Refresh engine
	resolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamcache_resolutions_total",
		Help: "Per-channel resolution attempts by outcome",
	}, []string{"outcome"}) // outcome=resolved|stale_kept|resolution_failed

	resolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamcache_resolve_duration_seconds",
		Help:    "Duration of a single resolver call",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	})

	refreshRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamcache_refresh_runs_total",
		Help: "Refresh passes by terminal status",
	}, []string{"status"}) // status=success|aborted|failed|panic|skipped

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "streamcache_refresh_duration_seconds",
		Help:    "Wall time of a full refresh pass",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})

	lastRefreshSuccess = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "streamcache_refresh_last_success_timestamp_seconds",
		Help: "Unix time of the last completed refresh pass",
	})

	channelsByState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "streamcache_channels",
		Help: "Channels by resolution state after the last pass",
	}, []string{"state"}) // state=resolved|unresolved

	// Cache store
	storeLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamcache_store_loads_total",
		Help: "Cache store loads by result",
	}, []string{"result"}) // result=ok|empty|corrupt|unreadable

	storeWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "streamcache_store_writes_total",
		Help: "Cache store writes by backend and result",
	}, []string{"backend", "result"}) // result=ok|error

	storeWriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "streamcache_store_write_duration_seconds",
		Help:    "Duration of a full-document cache store write",
		Buckets: prometheus.DefBuckets,
	}, []string{"backend"})
)

// RecordResolution counts one channel outcome and the resolver latency.
func RecordResolution(outcome string, d time.Duration) {
	resolutionsTotal.WithLabelValues(outcome).Inc()
	resolveDuration.Observe(d.Seconds())
}

// RecordRefreshRun counts a pass by status. d is ignored for skipped passes.
func RecordRefreshRun(status string, d time.Duration) {
	refreshRunsTotal.WithLabelValues(status).Inc()
	if status != "skipped" {
		refreshDuration.Observe(d.Seconds())
	}
}

// SetLastRefreshSuccess records the completion time of a successful pass.
func SetLastRefreshSuccess(t time.Time) {
	lastRefreshSuccess.Set(float64(t.Unix()))
}

// SetChannelCounts publishes the resolved/unresolved split.
func SetChannelCounts(resolved, unresolved int) {
	channelsByState.WithLabelValues("resolved").Set(float64(resolved))
	channelsByState.WithLabelValues("unresolved").Set(float64(unresolved))
}

// IncStoreLoad counts a cache store load by result.
func IncStoreLoad(result string) {
	storeLoadsTotal.WithLabelValues(result).Inc()
}

// RecordStoreWrite counts a cache store write and its duration.
func RecordStoreWrite(backend string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeWritesTotal.WithLabelValues(backend, result).Inc()
	storeWriteDuration.WithLabelValues(backend).Observe(d.Seconds())
}
