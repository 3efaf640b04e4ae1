// SPDX-License-Identifier: MIT

package telemetry

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent tracing across the application.
const (
	ChannelIDKey   = "channel.id"
	ChannelNameKey = "channel.name"

	ResolutionOutcomeKey = "resolution.outcome"

	RefreshRunIDKey     = "refresh.run_id"
	RefreshChannelsKey  = "refresh.channels"
	RefreshResolvedKey  = "refresh.resolved"
	RefreshStaleKey     = "refresh.stale_kept"
	RefreshFailedKey    = "refresh.failed"
	RefreshWriteErrsKey = "refresh.write_failures"

	StoreBackendKey = "store.backend"
)

// ChannelAttributes describes the channel being resolved.
func ChannelAttributes(id, name string) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String(ChannelIDKey, id)}
	if name != "" {
		attrs = append(attrs, attribute.String(ChannelNameKey, name))
	}
	return attrs
}

// RefreshAttributes summarizes a completed pass.
func RefreshAttributes(runID string, total, resolved, stale, failed, writeFailures int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(RefreshRunIDKey, runID),
		attribute.Int(RefreshChannelsKey, total),
		attribute.Int(RefreshResolvedKey, resolved),
		attribute.Int(RefreshStaleKey, stale),
		attribute.Int(RefreshFailedKey, failed),
		attribute.Int(RefreshWriteErrsKey, writeFailures),
	}
}
