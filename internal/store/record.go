// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Error codes recorded on a failed resolution.
const (
	// CodeStaleKept marks a record whose last attempt failed but whose prior
	// address was kept.
	CodeStaleKept = "stale_kept"
	// CodeResolutionFailed marks a record that failed with no prior address.
	CodeResolutionFailed = "resolution_failed"
)

const documentVersion = 1

// Record is the last-known resolution outcome for one channel.
// OK implies ResolvedAddress != nil.
type Record struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	SourceReference string    `json:"source_reference"`
	ResolvedAddress *string   `json:"resolved_address"`
	OK              bool      `json:"ok"`
	Error           *string   `json:"error"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Address returns the resolved address or "".
func (r Record) Address() string {
	if r.ResolvedAddress == nil {
		return ""
	}
	return *r.ResolvedAddress
}

// ErrorCode returns the error code or "".
func (r Record) ErrorCode() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// Cache maps channel id to its record.
type Cache map[string]Record

// Clone returns a shallow copy of the map. Records are values; their pointer
// fields are never mutated in place.
func (c Cache) Clone() Cache {
	out := make(Cache, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// document is the persisted single-document layout.
type document struct {
	Version  int   `json:"version"`
	Channels Cache `json:"channels"`
}

var errCorrupt = errors.New("corrupt cache document")

// Encode serializes the cache deterministically (map keys are sorted).
func Encode(c Cache) ([]byte, error) {
	if c == nil {
		c = Cache{}
	}
	data, err := json.MarshalIndent(document{Version: documentVersion, Channels: c}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cache: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses a persisted document. A bare id→record map without the
// envelope is accepted as well.
func Decode(data []byte) (Cache, error) {
	var head map[string]json.RawMessage
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}
	if head == nil {
		return nil, fmt.Errorf("%w: document is null", errCorrupt)
	}

	_, hasVersion := head["version"]
	_, hasChannels := head["channels"]

	var cache Cache
	if hasVersion && hasChannels {
		var doc document
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%w: %v", errCorrupt, err)
		}
		if doc.Version > documentVersion {
			return nil, fmt.Errorf("%w: unsupported version %d", errCorrupt, doc.Version)
		}
		cache = doc.Channels
	} else if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("%w: %v", errCorrupt, err)
	}

	if cache == nil {
		cache = Cache{}
	}
	for id, rec := range cache {
		cache[id] = sanitize(id, rec)
	}
	return cache, nil
}

// sanitize restores record invariants on data read from disk.
func sanitize(id string, rec Record) Record {
	rec.ID = id
	if rec.ResolvedAddress != nil && *rec.ResolvedAddress == "" {
		rec.ResolvedAddress = nil
	}
	if rec.OK && rec.ResolvedAddress == nil {
		rec.OK = false
	}
	return rec
}
