// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package channels provides the channel roster: the ordered list of channels
// whose playable addresses the refresh engine keeps current.
package channels

import (
	"context"
	"errors"
)

// ErrMalformedRoster is returned when the roster definition cannot be parsed
// or contains an unusable entry.
var ErrMalformedRoster = errors.New("malformed roster")

// Channel is one roster entry. It is read-only to the refresh engine.
type Channel struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	SourceReference string `json:"source_reference" yaml:"source_reference"`
	Logo            string `json:"logo,omitempty" yaml:"logo,omitempty"`
	Group           string `json:"group,omitempty" yaml:"group,omitempty"`
}

// Provider supplies the current roster in display order.
type Provider interface {
	ListChannels(ctx context.Context) ([]Channel, error)
}

// rawChannel accepts the legacy {"name","url"} shape alongside the canonical keys.
type rawChannel struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	SourceReference string `json:"source_reference" yaml:"source_reference"`
	URL             string `json:"url" yaml:"url"`
	Logo            string `json:"logo" yaml:"logo"`
	Group           string `json:"group" yaml:"group"`
}

func (r rawChannel) toChannel() Channel {
	ref := r.SourceReference
	if ref == "" {
		ref = r.URL
	}
	return Channel{
		ID:              NormalizeID(r.ID, r.Name),
		Name:            r.Name,
		SourceReference: ref,
		Logo:            r.Logo,
		Group:           r.Group,
	}
}
