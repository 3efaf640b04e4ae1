// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package channels

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileRoster reads the roster from a JSON or YAML file on every call, so edits
// take effect on the next refresh pass without a restart.
type FileRoster struct {
	path string
}

// NewFileRoster returns a roster backed by the file at path.
func NewFileRoster(path string) *FileRoster {
	return &FileRoster{path: path}
}

// Path returns the backing file path.
func (r *FileRoster) Path() string {
	return r.path
}

// ListChannels reads and parses the roster file.
func (r *FileRoster) ListChannels(ctx context.Context) ([]Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// #nosec G304 -- roster path is operator-provided configuration
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read roster %s: %w", r.path, err)
	}

	return Parse(data, filepath.Ext(r.path))
}

// Parse decodes roster bytes. ext selects the format (".yaml"/".yml" for YAML,
// anything else for JSON).
func Parse(data []byte, ext string) ([]Channel, error) {
	var raw []rawChannel
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRoster, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRoster, err)
		}
	}

	out := make([]Channel, 0, len(raw))
	for i, rc := range raw {
		ch := rc.toChannel()
		if ch.ID == "" {
			return nil, fmt.Errorf("%w: entry %d has neither id nor name", ErrMalformedRoster, i)
		}
		if strings.TrimSpace(ch.SourceReference) == "" {
			return nil, fmt.Errorf("%w: entry %d (%s) has no source reference", ErrMalformedRoster, i, ch.ID)
		}
		if ch.Name == "" {
			ch.Name = ch.ID
		}
		out = append(out, ch)
	}
	return out, nil
}
