// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown store backend")

// Options selects and parameterizes a backend.
type Options struct {
	Backend string // file|sqlite|redis|badger
	Path    string // file path, sqlite database or badger directory
	Redis   RedisConfig
}

// Open builds a Store for the configured backend.
func Open(opts Options) (*Store, error) {
	var (
		backend Backend
		err     error
	)
	switch strings.ToLower(opts.Backend) {
	case "", "file":
		backend, err = NewFileBackend(opts.Path)
	case "sqlite":
		backend, err = OpenSQLite(opts.Path)
	case "redis":
		backend, err = OpenRedis(opts.Redis)
	case "badger":
		backend, err = OpenBadger(opts.Path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	return New(backend), nil
}
