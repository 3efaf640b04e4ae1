// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps the document in a single JSON file replaced via a
// temporary file and rename.
type FileBackend struct {
	path string
}

// NewFileBackend creates the parent directory if needed.
func NewFileBackend(path string) (*FileBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return &FileBackend{path: path}, nil
}

// Name implements Backend.
func (b *FileBackend) Name() string { return "file" }

// Path returns the canonical file location.
func (b *FileBackend) Path() string { return b.path }

// Read implements Backend.
func (b *FileBackend) Read(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", b.path, err)
	}
	return data, nil
}

// Write implements Backend. The canonical file is only ever replaced by a
// fully written temporary file.
func (b *FileBackend) Write(_ context.Context, data []byte) error {
	return writeAtomic(b.path, data)
}

// Close implements Backend.
func (b *FileBackend) Close() error { return nil }
