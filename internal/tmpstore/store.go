// Copyright (C) 2025 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

// Package tmpstore materializes uploaded byte streams into a working
// directory for the duration of one request. Paths are made unique with a
// per-acquire token, so concurrent uploads with identical filenames never
// collide. Every Acquire must be paired with exactly one Release; Release is
// idempotent and safe to defer on all exit paths.
package tmpstore

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/exifcheck/exifcheck/internal/idgen"
	"github.com/exifcheck/exifcheck/internal/validation"
)

type Config struct {
	Dir      string `mapstructure:"dir"`
	MaxBytes int64  `mapstructure:"max_bytes"`
}

func DefaultConfig() Config {
	return Config{
		Dir:      "temp_uploads",
		MaxBytes: validation.DefaultMaxFileSize,
	}
}

// Store owns a directory of transient upload files. It holds no cross-request
// state; isolation between concurrent requests comes entirely from unique
// naming.
type Store struct {
	dir      string
	maxBytes int64
}

func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		cfg.Dir = DefaultConfig().Dir
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultConfig().MaxBytes
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", cfg.Dir, err)
	}
	return &Store{dir: cfg.Dir, maxBytes: cfg.MaxBytes}, nil
}

// Dir returns the store's working directory.
func (s *Store) Dir() string {
	return s.dir
}

// Handle is exclusive ownership of one materialized file. The file exists for
// as long as the handle is unreleased.
type Handle struct {
	path     string
	released atomic.Bool
}

// Path returns the absolute location of the materialized file.
func (h *Handle) Path() string {
	return h.path
}

// Release removes the file. It is idempotent; a file already gone is not an
// error, and removal failures are logged rather than propagated so they never
// mask an error already in flight.
func (h *Handle) Release() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to remove transient file", slog.String("path", h.path), slog.Any("error", err))
	}
}

// Acquire copies r into a uniquely named file under the store directory and
// returns a handle owning it. The copy is capped at the configured byte
// limit; an oversized stream yields a *validation.SizeError and leaves
// nothing on disk.
func (s *Store) Acquire(r io.Reader, name string) (*Handle, error) {
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) {
		base = "upload"
	}
	path := filepath.Join(s.dir, idgen.DefaultFlakeGenerator.NextToken()+"_"+base)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create transient file: %w", err)
	}

	// Copy one byte past the cap so an at-limit upload is distinguishable
	// from an oversized one.
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		removeQuietly(path)
		return nil, fmt.Errorf("write transient file: %w", err)
	}
	if n > s.maxBytes {
		removeQuietly(path)
		return nil, &validation.SizeError{Size: n, Limit: s.maxBytes}
	}

	return &Handle{path: path}, nil
}

func removeQuietly(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Error("Failed to remove transient file", slog.String("path", path), slog.Any("error", err))
	}
}
