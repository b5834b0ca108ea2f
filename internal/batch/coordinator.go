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

// Package batch fans the single-file pipeline (validate, materialize,
// extract, release) over an ordered set of uploads. A failure in any stage
// is recorded against that file and never aborts the rest of the batch.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/exifcheck/exifcheck/internal/exiftool"
	"github.com/exifcheck/exifcheck/internal/tmpstore"
	"github.com/exifcheck/exifcheck/internal/validation"
)

// ErrNoFiles rejects a batch request with an empty file list. It is a
// request-level error, unlike per-file failures which land in the result.
var ErrNoFiles = errors.New("no files provided")

// Extractor is the metadata extraction seam, satisfied by *exiftool.Runner.
type Extractor interface {
	Extract(ctx context.Context, path string) (exiftool.Record, error)
}

// Upload is one inbound file: its declared name and size, and a way to open
// its content stream. Open is called at most once.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Item is a successful per-file outcome.
type Item struct {
	Filename string          `json:"filename"`
	Metadata exiftool.Record `json:"metadata"`
}

// ItemError is a failed per-file outcome, downgraded from whatever stage
// error caused it.
type ItemError struct {
	Filename string `json:"filename"`
	Error    string `json:"error"`
}

// Result holds per-file outcomes in input order, successes and failures
// separately.
type Result struct {
	Results []Item      `json:"results"`
	Errors  []ItemError `json:"errors"`
}

// Coordinator runs the upload pipeline over batches of files.
type Coordinator struct {
	store     *tmpstore.Store
	extractor Extractor
	maxBytes  int64
}

func NewCoordinator(store *tmpstore.Store, extractor Extractor, maxBytes int64) *Coordinator {
	return &Coordinator{
		store:     store,
		extractor: extractor,
		maxBytes:  maxBytes,
	}
}

// Process runs each upload through the pipeline sequentially. The transient
// file for upload N is always released before upload N+1 starts. An empty
// uploads slice is rejected with ErrNoFiles.
func (c *Coordinator) Process(ctx context.Context, uploads []Upload) (Result, error) {
	result := Result{
		Results: []Item{},
		Errors:  []ItemError{},
	}
	if len(uploads) == 0 {
		return result, ErrNoFiles
	}

	for _, u := range uploads {
		rec, err := c.processOne(ctx, u)
		if err != nil {
			slog.Info("Batch file failed",
				slog.String("filename", u.Name),
				slog.Any("error", err))
			result.Errors = append(result.Errors, ItemError{Filename: u.Name, Error: err.Error()})
			continue
		}
		result.Results = append(result.Results, Item{Filename: u.Name, Metadata: rec})
	}
	return result, nil
}

func (c *Coordinator) processOne(ctx context.Context, u Upload) (exiftool.Record, error) {
	if !validation.IsImageFile(u.Name) {
		return nil, validation.ErrUnsupportedType
	}
	// Pre-check the declared size before reading any bytes; Acquire enforces
	// the same limit again on the actual stream.
	if err := validation.CheckSize(u.Size, c.maxBytes); err != nil {
		return nil, err
	}

	rc, err := u.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}

	handle, err := c.store.Acquire(rc, u.Name)
	_ = rc.Close()
	if err != nil {
		return nil, err
	}
	defer handle.Release()

	return c.extractor.Extract(ctx, handle.Path())
}
