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

package batch

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exifcheck/exifcheck/internal/exiftool"
	"github.com/exifcheck/exifcheck/internal/tmpstore"
)

type fakeExtractor struct {
	// failOn maps transient path suffixes to errors
	failOn map[string]error
	calls  []string
}

func (f *fakeExtractor) Extract(_ context.Context, path string) (exiftool.Record, error) {
	f.calls = append(f.calls, path)
	for suffix, err := range f.failOn {
		if strings.HasSuffix(path, suffix) {
			return nil, err
		}
	}
	return exiftool.Record{"SourceFile": path, "Model": "X-T4"}, nil
}

func upload(name, content string) Upload {
	return Upload{
		Name: name,
		Size: int64(len(content)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func newTestCoordinator(t *testing.T, ex Extractor) (*Coordinator, *tmpstore.Store) {
	t.Helper()
	store, err := tmpstore.New(tmpstore.Config{Dir: t.TempDir(), MaxBytes: 1024})
	require.NoError(t, err)
	return NewCoordinator(store, ex, 1024), store
}

func assertStoreEmpty(t *testing.T, store *tmpstore.Store) {
	t.Helper()
	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "transient files must be released after the batch")
}

func TestProcess_AllSucceed(t *testing.T) {
	ex := &fakeExtractor{}
	c, store := newTestCoordinator(t, ex)

	result, err := c.Process(context.Background(), []Upload{
		upload("a.jpg", "aaa"),
		upload("b.png", "bbb"),
	})
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "a.jpg", result.Results[0].Filename)
	assert.Equal(t, "b.png", result.Results[1].Filename)
	assert.Empty(t, result.Errors)
	assertStoreEmpty(t, store)
}

func TestProcess_IsolatesBadFile(t *testing.T) {
	ex := &fakeExtractor{}
	c, store := newTestCoordinator(t, ex)

	result, err := c.Process(context.Background(), []Upload{
		upload("first.jpg", "aaa"),
		upload("middle.exe", "bbb"),
		upload("last.tif", "ccc"),
	})
	require.NoError(t, err)

	require.Len(t, result.Results, 2)
	assert.Equal(t, "first.jpg", result.Results[0].Filename)
	assert.Equal(t, "last.tif", result.Results[1].Filename)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, "middle.exe", result.Errors[0].Filename)
	assert.Contains(t, result.Errors[0].Error, "unsupported file format")

	// The invalid file must never have reached the extractor.
	assert.Len(t, ex.calls, 2)
	assertStoreEmpty(t, store)
}

func TestProcess_IsolatesExtractionFailure(t *testing.T) {
	ex := &fakeExtractor{failOn: map[string]error{"_bad.jpg": errors.New("exiftool exited with code 1")}}
	c, store := newTestCoordinator(t, ex)

	result, err := c.Process(context.Background(), []Upload{
		upload("good.jpg", "aaa"),
		upload("bad.jpg", "bbb"),
		upload("also-good.jpg", "ccc"),
	})
	require.NoError(t, err)

	assert.Len(t, result.Results, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad.jpg", result.Errors[0].Filename)
	assertStoreEmpty(t, store)
}

func TestProcess_OversizedDeclaredSize(t *testing.T) {
	ex := &fakeExtractor{}
	c, store := newTestCoordinator(t, ex)

	big := Upload{
		Name: "big.jpg",
		Size: 4096, // over the 1024 cap
		Open: func() (io.ReadCloser, error) {
			t.Fatal("oversized upload must be rejected before its body is read")
			return nil, nil
		},
	}

	result, err := c.Process(context.Background(), []Upload{big})
	require.NoError(t, err)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "exceeds maximum allowed size")
	assert.Empty(t, ex.calls)
	assertStoreEmpty(t, store)
}

func TestProcess_EmptyBatch(t *testing.T) {
	c, _ := newTestCoordinator(t, &fakeExtractor{})

	_, err := c.Process(context.Background(), nil)
	assert.True(t, errors.Is(err, ErrNoFiles))
}
