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

package tmpstore

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exifcheck/exifcheck/internal/validation"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := New(Config{Dir: t.TempDir(), MaxBytes: maxBytes})
	require.NoError(t, err)
	return s
}

func dirEntries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return entries
}

func TestStore_AcquireRelease(t *testing.T) {
	s := newTestStore(t, 1024)

	h, err := s.Acquire(strings.NewReader("hello"), "photo.jpg")
	require.NoError(t, err)

	data, err := os.ReadFile(h.Path())
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.True(t, strings.HasSuffix(h.Path(), "_photo.jpg"))

	h.Release()
	_, err = os.Stat(h.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist), "file should be gone after Release")
	assert.Empty(t, dirEntries(t, s.Dir()))
}

func TestStore_ReleaseIdempotent(t *testing.T) {
	s := newTestStore(t, 1024)

	h, err := s.Acquire(strings.NewReader("x"), "a.jpg")
	require.NoError(t, err)

	h.Release()
	h.Release() // second release must be a no-op
	assert.Empty(t, dirEntries(t, s.Dir()))
}

func TestStore_ReleaseAfterExternalRemoval(t *testing.T) {
	s := newTestStore(t, 1024)

	h, err := s.Acquire(strings.NewReader("x"), "a.jpg")
	require.NoError(t, err)

	require.NoError(t, os.Remove(h.Path()))
	h.Release() // must not panic or error out
}

func TestStore_UniquePathsForSameName(t *testing.T) {
	s := newTestStore(t, 1024)

	const workers = 8
	paths := make([]string, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := s.Acquire(strings.NewReader("data"), "same.jpg")
			if err != nil {
				t.Error(err)
				return
			}
			paths[i] = h.Path()
		}()
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, p := range paths {
		assert.False(t, seen[p], "path %s acquired twice", p)
		seen[p] = true
	}
	assert.Len(t, dirEntries(t, s.Dir()), workers)
}

func TestStore_SizeCap(t *testing.T) {
	s := newTestStore(t, 10)

	h, err := s.Acquire(strings.NewReader("exactly10b"), "ok.jpg")
	require.NoError(t, err, "upload at the limit must pass")
	h.Release()

	_, err = s.Acquire(strings.NewReader("eleven bytes"), "big.jpg")
	require.Error(t, err)
	var sizeErr *validation.SizeError
	assert.True(t, errors.As(err, &sizeErr), "want *validation.SizeError, got %T", err)

	assert.Empty(t, dirEntries(t, s.Dir()), "oversized upload must leave nothing behind")
}

func TestStore_PathTraversalName(t *testing.T) {
	s := newTestStore(t, 1024)

	h, err := s.Acquire(strings.NewReader("x"), "../../etc/passwd")
	require.NoError(t, err)
	defer h.Release()

	rel, err := filepath.Rel(s.Dir(), h.Path())
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."), "file must stay inside the store dir")
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	s, err := New(Config{Dir: dir, MaxBytes: 1024})
	require.NoError(t, err)

	info, err := os.Stat(s.Dir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
