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

// Package validation holds the upload admission checks: file type by
// extension and byte-size limits. All checks are pure functions over their
// inputs.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the upload size cap (50 MiB).
const DefaultMaxFileSize = 50 * 1024 * 1024

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".raf":  true,
	".tiff": true,
	".tif":  true,
}

var fujiExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".raf":  true,
}

var (
	ErrUnsupportedType = errors.New("unsupported file format")
)

// SizeError reports an upload that exceeds the configured byte limit.
type SizeError struct {
	Size  int64
	Limit int64
}

func (e *SizeError) Error() string {
	return fmt.Sprintf("file size exceeds maximum allowed size of %d MB", e.Limit/(1024*1024))
}

// IsImageFile reports whether name has an extension accepted for general
// metadata extraction. Matching is case-insensitive; a missing extension
// never matches.
func IsImageFile(name string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

// IsFujiFile reports whether name has an extension accepted for Fujifilm
// recipe decoding.
func IsFujiFile(name string) bool {
	return fujiExtensions[strings.ToLower(filepath.Ext(name))]
}

// CheckSize returns a *SizeError when size is strictly greater than limit.
func CheckSize(size, limit int64) error {
	if size > limit {
		return &SizeError{Size: size, Limit: limit}
	}
	return nil
}
