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

package validation

import (
	"errors"
	"strings"
	"testing"
)

func TestIsImageFile(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.png", true},
		{"photo.raf", true},
		{"photo.tiff", true},
		{"photo.tif", true},
		// Case-insensitive
		{"PHOTO.JPG", true},
		{"photo.Raf", true},
		{"DSCF1234.TIF", true},
		// Rejected
		{"photo.gif", false},
		{"photo.heic", false},
		{"archive.zip", false},
		{"photo", false},
		{"photo.", false},
		{"", false},
		{".jpg", true},
		// Only the final extension counts
		{"photo.jpg.exe", false},
	}

	for _, tt := range tests {
		if got := IsImageFile(tt.input); got != tt.expected {
			t.Errorf("IsImageFile(%q) = %v; want %v", tt.input, got, tt.expected)
		}
	}
}

func TestIsFujiFile(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.raf", true},
		{"PHOTO.RAF", true},
		// General image types that are not Fuji-decodable
		{"photo.png", false},
		{"photo.tiff", false},
		{"photo.tif", false},
		{"photo", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsFujiFile(tt.input); got != tt.expected {
			t.Errorf("IsFujiFile(%q) = %v; want %v", tt.input, got, tt.expected)
		}
	}
}

func TestCheckSize(t *testing.T) {
	const limit = DefaultMaxFileSize

	if err := CheckSize(0, limit); err != nil {
		t.Errorf("CheckSize(0) = %v; want nil", err)
	}
	if err := CheckSize(limit, limit); err != nil {
		t.Errorf("CheckSize(limit) = %v; want nil", err)
	}

	err := CheckSize(limit+1, limit)
	if err == nil {
		t.Fatal("CheckSize(limit+1) = nil; want error")
	}

	var sizeErr *SizeError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("CheckSize error type = %T; want *SizeError", err)
	}
	if sizeErr.Limit != limit {
		t.Errorf("SizeError.Limit = %d; want %d", sizeErr.Limit, limit)
	}
	if !strings.Contains(err.Error(), "50 MB") {
		t.Errorf("SizeError message %q does not state the limit", err.Error())
	}
}
