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

// Package renamer derives a filename proposal from a metadata record. The
// proposal is deterministic for a fixed record and clock; absent fields are
// omitted from the name rather than defaulted.
package renamer

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/exifcheck/exifcheck/internal/exiftool"
)

const (
	datePlaceholder = "Unknown Date"
	timestampFormat = "20060102_150405"
	maxNameLength   = 255
)

const invalidChars = `<>:"/\|?*`

// Fields records which metadata values contributed to a proposal.
type Fields struct {
	Date         string `json:"date"`
	Camera       string `json:"camera"`
	Lens         string `json:"lens"`
	Aperture     string `json:"aperture"`
	ShutterSpeed string `json:"shutter_speed"`
	ISO          string `json:"iso"`
}

// Proposal is a derived filename plus its contributing fields.
type Proposal struct {
	Proposed string
	Used     Fields
}

// FormatDate normalizes an exif date for filename use: colons stripped,
// spaces replaced with underscores. An empty or placeholder date yields the
// current time from now in YYYYMMDD_HHMMSS form.
func FormatDate(date string, now func() time.Time) string {
	if date == "" || date == datePlaceholder {
		return now().Format(timestampFormat)
	}
	return strings.ReplaceAll(strings.ReplaceAll(date, ":", ""), " ", "_")
}

// Sanitize makes a filename safe across operating systems: each of
// < > : " / \ | ? * becomes an underscore, and names longer than 255
// characters are truncated at the base while preserving the extension.
// Truncation counts runes, so a multibyte name is never cut mid-rune.
// Sanitizing an already-sanitized name is a no-op.
func Sanitize(name string) string {
	for _, c := range invalidChars {
		name = strings.ReplaceAll(name, string(c), "_")
	}
	runes := []rune(name)
	if len(runes) > maxNameLength {
		ext := []rune(filepath.Ext(name))
		if len(ext) >= maxNameLength {
			// Extension alone blows the budget; nothing of the base is
			// worth keeping.
			return string(runes[:maxNameLength])
		}
		base := runes[:len(runes)-len(ext)]
		name = string(base[:maxNameLength-len(ext)]) + string(ext)
	}
	return name
}

// Propose builds a filename from the record's date, camera, lens, aperture,
// shutter speed, and ISO, joined in that fixed order with underscores and
// carrying over the original extension. Missing fields drop out of the name
// entirely.
func Propose(originalName string, rec exiftool.Record, now func() time.Time) Proposal {
	ext := filepath.Ext(originalName)

	date := rec.GetString("DateTimeOriginal")
	camera := strings.ReplaceAll(rec.GetString("Model"), " ", "_")
	lens := strings.ReplaceAll(rec.GetString("LensModel"), " ", "_")
	aperture := rec.GetString("Aperture")
	shutter := rec.GetString("ShutterSpeed")
	iso := rec.GetString("ISO")

	var apertureStr, shutterStr, isoStr string
	if aperture != "" {
		apertureStr = "f" + aperture
	}
	if shutter != "" {
		shutterStr = shutter + "s"
	}
	if iso != "" {
		isoStr = "ISO" + iso
	}

	elements := []string{FormatDate(date, now), camera, lens, apertureStr, shutterStr, isoStr}
	parts := make([]string, 0, len(elements))
	for _, e := range elements {
		if e != "" {
			parts = append(parts, e)
		}
	}

	return Proposal{
		Proposed: Sanitize(strings.Join(parts, "_")) + ext,
		Used: Fields{
			Date:         date,
			Camera:       camera,
			Lens:         lens,
			Aperture:     aperture,
			ShutterSpeed: shutter,
			ISO:          iso,
		},
	}
}
