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

// Package recipe projects a raw metadata record into the fixed Fujifilm
// "recipe" view: the in-camera film simulation and processing settings.
// Decoding is a pure transformation and total over any record.
package recipe

import (
	"strings"

	"github.com/exifcheck/exifcheck/internal/exiftool"
)

// Unknown is the sentinel for settings absent from the source record.
const Unknown = "Unknown"

// View is the closed set of recipe settings. Field names follow exiftool's
// Fujifilm maker-note tags.
type View struct {
	FilmSimulation  string `json:"FilmSimulation"`
	DynamicRange    string `json:"DynamicRange"`
	GrainEffect     string `json:"GrainEffect"`
	ColorChrome     string `json:"ColorChrome"`
	ColorChromeBlue string `json:"ColorChromeBlue"`
	WhiteBalance    string `json:"WhiteBalance"`
	WBShift         string `json:"WBShift"`
	Highlights      string `json:"Highlights"`
	Shadows         string `json:"Shadows"`
	Color           string `json:"Color"`
	Sharpness       string `json:"Sharpness"`
	NoiseReduction  string `json:"NoiseReduction"`
}

// Summary is a decoded recipe plus the exposure settings that usually
// accompany it in a shared recipe card.
type Summary struct {
	Recipe       string `json:"recipe"`
	Details      View   `json:"recipe_details"`
	Date         string `json:"date"`
	CameraModel  string `json:"camera_model"`
	LensModel    string `json:"lens_model"`
	Aperture     string `json:"aperture"`
	ShutterSpeed string `json:"shutter_speed"`
	ISO          string `json:"iso"`
	FocalLength  string `json:"focal_length"`
}

func lookup(rec exiftool.Record, fallback string, keys ...string) string {
	if v := rec.GetString(keys...); v != "" {
		return v
	}
	return fallback
}

// Decode builds the recipe summary for rec. Every field falls back to its
// sentinel when the source tag is absent, so an empty record decodes to an
// all-Unknown summary rather than an error.
func Decode(rec exiftool.Record) Summary {
	filmSimulation := lookup(rec, Unknown, "FilmMode", "FilmSimulation")

	details := View{
		FilmSimulation:  filmSimulation,
		DynamicRange:    lookup(rec, Unknown, "DynamicRange"),
		GrainEffect:     lookup(rec, Unknown, "GrainEffectRoughness"),
		ColorChrome:     lookup(rec, Unknown, "ColorChrome"),
		ColorChromeBlue: lookup(rec, Unknown, "ColorChromeBlue"),
		WhiteBalance:    lookup(rec, Unknown, "WhiteBalance"),
		WBShift:         lookup(rec, Unknown, "WhiteBalanceFineTune"),
		Highlights:      lookup(rec, Unknown, "HighlightTone"),
		Shadows:         lookup(rec, Unknown, "ShadowTone"),
		Color:           lookup(rec, Unknown, "Saturation"),
		Sharpness:       lookup(rec, Unknown, "Sharpness"),
		NoiseReduction:  lookup(rec, Unknown, "NoiseReduction"),
	}

	// Fujifilm reports film modes like "F2/Velvia"; the short recipe name is
	// the part after the slash.
	name := filmSimulation
	if strings.Contains(filmSimulation, "/") {
		name = strings.Split(filmSimulation, "/")[1]
	}

	return Summary{
		Recipe:       name,
		Details:      details,
		Date:         lookup(rec, "Unknown Date", "DateTimeOriginal"),
		CameraModel:  lookup(rec, "Unknown Camera", "Model"),
		LensModel:    lookup(rec, "Unknown Lens", "LensModel"),
		Aperture:     lookup(rec, Unknown, "Aperture"),
		ShutterSpeed: lookup(rec, Unknown, "ShutterSpeed"),
		ISO:          lookup(rec, Unknown, "ISO"),
		FocalLength:  lookup(rec, Unknown, "FocalLength"),
	}
}
