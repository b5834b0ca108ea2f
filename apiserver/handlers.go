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

package apiserver

import (
	"errors"
	"io"
	"net/http"

	"github.com/exifcheck/exifcheck/internal/batch"
	"github.com/exifcheck/exifcheck/internal/exiftool"
	"github.com/exifcheck/exifcheck/internal/recipe"
	"github.com/exifcheck/exifcheck/internal/renamer"
	"github.com/exifcheck/exifcheck/internal/validation"
)

const multipartMemory = 32 << 20

const toolUnavailableMsg = "exiftool is not installed or not available in PATH"

func (s *Service) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "EXIF Checker API is running"})
}

type healthConfig struct {
	MaxFileSize     int64  `json:"max_file_size"`
	Version         string `json:"version"`
	Environment     string `json:"environment"`
	ExiftoolVersion string `json:"exiftool_version"`
}

type healthResponse struct {
	Status  string       `json:"status"`
	Message string       `json:"message"`
	Config  healthConfig `json:"config"`
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	ver, err := s.tool.Version(r.Context())
	if err != nil {
		writeAPIError(w, http.StatusInternalServerError, ErrToolUnavailable, toolUnavailableMsg)
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "healthy",
		Message: "EXIF Checker API is healthy",
		Config: healthConfig{
			MaxFileSize:     s.maxBytes / (1024 * 1024),
			Version:         Version,
			Environment:     s.environment,
			ExiftoolVersion: ver,
		},
	})
}

// extractSingle runs the single-file pipeline for a "file" form part. It
// writes the error response itself on failure; callers only shape the
// success body.
func (s *Service) extractSingle(w http.ResponseWriter, r *http.Request, validType func(string) bool, unsupportedMsg string) (string, exiftool.Record, bool) {
	if err := s.tool.Available(r.Context()); err != nil {
		writeAPIError(w, http.StatusInternalServerError, ErrToolUnavailable, toolUnavailableMsg)
		return "", nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIError(w, http.StatusBadRequest, ErrMissingFile, "no file upload in request")
		return "", nil, false
	}
	defer func() { _ = file.Close() }()

	if !validType(header.Filename) {
		uploadsFailedCounter.Add(r.Context(), 1)
		writeAPIError(w, http.StatusBadRequest, ErrUnsupportedFormat, unsupportedMsg)
		return "", nil, false
	}
	if err := validation.CheckSize(header.Size, s.maxBytes); err != nil {
		uploadsFailedCounter.Add(r.Context(), 1)
		writeAPIError(w, http.StatusRequestEntityTooLarge, ErrFileTooLarge, err.Error())
		return "", nil, false
	}

	handle, err := s.store.Acquire(file, header.Filename)
	if err != nil {
		uploadsFailedCounter.Add(r.Context(), 1)
		var sizeErr *validation.SizeError
		if errors.As(err, &sizeErr) {
			writeAPIError(w, http.StatusRequestEntityTooLarge, ErrFileTooLarge, sizeErr.Error())
		} else {
			writeAPIError(w, http.StatusInternalServerError, ErrStorageFailed, "error saving file")
		}
		return "", nil, false
	}
	defer handle.Release()

	rec, err := s.tool.Extract(r.Context(), handle.Path())
	if err != nil {
		uploadsFailedCounter.Add(r.Context(), 1)
		writeExtractError(w, err)
		return "", nil, false
	}

	uploadsProcessedCounter.Add(r.Context(), 1)
	return header.Filename, rec, true
}

func writeExtractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, exiftool.ErrToolMissing):
		writeAPIError(w, http.StatusInternalServerError, ErrToolUnavailable, toolUnavailableMsg)
	case errors.Is(err, exiftool.ErrDecode):
		writeAPIError(w, http.StatusInternalServerError, ErrDecodeFailed, "error parsing EXIF data")
	case errors.Is(err, exiftool.ErrEmptyResult):
		writeAPIError(w, http.StatusInternalServerError, ErrNoMetadata, err.Error())
	default:
		writeAPIError(w, http.StatusInternalServerError, ErrExtractionFailed, "error processing image: "+err.Error())
	}
}

type analyzeResponse struct {
	Filename string          `json:"filename"`
	Metadata exiftool.Record `json:"metadata"`
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	name, rec, ok := s.extractSingle(w, r, validation.IsImageFile, "unsupported file format")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Filename: name, Metadata: rec})
}

type fujiResponse struct {
	Filename string `json:"filename"`
	recipe.Summary
}

func (s *Service) handleFuji(w http.ResponseWriter, r *http.Request) {
	name, rec, ok := s.extractSingle(w, r, validation.IsFujiFile,
		"unsupported file format. Only Fujifilm images (JPG, RAF) are supported")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, fujiResponse{Filename: name, Summary: recipe.Decode(rec)})
}

type renameResponse struct {
	OriginalFilename string         `json:"original_filename"`
	ProposedFilename string         `json:"proposed_filename"`
	MetadataUsed     renamer.Fields `json:"metadata_used"`
}

func (s *Service) handleRename(w http.ResponseWriter, r *http.Request) {
	name, rec, ok := s.extractSingle(w, r, validation.IsImageFile, "unsupported file format")
	if !ok {
		return
	}

	p := renamer.Propose(name, rec, s.now)
	writeJSON(w, http.StatusOK, renameResponse{
		OriginalFilename: name,
		ProposedFilename: p.Proposed,
		MetadataUsed:     p.Used,
	})
}

func (s *Service) handleBatch(w http.ResponseWriter, r *http.Request) {
	if err := s.tool.Available(r.Context()); err != nil {
		writeAPIError(w, http.StatusInternalServerError, ErrToolUnavailable, toolUnavailableMsg)
		return
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		writeAPIError(w, http.StatusBadRequest, ErrNoFiles, "no files provided")
		return
	}

	headers := r.MultipartForm.File["files"]
	uploads := make([]batch.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, batch.Upload{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	result, err := s.coord.Process(r.Context(), uploads)
	if err != nil {
		if errors.Is(err, batch.ErrNoFiles) {
			writeAPIError(w, http.StatusBadRequest, ErrNoFiles, "no files provided")
			return
		}
		writeAPIError(w, http.StatusInternalServerError, ErrExtractionFailed, err.Error())
		return
	}

	uploadsProcessedCounter.Add(r.Context(), int64(len(result.Results)))
	uploadsFailedCounter.Add(r.Context(), int64(len(result.Errors)))
	writeJSON(w, http.StatusOK, result)
}
