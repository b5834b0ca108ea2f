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
	"encoding/json"
	"log/slog"
	"net/http"
)

type APIErrorCode string

const (
	ErrUnsupportedFormat APIErrorCode = "UNSUPPORTED_FORMAT"
	ErrFileTooLarge      APIErrorCode = "FILE_TOO_LARGE"
	ErrMissingFile       APIErrorCode = "MISSING_FILE"
	ErrNoFiles           APIErrorCode = "NO_FILES"
	ErrToolUnavailable   APIErrorCode = "TOOL_UNAVAILABLE"
	ErrExtractionFailed  APIErrorCode = "EXTRACTION_FAILED"
	ErrDecodeFailed      APIErrorCode = "DECODE_FAILED"
	ErrNoMetadata        APIErrorCode = "NO_METADATA"
	ErrStorageFailed     APIErrorCode = "STORAGE_FAILED"
	ErrRateLimited       APIErrorCode = "RATE_LIMITED"
	ErrMethodNotAllowed  APIErrorCode = "METHOD_NOT_ALLOWED"
)

type APIError struct {
	Status  int          `json:"status"`
	Code    APIErrorCode `json:"code"`
	Message string       `json:"message"`
}

// methodNotAllowed answers a known path hit with the wrong method with the
// same JSON error shape as every other failure.
func methodNotAllowed(allow string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Allow", allow)
		writeAPIError(w, http.StatusMethodNotAllowed, ErrMethodNotAllowed, "method "+r.Method+" not allowed")
	}
}

func writeAPIError(w http.ResponseWriter, status int, code APIErrorCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(APIError{
		Status:  status,
		Code:    code,
		Message: msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", slog.Any("error", err))
	}
}
