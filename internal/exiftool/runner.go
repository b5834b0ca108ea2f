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

// Package exiftool invokes the external exiftool binary to read image
// metadata. Each extraction is one synchronous process execution with no
// state kept between invocations; callers should treat it as the dominant
// latency cost of a request and must not hold locks across it.
package exiftool

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	// ErrDecode means the tool exited cleanly but its stdout was not the
	// expected JSON array.
	ErrDecode = errors.New("exiftool output is not valid JSON")
	// ErrEmptyResult means the tool exited cleanly but reported zero records.
	ErrEmptyResult = errors.New("exiftool reported no metadata")
	// ErrToolMissing means the binary could not be found at all.
	ErrToolMissing = errors.New("exiftool is not installed or not available in PATH")
)

var meter = otel.Meter("github.com/exifcheck/exifcheck/internal/exiftool")

var extractDuration metric.Float64Histogram

func init() {
	m, err := meter.Float64Histogram(
		"exifcheck.extract.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("The wall-clock time of one exiftool invocation"),
	)
	if err != nil {
		slog.Error("Failed to create extract duration histogram", slog.Any("error", err))
	}
	extractDuration = m
}

// ToolError reports a non-zero exiftool exit.
type ToolError struct {
	ExitCode int
	Stderr   string
}

func (e *ToolError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("exiftool exited with code %d", e.ExitCode)
	}
	return fmt.Sprintf("exiftool exited with code %d: %s", e.ExitCode, e.Stderr)
}

type Config struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		Path:    "exiftool",
		Timeout: 30 * time.Second,
	}
}

// Runner executes exiftool once per call. It is safe for concurrent use.
type Runner struct {
	path    string
	timeout time.Duration
}

func New(cfg Config) *Runner {
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return &Runner{path: cfg.Path, timeout: cfg.Timeout}
}

// Extract runs `exiftool -j <path>` and returns the first record of the JSON
// array it prints. Failures map to ErrToolMissing, *ToolError, ErrDecode, or
// ErrEmptyResult. No retries are attempted.
func (r *Runner) Extract(ctx context.Context, path string) (Record, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, r.path, "-j", path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	extractDuration.Record(ctx, float64(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, ErrToolMissing
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, &ToolError{
				ExitCode: exitErr.ExitCode(),
				Stderr:   strings.TrimSpace(stderr.String()),
			}
		}
		return nil, fmt.Errorf("run exiftool: %w", err)
	}

	var records []Record
	if err := json.Unmarshal(stdout.Bytes(), &records); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}
	if len(records) == 0 {
		return nil, ErrEmptyResult
	}
	return records[0], nil
}

// Available reports whether the exiftool binary can be executed. It is the
// readiness probe for the service.
func (r *Runner) Available(ctx context.Context) error {
	_, err := r.Version(ctx)
	return err
}

// Version returns the output of `exiftool -ver`.
func (r *Runner) Version(ctx context.Context) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, r.path, "-ver").Output()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", ErrToolMissing
		}
		return "", fmt.Errorf("exiftool -ver: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
