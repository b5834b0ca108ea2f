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

// Package apiserver is the HTTP surface of the service: upload decoding,
// request admission, and JSON responses around the extraction pipeline.
package apiserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/exifcheck/exifcheck/internal/batch"
	"github.com/exifcheck/exifcheck/internal/exiftool"
	"github.com/exifcheck/exifcheck/internal/tmpstore"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

var meter = otel.Meter("github.com/exifcheck/exifcheck/apiserver")

var (
	uploadsProcessedCounter metric.Int64Counter
	uploadsFailedCounter    metric.Int64Counter
)

func init() {
	c, err := meter.Int64Counter(
		"exifcheck.uploads.processed",
		metric.WithDescription("The number of uploaded files processed successfully"),
	)
	if err != nil {
		slog.Error("Failed to create uploads processed counter", slog.Any("error", err))
	}
	uploadsProcessedCounter = c

	c, err = meter.Int64Counter(
		"exifcheck.uploads.failed",
		metric.WithDescription("The number of uploaded files rejected or failed"),
	)
	if err != nil {
		slog.Error("Failed to create uploads failed counter", slog.Any("error", err))
	}
	uploadsFailedCounter = c
}

type Config struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	RateRPS        float64  `mapstructure:"rate_rps"`
	RateBurst      int      `mapstructure:"rate_burst"`
}

func DefaultConfig() Config {
	return Config{
		Addr:           ":8000",
		AllowedOrigins: []string{"*"},
		RateRPS:        5,
		RateBurst:      10,
	}
}

// Tool is the extraction seam, satisfied by *exiftool.Runner.
type Tool interface {
	Extract(ctx context.Context, path string) (exiftool.Record, error)
	Available(ctx context.Context) error
	Version(ctx context.Context) (string, error)
}

// Service routes upload requests through the validate-store-extract
// pipeline and shapes the results.
type Service struct {
	cfg         Config
	store       *tmpstore.Store
	tool        Tool
	coord       *batch.Coordinator
	maxBytes    int64
	environment string
	limiter     *ipRateLimiter

	// now is injected so filename proposals are testable.
	now func() time.Time
}

func NewService(cfg Config, store *tmpstore.Store, tool Tool, coord *batch.Coordinator, maxBytes int64, environment string) *Service {
	return &Service{
		cfg:         cfg,
		store:       store,
		tool:        tool,
		coord:       coord,
		maxBytes:    maxBytes,
		environment: environment,
		limiter:     newIPRateLimiter(cfg.RateRPS, cfg.RateBurst),
		now:         time.Now,
	}
}

// Handler builds the full middleware-wrapped route table.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /api/v1/fuji", s.handleFuji)
	mux.HandleFunc("POST /api/v1/batch", s.handleBatch)
	mux.HandleFunc("POST /api/v1/rename", s.handleRename)

	// Method-less fallbacks lose to the patterns above, so they only see
	// known paths hit with the wrong method.
	for _, p := range []string{"/api/v1/analyze", "/api/v1/fuji", "/api/v1/batch", "/api/v1/rename"} {
		mux.HandleFunc(p, methodNotAllowed(http.MethodPost))
	}
	mux.HandleFunc("/{$}", methodNotAllowed(http.MethodGet))
	mux.HandleFunc("/health", methodNotAllowed(http.MethodGet))

	var h http.Handler = mux
	h = rateLimitMiddleware(s.limiter, h)
	h = sizeGateMiddleware(s.maxBytes, h)
	h = corsMiddleware(s.cfg.AllowedOrigins, h)
	h = securityHeadersMiddleware(h)
	h = loggingMiddleware(h)
	return h
}

// Run serves the API until doneCtx is cancelled, then shuts down cleanly.
func (s *Service) Run(doneCtx context.Context) error {
	slog.Info("Starting API server", slog.String("addr", s.cfg.Addr))

	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start HTTP server", slog.Any("error", err))
		}
	}()

	<-doneCtx.Done()

	slog.Info("Shutting down API server")
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Error("Failed to shutdown HTTP server", slog.Any("error", err))
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}
	return nil
}
