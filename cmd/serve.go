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

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/exifcheck/exifcheck/apiserver"
	"github.com/exifcheck/exifcheck/config"
	"github.com/exifcheck/exifcheck/internal/batch"
	"github.com/exifcheck/exifcheck/internal/exiftool"
	"github.com/exifcheck/exifcheck/internal/healthcheck"
	"github.com/exifcheck/exifcheck/internal/tmpstore"
)

const exiftoolProbeInterval = 30 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the EXIF inspection API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			servicename := "exifcheck-api"
			doneCtx, doneFx, err := setupTelemetry(servicename)
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}

			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Start health check server
			healthConfig := healthcheck.GetConfigFromEnv()
			healthServer := healthcheck.NewServer(healthConfig)

			go func() {
				if err := healthServer.Start(doneCtx); err != nil {
					slog.Error("Health check server stopped", slog.Any("error", err))
				}
			}()

			store, err := tmpstore.New(cfg.Upload)
			if err != nil {
				slog.Error("Failed to initialize upload store", slog.Any("error", err))
				return fmt.Errorf("failed to initialize upload store: %w", err)
			}

			runner := exiftool.New(cfg.Exiftool)
			coord := batch.NewCoordinator(store, runner, cfg.Upload.MaxBytes)
			svc := apiserver.NewService(cfg.Server, store, runner, coord, cfg.Upload.MaxBytes, cfg.Environment)

			healthServer.SetStatus(healthcheck.StatusHealthy)
			go probeExiftool(doneCtx, healthServer, runner)

			return svc.Run(doneCtx)
		},
	}
	rootCmd.AddCommand(cmd)
}

// probeExiftool keeps the "exiftool" readiness condition current. The
// service stops reporting ready when the tool disappears from the host.
func probeExiftool(ctx context.Context, hs *healthcheck.Server, runner *exiftool.Runner) {
	check := func() {
		err := runner.Available(ctx)
		hs.SetReadyCondition("exiftool", err == nil)
		if err != nil {
			slog.Warn("exiftool availability check failed", slog.Any("error", err))
		}
	}

	check()
	ticker := time.NewTicker(exiftoolProbeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
