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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "temp_uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(50*1024*1024), cfg.Upload.MaxBytes)
	assert.Equal(t, "exiftool", cfg.Exiftool.Path)
	assert.Equal(t, 30*time.Second, cfg.Exiftool.Timeout)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EXIFCHECK_SERVER_ADDR", ":9999")
	t.Setenv("EXIFCHECK_UPLOAD_DIR", "/tmp/uploads")
	t.Setenv("EXIFCHECK_UPLOAD_MAX_BYTES", "1048576")
	t.Setenv("EXIFCHECK_EXIFTOOL_PATH", "/opt/bin/exiftool")
	t.Setenv("EXIFCHECK_EXIFTOOL_TIMEOUT", "5s")
	t.Setenv("EXIFCHECK_ENVIRONMENT", "production")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, "/tmp/uploads", cfg.Upload.Dir)
	assert.Equal(t, int64(1048576), cfg.Upload.MaxBytes)
	assert.Equal(t, "/opt/bin/exiftool", cfg.Exiftool.Path)
	assert.Equal(t, 5*time.Second, cfg.Exiftool.Timeout)
	assert.Equal(t, "production", cfg.Environment)
}

func TestLoad_AllowedOriginsSplit(t *testing.T) {
	t.Setenv("EXIFCHECK_SERVER_ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}
