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
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/exifcheck/exifcheck/config"
	"github.com/exifcheck/exifcheck/internal/exiftool"
	"github.com/exifcheck/exifcheck/internal/recipe"
	"github.com/exifcheck/exifcheck/internal/renamer"
	"github.com/exifcheck/exifcheck/internal/validation"
)

var (
	checkFuji   bool
	checkRename bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "extract metadata from a local image file",
		Long:  "Run the extraction pipeline against a local file and print the result as JSON, without going through the HTTP API.",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			path := args[0]
			name := filepath.Base(path)

			valid := validation.IsImageFile
			if checkFuji {
				valid = validation.IsFujiFile
			}
			if !valid(name) {
				return fmt.Errorf("%s: %w", name, validation.ErrUnsupportedType)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			doneCtx, cancel := handleSignals(c.Context())
			defer cancel()

			runner := exiftool.New(cfg.Exiftool)
			rec, err := runner.Extract(doneCtx, path)
			if err != nil {
				return err
			}

			var out any = rec
			switch {
			case checkFuji:
				out = recipe.Decode(rec)
			case checkRename:
				p := renamer.Propose(name, rec, time.Now)
				out = map[string]any{
					"original_filename": name,
					"proposed_filename": p.Proposed,
					"metadata_used":     p.Used,
				}
			}

			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().BoolVar(&checkFuji, "fuji", false, "decode the Fujifilm recipe instead of raw metadata")
	cmd.Flags().BoolVar(&checkRename, "rename", false, "print a filename proposal instead of raw metadata")
	rootCmd.AddCommand(cmd)
}
