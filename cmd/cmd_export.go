// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/choropleth"
)

var exportOptions struct {
	outDir string
	status string
}

var exportCmd = &cobra.Command{
	Use:   "export [level...]",
	Short: "Écrit une couche GeoJSON par niveau (departements.geojson, regions.geojson)",
	RunE: func(cmd *cobra.Command, args []string) error {
		levels, err := parseLevels(args)
		if err != nil {
			return err
		}

		filter, err := annuaire.ParseFilter(exportOptions.status)
		if err != nil {
			return err
		}

		establishments, err := loadDirectory()
		if err != nil {
			return err
		}

		src, release, err := openSource(cmd.Context())
		if err != nil {
			return err
		}
		defer release()

		areas, err := loadAreas(cmd.Context(), src, levels)
		if err != nil {
			return err
		}

		if err := os.MkdirAll(exportOptions.outDir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}

		for _, level := range levels {
			layer := choropleth.Build(establishments, areas[level], level, filter)
			path := filepath.Join(exportOptions.outDir, string(level)+".geojson")

			if err := writeLayer(path, layer); err != nil {
				return err
			}

			log.Printf("✅ %s: %d of %d establishments (%s) on %d areas, written to %s",
				level, layer.Matched, layer.Total, filter.Label(), len(layer.Entries), path)

			for _, kc := range layer.Unmatched {
				log.Printf("⚠️  %s: key %q matches no area (%d)", level, kc.Key, kc.Count)
			}
		}

		return nil
	},
}

func writeLayer(path string, layer *choropleth.Layer) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}

	if err := layer.WriteGeoJSON(f); err != nil {
		f.Close()

		return err
	}

	return f.Close()
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOptions.outDir, "out", "o", ".", "Répertoire de sortie")
	exportCmd.Flags().StringVar(&exportOptions.status, "status", "all", "Filtre de statut: all, public ou private")
}
