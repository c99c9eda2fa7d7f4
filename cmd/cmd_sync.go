// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/ts2g/etabmap/config"
	"github.com/ts2g/etabmap/store"
)

var syncCmd = &cobra.Command{
	Use:   "sync [level...]",
	Short: "Copie les contours de la source configurée dans la base DuckDB",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Geography.Source == config.SourceDuckDB {
			return errors.New("the geography source is already duckdb, use --source file or --source bigquery")
		}

		levels, err := parseLevels(args)
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

		repo, err := openRepository(false)
		if err != nil {
			return err
		}
		defer repo.DB().Close()

		for _, level := range levels {
			if err := repo.SaveAreas(cmd.Context(), level, areas[level]); err != nil {
				return fmt.Errorf("saving %s: %w", level, err)
			}

			n, err := repo.CountAreas(cmd.Context(), level)
			if err != nil {
				return err
			}

			log.Printf("✅ %d %s stored in %s", n, level, cfg.DatabasePath(store.DatabaseFile))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
