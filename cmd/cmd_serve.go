// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/spf13/cobra"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/server"
	"github.com/ts2g/etabmap/store"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Lance l'API HTTP des couches choroplèthes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Address = serveAddr
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

		areas, err := loadAreas(cmd.Context(), src, geo.Levels())
		if err != nil {
			return err
		}

		// Snapshots are served from the duckdb cache when there is one.
		repo, ok := src.(store.Repository)
		if !ok {
			if repo, err = openRepository(true); err != nil {
				log.Printf("⚠️  Snapshots disabled: %v", err)
			} else {
				defer repo.DB().Close()
			}
		}

		log.Printf("🚀 Listening on http://%s", cfg.Server.Address)

		return server.NewServer(establishments, areas, repo).Run(cfg.Server.Address)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Adresse d'écoute (défaut localhost:8080)")
}
