// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/choropleth"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/utils/textutils"
)

var countsOptions struct {
	status    string
	unmatched bool
	save      bool
}

var countsCmd = &cobra.Command{
	Use:   "counts <level>",
	Short: "Affiche le nombre d'établissements par zone",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := geo.ParseLevel(args[0])
		if err != nil {
			return err
		}

		filter, err := annuaire.ParseFilter(countsOptions.status)
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

		areas, err := src.Areas(cmd.Context(), level)
		if err != nil {
			return fmt.Errorf("loading %s: %w", level, err)
		}

		layer := choropleth.Build(establishments, areas, level, filter)
		printCounts(os.Stdout, layer)

		if countsOptions.unmatched {
			printUnmatched(os.Stdout, layer)
		}

		if !countsOptions.save {
			return nil
		}

		repo, err := openRepository(false)
		if err != nil {
			return err
		}
		defer repo.DB().Close()

		id, err := repo.SaveLayer(cmd.Context(), layer, time.Now())
		if err != nil {
			return fmt.Errorf("saving snapshot: %w", err)
		}

		log.Printf("💾 Snapshot %d saved", id)

		return nil
	},
}

func printCounts(w io.Writer, layer *choropleth.Layer) {
	a, b := strings.Repeat("─", 32), strings.Repeat("─", 8)
	fmt.Fprintf(w, "%s - %s:\n", layer.Level.Label(), layer.Filter.Label())
	fmt.Fprintf(w, "╭─%-32s─┬─%8s─╮\n", a, b)
	fmt.Fprintf(w, "│ %-32s │ %8s │\n", "Nom", "Effectif")
	fmt.Fprintf(w, "├─%-32s─┼─%8s─┤\n", a, b)

	for _, e := range layer.Ranked() {
		fmt.Fprintf(w, "│ %-32s │ %8s │\n", truncate(e.Area.Name, 32), textutils.FormatInt(int64(e.Count)))
	}

	fmt.Fprintf(w, "├─%-32s─┼─%8s─┤\n", a, b)
	fmt.Fprintf(w, "│ %-32s │ %8s │\n", "Total", textutils.FormatInt(int64(layer.Total)))
	fmt.Fprintf(w, "│ %-32s │ %8s │\n", "Rattachés", textutils.FormatInt(int64(layer.Matched)))
	fmt.Fprintf(w, "╰─%-32s─┴─%8s─╯\n", a, b)
}

func printUnmatched(w io.Writer, layer *choropleth.Layer) {
	if len(layer.Unmatched) == 0 {
		fmt.Fprintln(w, "Toutes les clés de l'annuaire correspondent à une zone.")

		return
	}

	fmt.Fprintln(w, "Clés sans zone:")

	for _, kc := range layer.Unmatched {
		fmt.Fprintf(w, "  %-32s %8s\n", kc.Key, textutils.FormatInt(int64(kc.Count)))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}

	return string(r[:n-1]) + "…"
}

func init() {
	rootCmd.AddCommand(countsCmd)
	countsCmd.Flags().StringVar(&countsOptions.status, "status", "all", "Filtre de statut: all, public ou private")
	countsCmd.Flags().BoolVar(&countsOptions.unmatched, "unmatched", false, "Liste les clés de l'annuaire sans zone")
	countsCmd.Flags().BoolVar(&countsOptions.save, "save", false, "Enregistre les effectifs dans la base DuckDB")
}
