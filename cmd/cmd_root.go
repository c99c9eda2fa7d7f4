// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/ts2g/etabmap/config"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

// rootFlags mirror the config settings that can be overridden per run.
type rootFlags struct {
	config      string
	directory   string
	delimiter   string
	encoding    string
	source      string
	departments string
	regions     string
	dbPath      string
	project     string
	trace       bool
}

var (
	flags rootFlags
	cfg   *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "etabmap",
	Short: "cartes des établissements par département et par région",
	Long: `
etabmap agrège l'annuaire des établissements par département et par région,
filtré par statut (public, privé), et joint les effectifs aux contours
administratifs pour produire des couches choroplèthes.
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load(flags.config)
		if err != nil {
			return err
		}

		applyFlags(cmd, c)

		if err := c.Validate(); err != nil {
			return err
		}

		cfg = c

		return nil
	},
}

// applyFlags overrides c with the flags explicitly set on the command line.
func applyFlags(cmd *cobra.Command, c *config.Config) {
	set := func(name string, dst *string, value string) {
		if cmd.Flags().Changed(name) {
			*dst = value
		}
	}

	set("directory", &c.Directory.Path, flags.directory)
	set("delimiter", &c.Directory.Delimiter, flags.delimiter)
	set("encoding", &c.Directory.Encoding, flags.encoding)
	set("source", &c.Geography.Source, flags.source)
	set("departements", &c.Geography.Departments, flags.departments)
	set("regions", &c.Geography.Regions, flags.regions)
	set("db-path", &c.Store.Path, flags.dbPath)
	set("bq-project", &c.Geography.BigQuery.Project, flags.project)

	if cmd.Flags().Changed("trace") {
		c.Geography.BigQuery.Trace = flags.trace
	}
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "Fichier de configuration YAML (défaut $"+config.PathEnv+")")
	pf.StringVar(&flags.directory, "directory", "", "Fichier CSV de l'annuaire")
	pf.StringVar(&flags.delimiter, "delimiter", "", "Séparateur du CSV de l'annuaire")
	pf.StringVar(&flags.encoding, "encoding", "", "Encodage du CSV de l'annuaire (utf-8, windows-1252, ...)")
	pf.StringVar(&flags.source, "source", "", "Source des contours: file, bigquery ou duckdb")
	pf.StringVar(&flags.departments, "departements", "", "CSV des contours des départements")
	pf.StringVar(&flags.regions, "regions", "", "CSV des contours des régions")
	pf.StringVar(&flags.dbPath, "db-path", "", "Répertoire de la base DuckDB")
	pf.StringVar(&flags.project, "bq-project", "", "Projet BigQuery des contours")
	pf.BoolVar(&flags.trace, "trace", false, "Affiche le trafic HTTP vers BigQuery")
}
