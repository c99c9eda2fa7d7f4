// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ts2g/etabmap/geo"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(PathEnv, "")

	cfg, err := Load("")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "annuaire.csv", cfg.Directory.Path)
	assert.Equal(t, "utf-8", cfg.Directory.Encoding)
	assert.Equal(t, "statut", cfg.Directory.Columns.Status)
	assert.Equal(t, SourceFile, cfg.Geography.Source)
	assert.Equal(t, "localhost:8080", cfg.Server.Address)
	assert.Equal(t, filepath.Join("db", "etabmap.duckdb"), cfg.DatabasePath("etabmap.duckdb"))

	opts := cfg.LoadOptions()
	assert.Equal(t, ',', opts.Delimiter)
	assert.Equal(t, "departement", opts.Columns.Department)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etabmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
directory:
  path: data/annuaire.csv
  delimiter: ";"
  encoding: windows-1252
  columns:
    statut: secteur
geography:
  source: bigquery
  bigquery:
    project: ts2g
    regions: ts2g.staging.regions
`), 0o600))

	t.Setenv("ETABMAP_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "data/annuaire.csv", cfg.Directory.Path)
	assert.Equal(t, "secteur", cfg.Directory.Columns.Status)
	assert.Equal(t, "region", cfg.Directory.Columns.Region)
	assert.Equal(t, ":9090", cfg.Server.Address)

	opts := cfg.LoadOptions()
	assert.Equal(t, ';', opts.Delimiter)
	assert.Equal(t, "windows-1252", opts.Encoding)

	wh := cfg.WarehouseOptions("etabmap/test")
	assert.Equal(t, "ts2g", wh.ProjectID)
	assert.Equal(t, "ts2g.clean.departements_geographie", wh.Tables[geo.Department])
	assert.Equal(t, "ts2g.staging.regions", wh.Tables[geo.Region])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Setenv(PathEnv, "")

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Geography.Source = "postgis" }},
		{"bigquery without project", func(c *Config) { c.Geography.Source = SourceBigQuery }},
		{"duckdb without path", func(c *Config) { c.Geography.Source = SourceDuckDB; c.Store.Path = "" }},
		{"missing file", func(c *Config) { c.Geography.Regions = "" }},
		{"long delimiter", func(c *Config) { c.Directory.Delimiter = ";;" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)

			tt.mutate(cfg)
			require.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestDelimiter(t *testing.T) {
	for in, want := range map[string]rune{"": ',', ";": ';', "tab": '\t', `\t`: '\t', "|": '|'} {
		got, err := delimiter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
