// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the etabmap settings from YAML and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/warehouse"
)

// PathEnv names the variable holding the YAML file path.
const PathEnv = "ETABMAP_CONFIG"

// Geography sources.
const (
	SourceFile     = "file"
	SourceBigQuery = "bigquery"
	SourceDuckDB   = "duckdb"
)

var ErrInvalid = errors.New("invalid configuration")

type Columns struct {
	Department string `yaml:"departement" env:"ETABMAP_COLUMN_DEPARTEMENT" env-default:"departement"`
	Region     string `yaml:"region"      env:"ETABMAP_COLUMN_REGION"      env-default:"region"`
	Status     string `yaml:"statut"      env:"ETABMAP_COLUMN_STATUT"      env-default:"statut"`
	ID         string `yaml:"identifiant" env:"ETABMAP_COLUMN_IDENTIFIANT" env-default:"identifiant"`
	Name       string `yaml:"nom"         env:"ETABMAP_COLUMN_NOM"         env-default:"nom"`
}

type Directory struct {
	Path      string  `yaml:"path"      env:"ETABMAP_DIRECTORY"           env-default:"annuaire.csv"`
	Delimiter string  `yaml:"delimiter" env:"ETABMAP_DIRECTORY_DELIMITER" env-default:","`
	Encoding  string  `yaml:"encoding"  env:"ETABMAP_DIRECTORY_ENCODING"  env-default:"utf-8"`
	Columns   Columns `yaml:"columns"`
}

type BigQuery struct {
	Project     string `yaml:"project"     env:"ETABMAP_BQ_PROJECT"`
	Location    string `yaml:"location"    env:"ETABMAP_BQ_LOCATION"`
	Departments string `yaml:"departments" env:"ETABMAP_BQ_DEPARTMENTS"`
	Regions     string `yaml:"regions"     env:"ETABMAP_BQ_REGIONS"`
	Trace       bool   `yaml:"trace"       env:"ETABMAP_BQ_TRACE"`
}

type Geography struct {
	Source      string   `yaml:"source"      env:"ETABMAP_GEO_SOURCE"      env-default:"file"`
	Departments string   `yaml:"departments" env:"ETABMAP_GEO_DEPARTMENTS" env-default:"departements.csv"`
	Regions     string   `yaml:"regions"     env:"ETABMAP_GEO_REGIONS"     env-default:"regions.csv"`
	Delimiter   string   `yaml:"delimiter"   env:"ETABMAP_GEO_DELIMITER"   env-default:","`
	BigQuery    BigQuery `yaml:"bigquery"`
}

type Store struct {
	Path string `yaml:"path" env:"ETABMAP_DB_PATH" env-default:"db"`
}

type Server struct {
	Address string `yaml:"address" env:"ETABMAP_ADDR" env-default:"localhost:8080"`
}

// Config is the full etabmap configuration.
type Config struct {
	Directory Directory `yaml:"directory"`
	Geography Geography `yaml:"geography"`
	Store     Store     `yaml:"store"`
	Server    Server    `yaml:"server"`
}

// Load reads a .env file when present, then path (or $ETABMAP_CONFIG) and
// the environment. Priority: ENV > YAML > defaults.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	var cfg Config

	if path == "" {
		path = os.Getenv(PathEnv)
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config: file %s: %w", path, err)
		}

		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if _, err := delimiter(c.Directory.Delimiter); err != nil {
		return fmt.Errorf("%w: directory delimiter: %w", ErrInvalid, err)
	}

	switch c.Geography.Source {
	case SourceFile:
		if c.Geography.Departments == "" || c.Geography.Regions == "" {
			return fmt.Errorf("%w: geography files are required", ErrInvalid)
		}

		if _, err := delimiter(c.Geography.Delimiter); err != nil {
			return fmt.Errorf("%w: geography delimiter: %w", ErrInvalid, err)
		}
	case SourceBigQuery:
		if c.Geography.BigQuery.Project == "" {
			return fmt.Errorf("%w: bigquery project is required", ErrInvalid)
		}
	case SourceDuckDB:
		if c.Store.Path == "" {
			return fmt.Errorf("%w: db path is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown geography source %q", ErrInvalid, c.Geography.Source)
	}

	return nil
}

// LoadOptions returns the directory loader settings.
func (c *Config) LoadOptions() annuaire.LoadOptions {
	d, _ := delimiter(c.Directory.Delimiter)

	return annuaire.LoadOptions{
		Delimiter: d,
		Encoding:  c.Directory.Encoding,
		Columns: annuaire.Columns{
			Department: c.Directory.Columns.Department,
			Region:     c.Directory.Columns.Region,
			Status:     c.Directory.Columns.Status,
			ID:         c.Directory.Columns.ID,
			Name:       c.Directory.Columns.Name,
		},
	}
}

// FileSource returns the CSV boundary source.
func (c *Config) FileSource() *geo.FileSource {
	src := geo.NewFileSource(map[geo.Level]string{
		geo.Department: c.Geography.Departments,
		geo.Region:     c.Geography.Regions,
	})
	src.Delimiter, _ = delimiter(c.Geography.Delimiter)

	return src
}

// WarehouseOptions returns the BigQuery source settings.
func (c *Config) WarehouseOptions(userAgent string) warehouse.Options {
	bq := c.Geography.BigQuery

	opts := warehouse.Options{
		ProjectID: bq.Project,
		Location:  bq.Location,
		UserAgent: userAgent,
		TraceHTTP: bq.Trace,
	}

	if bq.Departments != "" || bq.Regions != "" {
		opts.Tables = warehouse.DefaultTables(bq.Project)

		if bq.Departments != "" {
			opts.Tables[geo.Department] = bq.Departments
		}

		if bq.Regions != "" {
			opts.Tables[geo.Region] = bq.Regions
		}
	}

	return opts
}

// DatabasePath is the DuckDB file inside the store directory.
func (c *Config) DatabasePath(file string) string {
	return filepath.Join(c.Store.Path, file)
}

func delimiter(s string) (rune, error) {
	switch s {
	case "":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	}

	r, size := utf8.DecodeRuneInString(s)
	if size != len(s) || r == utf8.RuneError {
		return 0, fmt.Errorf("expected a single character, got %q", s)
	}

	return r, nil
}
