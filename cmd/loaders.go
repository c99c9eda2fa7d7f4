// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/config"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/store"
	"github.com/ts2g/etabmap/warehouse"
)

func userAgent() string {
	return fmt.Sprintf("etabmap/%s (+https://github.com/ts2g/etabmap)", Version)
}

func loadDirectory() ([]*annuaire.Establishment, error) {
	establishments, err := annuaire.LoadFile(cfg.Directory.Path, cfg.LoadOptions())
	if err != nil {
		return nil, fmt.Errorf("loading directory: %w", err)
	}

	log.Printf("📚 %d establishments read from %s", len(establishments), cfg.Directory.Path)

	return establishments, nil
}

// openRepository opens the DuckDB cache. With mustExist the database file
// has to be there already.
func openRepository(mustExist bool) (store.Repository, error) {
	if err := os.MkdirAll(cfg.Store.Path, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	dbpath := cfg.DatabasePath(store.DatabaseFile)

	if _, err := os.Stat(dbpath); mustExist && errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("database not found at %s - run 'sync' first", dbpath)
	}

	db, err := sql.Open("duckdb", dbpath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	repo := store.NewRepository(db)
	if err := repo.CreateSchema(); err != nil {
		db.Close()

		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return repo, nil
}

// openSource returns the configured geography source and a release function.
func openSource(ctx context.Context) (geo.Source, func(), error) {
	switch cfg.Geography.Source {
	case config.SourceBigQuery:
		src, err := warehouse.NewBigQuerySource(ctx, cfg.WarehouseOptions(userAgent()))
		if err != nil {
			return nil, nil, err
		}

		return src, func() {}, nil
	case config.SourceDuckDB:
		repo, err := openRepository(true)
		if err != nil {
			return nil, nil, err
		}

		return repo, func() { repo.DB().Close() }, nil
	default:
		return cfg.FileSource(), func() {}, nil
	}
}

func loadAreas(ctx context.Context, src geo.Source, levels []geo.Level) (map[geo.Level][]*geo.Area, error) {
	ret := make(map[geo.Level][]*geo.Area, len(levels))

	for _, level := range levels {
		areas, err := src.Areas(ctx, level)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", level, err)
		}

		log.Printf("🗺️  %d %s loaded", len(areas), level)
		ret[level] = areas
	}

	return ret, nil
}

func parseLevels(args []string) ([]geo.Level, error) {
	if len(args) == 0 {
		return geo.Levels(), nil
	}

	levels := make([]geo.Level, 0, len(args))

	for _, arg := range args {
		level, err := geo.ParseLevel(arg)
		if err != nil {
			return nil, err
		}

		levels = append(levels, level)
	}

	return levels, nil
}
