// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package store keeps areas and computed counts in a local DuckDB database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/choropleth"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/spatial"
)

// DatabaseFile is the name of the DuckDB file inside the db directory.
const DatabaseFile = "etabmap.duckdb"

// ErrNoSnapshot is returned when no counts were saved for a level and filter.
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotCount is one area row of a snapshot.
type SnapshotCount struct {
	Key   string `json:"key"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Snapshot is a saved layer without geometries.
type Snapshot struct {
	ID        int64            `json:"id"`
	Level     geo.Level        `json:"level"`
	Filter    annuaire.Filter  `json:"filter"`
	CreatedAt time.Time        `json:"created_at"`
	Total     int              `json:"total"`
	Matched   int              `json:"matched"`
	Counts    []*SnapshotCount `json:"counts"`
}

// Repository handles persistence of areas and snapshots.
type Repository interface {
	geo.Source

	// CreateSchema creates the tables and loads the spatial extension
	CreateSchema() error

	// SaveAreas replaces the stored areas of a level
	SaveAreas(ctx context.Context, level geo.Level, areas []*geo.Area) error

	// CountAreas returns the number of stored areas of a level
	CountAreas(ctx context.Context, level geo.Level) (int, error)

	// SaveLayer stores the counts of a layer and returns the snapshot id
	SaveLayer(ctx context.Context, layer *choropleth.Layer, at time.Time) (int64, error)

	// LatestSnapshot returns the most recent snapshot of a level and filter
	LatestSnapshot(ctx context.Context, level geo.Level, filter annuaire.Filter) (*Snapshot, error)

	// DB returns the underlying database connection
	DB() *sql.DB
}

type sqlRepository struct {
	db *sql.DB
}

// NewRepository creates a new repository on top of a duckdb connection.
func NewRepository(db *sql.DB) Repository {
	return &sqlRepository{db: db}
}

// DB returns the underlying database connection for advanced queries.
func (r *sqlRepository) DB() *sql.DB {
	return r.db
}

func (r *sqlRepository) CreateSchema() error {
	// DuckDB needs to load the spatial extension
	_, err := r.db.Exec(`INSTALL spatial; LOAD spatial;`)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(`
		CREATE TABLE IF NOT EXISTS areas (
			level VARCHAR NOT NULL,
			ord INTEGER NOT NULL,
			name VARCHAR NOT NULL,
			key VARCHAR NOT NULL,
			geometry GEOMETRY NOT NULL,
			centroid POINT_2D NOT NULL,
			h3_res4 UBIGINT,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY(level, ord)
		);

		CREATE SEQUENCE IF NOT EXISTS snapshots_seq START 1;

		CREATE TABLE IF NOT EXISTS snapshots (
			id INTEGER PRIMARY KEY DEFAULT nextval('snapshots_seq'),
			level VARCHAR NOT NULL,
			status_filter VARCHAR NOT NULL,
			total INTEGER NOT NULL,
			matched INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		);

		CREATE TABLE IF NOT EXISTS snapshot_counts (
			snapshot_id INTEGER NOT NULL,
			key VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			establishments INTEGER NOT NULL
		);
	`)

	return err
}

func (r *sqlRepository) SaveAreas(ctx context.Context, level geo.Level, areas []*geo.Area) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM areas WHERE level = ?`, string(level)); err != nil {
		return rollback(tx, fmt.Errorf("clearing %s: %w", level, err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO areas(level, ord, name, key, geometry, centroid, h3_res4, updated_at)
		VALUES (?, ?, ?, ?, ST_GeomFromText(?), ST_Point(?, ?), ?, ?)
	`)
	if err != nil {
		return rollback(tx, err)
	}
	defer stmt.Close()

	now := time.Now()

	for i, a := range areas {
		wkt, err := spatial.FormatWKT(a.Geometry)
		if err != nil {
			return rollback(tx, fmt.Errorf("encoding %s: %w", a.Name, err))
		}

		if _, err := stmt.ExecContext(ctx,
			string(level),
			i,
			a.Name,
			a.Key,
			wkt,
			a.Centroid.Lng,
			a.Centroid.Lat,
			a.Cell,
			now,
		); err != nil {
			return rollback(tx, fmt.Errorf("inserting %s: %w", a.Name, err))
		}
	}

	return tx.Commit()
}

// rollback aborts tx, preferring the rollback error if it fails too.
func rollback(tx *sql.Tx, err error) error {
	if rErr := tx.Rollback(); rErr != nil {
		return rErr
	}

	return err
}

func (r *sqlRepository) CountAreas(ctx context.Context, level geo.Level) (int, error) {
	var count int

	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM areas WHERE level = ?", string(level),
	).Scan(&count)

	return count, err
}

// Areas implements geo.Source.
func (r *sqlRepository) Areas(ctx context.Context, level geo.Level) ([]*geo.Area, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT name, key, ST_AsText(geometry), centroid, h3_res4
		FROM areas
		WHERE level = ?
		ORDER BY ord
	`, string(level))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", level, err)
	}
	defer rows.Close()

	var ret []*geo.Area

	for rows.Next() {
		var (
			a    = &geo.Area{Level: level}
			wkt  string
			cell sql.NullInt64
		)

		if err := rows.Scan(&a.Name, &a.Key, &wkt, &a.Centroid, &cell); err != nil {
			return nil, err
		}

		if a.Geometry, err = spatial.ParseWKT(wkt); err != nil {
			return nil, &geo.LoadError{Source: DatabaseFile, Row: len(ret) + 1, Name: a.Name, Err: err}
		}

		a.Cell = cell.Int64
		ret = append(ret, a)
	}

	return ret, rows.Err()
}

func (r *sqlRepository) SaveLayer(ctx context.Context, layer *choropleth.Layer, at time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}

	var id int64

	if err = tx.QueryRowContext(ctx, `
		INSERT INTO snapshots(level, status_filter, total, matched, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`, string(layer.Level), string(layer.Filter), layer.Total, layer.Matched, at).Scan(&id); err != nil {
		return 0, rollback(tx, fmt.Errorf("inserting snapshot: %w", err))
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_counts(snapshot_id, key, name, establishments) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return 0, rollback(tx, err)
	}
	defer stmt.Close()

	for _, e := range layer.Entries {
		if _, err := stmt.ExecContext(ctx, id, e.Area.Key, e.Area.Name, e.Count); err != nil {
			return 0, rollback(tx, fmt.Errorf("inserting count of %s: %w", e.Area.Name, err))
		}
	}

	return id, tx.Commit()
}

func (r *sqlRepository) LatestSnapshot(ctx context.Context, level geo.Level, filter annuaire.Filter) (*Snapshot, error) {
	s := &Snapshot{}

	var lvl, flt string

	err := r.db.QueryRowContext(ctx, `
		SELECT id, level, status_filter, total, matched, created_at
		FROM snapshots
		WHERE level = ? AND status_filter = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`, string(level), string(filter)).Scan(&s.ID, &lvl, &flt, &s.Total, &s.Matched, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w for %s (%s)", ErrNoSnapshot, level, filter)
	}

	if err != nil {
		return nil, err
	}

	s.Level, s.Filter = geo.Level(lvl), annuaire.Filter(flt)

	rows, err := r.db.QueryContext(ctx, `
		SELECT key, name, establishments
		FROM snapshot_counts
		WHERE snapshot_id = ?
		ORDER BY establishments DESC, name
	`, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &SnapshotCount{}
		if err := rows.Scan(&c.Key, &c.Name, &c.Count); err != nil {
			return nil, err
		}

		s.Counts = append(s.Counts, c)
	}

	return s, rows.Err()
}
