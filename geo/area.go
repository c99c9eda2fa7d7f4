// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package geo models the administrative areas a directory is counted against.
package geo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ts2g/etabmap/spatial"
	"github.com/ts2g/etabmap/utils/textutils"
	"github.com/twpayne/go-geom"
)

// H3Resolution is the resolution of the centroid cell attached to each area.
const H3Resolution = 4

// ErrUnknownLevel is returned by ParseLevel for values outside the domain.
var ErrUnknownLevel = errors.New("unknown level")

// Level is the administrative level of an area.
type Level string

const (
	Department Level = "departements"
	Region     Level = "regions"
)

// Levels lists the supported levels.
func Levels() []Level {
	return []Level{Department, Region}
}

// ParseLevel accepts the plural and singular forms, in French or English.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(textutils.ASCIIFolding(strings.TrimSpace(s))) {
	case "departements", "departement", "departments", "department", "dep", "dept":
		return Department, nil
	case "regions", "region", "reg":
		return Region, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// Label returns the French singular label of the level.
func (l Level) Label() string {
	if l == Region {
		return "Région"
	}

	return "Département"
}

// Area is an administrative boundary record. Geometry is immutable once
// parsed.
type Area struct {
	Level    Level
	Name     string
	Key      string
	Geometry geom.T
	Centroid spatial.Point
	Cell     int64
}

// NewArea parses wkt and derives the key, centroid and H3 cell of the area.
func NewArea(level Level, name, wkt string) (*Area, error) {
	g, err := spatial.ParseWKT(wkt)
	if err != nil {
		return nil, err
	}

	return NewAreaFromGeometry(level, name, g)
}

// NewAreaFromGeometry builds an area from an already parsed geometry.
func NewAreaFromGeometry(level Level, name string, g geom.T) (*Area, error) {
	centroid, err := spatial.Centroid(g)
	if err != nil {
		return nil, err
	}

	cell, err := centroid.Cell(H3Resolution)
	if err != nil {
		return nil, err
	}

	return &Area{
		Level:    level,
		Name:     name,
		Key:      textutils.NormalizeKey(name),
		Geometry: g,
		Centroid: centroid,
		Cell:     int64(cell),
	}, nil
}

// Contains reports whether p falls inside the area.
func (a *Area) Contains(p spatial.Point) bool {
	return spatial.Contains(a.Geometry, p)
}

// Source provides the areas of a level.
type Source interface {
	Areas(ctx context.Context, level Level) ([]*Area, error)
}

// LoadError reports a record that could not be turned into an area.
type LoadError struct {
	Source string
	Row    int
	Name   string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s: row %d (%q): %v", e.Source, e.Row, e.Name, e.Err)
	}

	return fmt.Sprintf("%s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Locate returns the first area containing p, or the area whose centroid is
// closest to p when none does. It returns nil for an empty slice.
func Locate(areas []*Area, p spatial.Point) (area *Area, inside bool) {
	best := -1.0

	for _, a := range areas {
		if a.Contains(p) {
			return a, true
		}

		if d := p.HaversineDistance(&a.Centroid); best < 0 || d < best {
			best, area = d, a
		}
	}

	return area, false
}
