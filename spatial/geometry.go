// Copyright 2025 The etabmap Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"errors"
	"fmt"
	"strings"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
	"github.com/twpayne/go-geom/xy"
)

var (
	// ErrEmptyGeometry is returned when a WKT string is blank.
	ErrEmptyGeometry = errors.New("spatial: empty geometry")
	// ErrNotAreal is returned when a WKT string is neither a polygon nor a multipolygon.
	ErrNotAreal = errors.New("spatial: geometry is not a polygon or multipolygon")
)

// ParseWKT parses an area geometry. Geometry collections made only of
// polygons are flattened into a multipolygon.
func ParseWKT(s string) (geom.T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, ErrEmptyGeometry
	}

	g, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("spatial: parsing wkt: %w", err)
	}

	switch v := g.(type) {
	case *geom.Polygon, *geom.MultiPolygon:
		return g, nil
	case *geom.GeometryCollection:
		return flatten(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotAreal, g)
	}
}

func flatten(gc *geom.GeometryCollection) (*geom.MultiPolygon, error) {
	var mp *geom.MultiPolygon

	for _, g := range gc.Geoms() {
		var polygons []*geom.Polygon

		switch v := g.(type) {
		case *geom.Polygon:
			polygons = []*geom.Polygon{v}
		case *geom.MultiPolygon:
			for i := 0; i < v.NumPolygons(); i++ {
				polygons = append(polygons, v.Polygon(i))
			}
		default:
			return nil, fmt.Errorf("%w: collection member %T", ErrNotAreal, g)
		}

		for _, p := range polygons {
			if mp == nil {
				mp = geom.NewMultiPolygon(p.Layout())
			}

			if err := mp.Push(p); err != nil {
				return nil, fmt.Errorf("spatial: flattening collection: %w", err)
			}
		}
	}

	if mp == nil {
		return nil, ErrEmptyGeometry
	}

	return mp, nil
}

// FormatWKT is the inverse of ParseWKT.
func FormatWKT(g geom.T) (string, error) {
	return wkt.Marshal(g)
}

// Centroid returns the planar centroid of g.
func Centroid(g geom.T) (Point, error) {
	c, err := xy.Centroid(g)
	if err != nil {
		return Point{}, fmt.Errorf("spatial: computing centroid: %w", err)
	}

	return Point{Lng: c.X(), Lat: c.Y()}, nil
}

// Contains reports whether p lies inside the polygon or multipolygon g.
// Points on a hole are outside.
func Contains(g geom.T, p Point) bool {
	coord := geom.Coord{p.Lng, p.Lat}

	if b := g.Bounds(); b.IsEmpty() || !b.OverlapsPoint(geom.XY, coord) {
		return false
	}

	switch v := g.(type) {
	case *geom.Polygon:
		return polygonContains(v, coord)
	case *geom.MultiPolygon:
		for i := 0; i < v.NumPolygons(); i++ {
			if polygonContains(v.Polygon(i), coord) {
				return true
			}
		}
	}

	return false
}

func polygonContains(p *geom.Polygon, coord geom.Coord) bool {
	if p.NumLinearRings() == 0 {
		return false
	}

	layout := p.Layout()
	if !xy.IsPointInRing(layout, coord, p.LinearRing(0).FlatCoords()) {
		return false
	}

	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(layout, coord, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}

	return true
}
