// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

const squareWithHole = "POLYGON((0 0, 4 0, 4 4, 0 4, 0 0), (1 1, 2 1, 2 2, 1 2, 1 1))"

func TestParseWKT(t *testing.T) {
	g, err := ParseWKT("POLYGON((0 0, 2 0, 2 2, 0 2, 0 0))")
	require.NoError(t, err)
	assert.IsType(t, &geom.Polygon{}, g)

	g, err = ParseWKT("  MULTIPOLYGON(((0 0, 1 0, 1 1, 0 0)), ((5 5, 6 5, 6 6, 5 5)))  ")
	require.NoError(t, err)
	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestParseWKTCollection(t *testing.T) {
	g, err := ParseWKT("GEOMETRYCOLLECTION(POLYGON((0 0, 1 0, 1 1, 0 0)), MULTIPOLYGON(((5 5, 6 5, 6 6, 5 5))))")
	require.NoError(t, err)

	mp, ok := g.(*geom.MultiPolygon)
	require.True(t, ok)
	assert.Equal(t, 2, mp.NumPolygons())

	_, err = ParseWKT("GEOMETRYCOLLECTION(POINT(1 1))")
	require.ErrorIs(t, err, ErrNotAreal)
}

func TestParseWKTErrors(t *testing.T) {
	_, err := ParseWKT("")
	require.ErrorIs(t, err, ErrEmptyGeometry)

	_, err = ParseWKT("POINT(2.35 48.85)")
	require.ErrorIs(t, err, ErrNotAreal)

	_, err = ParseWKT("POLYGON((0 0, 1 0")
	require.Error(t, err)
}

func TestFormatWKTRoundTrip(t *testing.T) {
	g, err := ParseWKT("POLYGON((0 0, 2 0, 2 2, 0 2, 0 0))")
	require.NoError(t, err)

	s, err := FormatWKT(g)
	require.NoError(t, err)

	again, err := ParseWKT(s)
	require.NoError(t, err)
	assert.Equal(t, g.FlatCoords(), again.FlatCoords())
}

func TestCentroid(t *testing.T) {
	g, err := ParseWKT("POLYGON((0 0, 2 0, 2 2, 0 2, 0 0))")
	require.NoError(t, err)

	c, err := Centroid(g)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.Lng, 1e-9)
	assert.InDelta(t, 1.0, c.Lat, 1e-9)
}

func TestContains(t *testing.T) {
	g, err := ParseWKT(squareWithHole)
	require.NoError(t, err)

	assert.True(t, Contains(g, Point{Lng: 3, Lat: 3}))
	assert.False(t, Contains(g, Point{Lng: 1.5, Lat: 1.5}), "inside the hole")
	assert.False(t, Contains(g, Point{Lng: 10, Lat: 10}))

	mp, err := ParseWKT("MULTIPOLYGON(((0 0, 1 0, 1 1, 0 1, 0 0)), ((5 5, 6 5, 6 6, 5 6, 5 5)))")
	require.NoError(t, err)

	assert.True(t, Contains(mp, Point{Lng: 5.5, Lat: 5.5}))
	assert.False(t, Contains(mp, Point{Lng: 3, Lat: 3}))
}
