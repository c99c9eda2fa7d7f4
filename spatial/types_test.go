// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointScan(t *testing.T) {
	var p Point

	require.NoError(t, p.Scan([]byte("POINT (2.35 48.85)")))
	assert.Equal(t, Point{Lat: 48.85, Lng: 2.35}, p)

	require.NoError(t, p.Scan("POINT (4.83 45.76)"))
	assert.Equal(t, Point{Lat: 45.76, Lng: 4.83}, p)

	require.NoError(t, p.Scan(map[string]interface{}{"x": 7.26, "y": 43.7}))
	assert.Equal(t, Point{Lat: 43.7, Lng: 7.26}, p)

	require.NoError(t, p.Scan(nil))
	assert.Equal(t, Point{}, p)

	require.Error(t, p.Scan(map[string]interface{}{"x": "a"}))
	require.Error(t, p.Scan(42))
}

func TestHaversineDistance(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}
	lyon := Point{Lat: 45.7640, Lng: 4.8357}

	// roughly 392 km
	assert.InDelta(t, 392e3, paris.HaversineDistance(&lyon), 5e3)
	assert.Zero(t, paris.HaversineDistance(&paris))
}

func TestPointCell(t *testing.T) {
	paris := Point{Lat: 48.8566, Lng: 2.3522}

	cell, err := paris.Cell(4)
	require.NoError(t, err)
	assert.True(t, cell.IsValid())
	assert.Equal(t, 4, cell.Resolution())

	_, err = paris.Cell(99)
	require.Error(t, err)
}
