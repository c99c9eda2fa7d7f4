// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/choropleth"
	"github.com/ts2g/etabmap/config"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/utils/textutils"
)

func testLayer(t *testing.T) *choropleth.Layer {
	t.Helper()

	paris, err := geo.NewArea(geo.Department, "Paris", "POLYGON((2.2 48.8, 2.5 48.8, 2.5 48.9, 2.2 48.9, 2.2 48.8))")
	require.NoError(t, err)

	rhone, err := geo.NewArea(geo.Department, "Rhône", "POLYGON((4.7 45.7, 4.9 45.7, 4.9 45.8, 4.7 45.8, 4.7 45.7))")
	require.NoError(t, err)

	directory := []*annuaire.Establishment{
		{DepartmentKey: "RHONE", Status: "Public"},
		{DepartmentKey: "RHONE", Status: "Public"},
		{DepartmentKey: "PARIS", Status: "Privé"},
		{DepartmentKey: textutils.MissingKey, Status: "Public"},
	}

	return choropleth.Build(directory, []*geo.Area{paris, rhone}, geo.Department, annuaire.FilterAll)
}

func TestApplyFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())

	require.NoError(t, cmd.Flags().Parse([]string{"--directory", "other.csv", "--source", "bigquery", "--trace"}))

	c := &config.Config{}
	c.Directory.Path = "annuaire.csv"
	c.Directory.Encoding = "utf-8"

	applyFlags(cmd, c)

	assert.Equal(t, "other.csv", c.Directory.Path)
	assert.Equal(t, "utf-8", c.Directory.Encoding, "unset flags keep the loaded value")
	assert.Equal(t, config.SourceBigQuery, c.Geography.Source)
	assert.True(t, c.Geography.BigQuery.Trace)
}

func TestPrintCounts(t *testing.T) {
	var buf bytes.Buffer
	printCounts(&buf, testLayer(t))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 10)

	assert.Equal(t, "Département - Tous:", lines[0])
	assert.Contains(t, lines[4], "Rhône")
	assert.Contains(t, lines[5], "Paris")
	assert.Contains(t, lines[7], "4")
	assert.Contains(t, lines[8], "3")

	// Every row of the box has the same width.
	width := len([]rune(lines[1]))
	for _, l := range lines[1:] {
		assert.Len(t, []rune(l), width, l)
	}
}

func TestPrintUnmatched(t *testing.T) {
	var buf bytes.Buffer
	printUnmatched(&buf, testLayer(t))

	assert.Contains(t, buf.String(), "Clés sans zone:")
	assert.Contains(t, buf.String(), textutils.MissingKey)
}

func TestWriteLayer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "departements.geojson")
	require.NoError(t, writeLayer(path, testLayer(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"FeatureCollection"`)
	assert.Contains(t, string(data), `"RHONE"`)
}

func TestParseLevels(t *testing.T) {
	levels, err := parseLevels(nil)
	require.NoError(t, err)
	assert.Equal(t, geo.Levels(), levels)

	levels, err = parseLevels([]string{"region"})
	require.NoError(t, err)
	assert.Equal(t, []geo.Level{geo.Region}, levels)

	_, err = parseLevels([]string{"canton"})
	require.ErrorIs(t, err, geo.ErrUnknownLevel)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Rhône", truncate("Rhône", 5))
	assert.Equal(t, "Provence…", truncate("Provence-Alpes", 9))
}
