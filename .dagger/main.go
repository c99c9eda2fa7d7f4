// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"dagger/etabmap/internal/dagger"
)

type Etabmap struct{}

// Runs the unit tests, duckdb included
func (c *Etabmap) Test(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["db", "build", "out", ".env"]
	src *dagger.Directory,
) (string, error) {
	return c.BuildCliBase(ctx, src).
		WithExec([]string{"go", "test", "-count=1", "./..."}).
		Stdout(ctx)
}

// Produces departements.geojson and regions.geojson from a directory export
// and the boundary CSVs, all read from the data directory.
func (c *Etabmap) Export(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["db", "build", "out", ".env"]
	src *dagger.Directory,
	// Directory holding annuaire.csv, departements.csv and regions.csv
	data *dagger.Directory,
	// Status filter: all, public or private
	// +optional
	// +default="all"
	status string,
) *dagger.Directory {
	return c.BuildCli(ctx, src).
		WithUser("root").
		WithDirectory("/data", data).
		WithExec([]string{
			"/app/etabmap", "export",
			"--directory", "/data/annuaire.csv",
			"--departements", "/data/departements.csv",
			"--regions", "/data/regions.csv",
			"--status", status,
			"--out", "/out",
		}).
		Directory("/out")
}
