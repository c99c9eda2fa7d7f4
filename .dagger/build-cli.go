// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"dagger/etabmap/internal/dagger"
)

const (
	goImage      = "golang:1.25.5-bookworm" // duckdb links against glibc
	runtimeImage = "gcr.io/distroless/cc-debian12"
	runtimeUser  = "65532" // nonroot in distroless
	binary       = "build/etabmap"
)

// Returns a container with the module downloaded and the CLI compiled in /src
func (c *Etabmap) BuildCliBase(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["db", "build", "out", ".env"]
	src *dagger.Directory,
) *dagger.Container {
	return dag.Container().
		From(goImage).
		WithEnvVariable("CGO_ENABLED", "1").
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("etabmap-gomod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("etabmap-gobuild")).
		WithWorkdir("/src").
		// go.sum is optional until the first go mod tidy
		WithDirectory("/src", src, dagger.ContainerWithDirectoryOpts{
			Include: []string{"go.mod", "go.sum"},
		}).
		WithExec([]string{"go", "mod", "download"}).
		WithDirectory("/src", src).
		WithExec([]string{"go", "build", "-o", binary, "."})
}

// Runs go vet and golangci-lint over the module
func (c *Etabmap) BuildCliValidate(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["db", "build", "out", ".env"]
	src *dagger.Directory,
) (string, error) {
	return c.BuildCliBase(ctx, src).
		WithExec([]string{"go", "vet", "./..."}).
		WithExec([]string{"go", "install", "github.com/golangci/golangci-lint/cmd/golangci-lint@latest"}).
		WithExec([]string{"golangci-lint", "run", "--timeout", "5m", "./..."}).
		Stdout(ctx)
}

// Returns the CLI in a distroless runtime image
func (c *Etabmap) BuildCli(
	ctx context.Context,
	// +defaultPath="/"
	// +ignore=["db", "build", "out", ".env"]
	src *dagger.Directory,
) *dagger.Container {
	return dag.Container().
		From(runtimeImage).
		WithWorkdir("/app").
		WithFile("/app/etabmap", c.BuildCliBase(ctx, src).File("/src/"+binary)).
		WithEntrypoint([]string{"/app/etabmap"}).
		WithUser(runtimeUser)
}
