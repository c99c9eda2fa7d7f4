// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ts2g/etabmap/utils/csvutils"
)

// ErrMissingColumn is wrapped by the LoadError of a CSV lacking a column.
var ErrMissingColumn = errors.New("missing required column")

// Layout names the columns holding the area name and its WKT geometry.
type Layout struct {
	NameColumn     string
	GeometryColumn string
}

// DefaultLayouts follow the column names of the warehouse tables.
var DefaultLayouts = map[Level]Layout{
	Department: {NameColumn: "departement", GeometryColumn: "dep_geography"},
	Region:     {NameColumn: "region", GeometryColumn: "reg_geography"},
}

// FileSource reads areas from one local CSV per level.
type FileSource struct {
	Paths     map[Level]string
	Layouts   map[Level]Layout
	Delimiter rune
}

// NewFileSource returns a source reading the given files with the default
// layouts.
func NewFileSource(paths map[Level]string) *FileSource {
	return &FileSource{Paths: paths, Layouts: DefaultLayouts}
}

// Areas implements Source.
func (s *FileSource) Areas(_ context.Context, level Level) ([]*Area, error) {
	path, ok := s.Paths[level]
	if !ok || path == "" {
		return nil, fmt.Errorf("no geography file configured for %s", level)
	}

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening geography file: %w", err)
	}
	defer f.Close()

	return ReadAreas(f, filepath.Base(path), level, s.layout(level), s.Delimiter)
}

func (s *FileSource) layout(level Level) Layout {
	if l, ok := s.Layouts[level]; ok {
		return l
	}

	return DefaultLayouts[level]
}

// ReadAreas reads a CSV of areas. Any unparseable geometry aborts the load.
func ReadAreas(r io.Reader, source string, level Level, layout Layout, delimiter rune) ([]*Area, error) {
	reader := csvutils.NewReader(r, delimiter)

	record, err := reader.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("reading header: %w", err)}
	}

	header := csvutils.NewHeader(record)

	nameIdx, ok := header.Index(layout.NameColumn)
	if !ok {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("%w %q", ErrMissingColumn, layout.NameColumn)}
	}

	geomIdx, ok := header.Index(layout.GeometryColumn)
	if !ok {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("%w %q", ErrMissingColumn, layout.GeometryColumn)}
	}

	var ret []*Area

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, &LoadError{Source: source, Row: row, Err: err}
		}

		name := csvutils.Field(record, nameIdx)

		area, err := NewArea(level, name, csvutils.Field(record, geomIdx))
		if err != nil {
			return nil, &LoadError{Source: source, Row: row, Name: name, Err: err}
		}

		ret = append(ret, area)
	}

	return ret, nil
}
