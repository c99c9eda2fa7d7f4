// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package annuaire loads the establishment directory (annuaire) CSV.
package annuaire

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ts2g/etabmap/utils/csvutils"
	"github.com/ts2g/etabmap/utils/textutils"
	"golang.org/x/net/html/charset"
)

// Establishment is one row of the directory.
type Establishment struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name,omitempty"`
	Department    string `json:"department"`
	Region        string `json:"region"`
	Status        string `json:"status"`
	DepartmentKey string `json:"department_key"`
	RegionKey     string `json:"region_key"`
}

// Columns names the CSV headers holding each field. ID and Name are optional.
type Columns struct {
	Department string
	Region     string
	Status     string
	ID         string
	Name       string
}

// withDefaults fills the empty names from DefaultColumns.
func (c Columns) withDefaults() Columns {
	or := func(v, def string) string {
		if v == "" {
			return def
		}

		return v
	}

	return Columns{
		Department: or(c.Department, DefaultColumns.Department),
		Region:     or(c.Region, DefaultColumns.Region),
		Status:     or(c.Status, DefaultColumns.Status),
		ID:         or(c.ID, DefaultColumns.ID),
		Name:       or(c.Name, DefaultColumns.Name),
	}
}

// DefaultColumns are the headers of the directory export.
var DefaultColumns = Columns{
	Department: "departement",
	Region:     "region",
	Status:     "statut",
	ID:         "identifiant",
	Name:       "nom",
}

// LoadOptions controls how the directory CSV is decoded.
type LoadOptions struct {
	// Delimiter defaults to ','.
	Delimiter rune
	// Encoding is a charset label such as "utf-8" or "windows-1252".
	Encoding string
	Columns  Columns
}

// MissingColumnError reports a required header absent from the CSV.
type MissingColumnError struct {
	Source string
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s: missing required column %q", e.Source, e.Column)
}

// LoadFile reads the directory CSV at path.
func LoadFile(path string, opts LoadOptions) ([]*Establishment, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening directory: %w", err)
	}
	defer f.Close()

	return load(f, filepath.Base(path), opts)
}

// Load reads a directory CSV from r.
func Load(r io.Reader, opts LoadOptions) ([]*Establishment, error) {
	return load(r, "directory", opts)
}

func load(r io.Reader, source string, opts LoadOptions) ([]*Establishment, error) {
	opts.Columns = opts.Columns.withDefaults()

	if opts.Encoding != "" && !strings.EqualFold(opts.Encoding, "utf-8") && !strings.EqualFold(opts.Encoding, "utf8") {
		decoded, err := charset.NewReaderLabel(opts.Encoding, r)
		if err != nil {
			return nil, fmt.Errorf("%s: decoding %s: %w", source, opts.Encoding, err)
		}

		r = decoded
	}

	reader := csvutils.NewReader(r, opts.Delimiter)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &MissingColumnError{Source: source, Column: opts.Columns.Department}
	}

	if err != nil {
		return nil, fmt.Errorf("%s: reading header: %w", source, err)
	}

	index := csvutils.NewHeader(header)

	required := func(name string) (int, error) {
		i, ok := index.Index(name)
		if !ok {
			return 0, &MissingColumnError{Source: source, Column: name}
		}

		return i, nil
	}

	deptIdx, err := required(opts.Columns.Department)
	if err != nil {
		return nil, err
	}

	regionIdx, err := required(opts.Columns.Region)
	if err != nil {
		return nil, err
	}

	statusIdx, err := required(opts.Columns.Status)
	if err != nil {
		return nil, err
	}

	idIdx, hasID := index.Index(opts.Columns.ID)
	nameIdx, hasName := index.Index(opts.Columns.Name)

	var ret []*Establishment

	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("%s: line %d: %w", source, line, err)
		}

		e := &Establishment{
			Department: csvutils.Field(record, deptIdx),
			Region:     csvutils.Field(record, regionIdx),
			Status:     csvutils.Field(record, statusIdx),
		}
		if hasID {
			e.ID = csvutils.Field(record, idIdx)
		}

		if hasName {
			e.Name = csvutils.Field(record, nameIdx)
		}

		e.DepartmentKey = textutils.NormalizeKey(e.Department)
		e.RegionKey = textutils.NormalizeKey(e.Region)

		ret = append(ret, e)
	}

	return ret, nil
}
