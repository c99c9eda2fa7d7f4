// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package csvutils holds the CSV conventions shared by the loaders.
package csvutils

import (
	"encoding/csv"
	"io"
	"strings"
)

const utf8BOM = "\ufeff"

// NewReader returns a lenient reader: variable field counts, lazy quotes.
// A zero delimiter keeps the default ','.
func NewReader(r io.Reader, delimiter rune) *csv.Reader {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	if delimiter != 0 {
		reader.Comma = delimiter
	}

	return reader
}

// Header maps lowercased, trimmed column names to their position. A leading
// BOM is ignored and the first occurrence of a duplicated name wins.
type Header map[string]int

// NewHeader indexes a header record.
func NewHeader(record []string) Header {
	h := make(Header, len(record))

	for i, name := range record {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}

		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}

	return h
}

// Index returns the position of column, matched case insensitively.
func (h Header) Index(column string) (int, bool) {
	i, ok := h[strings.ToLower(strings.TrimSpace(column))]

	return i, ok
}

// Field returns the trimmed value at i, or "" on short rows.
func Field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}

	return strings.TrimSpace(record[i])
}
