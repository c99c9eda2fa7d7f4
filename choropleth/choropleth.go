// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package choropleth counts directory establishments per area and joins the
// counts onto the area geometries. Every function here is pure.
package choropleth

import (
	"cmp"
	"slices"

	"github.com/ts2g/etabmap/annuaire"
	"github.com/ts2g/etabmap/geo"
	"github.com/ts2g/etabmap/utils/textutils"
)

// Counts maps a normalized area key to a number of establishments.
type Counts map[string]int

// Entry is an area with its establishment count.
type Entry struct {
	Area  *geo.Area
	Count int
}

// KeyCount is a count not attached to any area.
type KeyCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// KeyFor returns the key of e at level, normalizing the raw name when the
// loader did not fill the key.
func KeyFor(e *annuaire.Establishment, level geo.Level) string {
	key, name := e.DepartmentKey, e.Department
	if level == geo.Region {
		key, name = e.RegionKey, e.Region
	}

	if key == "" {
		return textutils.NormalizeKey(name)
	}

	return key
}

// Count groups the establishments passing filter by their key at level.
func Count(establishments []*annuaire.Establishment, level geo.Level, filter annuaire.Filter) Counts {
	counts := make(Counts)

	for _, e := range annuaire.Select(establishments, filter) {
		counts[KeyFor(e, level)]++
	}

	return counts
}

// Join attaches to every area its count, zero when the key is absent. The
// result has one entry per area, in the order of areas.
func Join(areas []*geo.Area, counts Counts) []*Entry {
	ret := make([]*Entry, len(areas))

	for i, a := range areas {
		ret[i] = &Entry{Area: a, Count: counts[a.Key]}
	}

	return ret
}

// Unmatched returns the counted keys no area carries, largest first.
func Unmatched(areas []*geo.Area, counts Counts) []KeyCount {
	known := make(map[string]struct{}, len(areas))
	for _, a := range areas {
		known[a.Key] = struct{}{}
	}

	var ret []KeyCount

	for k, n := range counts {
		if _, ok := known[k]; !ok {
			ret = append(ret, KeyCount{Key: k, Count: n})
		}
	}

	slices.SortFunc(ret, func(a, b KeyCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Key, b.Key)
	})

	return ret
}

// Layer is the joined data of one level under one filter.
type Layer struct {
	Level     geo.Level
	Filter    annuaire.Filter
	Entries   []*Entry
	Total     int // establishments passing the filter
	Matched   int // of which attached to an area
	Unmatched []KeyCount
}

// Build runs count and join for one level and filter.
func Build(establishments []*annuaire.Establishment, areas []*geo.Area, level geo.Level, filter annuaire.Filter) *Layer {
	counts := Count(establishments, level, filter)
	entries := Join(areas, counts)

	layer := &Layer{
		Level:     level,
		Filter:    filter,
		Entries:   entries,
		Unmatched: Unmatched(areas, counts),
	}

	for _, n := range counts {
		layer.Total += n
	}

	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		// two areas sharing a key only count once
		if _, dup := seen[e.Area.Key]; !dup {
			seen[e.Area.Key] = struct{}{}
			layer.Matched += e.Count
		}
	}

	return layer
}

// Max returns the largest count of the layer.
func (l *Layer) Max() int {
	m := 0
	for _, e := range l.Entries {
		m = max(m, e.Count)
	}

	return m
}

// Ranked returns the entries by count descending, then by name.
func (l *Layer) Ranked() []*Entry {
	ret := slices.Clone(l.Entries)

	slices.SortStableFunc(ret, func(a, b *Entry) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}

		return cmp.Compare(a.Area.Name, b.Area.Name)
	})

	return ret
}
