// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package annuaire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ts2g/etabmap/utils/textutils"
)

// ErrUnknownFilter is returned by ParseFilter for values outside the domain.
var ErrUnknownFilter = errors.New("unknown status filter")

// Filter restricts the directory by establishment status.
type Filter string

const (
	FilterAll     Filter = "all"
	FilterPublic  Filter = "public"
	FilterPrivate Filter = "private"
)

// needles are matched against the accent-folded, uppercased status.
var needles = map[Filter][]string{
	FilterPublic:  {"PUBLIC"},
	FilterPrivate: {"PRIVE", "PRIVATE"},
}

// Filters lists the filter domain in display order.
func Filters() []Filter {
	return []Filter{FilterAll, FilterPublic, FilterPrivate}
}

// ParseFilter accepts the English values and the French labels, case
// insensitively. The empty string means FilterAll.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(textutils.ASCIIFolding(strings.TrimSpace(s))) {
	case "", "all", "tous":
		return FilterAll, nil
	case "public":
		return FilterPublic, nil
	case "private", "prive":
		return FilterPrivate, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFilter, s)
}

// Label returns the French label of the filter.
func (f Filter) Label() string {
	switch f {
	case FilterPublic:
		return "Public"
	case FilterPrivate:
		return "Privé"
	default:
		return "Tous"
	}
}

// Matches reports whether status passes the filter. A blank status only
// passes FilterAll.
func (f Filter) Matches(status string) bool {
	if f == FilterAll || f == "" {
		return true
	}

	status = strings.ToUpper(textutils.ASCIIFolding(strings.TrimSpace(status)))
	if status == "" {
		return false
	}

	for _, n := range needles[f] {
		if strings.Contains(status, n) {
			return true
		}
	}

	return false
}

// Select returns the establishments whose status passes f.
func Select(establishments []*Establishment, f Filter) []*Establishment {
	ret := make([]*Establishment, 0, len(establishments))

	for _, e := range establishments {
		if f.Matches(e.Status) {
			ret = append(ret, e)
		}
	}

	return ret
}
