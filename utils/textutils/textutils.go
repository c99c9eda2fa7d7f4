// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides the text folding used to build join keys.
package textutils

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MissingKey is the key of an empty or missing name.
const MissingKey = "NAN"

// letters the NFD decomposition leaves alone. Some precomposed letters
// decompose to one of them plus a mark (Ǣ, Ǿ), so it runs after the fold.
var ligatures = strings.NewReplacer(
	"œ", "oe", "Œ", "OE",
	"æ", "ae", "Æ", "AE",
	"ß", "ss", "ẞ", "SS",
	"ø", "o", "Ø", "O",
	"đ", "d", "Đ", "D",
	"ł", "l", "Ł", "L",
	"’", "'", "‘", "'", "ʼ", "'",
	"\u00a0", " ",
)

// ASCIIFolding removes accents and expands ligatures, keeping the case.
func ASCIIFolding(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		s,
	)

	return ligatures.Replace(s)
}

// NormalizeKey maps a display name to its canonical join key: accent free,
// trimmed and uppercased. Empty input maps to MissingKey.
func NormalizeKey(s string) string {
	s = strings.TrimSpace(strings.ToUpper(ASCIIFolding(s)))
	if s == "" {
		return MissingKey
	}

	return s
}

// FormatInt formats an integer with commas for human readability.
func FormatInt(n int64) string {
	in := strconv.FormatInt(n, 10)

	numOfDigits := len(in)
	if n < 0 {
		numOfDigits-- // First character is the - sign (not a digit)
	}

	numOfCommas := (numOfDigits - 1) / 3

	out := make([]byte, len(in)+numOfCommas)
	if n < 0 {
		in, out[0] = in[1:], '-'
	}

	for i, j, k := len(in)-1, len(out)-1, 0; ; i, j = i-1, j-1 {
		out[j] = in[i]
		if i == 0 {
			return string(out)
		}

		if k++; k == 3 {
			j, k = j-1, 0
			out[j] = ','
		}
	}
}
