// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package textutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeKey(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Paris", "PARIS"},
		{"paris", "PARIS"},
		{"  Hauts-de-Seine  ", "HAUTS-DE-SEINE"},
		{"Île-de-France", "ILE-DE-FRANCE"},
		{"Ardèche", "ARDECHE"},
		{"Corrèze", "CORREZE"},
		{"Provence-Alpes-Côte d’Azur", "PROVENCE-ALPES-COTE D'AZUR"},
		{"Bourgogne-Franche-Comté", "BOURGOGNE-FRANCHE-COMTE"},
		{"Cœur de France", "COEUR DE FRANCE"},
		{"Straße", "STRASSE"},
		{"Ǣ", "AE"},
		{"XǼY", "XAEY"},
		{"La Réunion", "LA REUNION"},
		{"", MissingKey},
		{"   ", MissingKey},
		{"nan", "NAN"},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeKey(tc.input))
		})
	}
}

func TestNormalizeKeyIsIdempotent(t *testing.T) {
	inputs := []string{
		"Paris",
		"Saône-et-Loire",
		"Territoire de Belfort",
		"Guyane française",
		"ŒUVRE",
		"Þórshöfn",
		"µ",
		"\u00a0Nièvre\u00a0",
		"",
		"çà et là",
		"Ǣ",
		"ǽ",
		"Ǿ",
		"XǼY",
		"Sǿnderborg",
	}

	for _, in := range inputs {
		once := NormalizeKey(in)
		assert.Equal(t, once, NormalizeKey(once), "input %q", in)
	}
}

func TestNormalizeKeyIsIdempotentOnLatinLetters(t *testing.T) {
	blocks := [][2]rune{
		{0x00A0, 0x024F}, // Latin-1 Supplement, Latin Extended-A and B
		{0x1E00, 0x1EFF}, // Latin Extended Additional
	}

	for _, b := range blocks {
		for r := b[0]; r <= b[1]; r++ {
			in := "X" + string(r) + "Y"
			once := NormalizeKey(in)
			assert.Equal(t, once, NormalizeKey(once), "rune %U", r)
		}
	}
}

func TestASCIIFolding(t *testing.T) {
	assert.Equal(t, "Ile-de-France", ASCIIFolding("Île-de-France"))
	assert.Equal(t, "Prive", ASCIIFolding("Privé"))
	assert.Equal(t, "oeuvre", ASCIIFolding("œuvre"))
	assert.Equal(t, "AE", ASCIIFolding("Ǣ"))
	assert.Equal(t, "ae", ASCIIFolding("ǽ"))
	assert.Equal(t, "O", ASCIIFolding("Ǿ"))
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{64123, "64,123"},
		{-1234567, "-1,234,567"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.expected, FormatInt(tc.input))
	}
}
