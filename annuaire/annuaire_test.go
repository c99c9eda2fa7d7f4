// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package annuaire

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	in := `identifiant,nom,departement,region,statut
0750001A,Lycée Charlemagne,Paris,Île-de-France,Public
0690002B,Lycée Saint-Marc,Rhône,Auvergne-Rhône-Alpes,Privé
`

	got, err := Load(strings.NewReader(in), LoadOptions{})
	require.NoError(t, err)

	expected := []*Establishment{
		{
			ID:            "0750001A",
			Name:          "Lycée Charlemagne",
			Department:    "Paris",
			Region:        "Île-de-France",
			Status:        "Public",
			DepartmentKey: "PARIS",
			RegionKey:     "ILE-DE-FRANCE",
		},
		{
			ID:            "0690002B",
			Name:          "Lycée Saint-Marc",
			Department:    "Rhône",
			Region:        "Auvergne-Rhône-Alpes",
			Status:        "Privé",
			DepartmentKey: "RHONE",
			RegionKey:     "AUVERGNE-RHONE-ALPES",
		},
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSemicolonLatin1(t *testing.T) {
	var buf bytes.Buffer

	buf.WriteString(" Departement ;Region;Statut\n")
	buf.Write([]byte("Ard\xe8che;Auvergne-Rh\xf4ne-Alpes;Priv\xe9\n"))

	got, err := Load(&buf, LoadOptions{Delimiter: ';', Encoding: "windows-1252"})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, "Ardèche", got[0].Department)
	assert.Equal(t, "ARDECHE", got[0].DepartmentKey)
	assert.Equal(t, "AUVERGNE-RHONE-ALPES", got[0].RegionKey)
	assert.Equal(t, "Privé", got[0].Status)
}

func TestLoadWithBOM(t *testing.T) {
	got, err := Load(strings.NewReader("\ufeffdepartement,region,statut\nCorse-du-Sud,Corse,Public\n"), LoadOptions{Encoding: "UTF-8"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CORSE-DU-SUD", got[0].DepartmentKey)
}

func TestLoadUnknownEncoding(t *testing.T) {
	_, err := Load(strings.NewReader("departement,region,statut\n"), LoadOptions{Encoding: "klingon"})
	require.Error(t, err)
}

func TestLoadMissingColumn(t *testing.T) {
	in := "departement,statut\nParis,Public\n"

	_, err := Load(strings.NewReader(in), LoadOptions{})
	require.Error(t, err)

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "region", missing.Column)
}

func TestLoadEmptyInput(t *testing.T) {
	_, err := Load(strings.NewReader(""), LoadOptions{})

	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
}

func TestLoadCustomColumnsAndShortRows(t *testing.T) {
	in := "Libelle_departement,Libelle_region,Statut_public_prive\nGironde,Nouvelle-Aquitaine\n,,Public\n"

	got, err := Load(strings.NewReader(in), LoadOptions{Columns: Columns{
		Department: "Libelle_departement",
		Region:     "Libelle_region",
		Status:     "Statut_public_prive",
	}})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "GIRONDE", got[0].DepartmentKey)
	assert.Empty(t, got[0].Status)
	assert.Equal(t, "NAN", got[1].DepartmentKey)
	assert.Equal(t, "NAN", got[1].RegionKey)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "annuaire.csv")
	require.NoError(t, os.WriteFile(path, []byte("departement,region,statut\nNord,Hauts-de-France,Public\n"), 0o600))

	got, err := LoadFile(path, LoadOptions{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "NORD", got[0].DepartmentKey)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), LoadOptions{})
	require.ErrorIs(t, err, os.ErrNotExist)
}
