// Copyright 2025 The etabmap Authors
// SPDX-License-Identifier: Apache-2.0

package choropleth

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/uber/h3-go/v4"
)

// Feature property names.
const (
	PropName  = "name"
	PropKey   = "key"
	PropCount = "count"
	PropLevel = "level"
	PropCell  = "h3"
)

// FeatureCollection converts the layer into GeoJSON, one feature per area.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(l.Entries)),
	}

	for _, e := range l.Entries {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       e.Area.Key,
			Geometry: e.Area.Geometry,
			Properties: map[string]interface{}{
				PropName:  e.Area.Name,
				PropKey:   e.Area.Key,
				PropCount: e.Count,
				PropLevel: string(l.Level),
				PropCell:  CellString(e.Area.Cell),
			},
		})
	}

	return fc
}

// CellString formats an H3 index as hex, or "" when the area has none.
func CellString(cell int64) string {
	if cell == 0 {
		return ""
	}

	return h3.Cell(cell).String()
}

// WriteGeoJSON encodes the layer as a GeoJSON FeatureCollection.
func (l *Layer) WriteGeoJSON(w io.Writer) error {
	data, err := json.Marshal(l.FeatureCollection())
	if err != nil {
		return fmt.Errorf("encoding %s layer: %w", l.Level, err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing %s layer: %w", l.Level, err)
	}

	return nil
}
