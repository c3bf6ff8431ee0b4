package cql2

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// serializeWKT renders a geometry in canonical WKT form: an upper-case
// keyword (POINT, LINESTRING, ...) followed by its coordinate body.
func serializeWKT(g Geometry) (string, error) {
	s, err := wkt.Marshal(g.Geom)
	if err != nil {
		return "", fmt.Errorf("cql2: failed to serialize geometry: %w", err)
	}
	return s, nil
}

// parseGeoJSON recognizes the `{"type": "Point"|..., ...}` GeoJSON geometry
// shape and builds the corresponding go-geom value.
func parseGeoJSON(raw json.RawMessage) (Geometry, error) {
	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return Geometry{}, wrapParseError(err, "invalid GeoJSON geometry")
	}
	return Geometry{Geom: g}, nil
}

// serializeGeoJSON emits the structural GeoJSON geometry form.
func serializeGeoJSON(g Geometry) (json.RawMessage, error) {
	b, err := geojson.Marshal(g.Geom)
	if err != nil {
		return nil, fmt.Errorf("cql2: failed to serialize geometry to GeoJSON: %w", err)
	}
	return json.RawMessage(b), nil
}

var geoJSONTypes = map[string]bool{
	"Point": true, "LineString": true, "Polygon": true,
	"MultiPoint": true, "MultiLineString": true, "MultiPolygon": true,
	"GeometryCollection": true,
}

// looksLikeGeoJSON reports whether a decoded JSON object's "type" field
// names a GeoJSON geometry type.
func looksLikeGeoJSON(obj map[string]interface{}) bool {
	t, ok := obj["type"].(string)
	return ok && geoJSONTypes[t]
}

func newBBox(values []float64) (BBox, error) {
	if len(values) != 4 && len(values) != 6 {
		return BBox{}, newParseError(Pos{}, "bbox must have 4 or 6 numbers, got %d", len(values))
	}
	return BBox{Values: values}, nil
}
