package cql2

import (
	"strings"

	"github.com/twpayne/go-geom"
)

// WKT coordinate-list grammar, participle rules mirroring the ISO WKT BNF.
// These are driven from the Atom level of textExpr (text_parser.go) once a
// GeomKeyword token has been seen. Coordinates are captured generically
// (2 or 3 numbers) rather than gated on a validated Z/M/ZM tag: the tag
// token, if present, is captured but never consulted. The layout is XY for
// two numbers and XYZ for three, so a third number is always read as Z
// (also under an M tag), and four-number ZM coordinates are not accepted.
type wktCoord struct {
	X float64  `@Number`
	Y float64  `@Number`
	Z *float64 `@Number?`
}

func (c *wktCoord) flat() []float64 {
	if c.Z != nil {
		return []float64{c.X, c.Y, *c.Z}
	}
	return []float64{c.X, c.Y}
}

func (c *wktCoord) is3D() bool { return c.Z != nil }

type wktPointBody struct {
	Coord *wktCoord `"(" @@ ")"`
}

type wktLineStringBody struct {
	Coords []*wktCoord `"(" @@ ("," @@)* ")"`
}

type wktPolygonBody struct {
	Rings []*wktLineStringBody `"(" @@ ("," @@)* ")"`
}

type wktMultiPointBody struct {
	Points []*wktPointBody `"(" @@ ("," @@)* ")"`
}

type wktMultiLineStringBody struct {
	Lines []*wktLineStringBody `"(" @@ ("," @@)* ")"`
}

type wktMultiPolygonBody struct {
	Polygons []*wktPolygonBody `"(" @@ ("," @@)* ")"`
}

// wktGeometryText is the full geometry literal: KEYWORD [dim-tag] body.
type wktGeometryText struct {
	Keyword            string                  `@GeomKeyword`
	Dim                *string                 `@Ident?`
	Point              *wktPointBody           `( @@`
	LineString         *wktLineStringBody      `| @@`
	Polygon            *wktPolygonBody         `| @@`
	MultiPoint         *wktMultiPointBody      `| @@`
	MultiLineString    *wktMultiLineStringBody `| @@`
	MultiPolygon       *wktMultiPolygonBody    `| @@`
	GeometryCollection *wktGeometryCollection  `| @@ )`
}

type wktGeometryCollection struct {
	Geometries []*wktGeometryText `"(" @@ ("," @@)* ")"`
}

func any3D(coords ...*wktCoord) bool {
	for _, c := range coords {
		if c.is3D() {
			return true
		}
	}
	return false
}

func layoutFor(has3D bool) geom.Layout {
	if has3D {
		return geom.XYZ
	}
	return geom.XY
}

// toGeom converts the parsed grammar into a go-geom value, built directly
// with the library's constructors rather than round-tripping through WKT
// text.
func (g *wktGeometryText) toGeom() (geom.T, error) {
	switch strings.ToUpper(g.Keyword) {
	case "POINT":
		c := g.Point.Coord
		return geom.NewPointFlat(layoutFor(c.is3D()), c.flat()), nil

	case "LINESTRING":
		return buildLineString(g.LineString)

	case "POLYGON":
		return buildPolygon(g.Polygon)

	case "MULTIPOINT":
		has3D := false
		flat := make([]float64, 0, len(g.MultiPoint.Points)*3)
		for _, p := range g.MultiPoint.Points {
			has3D = has3D || p.Coord.is3D()
		}
		layout := layoutFor(has3D)
		for _, p := range g.MultiPoint.Points {
			flat = appendCoord(flat, p.Coord, layout)
		}
		return geom.NewMultiPointFlat(layout, flat), nil

	case "MULTILINESTRING":
		has3D := false
		for _, l := range g.MultiLineString.Lines {
			for _, c := range l.Coords {
				has3D = has3D || c.is3D()
			}
		}
		layout := layoutFor(has3D)
		var flat []float64
		var ends []int
		for _, l := range g.MultiLineString.Lines {
			for _, c := range l.Coords {
				flat = appendCoord(flat, c, layout)
			}
			ends = append(ends, len(flat))
		}
		return geom.NewMultiLineStringFlat(layout, flat, ends), nil

	case "MULTIPOLYGON":
		has3D := false
		for _, poly := range g.MultiPolygon.Polygons {
			for _, ring := range poly.Rings {
				for _, c := range ring.Coords {
					has3D = has3D || c.is3D()
				}
			}
		}
		layout := layoutFor(has3D)
		var flat []float64
		var endss [][]int
		for _, poly := range g.MultiPolygon.Polygons {
			var ends []int
			for _, ring := range poly.Rings {
				for _, c := range ring.Coords {
					flat = appendCoord(flat, c, layout)
				}
				ends = append(ends, len(flat))
			}
			endss = append(endss, ends)
		}
		return geom.NewMultiPolygonFlat(layout, flat, endss), nil

	case "GEOMETRYCOLLECTION":
		gc := geom.NewGeometryCollection()
		for _, sub := range g.GeometryCollection.Geometries {
			child, err := sub.toGeom()
			if err != nil {
				return nil, err
			}
			if err := gc.Push(child); err != nil {
				return nil, err
			}
		}
		return gc, nil
	}
	return nil, newParseError(Pos{}, "unknown geometry keyword %q", g.Keyword)
}

func appendCoord(flat []float64, c *wktCoord, layout geom.Layout) []float64 {
	v := c.flat()
	if layout == geom.XYZ && len(v) == 2 {
		v = append(v, 0)
	}
	return append(flat, v...)
}

func buildLineString(body *wktLineStringBody) (geom.T, error) {
	has3D := false
	for _, c := range body.Coords {
		has3D = has3D || c.is3D()
	}
	layout := layoutFor(has3D)
	var flat []float64
	for _, c := range body.Coords {
		flat = appendCoord(flat, c, layout)
	}
	return geom.NewLineStringFlat(layout, flat), nil
}

func buildPolygon(body *wktPolygonBody) (geom.T, error) {
	has3D := false
	for _, ring := range body.Rings {
		for _, c := range ring.Coords {
			has3D = has3D || c.is3D()
		}
	}
	layout := layoutFor(has3D)
	var flat []float64
	var ends []int
	for _, ring := range body.Rings {
		for _, c := range ring.Coords {
			flat = appendCoord(flat, c, layout)
		}
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(layout, flat, ends), nil
}
