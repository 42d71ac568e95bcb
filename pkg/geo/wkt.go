package geo

import (
	"fmt"
	"strconv"
	"strings"
)

// Rect returns an axis-aligned rectangle anchored at the origin with corners
// (0,0), (length,0), (length,width), (0,width).
func Rect(length, width float64) Polygon {
	return NewPolygon(
		Pt(0, 0),
		Pt(length, 0),
		Pt(length, width),
		Pt(0, width),
	)
}

// RectWKT returns the well-known-text form of Rect(length, width).
func RectWKT(length, width float64) string {
	return FormatWKT(Rect(length, width))
}

// FootprintArea returns the footprint area of a rectangular building.
func FootprintArea(longEdge, shortEdge float64) float64 {
	return longEdge * shortEdge
}

// FormatWKT renders a polygon as a well-known-text POLYGON string with an
// explicitly closed outer ring.
func FormatWKT(p Polygon) string {
	if len(p.Vertices) == 0 {
		return "Polygon EMPTY"
	}
	var b strings.Builder
	b.WriteString("Polygon ((")
	for i, v := range p.Vertices {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatCoord(v.X))
		b.WriteByte(' ')
		b.WriteString(formatCoord(v.Y))
	}
	// Close the ring.
	b.WriteString(", ")
	b.WriteString(formatCoord(p.Vertices[0].X))
	b.WriteByte(' ')
	b.WriteString(formatCoord(p.Vertices[0].Y))
	b.WriteString("))")
	return b.String()
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseWKT parses a POLYGON or MULTIPOLYGON well-known-text string and
// returns the outer ring of each polygon. Interior rings (holes) are
// ignored; EMPTY geometries parse to no polygons. Rings whose closing
// vertex repeats the first are unclosed on parse so that vertex counts
// match the constructors in this package.
func ParseWKT(s string) ([]Polygon, error) {
	s = strings.TrimSpace(s)
	upper := strings.ToUpper(s)

	switch {
	case strings.HasPrefix(upper, "MULTIPOLYGON"):
		body := strings.TrimSpace(s[len("MULTIPOLYGON"):])
		if strings.EqualFold(body, "EMPTY") {
			return nil, nil
		}
		return parseMultiPolygonBody(body)
	case strings.HasPrefix(upper, "POLYGON"):
		body := strings.TrimSpace(s[len("POLYGON"):])
		if strings.EqualFold(body, "EMPTY") {
			return nil, nil
		}
		poly, err := parsePolygonBody(body)
		if err != nil {
			return nil, err
		}
		return []Polygon{poly}, nil
	default:
		return nil, fmt.Errorf("unsupported WKT geometry: %q", truncate(s, 32))
	}
}

// parseMultiPolygonBody parses "(((...)), ((...)))".
func parseMultiPolygonBody(body string) ([]Polygon, error) {
	inner, err := stripParens(body)
	if err != nil {
		return nil, err
	}
	groups, err := splitTopLevel(inner)
	if err != nil {
		return nil, err
	}
	polys := make([]Polygon, 0, len(groups))
	for _, g := range groups {
		poly, err := parsePolygonBody(g)
		if err != nil {
			return nil, err
		}
		polys = append(polys, poly)
	}
	return polys, nil
}

// parsePolygonBody parses "((x y, x y, ...), (hole...))" keeping only the
// outer ring.
func parsePolygonBody(body string) (Polygon, error) {
	inner, err := stripParens(body)
	if err != nil {
		return Polygon{}, err
	}
	rings, err := splitTopLevel(inner)
	if err != nil {
		return Polygon{}, err
	}
	if len(rings) == 0 {
		return Polygon{}, fmt.Errorf("polygon WKT has no rings")
	}
	return parseRing(rings[0])
}

func parseRing(s string) (Polygon, error) {
	inner, err := stripParens(s)
	if err != nil {
		// A bare coordinate list without parens.
		inner = strings.TrimSpace(s)
	}
	parts := strings.Split(inner, ",")
	pts := make([]Point2D, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) < 2 {
			return Polygon{}, fmt.Errorf("malformed WKT coordinate %q", strings.TrimSpace(part))
		}
		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return Polygon{}, fmt.Errorf("parsing WKT x coordinate: %w", err)
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return Polygon{}, fmt.Errorf("parsing WKT y coordinate: %w", err)
		}
		pts = append(pts, Pt(x, y))
	}
	// Drop the repeated closing vertex.
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return Polygon{Vertices: pts}, nil
}

// stripParens removes one matched outer pair of parentheses.
func stripParens(s string) (string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return "", fmt.Errorf("expected parenthesized WKT group, got %q", truncate(s, 32))
	}
	return s[1 : len(s)-1], nil
}

// splitTopLevel splits a comma-separated list at depth zero.
func splitTopLevel(s string) ([]string, error) {
	var groups []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses in WKT")
			}
		case ',':
			if depth == 0 {
				groups = append(groups, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses in WKT")
	}
	groups = append(groups, strings.TrimSpace(s[start:]))
	return groups, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
