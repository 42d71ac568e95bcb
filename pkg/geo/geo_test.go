package geo

import (
	"math"
	"testing"
)

const tolerance = 1e-6

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// --- Point2D tests ---

func TestPointDistance(t *testing.T) {
	a := Pt(0, 0)
	b := Pt(3, 4)
	if !approxEqual(a.Distance(b), 5.0, tolerance) {
		t.Errorf("distance = %f, want 5.0", a.Distance(b))
	}
}

func TestPointAngle(t *testing.T) {
	if !approxEqual(Pt(1, 0).Angle(), 0, tolerance) {
		t.Errorf("angle = %f, want 0", Pt(1, 0).Angle())
	}
	if !approxEqual(Pt(0, 1).Angle(), math.Pi/2, tolerance) {
		t.Errorf("angle = %f, want pi/2", Pt(0, 1).Angle())
	}
}

func TestPointRotate(t *testing.T) {
	r := Pt(1, 0).Rotate(math.Pi / 2)
	if !approxEqual(r.X, 0, tolerance) || !approxEqual(r.Y, 1, tolerance) {
		t.Errorf("rotated = (%f,%f), want (0,1)", r.X, r.Y)
	}
}

// --- Polygon tests ---

func TestRectArea(t *testing.T) {
	r := Rect(15, 10)
	if !approxEqual(r.Area(), 150, tolerance) {
		t.Errorf("area = %f, want 150", r.Area())
	}
	if r.Len() != 4 {
		t.Errorf("vertex count = %d, want 4", r.Len())
	}
}

func TestRectCentroid(t *testing.T) {
	c := Rect(10, 4).Centroid()
	if !approxEqual(c.X, 5, tolerance) || !approxEqual(c.Y, 2, tolerance) {
		t.Errorf("centroid = (%f,%f), want (5,2)", c.X, c.Y)
	}
}

func TestFootprintArea(t *testing.T) {
	if got := FootprintArea(15, 10); got != 150 {
		t.Errorf("FootprintArea(15,10) = %v, want 150", got)
	}
}

// --- WKT tests ---

func TestRectWKT(t *testing.T) {
	got := RectWKT(15, 10)
	want := "Polygon ((0 0, 15 0, 15 10, 0 10, 0 0))"
	if got != want {
		t.Errorf("RectWKT = %q, want %q", got, want)
	}
}

func TestParseWKTRoundTrip(t *testing.T) {
	polys, err := ParseWKT(RectWKT(15, 10))
	if err != nil {
		t.Fatalf("ParseWKT failed: %v", err)
	}
	if len(polys) != 1 {
		t.Fatalf("polygon count = %d, want 1", len(polys))
	}
	if polys[0].Len() != 4 {
		t.Errorf("vertex count = %d, want 4 (closing vertex dropped)", polys[0].Len())
	}
	if !approxEqual(polys[0].Area(), 150, tolerance) {
		t.Errorf("area = %f, want 150", polys[0].Area())
	}
}

func TestParseWKTMultiPolygon(t *testing.T) {
	polys, err := ParseWKT("MULTIPOLYGON (((0 0, 1 0, 1 1, 0 1, 0 0)), ((5 5, 6 5, 6 6, 5 6, 5 5)))")
	if err != nil {
		t.Fatalf("ParseWKT failed: %v", err)
	}
	if len(polys) != 2 {
		t.Fatalf("polygon count = %d, want 2", len(polys))
	}
	if !approxEqual(polys[0].Area(), 1, tolerance) || !approxEqual(polys[1].Area(), 1, tolerance) {
		t.Errorf("areas = %f, %f, want 1, 1", polys[0].Area(), polys[1].Area())
	}
}

func TestParseWKTCaseInsensitive(t *testing.T) {
	if _, err := ParseWKT("POLYGON ((0 0, 2 0, 2 2, 0 2, 0 0))"); err != nil {
		t.Errorf("upper-case POLYGON rejected: %v", err)
	}
	if _, err := ParseWKT("polygon ((0 0, 2 0, 2 2, 0 2, 0 0))"); err != nil {
		t.Errorf("lower-case polygon rejected: %v", err)
	}
}

func TestParseWKTEmpty(t *testing.T) {
	polys, err := ParseWKT("POLYGON EMPTY")
	if err != nil {
		t.Fatalf("ParseWKT failed: %v", err)
	}
	if len(polys) != 0 {
		t.Errorf("polygon count = %d, want 0", len(polys))
	}
}

func TestParseWKTRejectsOtherGeometries(t *testing.T) {
	if _, err := ParseWKT("POINT (1 2)"); err == nil {
		t.Error("expected error for POINT geometry")
	}
}

// --- Shading mask tests ---

func fp(h float64) *float64 { return &h }

func TestShadingMaskBinCount(t *testing.T) {
	mask := ShadingMask(Rect(10, 10), nil, nil, DefaultAzimuthalStep)
	if len(mask) != 48 {
		t.Errorf("bin count = %d, want 48", len(mask))
	}
	for i, v := range mask {
		if v != 0 {
			t.Errorf("mask[%d] = %f, want 0 with no neighbors", i, v)
		}
	}
}

func TestShadingMaskEastNeighbor(t *testing.T) {
	// 10x10 footprint centered at (5,5); a 20m tall slab due east.
	neighbor := NewPolygon(Pt(15, 0), Pt(25, 0), Pt(25, 10), Pt(15, 10))
	mask := ShadingMask(Rect(10, 10), []Polygon{neighbor}, []*float64{fp(20)}, DefaultAzimuthalStep)

	// Bin 0 looks due east: obstruction at distance 10, height 20.
	want := math.Atan2(20, 10)
	if !approxEqual(mask[0], want, 1e-6) {
		t.Errorf("mask[0] = %f, want %f", mask[0], want)
	}
	// Bin 24 looks due west: unobstructed.
	if mask[24] != 0 {
		t.Errorf("mask[24] = %f, want 0", mask[24])
	}
}

func TestShadingMaskSkipsUnknownHeights(t *testing.T) {
	neighbor := NewPolygon(Pt(15, 0), Pt(25, 0), Pt(25, 10), Pt(15, 10))
	mask := ShadingMask(Rect(10, 10), []Polygon{neighbor}, []*float64{nil}, DefaultAzimuthalStep)
	for i, v := range mask {
		if v != 0 {
			t.Errorf("mask[%d] = %f, want 0 when neighbor height unknown", i, v)
		}
	}
}

func TestShadingMaskSkipsDegenerateNeighbors(t *testing.T) {
	degenerate := NewPolygon(Pt(0, 0), Pt(1, 1))
	mask := ShadingMask(Rect(10, 10), []Polygon{degenerate}, []*float64{fp(30)}, DefaultAzimuthalStep)
	for i, v := range mask {
		if v != 0 {
			t.Errorf("mask[%d] = %f, want 0 for degenerate neighbor", i, v)
		}
	}
}

func TestShadingMaskTallerIsLarger(t *testing.T) {
	neighbor := NewPolygon(Pt(15, 0), Pt(25, 0), Pt(25, 10), Pt(15, 10))
	low := ShadingMask(Rect(10, 10), []Polygon{neighbor}, []*float64{fp(5)}, DefaultAzimuthalStep)
	high := ShadingMask(Rect(10, 10), []Polygon{neighbor}, []*float64{fp(50)}, DefaultAzimuthalStep)
	if high[0] <= low[0] {
		t.Errorf("taller neighbor mask %f not greater than shorter %f", high[0], low[0])
	}
}
