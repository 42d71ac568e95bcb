package geo

import "math"

// DefaultAzimuthalStep partitions the horizon into 48 angular bins.
const DefaultAzimuthalStep = 2 * math.Pi / 48

// ShadingMask partitions the horizon around the footprint centroid into
// 2*pi/azimuthalStep angular bins and returns, for each bin, the maximum
// obstruction elevation angle (radians) produced by the neighboring
// structures visible in that bin. A bin with no visible obstruction is 0.
//
// Heights are parallel to neighbors; a nil height means the neighbor's
// height is unknown and the neighbor is skipped, as are degenerate or empty
// neighbor polygons. The computation is deterministic given its inputs.
func ShadingMask(footprint Polygon, neighbors []Polygon, heights []*float64, azimuthalStep float64) []float64 {
	if azimuthalStep <= 0 {
		azimuthalStep = DefaultAzimuthalStep
	}
	bins := int(math.Round(2 * math.Pi / azimuthalStep))
	if bins < 1 {
		bins = 1
	}
	mask := make([]float64, bins)

	center := footprint.Centroid()
	for i := 0; i < bins; i++ {
		azimuth := float64(i) * azimuthalStep
		dir := Pt(math.Cos(azimuth), math.Sin(azimuth))
		for j, nb := range neighbors {
			if nb.IsEmpty() {
				continue
			}
			if j >= len(heights) || heights[j] == nil {
				continue
			}
			h := *heights[j]
			if h <= 0 {
				continue
			}
			d, ok := rayPolygonDistance(center, dir, nb)
			if !ok {
				continue
			}
			elev := math.Atan2(h, d)
			if elev > mask[i] {
				mask[i] = elev
			}
		}
	}
	return mask
}

// rayPolygonDistance returns the distance from origin along dir to the
// nearest edge of the polygon, or false if the ray misses it.
func rayPolygonDistance(origin, dir Point2D, p Polygon) (float64, bool) {
	nearest := math.Inf(1)
	hit := false
	n := len(p.Vertices)
	for i := 0; i < n; i++ {
		a, b := p.Edge(i)
		if t, ok := raySegment(origin, dir, a, b); ok && t < nearest {
			nearest = t
			hit = true
		}
	}
	return nearest, hit
}

// raySegment solves origin + t*dir = a + s*(b-a) for t >= 0, s in [0,1].
func raySegment(origin, dir, a, b Point2D) (float64, bool) {
	edge := b.Sub(a)
	denom := dir.Cross(edge)
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	ao := a.Sub(origin)
	t := ao.Cross(edge) / denom
	s := ao.Cross(dir) / denom
	if t < 1e-9 || s < 0 || s > 1 {
		return 0, false
	}
	return t, true
}
