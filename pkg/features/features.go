// Package features projects a resolved building spec into the flat,
// namespaced feature mapping consumed by output tables and ML pipelines.
package features

import (
	"context"
	"fmt"
	"math"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/geo"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
)

// Vector is a flat mapping from dotted feature key (namespace.category.name)
// to a scalar: float64, int, or categorical string. It is a derived value
// with no identity of its own and is recomputed on every extraction; the
// randomized ancillary fields it contains are cached per BuildingSpec
// instance, so repeated extraction from one instance is stable.
type Vector map[string]any

// yesNo renders a boolean as the categorical strings used in output tables.
func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// Extract derives the complete feature vector for a building spec. The only
// external I/O is resolving the weather archive to a local path (for the
// feature.weather.file entry), memoized on the spec instance; everything
// else is pure computation over the spec and its cached ancillary samples.
func Extract(ctx context.Context, s *spec.BuildingSpec, fetcher fileref.Fetcher) (Vector, error) {
	atticHeight, err := s.AtticHeight()
	if err != nil {
		return nil, err
	}

	v := Vector{
		"feature.geometry.long_edge":                     s.LongEdge,
		"feature.geometry.short_edge":                    s.ShortEdge,
		"feature.geometry.orientation":                   s.LongEdgeAngle,
		"feature.geometry.orientation.cos":               math.Cos(s.LongEdgeAngle),
		"feature.geometry.orientation.sin":               math.Sin(s.LongEdgeAngle),
		"feature.geometry.aspect_ratio":                  s.AspectRatio,
		"feature.geometry.wwr":                           s.WWR,
		"feature.geometry.num_floors":                    s.NumFloors,
		"feature.geometry.f2f_height":                    s.F2FHeight,
		"feature.geometry.zoning":                        s.Zoning(),
		"feature.geometry.energy_model_conditioned_area": s.EnergyModelConditionedArea(),
		"feature.geometry.energy_model_occupied_area":    s.EnergyModelOccupiedArea(),
		"feature.geometry.attic_height":                  atticHeight,
		"feature.geometry.exposed_basement_frac":         s.ExposedBasementFrac,
	}

	mask, err := shadingMask(s)
	if err != nil {
		return nil, err
	}
	for i, val := range mask {
		v[fmt.Sprintf("feature.geometry.shading_mask_%02d", i)] = val
	}

	// Semantic features are kept in their own namespace: one building may
	// run multiple simulations with different semantic fields.
	for name, val := range s.SemanticFieldContext {
		v["feature.semantic."+name] = val
	}

	epwPath, err := s.EPWZipPath(ctx, fetcher)
	if err != nil {
		return nil, err
	}
	v["feature.weather.file"] = fileref.Reference(epwPath).Stem()

	v["feature.extra_spaces.basement.exists"] = yesNo(s.HasBasement())
	v["feature.extra_spaces.basement.occupied"] = yesNo(s.BasementIsOccupied())
	v["feature.extra_spaces.basement.conditioned"] = yesNo(s.BasementIsConditioned())
	v["feature.extra_spaces.basement.use_fraction"] = s.BasementUseFraction()
	v["feature.extra_spaces.attic.exists"] = yesNo(s.HasAttic())
	v["feature.extra_spaces.attic.occupied"] = yesNo(s.AtticIsOccupied())
	v["feature.extra_spaces.attic.conditioned"] = yesNo(s.AtticIsConditioned())
	v["feature.extra_spaces.attic.use_fraction"] = s.AtticUseFraction()

	return v, nil
}

// shadingMask parses the footprint and neighbor WKT and computes the
// 48-bin horizon obstruction mask. Malformed footprint WKT is a caller
// error; degenerate or empty neighbor geometries are skipped.
func shadingMask(s *spec.BuildingSpec) ([]float64, error) {
	footprints, err := geo.ParseWKT(s.RotatedRectangle)
	if err != nil {
		return nil, fmt.Errorf("parsing rotated rectangle: %w", err)
	}
	if len(footprints) == 0 {
		return nil, fmt.Errorf("rotated rectangle is empty")
	}

	var neighbors []geo.Polygon
	var heights []*float64
	for i, wkt := range s.NeighborPolys {
		polys, err := geo.ParseWKT(wkt)
		if err != nil {
			// Unparseable neighbors are skipped, not fatal: GIS sources
			// routinely carry a few broken geometries.
			continue
		}
		for _, p := range polys {
			neighbors = append(neighbors, p)
			heights = append(heights, s.NeighborHeights[i])
		}
	}

	return geo.ShadingMask(footprints[0], neighbors, heights, geo.DefaultAzimuthalStep), nil
}
