package spec

import (
	"sync"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
)

// SingleBuildingExperimentID is the sentinel experiment identifier assigned
// to specs projected from a MinimalBuildingSpec, which are not part of any
// batch experiment.
const SingleBuildingExperimentID = "MinimalBuildingSpec"

// PlaceholderBuildingID is the building identifier assigned to specs
// projected from a MinimalBuildingSpec.
const PlaceholderBuildingID = "placeholder"

// ExperimentRef records the provenance of a building spec within a batch
// experiment.
type ExperimentRef struct {
	Name     string `yaml:"name" json:"name"`
	Scenario string `yaml:"scenario" json:"scenario"`
}

// BuildingSpec is the complete per-building simulation input: one row of a
// grid/batch experiment, or the projection of a MinimalBuildingSpec.
// It is read-only after construction; the only mutable state is the
// memoization of randomized ancillary-space samples and fetched file paths,
// which is guarded for concurrent batch execution.
type BuildingSpec struct {
	BuildingID   string `json:"building_id"`
	ExperimentID string `json:"experiment_id"`
	SortIndex    int    `json:"sort_index"`

	DBFile             fileref.Reference `json:"db_file"`
	SemanticFieldsFile fileref.Reference `json:"semantic_fields_file"`
	ComponentMapFile   fileref.Reference `json:"component_map_file"`
	EPWZipFile         fileref.Reference `json:"epwzip_file"`

	// SemanticFieldContext selects the physical component combination.
	// Values are numeric or categorical.
	SemanticFieldContext map[string]any `json:"semantic_field_context"`

	// Parallel neighbor sequences: index i across all three describes the
	// same neighboring structure. Heights and floor counts may be unknown.
	NeighborPolys   []string   `json:"neighbor_polys"`
	NeighborHeights []*float64 `json:"neighbor_heights"`
	NeighborFloors  []*float64 `json:"neighbor_floors"`

	// RotatedRectangle is the WKT of the minimum-area rectangle fitted to
	// the footprint at its dominant orientation.
	RotatedRectangle          string  `json:"rotated_rectangle"`
	LongEdgeAngle             float64 `json:"long_edge_angle"`
	LongEdge                  float64 `json:"long_edge"`
	ShortEdge                 float64 `json:"short_edge"`
	AspectRatio               float64 `json:"aspect_ratio"`
	RotatedRectangleAreaRatio float64 `json:"rotated_rectangle_area_ratio"`

	WWR       float64 `json:"wwr"`
	Height    float64 `json:"height"`
	NumFloors int     `json:"num_floors"`
	F2FHeight float64 `json:"f2f_height"`

	Basement            Status  `json:"basement"`
	Attic               Status  `json:"attic"`
	ExposedBasementFrac float64 `json:"exposed_basement_frac"`

	ParentExperiment *ExperimentRef `json:"parent_experiment,omitempty"`

	// Memoized state. Randomized ancillary samples are drawn at most once
	// per instance so repeated reads are stable; resolved file paths are
	// fetched at most once per instance.
	mu               sync.Mutex
	basementUseFrac  *float64
	atticUseFrac     *float64
	atticHeight      *float64
	resolvedDB       *string
	resolvedSemantic *string
	resolvedMap      *string
	resolvedEPW      *string
}

// Validate checks every BuildingSpec invariant and returns a
// ValidationError naming the offending field on the first violation.
func (s *BuildingSpec) Validate() error {
	fail := func(field string, value any, expected string) error {
		return &ValidationError{
			Field:        field,
			Value:        value,
			Expected:     expected,
			BuildingID:   s.BuildingID,
			ExperimentID: s.ExperimentID,
		}
	}

	if s.WWR < 0 || s.WWR > 1 {
		return fail("wwr", s.WWR, "0 <= wwr <= 1")
	}
	if s.NumFloors < 0 {
		return fail("num_floors", s.NumFloors, ">= 0")
	}
	if s.Height < 0 {
		return fail("height", s.Height, ">= 0")
	}
	if s.F2FHeight < 0 {
		return fail("f2f_height", s.F2FHeight, ">= 0")
	}
	if s.LongEdge < s.ShortEdge {
		return fail("long_edge", s.LongEdge, ">= short_edge")
	}
	if !s.Basement.Valid() {
		return fail("basement", s.Basement, "one of the basement/attic statuses")
	}
	if !s.Attic.Valid() {
		return fail("attic", s.Attic, "one of the basement/attic statuses")
	}
	if s.Basement.Exists() && (s.ExposedBasementFrac <= 0 || s.ExposedBasementFrac >= 1) {
		return fail("exposed_basement_frac", s.ExposedBasementFrac, "0 < frac < 1 when a basement is present")
	}
	if len(s.NeighborPolys) != len(s.NeighborHeights) {
		return fail("neighbor_heights", len(s.NeighborHeights),
			"same length as neighbor_polys")
	}
	if len(s.NeighborPolys) != len(s.NeighborFloors) {
		return fail("neighbor_floors", len(s.NeighborFloors),
			"same length as neighbor_polys")
	}
	return nil
}

// GISRow is one preprocessed per-building row produced by GIS
// preprocessing: a real footprint with its fitted rectangle, rotation, and
// neighbor context. Experiment identity is supplied by the batch allocator,
// never invented here.
type GISRow struct {
	BuildingID string `json:"building_id"`

	DBFile               fileref.Reference `json:"db_file"`
	SemanticFieldsFile   fileref.Reference `json:"semantic_fields_file"`
	ComponentMapFile     fileref.Reference `json:"component_map_file"`
	EPWZipFile           fileref.Reference `json:"epwzip_file"`
	SemanticFieldContext map[string]any    `json:"semantic_field_context"`

	NeighborPolys   []string   `json:"neighbor_polys"`
	NeighborHeights []*float64 `json:"neighbor_heights"`
	NeighborFloors  []*float64 `json:"neighbor_floors"`

	RotatedRectangle          string  `json:"rotated_rectangle"`
	LongEdgeAngle             float64 `json:"long_edge_angle"`
	LongEdge                  float64 `json:"long_edge"`
	ShortEdge                 float64 `json:"short_edge"`
	AspectRatio               float64 `json:"aspect_ratio"`
	RotatedRectangleAreaRatio float64 `json:"rotated_rectangle_area_ratio"`

	WWR       float64 `json:"wwr"`
	Height    float64 `json:"height"`
	NumFloors int     `json:"num_floors"`
	F2FHeight float64 `json:"f2f_height"`

	Basement            Status  `json:"basement"`
	Attic               Status  `json:"attic"`
	ExposedBasementFrac float64 `json:"exposed_basement_frac"`
}

// FromGISRow assembles a validated BuildingSpec from a preprocessed GIS row.
// The experiment identity and sort index come from the batch allocator.
func FromGISRow(row GISRow, experimentID string, sortIndex int, parent *ExperimentRef) (*BuildingSpec, error) {
	s := &BuildingSpec{
		BuildingID:                row.BuildingID,
		ExperimentID:              experimentID,
		SortIndex:                 sortIndex,
		DBFile:                    row.DBFile,
		SemanticFieldsFile:        row.SemanticFieldsFile,
		ComponentMapFile:          row.ComponentMapFile,
		EPWZipFile:                row.EPWZipFile,
		SemanticFieldContext:      row.SemanticFieldContext,
		NeighborPolys:             row.NeighborPolys,
		NeighborHeights:           row.NeighborHeights,
		NeighborFloors:            row.NeighborFloors,
		RotatedRectangle:          row.RotatedRectangle,
		LongEdgeAngle:             row.LongEdgeAngle,
		LongEdge:                  row.LongEdge,
		ShortEdge:                 row.ShortEdge,
		AspectRatio:               row.AspectRatio,
		RotatedRectangleAreaRatio: row.RotatedRectangleAreaRatio,
		WWR:                       row.WWR,
		Height:                    row.Height,
		NumFloors:                 row.NumFloors,
		F2FHeight:                 row.F2FHeight,
		Basement:                  row.Basement,
		Attic:                     row.Attic,
		ExposedBasementFrac:       row.ExposedBasementFrac,
		ParentExperiment:          parent,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
