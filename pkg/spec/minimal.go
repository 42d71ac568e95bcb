package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/geo"
)

// MinimalBuildingSpec is the user-facing, deterministic single-building
// description: a synthetic rectangular building with no neighbors.
type MinimalBuildingSpec struct {
	DBFile             fileref.Reference `yaml:"db_file" json:"db_file"`
	SemanticFieldsFile fileref.Reference `yaml:"semantic_fields_file" json:"semantic_fields_file"`
	ComponentMapFile   fileref.Reference `yaml:"component_map_file" json:"component_map_file"`
	EPWZipFile         fileref.Reference `yaml:"epwzip_file" json:"epwzip_file"`

	SemanticFieldContext map[string]any `yaml:"semantic_field_context" json:"semantic_field_context"`

	Length              float64 `yaml:"length" json:"length"`
	Width               float64 `yaml:"width" json:"width"`
	NumFloors           int     `yaml:"num_floors" json:"num_floors"`
	F2FHeight           float64 `yaml:"f2f_height" json:"f2f_height"`
	WWR                 float64 `yaml:"wwr" json:"wwr"`
	Basement            Status  `yaml:"basement" json:"basement"`
	Attic               Status  `yaml:"attic" json:"attic"`
	ExposedBasementFrac float64 `yaml:"exposed_basement_frac" json:"exposed_basement_frac"`
}

// DefaultMinimalBuildingSpec returns a minimal spec with the standard
// defaults: a 15x15 m two-storey building with 20% glazing and no
// basement or attic.
func DefaultMinimalBuildingSpec() MinimalBuildingSpec {
	return MinimalBuildingSpec{
		Length:              15,
		Width:               15,
		NumFloors:           2,
		F2FHeight:           3,
		WWR:                 0.2,
		Basement:            StatusNone,
		Attic:               StatusNone,
		ExposedBasementFrac: 0.25,
	}
}

// LoadMinimal reads a minimal building spec from a YAML file, applying
// defaults for omitted fields, normalizing, and validating.
func LoadMinimal(path string) (MinimalBuildingSpec, error) {
	m := DefaultMinimalBuildingSpec()
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("reading building spec file: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing building spec YAML: %w", err)
	}
	m.Normalize()
	if err := m.Validate(); err != nil {
		return m, err
	}
	return m, nil
}

// Normalize swaps length and width so that length >= width, making "long
// edge" and "short edge" well-defined.
func (m *MinimalBuildingSpec) Normalize() {
	if m.Length < m.Width {
		m.Length, m.Width = m.Width, m.Length
	}
}

// Validate checks the minimal-spec invariants. Normalize must have been
// called first for the edge-ordering invariant to hold.
func (m *MinimalBuildingSpec) Validate() error {
	fail := func(field string, value any, expected string) error {
		return &ValidationError{Field: field, Value: value, Expected: expected}
	}

	if m.Length < 3 {
		return fail("length", m.Length, ">= 3")
	}
	if m.Width < 3 {
		return fail("width", m.Width, ">= 3")
	}
	if m.Length < m.Width {
		return fail("length", m.Length, ">= width")
	}
	if m.NumFloors < 1 {
		return fail("num_floors", m.NumFloors, ">= 1")
	}
	if m.F2FHeight < 0 {
		return fail("f2f_height", m.F2FHeight, ">= 0")
	}
	if m.WWR < 0 || m.WWR > 1 {
		return fail("wwr", m.WWR, "0 <= wwr <= 1")
	}
	if !m.Basement.Valid() {
		return fail("basement", m.Basement, "one of the basement/attic statuses")
	}
	if !m.Attic.Valid() {
		return fail("attic", m.Attic, "one of the basement/attic statuses")
	}
	if m.ExposedBasementFrac < 0 || m.ExposedBasementFrac > 1 {
		return fail("exposed_basement_frac", m.ExposedBasementFrac, "0 <= frac <= 1")
	}
	return nil
}

// BuildingSpec projects the minimal spec into a full BuildingSpec: an
// axis-aligned origin-anchored rectangle with rotation 0, no neighbors,
// an exact rectangle fit, and the single-building sentinel identity.
// The projection is pure and deterministic.
func (m MinimalBuildingSpec) BuildingSpec() (*BuildingSpec, error) {
	s := &BuildingSpec{
		BuildingID:                PlaceholderBuildingID,
		ExperimentID:              SingleBuildingExperimentID,
		SortIndex:                 0,
		DBFile:                    m.DBFile,
		SemanticFieldsFile:        m.SemanticFieldsFile,
		ComponentMapFile:          m.ComponentMapFile,
		EPWZipFile:                m.EPWZipFile,
		SemanticFieldContext:      m.SemanticFieldContext,
		NeighborPolys:             []string{},
		NeighborHeights:           []*float64{},
		NeighborFloors:            []*float64{},
		RotatedRectangle:          geo.RectWKT(m.Length, m.Width),
		LongEdgeAngle:             0,
		LongEdge:                  m.Length,
		ShortEdge:                 m.Width,
		AspectRatio:               m.Length / m.Width,
		RotatedRectangleAreaRatio: 1,
		WWR:                       m.WWR,
		Height:                    float64(m.NumFloors) * m.F2FHeight,
		NumFloors:                 m.NumFloors,
		F2FHeight:                 m.F2FHeight,
		Basement:                  m.Basement,
		Attic:                     m.Attic,
		ExposedBasementFrac:       m.ExposedBasementFrac,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
