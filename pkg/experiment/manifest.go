// Package experiment holds the manifest configuration for a batch
// experiment: file references, GIS-preprocessing parameters, and output
// options.
package experiment

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
)

// OutputMode controls how hourly result data is reported.
type OutputMode string

const (
	OutputTablesAndFileRefs OutputMode = "tables-and-filerefs"
	OutputFileRefOnly       OutputMode = "fileref-only"
	OutputTablesOnly        OutputMode = "tables-only"
)

// HourlyDataConfig selects which hourly variables to report and how.
type HourlyDataConfig struct {
	Data       []string   `yaml:"data" json:"data"`
	OutputMode OutputMode `yaml:"output_mode" json:"output_mode"`
}

// DoesFileOutput reports whether hourly data is written to a file artifact.
func (c HourlyDataConfig) DoesFileOutput() bool {
	return c.OutputMode == OutputTablesAndFileRefs || c.OutputMode == OutputFileRefOnly
}

// DoesTableOutput reports whether hourly data is returned as in-memory
// tables.
func (c HourlyDataConfig) DoesTableOutput() bool {
	return c.OutputMode == OutputTablesAndFileRefs || c.OutputMode == OutputTablesOnly
}

// FileConfig references the experiment's input artifacts.
type FileConfig struct {
	GISFile            fileref.Reference `yaml:"gis_file" json:"gis_file"`
	DBFile             fileref.Reference `yaml:"db_file" json:"db_file"`
	SemanticFieldsFile fileref.Reference `yaml:"semantic_fields_file" json:"semantic_fields_file"`
	EPWZipFile         fileref.Reference `yaml:"epwzip_file" json:"epwzip_file"`
	ComponentMapFile   fileref.Reference `yaml:"component_map_file" json:"component_map_file"`
}

// GISPreprocessorConfig parameterizes the deterministic GIS preprocessing
// stage and supplies defaults for attributes the GIS source lacks.
type GISPreprocessorConfig struct {
	CartCRS           string  `yaml:"cart_crs" json:"cart_crs"`
	MinBuildingArea   float64 `yaml:"min_building_area" json:"min_building_area"`
	MinEdgeLength     float64 `yaml:"min_edge_length" json:"min_edge_length"`
	MaxEdgeLength     float64 `yaml:"max_edge_length" json:"max_edge_length"`
	NeighborThreshold float64 `yaml:"neighbor_threshold" json:"neighbor_threshold"`
	F2FHeight         float64 `yaml:"f2f_height" json:"f2f_height"`
	MinBuildingHeight float64 `yaml:"min_building_height" json:"min_building_height"`
	MaxBuildingHeight float64 `yaml:"max_building_height" json:"max_building_height"`
	MinNumFloors      int     `yaml:"min_num_floors" json:"min_num_floors"`
	MaxNumFloors      int     `yaml:"max_num_floors" json:"max_num_floors"`

	DefaultWWR                 float64     `yaml:"default_wwr" json:"default_wwr"`
	DefaultNumFloors           int         `yaml:"default_num_floors" json:"default_num_floors"`
	DefaultBasement            spec.Status `yaml:"default_basement" json:"default_basement"`
	DefaultAttic               spec.Status `yaml:"default_attic" json:"default_attic"`
	DefaultExposedBasementFrac float64     `yaml:"default_exposed_basement_frac" json:"default_exposed_basement_frac"`

	EPWQuery string `yaml:"epw_query" json:"epw_query"`
}

// DefaultGISPreprocessorConfig returns the standard preprocessing bounds.
func DefaultGISPreprocessorConfig() GISPreprocessorConfig {
	return GISPreprocessorConfig{
		CartCRS:                    "EPSG:3857",
		MinBuildingArea:            10,
		MinEdgeLength:              3,
		MaxEdgeLength:              1000,
		NeighborThreshold:          100,
		F2FHeight:                  3,
		MinBuildingHeight:          3,
		MaxBuildingHeight:          300,
		MinNumFloors:               1,
		MaxNumFloors:               125,
		DefaultWWR:                 0.2,
		DefaultNumFloors:           2,
		DefaultBasement:            spec.StatusNone,
		DefaultAttic:               spec.StatusNone,
		DefaultExposedBasementFrac: 0.25,
		EPWQuery:                   "source in ['tmyx']",
	}
}

// Spec is the manifest for a batch experiment.
type Spec struct {
	Name       string                `yaml:"name" json:"name"`
	Scenario   string                `yaml:"scenario" json:"scenario"`
	HourlyData *HourlyDataConfig     `yaml:"hourly_data_config,omitempty" json:"hourly_data_config,omitempty"`
	Files      FileConfig            `yaml:"file_config" json:"file_config"`
	GIS        GISPreprocessorConfig `yaml:"gis_preprocessor_config" json:"gis_preprocessor_config"`
}

// Ref returns the provenance reference attached to building specs created
// for this experiment.
func (s *Spec) Ref() *spec.ExperimentRef {
	return &spec.ExperimentRef{Name: s.Name, Scenario: s.Scenario}
}

// Load reads an experiment manifest from a YAML file, applying GIS
// preprocessing defaults for omitted fields.
func Load(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest file: %w", err)
	}
	s := &Spec{GIS: DefaultGISPreprocessorConfig()}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing manifest YAML: %w", err)
	}
	return s, nil
}

// LoadRef reads an experiment manifest from a local path or a remote
// reference, fetching remote manifests through f.
func LoadRef(ctx context.Context, ref fileref.Reference, f fileref.Fetcher) (*Spec, error) {
	if !ref.IsRemote() {
		return Load(string(ref))
	}
	local, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	return Load(local)
}

// SemanticFields declares, for each semantic field, the values it may take.
// It is loaded from the experiment's semantic fields file and drives grid
// runs and constructability checks.
type SemanticFields struct {
	Fields []SemanticField `yaml:"fields" json:"fields"`
}

// SemanticField is one named categorical/numeric choice.
type SemanticField struct {
	Name   string `yaml:"name" json:"name"`
	Values []any  `yaml:"values" json:"values"`
}

// LoadSemanticFields reads a semantic fields document from a YAML file.
func LoadSemanticFields(path string) (*SemanticFields, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading semantic fields file %s: %w", filepath.Base(path), err)
	}
	var sf SemanticFields
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parsing semantic fields YAML: %w", err)
	}
	return &sf, nil
}

// Combinations enumerates semantic field contexts as the cartesian product
// of all field values, stopping after max contexts when max > 0.
func (sf *SemanticFields) Combinations(max int) []map[string]any {
	contexts := []map[string]any{{}}
	for _, field := range sf.Fields {
		if len(field.Values) == 0 {
			continue
		}
		next := make([]map[string]any, 0, len(contexts)*len(field.Values))
		for _, base := range contexts {
			for _, val := range field.Values {
				ctx := make(map[string]any, len(base)+1)
				for k, v := range base {
					ctx[k] = v
				}
				ctx[field.Name] = val
				next = append(next, ctx)
				if max > 0 && len(next) >= max {
					break
				}
			}
			if max > 0 && len(next) >= max {
				break
			}
		}
		contexts = next
	}
	if max > 0 && len(contexts) > max {
		contexts = contexts[:max]
	}
	return contexts
}
