package validation

import (
	"fmt"

	"github.com/MITSustainableDesignLab/globi/pkg/experiment"
)

// ValidateManifest performs schema validation on a parsed experiment
// manifest. It checks structural correctness before any file is fetched or
// any building is allocated.
func ValidateManifest(s *experiment.Spec) *Report {
	r := NewReport()

	validateIdentity(s, r)
	validateFiles(s, r)
	validateGIS(s, r)
	validateHourlyData(s, r)

	return r
}

func validateIdentity(s *experiment.Spec, r *Report) {
	if s.Name == "" {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "experiment name must not be empty",
			SpecPath: "name",
		})
	}
	if s.Scenario == "" {
		r.AddError(Result{
			Level:    LevelSchema,
			Message:  "scenario identifier must not be empty",
			SpecPath: "scenario",
		})
	}
}

func validateFiles(s *experiment.Spec, r *Report) {
	refs := map[string]string{
		"file_config.gis_file":             string(s.Files.GISFile),
		"file_config.db_file":              string(s.Files.DBFile),
		"file_config.semantic_fields_file": string(s.Files.SemanticFieldsFile),
		"file_config.component_map_file":   string(s.Files.ComponentMapFile),
	}
	for path, ref := range refs {
		if ref == "" {
			r.AddError(Result{
				Level:    LevelSchema,
				Message:  "file reference must not be empty",
				SpecPath: path,
			})
		}
	}
	if s.Files.EPWZipFile == "" {
		r.AddWarning(Result{
			Level:    LevelSchema,
			Message:  "no weather archive configured; weather must come from the GIS preprocessor's EPW query",
			SpecPath: "file_config.epwzip_file",
		})
	}
}

func validateGIS(s *experiment.Spec, r *Report) {
	g := s.GIS

	checkRange := func(path string, v, lo, hi float64) {
		if v < lo || v > hi {
			r.AddError(Result{
				Level:       LevelSchema,
				Message:     fmt.Sprintf("%s out of range", path),
				SpecPath:    "gis_preprocessor_config." + path,
				ActualValue: v,
				Expected:    fmt.Sprintf("%g to %g", lo, hi),
			})
		}
	}

	checkRange("min_building_area", g.MinBuildingArea, 1, 1000)
	checkRange("min_edge_length", g.MinEdgeLength, 1, 2000)
	checkRange("max_edge_length", g.MaxEdgeLength, 1, 2000)
	checkRange("f2f_height", g.F2FHeight, 2, 5)
	checkRange("min_building_height", g.MinBuildingHeight, 1, 500)
	checkRange("max_building_height", g.MaxBuildingHeight, 1, 500)
	checkRange("min_num_floors", float64(g.MinNumFloors), 1, 150)
	checkRange("max_num_floors", float64(g.MaxNumFloors), 1, 150)
	checkRange("default_wwr", g.DefaultWWR, 0, 1)
	checkRange("default_exposed_basement_frac", g.DefaultExposedBasementFrac, 0, 1)

	if g.NeighborThreshold < 0 {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "neighbor_threshold must not be negative",
			SpecPath:    "gis_preprocessor_config.neighbor_threshold",
			ActualValue: g.NeighborThreshold,
			Expected:    ">= 0",
		})
	}
	if g.MinEdgeLength > g.MaxEdgeLength {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "min_edge_length exceeds max_edge_length",
			SpecPath:    "gis_preprocessor_config.min_edge_length",
			ActualValue: g.MinEdgeLength,
			Expected:    fmt.Sprintf("<= %g", g.MaxEdgeLength),
		})
	}
	if g.MinNumFloors > g.MaxNumFloors {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "min_num_floors exceeds max_num_floors",
			SpecPath:    "gis_preprocessor_config.min_num_floors",
			ActualValue: g.MinNumFloors,
			Expected:    fmt.Sprintf("<= %d", g.MaxNumFloors),
		})
	}
	if !g.DefaultBasement.Valid() {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "default_basement is not a recognized status",
			SpecPath:    "gis_preprocessor_config.default_basement",
			ActualValue: string(g.DefaultBasement),
		})
	}
	if !g.DefaultAttic.Valid() {
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "default_attic is not a recognized status",
			SpecPath:    "gis_preprocessor_config.default_attic",
			ActualValue: string(g.DefaultAttic),
		})
	}
}

func validateHourlyData(s *experiment.Spec, r *Report) {
	if s.HourlyData == nil {
		return
	}
	switch s.HourlyData.OutputMode {
	case experiment.OutputTablesAndFileRefs, experiment.OutputFileRefOnly, experiment.OutputTablesOnly:
	default:
		r.AddError(Result{
			Level:       LevelSchema,
			Message:     "unrecognized hourly data output mode",
			SpecPath:    "hourly_data_config.output_mode",
			ActualValue: string(s.HourlyData.OutputMode),
			Expected:    "tables-and-filerefs | fileref-only | tables-only",
		})
	}
}
