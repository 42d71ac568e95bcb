package validation

import (
	"testing"

	"github.com/MITSustainableDesignLab/globi/pkg/experiment"
)

func validManifest() *experiment.Spec {
	return &experiment.Spec{
		Name:     "boston-residential",
		Scenario: "baseline",
		Files: experiment.FileConfig{
			GISFile:            "inputs/buildings.geojson",
			DBFile:             "inputs/components.db",
			SemanticFieldsFile: "inputs/semantic_fields.yaml",
			EPWZipFile:         "inputs/boston.epwzip",
			ComponentMapFile:   "inputs/component_map.yaml",
		},
		GIS: experiment.DefaultGISPreprocessorConfig(),
	}
}

func TestValidateManifestValid(t *testing.T) {
	r := ValidateManifest(validManifest())
	if !r.Valid {
		t.Errorf("report invalid: %v", r.Errors)
	}
}

func TestValidateManifestMissingName(t *testing.T) {
	m := validManifest()
	m.Name = ""
	r := ValidateManifest(m)
	if r.Valid {
		t.Fatal("report valid, want invalid")
	}
	if r.Errors[0].SpecPath != "name" {
		t.Errorf("spec_path = %q, want name", r.Errors[0].SpecPath)
	}
}

func TestValidateManifestMissingFiles(t *testing.T) {
	m := validManifest()
	m.Files.DBFile = ""
	m.Files.ComponentMapFile = ""
	r := ValidateManifest(m)
	if len(r.Errors) != 2 {
		t.Errorf("error count = %d, want 2", len(r.Errors))
	}
}

func TestValidateManifestMissingWeatherIsWarning(t *testing.T) {
	m := validManifest()
	m.Files.EPWZipFile = ""
	r := ValidateManifest(m)
	if !r.Valid {
		t.Errorf("missing weather archive should only warn: %v", r.Errors)
	}
	if len(r.Warnings) != 1 {
		t.Errorf("warning count = %d, want 1", len(r.Warnings))
	}
}

func TestValidateManifestGISBounds(t *testing.T) {
	m := validManifest()
	m.GIS.F2FHeight = 10
	m.GIS.DefaultWWR = 1.5
	r := ValidateManifest(m)
	if r.Valid {
		t.Fatal("report valid, want invalid")
	}
	if len(r.Errors) != 2 {
		t.Errorf("error count = %d, want 2: %v", len(r.Errors), r.Errors)
	}
}

func TestValidateManifestEdgeOrdering(t *testing.T) {
	m := validManifest()
	m.GIS.MinEdgeLength = 500
	m.GIS.MaxEdgeLength = 100
	r := ValidateManifest(m)
	if r.Valid {
		t.Fatal("report valid, want invalid")
	}
}

func TestValidateManifestBadStatus(t *testing.T) {
	m := validManifest()
	m.GIS.DefaultBasement = "sometimes"
	r := ValidateManifest(m)
	if r.Valid {
		t.Fatal("report valid, want invalid")
	}
}

func TestValidateManifestBadOutputMode(t *testing.T) {
	m := validManifest()
	m.HourlyData = &experiment.HourlyDataConfig{OutputMode: "parquet"}
	r := ValidateManifest(m)
	if r.Valid {
		t.Fatal("report valid, want invalid")
	}
}

func TestReportMerge(t *testing.T) {
	a := NewReport()
	b := NewReport()
	b.AddError(Result{Level: LevelConstructability, Message: "no match", BuildingID: "b-1"})
	a.Merge(b)
	if a.Valid {
		t.Error("merged report valid, want invalid")
	}
	if a.Summary != "1 errors, 0 warnings, 0 info" {
		t.Errorf("summary = %q", a.Summary)
	}
}
