package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/MITSustainableDesignLab/globi/pkg/engine"
	"github.com/MITSustainableDesignLab/globi/pkg/experiment"
	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/geo"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
	"github.com/MITSustainableDesignLab/globi/pkg/zone"
)

type identityFetcher struct{}

func (identityFetcher) Fetch(_ context.Context, ref fileref.Reference) (string, error) {
	return string(ref), nil
}

type fakeEngine struct {
	mu      sync.Mutex
	calls   int
	failFor string
	failErr error
}

func (e *fakeEngine) Simulate(_ context.Context, _ *zone.Definition, _ string, s *spec.BuildingSpec) (*engine.Results, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if s.BuildingID == e.failFor {
		return nil, e.failErr
	}
	return &engine.Results{
		BuildingID:   s.BuildingID,
		ExperimentID: s.ExperimentID,
		EndUses:      map[string][engine.MonthsPerYear]float64{"heating": {1}},
		Peaks:        map[string]float64{"heating": 1},
	}, nil
}

type fakeCompiler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *fakeCompiler) Compile(_ context.Context, s *spec.BuildingSpec) (*zone.Definition, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return &zone.Definition{
		ZoneName:     "conditioned",
		BuildingID:   s.BuildingID,
		ExperimentID: s.ExperimentID,
	}, nil
}

func testManifest() *experiment.Spec {
	return &experiment.Spec{
		Name:     "boston-baseline",
		Scenario: "2030",
		Files: experiment.FileConfig{
			DBFile:             "artifacts/components.db",
			SemanticFieldsFile: "artifacts/semantic.yml",
			ComponentMapFile:   "artifacts/map.yml",
			EPWZipFile:         "weather/boston_tmy3.epwzip",
		},
		GIS: experiment.DefaultGISPreprocessorConfig(),
	}
}

func testRow(id string) spec.GISRow {
	return spec.GISRow{
		BuildingID:           id,
		SemanticFieldContext: map[string]any{"use_type": "residential"},
		RotatedRectangle:     geo.RectWKT(15, 10),
		LongEdge:             15,
		ShortEdge:            10,
		AspectRatio:          1.5,
		WWR:                  0.2,
		Height:               6,
		NumFloors:            2,
		F2FHeight:            3,
		Basement:             spec.StatusNone,
		Attic:                spec.StatusNone,
	}
}

func TestAllocateAssignsIdentity(t *testing.T) {
	manifest := testManifest()
	rows := []spec.GISRow{testRow("bldg-0001"), testRow("bldg-0002")}

	alloc, err := Allocate(manifest, rows, AllocateOptions{EPWZipOverride: "weather/override.epwzip"})
	if err != nil {
		t.Fatalf("Allocate error = %v", err)
	}
	if _, err := uuid.Parse(alloc.ExperimentID); err != nil {
		t.Errorf("ExperimentID %q is not a UUID: %v", alloc.ExperimentID, err)
	}
	if len(alloc.Specs) != 2 {
		t.Fatalf("len(Specs) = %d, want 2", len(alloc.Specs))
	}
	for i, s := range alloc.Specs {
		if s.SortIndex != i {
			t.Errorf("Specs[%d].SortIndex = %d, want %d", i, s.SortIndex, i)
		}
		if s.ExperimentID != alloc.ExperimentID {
			t.Errorf("Specs[%d].ExperimentID = %q, want %q", i, s.ExperimentID, alloc.ExperimentID)
		}
		if s.ParentExperiment == nil || s.ParentExperiment.Name != "boston-baseline" {
			t.Errorf("Specs[%d].ParentExperiment = %v, want boston-baseline", i, s.ParentExperiment)
		}
		if s.DBFile != "artifacts/components.db" {
			t.Errorf("Specs[%d].DBFile = %q, want manifest default", i, s.DBFile)
		}
		if s.EPWZipFile != "weather/override.epwzip" {
			t.Errorf("Specs[%d].EPWZipFile = %q, want override", i, s.EPWZipFile)
		}
	}
}

func TestAllocateGridRun(t *testing.T) {
	contexts := []map[string]any{
		{"Vintage": "pre-1980"},
		{"Vintage": "1980-2004"},
		{"Vintage": "post-2004"},
	}
	alloc, err := Allocate(testManifest(), []spec.GISRow{testRow("bldg-0001")}, AllocateOptions{Contexts: contexts})
	if err != nil {
		t.Fatalf("Allocate error = %v", err)
	}
	if len(alloc.Specs) != 3 {
		t.Fatalf("len(Specs) = %d, want 3", len(alloc.Specs))
	}
	seen := make(map[string]bool)
	for i, s := range alloc.Specs {
		if s.SortIndex != i {
			t.Errorf("Specs[%d].SortIndex = %d, want %d", i, s.SortIndex, i)
		}
		seen[fmt.Sprintf("%v", s.SemanticFieldContext["Vintage"])] = true
	}
	if len(seen) != 3 {
		t.Errorf("distinct contexts = %d, want 3", len(seen))
	}
}

func TestAllocateRejectsInvalidRow(t *testing.T) {
	row := testRow("bldg-0001")
	row.WWR = 2
	_, err := Allocate(testManifest(), []spec.GISRow{row}, AllocateOptions{})
	if err == nil {
		t.Fatal("Allocate error = nil, want validation error")
	}
	var verr *spec.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *spec.ValidationError", err)
	}
	if verr.Field != "wwr" {
		t.Errorf("Field = %q, want wwr", verr.Field)
	}
}

func TestRunIsolatesBuildingFailures(t *testing.T) {
	alloc, err := Allocate(testManifest(), []spec.GISRow{
		testRow("bldg-0001"), testRow("bldg-0002"), testRow("bldg-0003"),
	}, AllocateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	eng := &fakeEngine{failFor: "bldg-0002", failErr: errors.New("engine crashed")}
	runner := &Runner{
		Engine:   eng,
		Compiler: &fakeCompiler{},
		Fetcher:  identityFetcher{},
	}
	report, err := runner.Run(context.Background(), alloc)
	if err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if len(report.Rows) != 2 {
		t.Errorf("len(Rows) = %d, want 2", len(report.Rows))
	}
	if len(report.Errors) != 1 {
		t.Fatalf("len(Errors) = %d, want 1", len(report.Errors))
	}
	if report.Errors[0].BuildingID != "bldg-0002" {
		t.Errorf("Errors[0].BuildingID = %q, want bldg-0002", report.Errors[0].BuildingID)
	}
	if report.Errors[0].ExperimentID != alloc.ExperimentID {
		t.Errorf("Errors[0].ExperimentID = %q, want %q", report.Errors[0].ExperimentID, alloc.ExperimentID)
	}
	for i := 1; i < len(report.Rows); i++ {
		if report.Rows[i-1].Spec.SortIndex > report.Rows[i].Spec.SortIndex {
			t.Error("Rows not ordered by sort index")
		}
	}
	if len(report.FeatureRows()) != 2 || len(report.ResultRows()) != 2 {
		t.Error("FeatureRows/ResultRows length mismatch")
	}
}

func TestRunPrecheckDeduplicatesContexts(t *testing.T) {
	rows := []spec.GISRow{
		testRow("bldg-0001"), testRow("bldg-0002"),
		testRow("bldg-0003"), testRow("bldg-0004"),
	}
	rows[2].SemanticFieldContext = map[string]any{"use_type": "commercial"}
	rows[3].SemanticFieldContext = map[string]any{"use_type": "commercial"}

	alloc, err := Allocate(testManifest(), rows, AllocateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	compiler := &fakeCompiler{}
	runner := &Runner{
		Engine:   &fakeEngine{},
		Compiler: compiler,
		Fetcher:  identityFetcher{},
	}
	if _, err := runner.Run(context.Background(), alloc); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	// One precheck compile per distinct context plus one per building.
	if compiler.calls != 2+4 {
		t.Errorf("compile calls = %d, want 6", compiler.calls)
	}

	compiler = &fakeCompiler{}
	runner.Compiler = compiler
	runner.SkipConstructabilityCheck = true
	if _, err := runner.Run(context.Background(), alloc); err != nil {
		t.Fatalf("Run error = %v", err)
	}
	if compiler.calls != 4 {
		t.Errorf("compile calls with skip = %d, want 4", compiler.calls)
	}
}

func TestRunPrecheckFailureAbortsBatch(t *testing.T) {
	alloc, err := Allocate(testManifest(), []spec.GISRow{testRow("bldg-0001")}, AllocateOptions{})
	if err != nil {
		t.Fatal(err)
	}

	cerr := &zone.ConstructabilityError{BuildingID: "bldg-0001", Slot: "Envelope"}
	eng := &fakeEngine{}
	runner := &Runner{
		Engine:   eng,
		Compiler: &fakeCompiler{err: cerr},
		Fetcher:  identityFetcher{},
	}
	_, err = runner.Run(context.Background(), alloc)
	if err == nil {
		t.Fatal("Run error = nil, want constructability error")
	}
	var got *zone.ConstructabilityError
	if !errors.As(err, &got) {
		t.Errorf("error = %v, want *zone.ConstructabilityError", err)
	}
	if eng.calls != 0 {
		t.Errorf("engine calls = %d, want 0 after failed precheck", eng.calls)
	}
}
