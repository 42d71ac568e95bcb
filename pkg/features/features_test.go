package features

import (
	"context"
	"fmt"
	"testing"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
)

// pathFetcher resolves every reference to itself and counts fetches.
type pathFetcher struct {
	calls int
}

func (f *pathFetcher) Fetch(_ context.Context, ref fileref.Reference) (string, error) {
	f.calls++
	return string(ref), nil
}

func testSpec(t *testing.T) *spec.BuildingSpec {
	t.Helper()
	m := spec.DefaultMinimalBuildingSpec()
	m.Length = 15
	m.Width = 10
	m.EPWZipFile = "weather/boston_tmy3.epwzip"
	m.SemanticFieldContext = map[string]any{
		"vintage":   "pre-1980",
		"wall_type": "mass",
	}
	s, err := m.BuildingSpec()
	if err != nil {
		t.Fatalf("BuildingSpec failed: %v", err)
	}
	return s
}

func TestExtractCompleteness(t *testing.T) {
	s := testSpec(t)
	v, err := Extract(context.Background(), s, &pathFetcher{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Exactly 48 shading-mask keys, shading_mask_00..shading_mask_47.
	for i := 0; i < 48; i++ {
		key := fmt.Sprintf("feature.geometry.shading_mask_%02d", i)
		if _, ok := v[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}
	if _, ok := v["feature.geometry.shading_mask_48"]; ok {
		t.Error("unexpected key feature.geometry.shading_mask_48")
	}

	fixed := []string{
		"feature.geometry.long_edge",
		"feature.geometry.short_edge",
		"feature.geometry.orientation",
		"feature.geometry.orientation.cos",
		"feature.geometry.orientation.sin",
		"feature.geometry.aspect_ratio",
		"feature.geometry.wwr",
		"feature.geometry.num_floors",
		"feature.geometry.f2f_height",
		"feature.geometry.zoning",
		"feature.geometry.energy_model_conditioned_area",
		"feature.geometry.energy_model_occupied_area",
		"feature.geometry.attic_height",
		"feature.geometry.exposed_basement_frac",
		"feature.weather.file",
		"feature.extra_spaces.basement.exists",
		"feature.extra_spaces.basement.occupied",
		"feature.extra_spaces.basement.conditioned",
		"feature.extra_spaces.basement.use_fraction",
		"feature.extra_spaces.attic.exists",
		"feature.extra_spaces.attic.occupied",
		"feature.extra_spaces.attic.conditioned",
		"feature.extra_spaces.attic.use_fraction",
	}
	for _, key := range fixed {
		if _, ok := v[key]; !ok {
			t.Errorf("missing key %s", key)
		}
	}

	// One semantic key per context entry, namespaced verbatim.
	if got := v["feature.semantic.vintage"]; got != "pre-1980" {
		t.Errorf("feature.semantic.vintage = %v, want %q", got, "pre-1980")
	}
	if got := v["feature.semantic.wall_type"]; got != "mass" {
		t.Errorf("feature.semantic.wall_type = %v, want %q", got, "mass")
	}

	// No fewer, no more: fixed keys + 48 mask bins + 2 semantic keys.
	want := len(fixed) + 48 + 2
	if len(v) != want {
		t.Errorf("feature count = %d, want %d", len(v), want)
	}
}

func TestExtractValues(t *testing.T) {
	s := testSpec(t)
	v, err := Extract(context.Background(), s, &pathFetcher{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if got := v["feature.geometry.long_edge"]; got != 15.0 {
		t.Errorf("long_edge = %v, want 15", got)
	}
	if got := v["feature.geometry.orientation.cos"]; got != 1.0 {
		t.Errorf("orientation.cos = %v, want 1", got)
	}
	if got := v["feature.geometry.orientation.sin"]; got != 0.0 {
		t.Errorf("orientation.sin = %v, want 0", got)
	}
	if got := v["feature.geometry.zoning"]; got != spec.ZoningByStorey {
		t.Errorf("zoning = %v, want %q", got, spec.ZoningByStorey)
	}
	if got := v["feature.geometry.energy_model_conditioned_area"]; got != 300.0 {
		t.Errorf("conditioned area = %v, want 300", got)
	}
	if got := v["feature.geometry.attic_height"]; got != 0.0 {
		t.Errorf("attic_height = %v, want 0 without attic", got)
	}
	if got := v["feature.weather.file"]; got != "boston_tmy3" {
		t.Errorf("weather file = %v, want %q", got, "boston_tmy3")
	}
	if got := v["feature.extra_spaces.basement.exists"]; got != "No" {
		t.Errorf("basement.exists = %v, want No (string, not bool)", got)
	}
	if got := v["feature.extra_spaces.basement.use_fraction"]; got != 0.0 {
		t.Errorf("basement.use_fraction = %v, want 0", got)
	}
}

func TestExtractMemoizesWeatherFetch(t *testing.T) {
	s := testSpec(t)
	f := &pathFetcher{}
	if _, err := Extract(context.Background(), s, f); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if _, err := Extract(context.Background(), s, f); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if f.calls != 1 {
		t.Errorf("weather fetches = %d, want 1 (memoized per instance)", f.calls)
	}
}

func TestExtractStableAcrossReads(t *testing.T) {
	m := spec.DefaultMinimalBuildingSpec()
	m.Basement = spec.StatusOccupiedConditioned
	m.Attic = spec.StatusOccupiedConditioned
	m.SemanticFieldContext = map[string]any{}
	m.EPWZipFile = "local.epwzip"
	s, err := m.BuildingSpec()
	if err != nil {
		t.Fatalf("BuildingSpec failed: %v", err)
	}

	f := &pathFetcher{}
	first, err := Extract(context.Background(), s, f)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	second, err := Extract(context.Background(), s, f)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	for _, key := range []string{
		"feature.extra_spaces.basement.use_fraction",
		"feature.extra_spaces.attic.use_fraction",
		"feature.geometry.attic_height",
	} {
		if first[key] != second[key] {
			t.Errorf("%s = %v then %v, want stable within one instance", key, first[key], second[key])
		}
	}
}
