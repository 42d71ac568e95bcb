package results

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/MITSustainableDesignLab/globi/pkg/features"
)

func TestParseVersion(t *testing.T) {
	cases := []struct {
		in   string
		want Version
	}{
		{"v1.2.3", Version{1, 2, 3}},
		{"1.2.3", Version{1, 2, 3}},
		{"v2", Version{2, 0, 0}},
		{"0.0.1", Version{0, 0, 1}},
	}
	for _, c := range cases {
		got, err := ParseVersion(c.in)
		if err != nil {
			t.Fatalf("ParseVersion(%q) error = %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseVersion(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseVersionRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "banana", "v1.x.0"} {
		if _, err := ParseVersion(in); err == nil {
			t.Errorf("ParseVersion(%q) error = nil, want error", in)
		}
	}
}

func TestVersionOrdering(t *testing.T) {
	vs := []Version{{1, 0, 0}, {0, 9, 9}, {1, 0, 2}, {0, 10, 0}}
	SortVersions(vs)
	want := []Version{{0, 9, 9}, {0, 10, 0}, {1, 0, 0}, {1, 0, 2}}
	if !reflect.DeepEqual(vs, want) {
		t.Errorf("SortVersions = %v, want %v", vs, want)
	}
	latest, ok := Latest(vs)
	if !ok || latest != (Version{1, 0, 2}) {
		t.Errorf("Latest = %v, %v, want {1 0 2}, true", latest, ok)
	}
	if got := latest.NextPatch(); got != (Version{1, 0, 3}) {
		t.Errorf("NextPatch = %v, want {1 0 3}", got)
	}
}

func TestTableCSVRoundTrip(t *testing.T) {
	src := &Table{
		Columns: []string{"building_id", "feature.geometry.long_edge"},
		Rows: [][]any{
			{"bldg-0001", 15.0},
			{"bldg-0002", 22.5},
		},
	}
	var buf bytes.Buffer
	if err := src.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV error = %v", err)
	}
	got, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("ReadCSV error = %v", err)
	}
	if !reflect.DeepEqual(got.Columns, src.Columns) {
		t.Errorf("Columns = %v, want %v", got.Columns, src.Columns)
	}
	if got.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", got.NumRows())
	}
	if got.Rows[1][1] != "22.5" {
		t.Errorf("Rows[1][1] = %v, want 22.5", got.Rows[1][1])
	}
	if i := got.Column("building_id"); i != 0 {
		t.Errorf("Column(building_id) = %d, want 0", i)
	}
	if i := got.Column("missing"); i != -1 {
		t.Errorf("Column(missing) = %d, want -1", i)
	}
}

func TestFromFeatureRows(t *testing.T) {
	rows := []features.Vector{
		{"feature.geometry.long_edge": 15.0, "feature.semantic.Vintage": "pre-1980"},
		{"feature.geometry.long_edge": 20.0},
	}
	table := FromFeatureRows(rows)
	want := []string{"feature.geometry.long_edge", "feature.semantic.Vintage"}
	if !reflect.DeepEqual(table.Columns, want) {
		t.Errorf("Columns = %v, want %v", table.Columns, want)
	}
	if table.Rows[1][1] != "" {
		t.Errorf("missing cell = %v, want empty string", table.Rows[1][1])
	}
	if table.Rows[0][0] != 15.0 {
		t.Errorf("Rows[0][0] = %v, want 15.0", table.Rows[0][0])
	}
}

func TestLocalSource(t *testing.T) {
	base := t.TempDir()
	for _, run := range []string{"baseline", "retrofit"} {
		dir := filepath.Join(base, run)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		table := &Table{Columns: []string{"building_id"}, Rows: [][]any{{run}}}
		if err := table.SaveCSV(filepath.Join(dir, ResultsArtifact)); err != nil {
			t.Fatal(err)
		}
	}
	// A directory without results is not a run.
	if err := os.MkdirAll(filepath.Join(base, "scratch"), 0o755); err != nil {
		t.Fatal(err)
	}

	src, err := NewSource(SourceConfig{Local: &LocalConfig{BaseDir: base}})
	if err != nil {
		t.Fatalf("NewSource error = %v", err)
	}
	ctx := context.Background()

	runs, err := src.ListRuns(ctx)
	if err != nil {
		t.Fatalf("ListRuns error = %v", err)
	}
	if !reflect.DeepEqual(runs, []string{"baseline", "retrofit"}) {
		t.Errorf("ListRuns = %v, want [baseline retrofit]", runs)
	}

	table, err := src.LoadRun(ctx, "retrofit")
	if err != nil {
		t.Fatalf("LoadRun error = %v", err)
	}
	if table.Rows[0][0] != "retrofit" {
		t.Errorf("LoadRun cell = %v, want retrofit", table.Rows[0][0])
	}

	locations, err := src.LoadLocations(ctx)
	if err != nil {
		t.Fatalf("LoadLocations error = %v", err)
	}
	if locations != nil {
		t.Errorf("LoadLocations = %v, want nil when absent", locations)
	}
}

func TestNewSourceRejectsAmbiguousConfig(t *testing.T) {
	if _, err := NewSource(SourceConfig{}); err == nil {
		t.Error("NewSource(empty) error = nil, want error")
	}
	cfg := SourceConfig{
		Local:  &LocalConfig{BaseDir: "."},
		Remote: &RemoteConfig{},
	}
	if _, err := NewSource(cfg); err == nil {
		t.Error("NewSource(both) error = nil, want error")
	}
}
