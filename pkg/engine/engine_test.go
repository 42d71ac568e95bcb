package engine

import (
	"math"
	"testing"
)

func testResults() *Results {
	heating := [MonthsPerYear]float64{}
	for i := range heating {
		heating[i] = float64(i + 1)
	}
	return &Results{
		BuildingID:   "bldg-0001",
		ExperimentID: "exp-1",
		EndUses:      map[string][MonthsPerYear]float64{"heating": heating},
		Peaks:        map[string]float64{"heating": 4.2},
	}
}

func TestAnnualTotal(t *testing.T) {
	r := testResults()
	// 1+2+...+12
	if got := r.AnnualTotal("heating"); math.Abs(got-78) > 1e-9 {
		t.Errorf("AnnualTotal(heating) = %v, want 78", got)
	}
	if got := r.AnnualTotal("cooling"); got != 0 {
		t.Errorf("AnnualTotal(cooling) = %v, want 0", got)
	}
	annual := r.Annual()
	if annual["heating"] != 78 {
		t.Errorf("Annual()[heating] = %v, want 78", annual["heating"])
	}
}

func TestFlatten(t *testing.T) {
	r := testResults()
	flat := r.Flatten()
	if flat["building_id"] != "bldg-0001" {
		t.Errorf("building_id = %v, want bldg-0001", flat["building_id"])
	}
	if flat["result.end_use.heating.month_01"] != 1.0 {
		t.Errorf("month_01 = %v, want 1.0", flat["result.end_use.heating.month_01"])
	}
	if flat["result.end_use.heating.month_12"] != 12.0 {
		t.Errorf("month_12 = %v, want 12.0", flat["result.end_use.heating.month_12"])
	}
	if flat["result.end_use.heating.annual"] != 78.0 {
		t.Errorf("annual = %v, want 78.0", flat["result.end_use.heating.annual"])
	}
	if flat["result.peak.heating"] != 4.2 {
		t.Errorf("peak = %v, want 4.2", flat["result.peak.heating"])
	}
	if _, ok := flat["result.hourly_ref"]; ok {
		t.Error("hourly_ref present, want absent when empty")
	}
	// building_id + experiment_id + 12 months + annual + peak
	if len(flat) != 16 {
		t.Errorf("len(flat) = %d, want 16", len(flat))
	}
}
