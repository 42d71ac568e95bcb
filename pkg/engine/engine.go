// Package engine defines the boundary to the building-energy simulation
// engine. The orchestrator hands a compiled zone definition and a
// weather file to an Engine and gets annual results back; everything
// about how the simulation actually runs stays behind this interface.
package engine

import (
	"context"
	"fmt"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
	"github.com/MITSustainableDesignLab/globi/pkg/zone"
)

// MonthsPerYear is the length of every monthly series in Results.
const MonthsPerYear = 12

// Results holds the simulation output for one building.
type Results struct {
	BuildingID   string `json:"building_id"`
	ExperimentID string `json:"experiment_id"`

	// EndUses maps an end-use name (heating, cooling, lighting, ...)
	// to its monthly energy in kWh.
	EndUses map[string][MonthsPerYear]float64 `json:"end_uses"`

	// Peaks maps an end-use name to its annual peak demand in kW.
	Peaks map[string]float64 `json:"peaks"`

	// HourlyRef points at the stored hourly output, when the run was
	// configured to produce one.
	HourlyRef fileref.Reference `json:"hourly_ref,omitempty"`
}

// AnnualTotal sums the monthly series for one end use.
func (r *Results) AnnualTotal(endUse string) float64 {
	var total float64
	for _, v := range r.EndUses[endUse] {
		total += v
	}
	return total
}

// Annual sums every end use into a single annual figure per use.
func (r *Results) Annual() map[string]float64 {
	out := make(map[string]float64, len(r.EndUses))
	for name := range r.EndUses {
		out[name] = r.AnnualTotal(name)
	}
	return out
}

// Flatten renders the results as flat result.* columns suitable for a
// tabular store, alongside the building's feature columns.
func (r *Results) Flatten() map[string]any {
	out := map[string]any{
		"building_id":   r.BuildingID,
		"experiment_id": r.ExperimentID,
	}
	for name, series := range r.EndUses {
		for month, v := range series {
			out[fmt.Sprintf("result.end_use.%s.month_%02d", name, month+1)] = v
		}
		out["result.end_use."+name+".annual"] = r.AnnualTotal(name)
	}
	for name, v := range r.Peaks {
		out["result.peak."+name] = v
	}
	if r.HourlyRef != "" {
		out["result.hourly_ref"] = string(r.HourlyRef)
	}
	return out
}

// Engine runs one building simulation.
type Engine interface {
	Simulate(ctx context.Context, def *zone.Definition, weatherPath string, s *spec.BuildingSpec) (*Results, error)
}
