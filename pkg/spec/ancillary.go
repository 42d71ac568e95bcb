package spec

import "math/rand"

// Ancillary-space sampling bounds. The attic rise-over-run ranges differ by
// occupancy, and a candidate attic taller than 2.5x the floor-to-floor
// height is rejected and redrawn, up to atticHeightAttempts times.
const (
	useFractionMin = 0.2
	useFractionMax = 0.6

	occupiedRiseOverRunMin   = 6.0 / 12.0
	occupiedRiseOverRunMax   = 9.0 / 12.0
	unoccupiedRiseOverRunMin = 4.0 / 12.0
	unoccupiedRiseOverRunMax = 6.0 / 12.0

	atticHeightF2FLimit = 2.5
	atticHeightAttempts = 20
)

// uniform draws from [lo, hi).
func uniform(lo, hi float64) float64 {
	return lo + rand.Float64()*(hi-lo)
}

// HasBasement reports whether the building has a basement.
func (s *BuildingSpec) HasBasement() bool {
	return s.Basement.Exists()
}

// HasAttic reports whether the building has an attic.
func (s *BuildingSpec) HasAttic() bool {
	return s.Attic.Exists()
}

// BasementIsOccupied reports whether the basement is occupied.
func (s *BuildingSpec) BasementIsOccupied() bool {
	return s.Basement.Occupied()
}

// BasementIsConditioned reports whether the basement is conditioned.
func (s *BuildingSpec) BasementIsConditioned() bool {
	return s.Basement.Conditioned()
}

// AtticIsOccupied reports whether the attic is occupied.
func (s *BuildingSpec) AtticIsOccupied() bool {
	return s.Attic.Occupied()
}

// AtticIsConditioned reports whether the attic is conditioned.
func (s *BuildingSpec) AtticIsConditioned() bool {
	return s.Attic.Conditioned()
}

// BasementUseFraction returns the usable fraction of the basement: 0 when
// the basement is not occupied, otherwise a draw from [0.2, 0.6). The draw
// happens at most once per instance; repeated reads return the same value.
// Two instances with identical inputs may draw different values.
func (s *BuildingSpec) BasementUseFraction() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.basementUseFrac == nil {
		f := 0.0
		if s.BasementIsOccupied() {
			f = uniform(useFractionMin, useFractionMax)
		}
		s.basementUseFrac = &f
	}
	return *s.basementUseFrac
}

// AtticUseFraction returns the usable fraction of the attic under the same
// policy as BasementUseFraction.
func (s *BuildingSpec) AtticUseFraction() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.atticUseFrac == nil {
		f := 0.0
		if s.AtticIsOccupied() {
			f = uniform(useFractionMin, useFractionMax)
		}
		s.atticUseFrac = &f
	}
	return *s.atticUseFrac
}

// AtticHeight returns the attic height, sampled once per instance. It is 0
// when the building has no attic. The sample is run * rise-over-run with
// run = short_edge / 2; a candidate above 2.5x the floor-to-floor height is
// rejected and redrawn. After 20 failed attempts the configuration is
// geometrically infeasible and a GeometricInfeasibilityError wrapping
// ErrAtticHeightUnsatisfiable is returned; no default is substituted.
func (s *BuildingSpec) AtticHeight() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.atticHeight != nil {
		return *s.atticHeight, nil
	}
	if !s.HasAttic() {
		zero := 0.0
		s.atticHeight = &zero
		return 0, nil
	}

	run := s.ShortEdge / 2
	occupiedOrConditioned := s.AtticIsOccupied() || s.AtticIsConditioned()
	for i := 0; i < atticHeightAttempts; i++ {
		var ratio float64
		if occupiedOrConditioned {
			ratio = uniform(occupiedRiseOverRunMin, occupiedRiseOverRunMax)
		} else {
			ratio = uniform(unoccupiedRiseOverRunMin, unoccupiedRiseOverRunMax)
		}
		h := run * ratio
		if h <= s.F2FHeight*atticHeightF2FLimit {
			s.atticHeight = &h
			return h, nil
		}
	}
	return 0, &GeometricInfeasibilityError{
		BuildingID:   s.BuildingID,
		ExperimentID: s.ExperimentID,
		ShortEdge:    s.ShortEdge,
		F2FHeight:    s.F2FHeight,
		Attempts:     atticHeightAttempts,
		Err:          ErrAtticHeightUnsatisfiable,
	}
}

// NConditionedFloors is the floor count plus one per conditioned ancillary
// space.
func (s *BuildingSpec) NConditionedFloors() int {
	n := s.NumFloors
	if s.BasementIsConditioned() {
		n++
	}
	if s.AtticIsConditioned() {
		n++
	}
	return n
}

// NOccupiedFloors is the floor count plus one per occupied ancillary space.
func (s *BuildingSpec) NOccupiedFloors() int {
	n := s.NumFloors
	if s.BasementIsOccupied() {
		n++
	}
	if s.AtticIsOccupied() {
		n++
	}
	return n
}

// EnergyModelFootprintArea is the fitted-rectangle footprint area.
func (s *BuildingSpec) EnergyModelFootprintArea() float64 {
	return s.LongEdge * s.ShortEdge
}

// EnergyModelConditionedArea is the total conditioned floor area.
func (s *BuildingSpec) EnergyModelConditionedArea() float64 {
	return float64(s.NConditionedFloors()) * s.EnergyModelFootprintArea()
}

// EnergyModelOccupiedArea is the total occupied floor area.
func (s *BuildingSpec) EnergyModelOccupiedArea() float64 {
	return float64(s.NOccupiedFloors()) * s.EnergyModelFootprintArea()
}

// Thermal zoning strategies. Footprints larger than 15 m on both edges are
// split into core and perimeter zones; smaller footprints get one zone per
// storey.
const (
	ZoningCorePerim = "core/perim"
	ZoningByStorey  = "by_storey"
)

// coreZoningMinEdge is the strict lower bound on both edges for
// core/perimeter zoning, in meters.
const coreZoningMinEdge = 15.0

// Zoning returns the thermal-zoning strategy for the footprint.
func (s *BuildingSpec) Zoning() string {
	if s.LongEdge > coreZoningMinEdge && s.ShortEdge > coreZoningMinEdge {
		return ZoningCorePerim
	}
	return ZoningByStorey
}
