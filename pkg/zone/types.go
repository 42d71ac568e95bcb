// Package zone compiles a resolved building spec into the simulation-ready
// zone definition by matching the spec's semantic field context against the
// component database.
package zone

import (
	"encoding/json"
	"fmt"
)

// Definition is the resolved zone handed to the external simulation engine.
// Beyond carrying the selected component tree it is opaque to this core.
type Definition struct {
	ZoneName     string              `json:"zone_name"`
	BuildingID   string              `json:"building_id"`
	ExperimentID string              `json:"experiment_id"`
	Components   []ResolvedComponent `json:"components"`
}

// ResolvedComponent is one selected component of the zone tree.
type ResolvedComponent struct {
	Slot    string          `json:"slot"`
	Name    string          `json:"name"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ConstructabilityError reports a semantic field context that cannot be
// matched to any registered component combination. It identifies the
// building so failing rows in a batch are visible without losing the rest.
type ConstructabilityError struct {
	BuildingID   string
	ExperimentID string
	Slot         string
	Context      map[string]any
}

func (e *ConstructabilityError) Error() string {
	return fmt.Sprintf("building %s (experiment %s): no %s component matches semantic context %v",
		e.BuildingID, e.ExperimentID, e.Slot, e.Context)
}
