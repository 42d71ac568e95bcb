package spec

import (
	"errors"
	"fmt"
)

// ErrAtticHeightUnsatisfiable is returned when attic-height sampling cannot
// find a valid height within its attempt budget: the short-edge/f2f-height
// combination makes a valid attic geometrically impossible under the
// sampling bounds.
var ErrAtticHeightUnsatisfiable = errors.New("attic height unsatisfiable: no sample below 2.5x f2f height")

// ValidationError reports a violated invariant on a building specification.
// It identifies the offending field and, where known, the building and
// experiment so a failing row can be located within a batch.
type ValidationError struct {
	Field        string
	Value        any
	Expected     string
	BuildingID   string
	ExperimentID string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: got %v, want %s", e.Field, e.Value, e.Expected)
	if e.BuildingID != "" {
		msg += fmt.Sprintf(" (building %s", e.BuildingID)
		if e.ExperimentID != "" {
			msg += fmt.Sprintf(", experiment %s", e.ExperimentID)
		}
		msg += ")"
	}
	return msg
}

// GeometricInfeasibilityError is fatal for a single building: a randomized
// geometric derivation exhausted its retry budget.
type GeometricInfeasibilityError struct {
	BuildingID   string
	ExperimentID string
	ShortEdge    float64
	F2FHeight    float64
	Attempts     int
	Err          error
}

func (e *GeometricInfeasibilityError) Error() string {
	return fmt.Sprintf("building %s (experiment %s): %v after %d attempts (short_edge=%g, f2f_height=%g)",
		e.BuildingID, e.ExperimentID, e.Err, e.Attempts, e.ShortEdge, e.F2FHeight)
}

func (e *GeometricInfeasibilityError) Unwrap() error {
	return e.Err
}
