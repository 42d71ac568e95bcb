package spec

// Status describes the occupation and conditioning of a basement or attic.
// It is a closed set: anything outside it fails validation.
type Status string

const (
	StatusNone                    Status = "none"
	StatusUnoccupiedUnconditioned Status = "unoccupied_unconditioned"
	StatusOccupiedUnconditioned   Status = "occupied_unconditioned"
	StatusUnoccupiedConditioned   Status = "unoccupied_conditioned"
	StatusOccupiedConditioned     Status = "occupied_conditioned"
)

// OccupiedOptions is the set of statuses that count as occupied.
var OccupiedOptions = map[Status]bool{
	StatusOccupiedUnconditioned: true,
	StatusOccupiedConditioned:   true,
}

// ConditionedOptions is the set of statuses that count as conditioned.
var ConditionedOptions = map[Status]bool{
	StatusUnoccupiedConditioned: true,
	StatusOccupiedConditioned:   true,
}

// allStatuses is the closed set accepted by validation.
var allStatuses = map[Status]bool{
	StatusNone:                    true,
	StatusUnoccupiedUnconditioned: true,
	StatusOccupiedUnconditioned:   true,
	StatusUnoccupiedConditioned:   true,
	StatusOccupiedConditioned:     true,
}

// Valid reports whether s is a member of the closed status set.
func (s Status) Valid() bool {
	return allStatuses[s]
}

// Exists reports whether the space exists at all.
func (s Status) Exists() bool {
	return s != StatusNone
}

// Occupied reports whether the space is occupied. StatusNone is never
// occupied.
func (s Status) Occupied() bool {
	return OccupiedOptions[s]
}

// Conditioned reports whether the space is conditioned. StatusNone is never
// conditioned.
func (s Status) Conditioned() bool {
	return ConditionedOptions[s]
}
