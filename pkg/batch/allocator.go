// Package batch allocates building specs for an experiment and drives
// the per-building simulation pipeline concurrently.
package batch

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MITSustainableDesignLab/globi/pkg/experiment"
	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
)

// AllocateOptions adjusts how building specs are stamped out from GIS
// rows.
type AllocateOptions struct {
	// EPWZipOverride replaces every row's weather file when set.
	EPWZipOverride fileref.Reference

	// Contexts, when non-empty, turns the allocation into a grid run:
	// every row is stamped out once per semantic field context.
	Contexts []map[string]any
}

// Allocation is the outcome of allocating one experiment.
type Allocation struct {
	ExperimentID string
	Specs        []*spec.BuildingSpec
}

// Allocate assembles validated building specs for an experiment run. It
// mints a fresh experiment ID, assigns sequential sort indexes, and
// fills file references the GIS rows leave empty from the manifest.
// Any row failing validation aborts the allocation.
func Allocate(manifest *experiment.Spec, rows []spec.GISRow, opts AllocateOptions) (*Allocation, error) {
	experimentID := uuid.New().String()
	parent := manifest.Ref()

	contexts := opts.Contexts
	if len(contexts) == 0 {
		contexts = []map[string]any{nil}
	}

	alloc := &Allocation{ExperimentID: experimentID}
	sortIndex := 0
	for _, row := range rows {
		fillRowDefaults(&row, manifest, opts.EPWZipOverride)
		for _, context := range contexts {
			r := row
			if context != nil {
				r.SemanticFieldContext = context
			}
			s, err := spec.FromGISRow(r, experimentID, sortIndex, parent)
			if err != nil {
				return nil, fmt.Errorf("allocating building %s: %w", row.BuildingID, err)
			}
			alloc.Specs = append(alloc.Specs, s)
			sortIndex++
		}
	}
	return alloc, nil
}

func fillRowDefaults(row *spec.GISRow, manifest *experiment.Spec, epwOverride fileref.Reference) {
	if row.DBFile == "" {
		row.DBFile = manifest.Files.DBFile
	}
	if row.SemanticFieldsFile == "" {
		row.SemanticFieldsFile = manifest.Files.SemanticFieldsFile
	}
	if row.ComponentMapFile == "" {
		row.ComponentMapFile = manifest.Files.ComponentMapFile
	}
	if row.EPWZipFile == "" {
		row.EPWZipFile = manifest.Files.EPWZipFile
	}
	if epwOverride != "" {
		row.EPWZipFile = epwOverride
	}
}
