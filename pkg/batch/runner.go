package batch

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/MITSustainableDesignLab/globi/pkg/engine"
	"github.com/MITSustainableDesignLab/globi/pkg/features"
	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
	"github.com/MITSustainableDesignLab/globi/pkg/zone"
)

// ZoneCompiler resolves a building's zone definition.
type ZoneCompiler interface {
	Compile(ctx context.Context, s *spec.BuildingSpec) (*zone.Definition, error)
}

// Runner executes the per-building pipeline for an allocated batch:
// feature extraction, zone compilation, and simulation.
type Runner struct {
	Engine   engine.Engine
	Compiler ZoneCompiler
	Fetcher  fileref.Fetcher

	// Concurrency caps the number of buildings in flight; <= 0 means 4.
	Concurrency int

	// SkipConstructabilityCheck disables the batch-level pre-check that
	// every semantic field context compiles before any simulation runs.
	SkipConstructabilityCheck bool
}

// BuildingError records one building's pipeline failure.
type BuildingError struct {
	BuildingID   string
	ExperimentID string
	Err          error
}

func (e *BuildingError) Error() string {
	return fmt.Sprintf("building %s (experiment %s): %v", e.BuildingID, e.ExperimentID, e.Err)
}

func (e *BuildingError) Unwrap() error { return e.Err }

// Row is one completed building pipeline.
type Row struct {
	Spec     *spec.BuildingSpec
	Features features.Vector
	Results  *engine.Results
}

// Report collects a batch's outcomes. Rows are ordered by sort index;
// failed buildings appear in Errors instead.
type Report struct {
	ExperimentID string
	Rows         []Row
	Errors       []*BuildingError
}

// FeatureRows returns the feature vectors of the completed rows.
func (r *Report) FeatureRows() []features.Vector {
	out := make([]features.Vector, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Features
	}
	return out
}

// ResultRows returns the flattened simulation results of the completed
// rows.
func (r *Report) ResultRows() []features.Vector {
	out := make([]features.Vector, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = row.Results.Flatten()
	}
	return out
}

// Run executes the pipeline for every spec in the allocation. Building
// failures are recorded per building rather than aborting the batch; a
// non-nil error is returned only for batch-level failures such as a
// failed constructability pre-check.
func (r *Runner) Run(ctx context.Context, alloc *Allocation) (*Report, error) {
	if !r.SkipConstructabilityCheck {
		if err := r.precheck(ctx, alloc.Specs); err != nil {
			return nil, err
		}
	}

	limit := r.Concurrency
	if limit <= 0 {
		limit = 4
	}

	report := &Report{ExperimentID: alloc.ExperimentID}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, s := range alloc.Specs {
		s := s
		g.Go(func() error {
			row, err := r.runBuilding(gctx, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("building %s failed: %v", s.BuildingID, err)
				report.Errors = append(report.Errors, &BuildingError{
					BuildingID:   s.BuildingID,
					ExperimentID: s.ExperimentID,
					Err:          err,
				})
				return nil
			}
			report.Rows = append(report.Rows, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(report.Rows, func(i, j int) bool {
		return report.Rows[i].Spec.SortIndex < report.Rows[j].Spec.SortIndex
	})
	return report, nil
}

func (r *Runner) runBuilding(ctx context.Context, s *spec.BuildingSpec) (Row, error) {
	vector, err := features.Extract(ctx, s, r.Fetcher)
	if err != nil {
		return Row{}, fmt.Errorf("extracting features: %w", err)
	}
	def, err := r.Compiler.Compile(ctx, s)
	if err != nil {
		return Row{}, fmt.Errorf("compiling zone: %w", err)
	}
	weatherPath, err := s.EPWZipPath(ctx, r.Fetcher)
	if err != nil {
		return Row{}, fmt.Errorf("resolving weather file: %w", err)
	}
	results, err := r.Engine.Simulate(ctx, def, weatherPath, s)
	if err != nil {
		return Row{}, fmt.Errorf("simulating: %w", err)
	}
	return Row{Spec: s, Features: vector, Results: results}, nil
}

// precheck compiles one representative building per distinct semantic
// field context before any simulation starts, so an unconstructable
// context fails the batch early instead of midway through.
func (r *Runner) precheck(ctx context.Context, specs []*spec.BuildingSpec) error {
	seen := make(map[string]bool)
	for _, s := range specs {
		sig := zone.ContextSignature(s.SemanticFieldContext)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		if _, err := r.Compiler.Compile(ctx, s); err != nil {
			return fmt.Errorf("constructability check: %w", err)
		}
	}
	log.Printf("constructability check passed for %d distinct contexts", len(seen))
	return nil
}
