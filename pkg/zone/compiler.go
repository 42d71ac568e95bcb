package zone

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"

	_ "modernc.org/sqlite"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
)

// ErrDatabaseNotFound is returned when the component database is missing
// at resolution time. Fatal for the building; not retried.
var ErrDatabaseNotFound = errors.New("component database not found")

// Compiler resolves zone definitions against the component database.
//
// The compiler deliberately holds no database handle: every Compile call
// opens the database fresh, performs its lookups, and closes it on every
// exit path. The database file may be hot-swapped between calls in a
// long-lived process and each call must observe the update, so staleness
// correctness wins over connection reuse here.
type Compiler struct {
	Fetcher fileref.Fetcher
}

// NewCompiler creates a compiler resolving file references through f.
func NewCompiler(f fileref.Fetcher) *Compiler {
	return &Compiler{Fetcher: f}
}

// Compile resolves the zone definition for one building: it fetches the
// component database and component map (memoized on the spec instance),
// loads the selection document, and matches the semantic field context to
// one component per slot.
func (c *Compiler) Compile(ctx context.Context, s *spec.BuildingSpec) (*Definition, error) {
	dbPath, err := s.DBPath(ctx, c.Fetcher)
	if err != nil {
		return nil, err
	}
	mapPath, err := s.ComponentMapPath(ctx, c.Fetcher)
	if err != nil {
		return nil, err
	}

	sel, err := LoadSelector(mapPath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		log.Printf("component database not found: %s", dbPath)
		return nil, fmt.Errorf("%w: %s", ErrDatabaseNotFound, dbPath)
	}
	log.Printf("loading component database: %s (modified: %s, size: %d bytes)",
		dbPath, info.ModTime().Format("2006-01-02 15:04:05"), info.Size())

	// Fresh connection per call; closed before returning so the file is
	// never left locked for a subsequent caller.
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening component database: %w", err)
	}
	defer db.Close()

	def := &Definition{
		ZoneName:     sel.ZoneName,
		BuildingID:   s.BuildingID,
		ExperimentID: s.ExperimentID,
	}
	for _, slot := range sel.Slots {
		comp, err := lookupComponent(ctx, db, slot.Name, s)
		if err != nil {
			return nil, err
		}
		def.Components = append(def.Components, comp)
	}
	return def, nil
}

// candidate accumulates one component's assignment constraints during a
// slot lookup.
type candidate struct {
	id          int64
	name        string
	payload     []byte
	assignments map[string]string
}

// lookupComponent selects the component for one slot: a component matches
// when every one of its field assignments equals the context value. Among
// matches the most specific (most assignments) wins, ties broken by name
// for determinism.
func lookupComponent(ctx context.Context, db *sql.DB, slot string, s *spec.BuildingSpec) (ResolvedComponent, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT c.id, c.name, c.payload, a.field, a.value
		FROM components c
		LEFT JOIN component_assignments a ON a.component_id = c.id
		WHERE c.slot = ?
		ORDER BY c.id`, slot)
	if err != nil {
		return ResolvedComponent{}, fmt.Errorf("querying %s components: %w", slot, err)
	}
	defer rows.Close()

	byID := make(map[int64]*candidate)
	var order []int64
	for rows.Next() {
		var (
			id           int64
			name         string
			payload      sql.NullString
			field, value sql.NullString
		)
		if err := rows.Scan(&id, &name, &payload, &field, &value); err != nil {
			return ResolvedComponent{}, fmt.Errorf("scanning %s component: %w", slot, err)
		}
		cand, ok := byID[id]
		if !ok {
			cand = &candidate{
				id:          id,
				name:        name,
				payload:     []byte(payload.String),
				assignments: make(map[string]string),
			}
			byID[id] = cand
			order = append(order, id)
		}
		if field.Valid {
			cand.assignments[field.String] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return ResolvedComponent{}, fmt.Errorf("reading %s components: %w", slot, err)
	}

	var best *candidate
	for _, id := range order {
		cand := byID[id]
		if !matchesContext(cand.assignments, s.SemanticFieldContext) {
			continue
		}
		if best == nil ||
			len(cand.assignments) > len(best.assignments) ||
			(len(cand.assignments) == len(best.assignments) && cand.name < best.name) {
			best = cand
		}
	}
	if best == nil {
		return ResolvedComponent{}, &ConstructabilityError{
			BuildingID:   s.BuildingID,
			ExperimentID: s.ExperimentID,
			Slot:         slot,
			Context:      s.SemanticFieldContext,
		}
	}

	comp := ResolvedComponent{Slot: slot, Name: best.name}
	if len(best.payload) > 0 {
		comp.Payload = json.RawMessage(best.payload)
	}
	return comp, nil
}

// matchesContext reports whether every assignment equals the context value.
// Numeric context values compare by their canonical string form.
func matchesContext(assignments map[string]string, context map[string]any) bool {
	for field, want := range assignments {
		got, ok := context[field]
		if !ok {
			return false
		}
		if contextValueString(got) != want {
			return false
		}
	}
	return true
}

func contextValueString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		// Render integral floats without a trailing ".0" so YAML-sourced
		// and JSON-sourced contexts compare identically.
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	case int:
		return fmt.Sprintf("%d", x)
	case int64:
		return fmt.Sprintf("%d", x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// sortedContextFields returns the context keys in stable order, used by
// callers that log or fingerprint contexts.
func sortedContextFields(context map[string]any) []string {
	fields := make([]string, 0, len(context))
	for k := range context {
		fields = append(fields, k)
	}
	sort.Strings(fields)
	return fields
}

// ContextSignature is a stable fingerprint of a semantic field context,
// used to deduplicate constructability checks across a batch.
func ContextSignature(context map[string]any) string {
	sig := ""
	for _, k := range sortedContextFields(context) {
		sig += k + "=" + contextValueString(context[k]) + ";"
	}
	return sig
}
