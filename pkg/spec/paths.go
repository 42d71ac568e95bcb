package spec

import (
	"context"

	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
)

// The four file references are resolved to local paths at most once per
// BuildingSpec instance: remote fetches are the only blocking I/O in the
// per-building pipeline and must not repeat when multiple consumers (the
// feature extractor, the zone compiler) need the same file.

// DBPath resolves the component database reference to a local path.
func (s *BuildingSpec) DBPath(ctx context.Context, f fileref.Fetcher) (string, error) {
	return s.resolveOnce(ctx, f, s.DBFile, &s.resolvedDB)
}

// SemanticFieldsPath resolves the semantic fields reference to a local path.
func (s *BuildingSpec) SemanticFieldsPath(ctx context.Context, f fileref.Fetcher) (string, error) {
	return s.resolveOnce(ctx, f, s.SemanticFieldsFile, &s.resolvedSemantic)
}

// ComponentMapPath resolves the component map reference to a local path.
func (s *BuildingSpec) ComponentMapPath(ctx context.Context, f fileref.Fetcher) (string, error) {
	return s.resolveOnce(ctx, f, s.ComponentMapFile, &s.resolvedMap)
}

// EPWZipPath resolves the weather archive reference to a local path.
func (s *BuildingSpec) EPWZipPath(ctx context.Context, f fileref.Fetcher) (string, error) {
	return s.resolveOnce(ctx, f, s.EPWZipFile, &s.resolvedEPW)
}

func (s *BuildingSpec) resolveOnce(ctx context.Context, f fileref.Fetcher, ref fileref.Reference, slot **string) (string, error) {
	s.mu.Lock()
	if *slot != nil {
		path := **slot
		s.mu.Unlock()
		return path, nil
	}
	s.mu.Unlock()

	// Fetch outside the lock: a slow download must not serialize the
	// unrelated randomized accessors.
	path, err := f.Fetch(ctx, ref)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if *slot == nil {
		*slot = &path
	} else {
		path = **slot
	}
	s.mu.Unlock()
	return path, nil
}
