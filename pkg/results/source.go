package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Artifact names stored per run version.
const (
	ResultsArtifact   = "results.csv"
	FeaturesArtifact  = "features.csv"
	LocationsArtifact = "locations.csv"
)

// Source provides read access to stored experiment results. The two
// implementations are local-directory and object-store backed; which
// one a caller gets is decided once, by NewSource.
type Source interface {
	// ListRuns names the runs available from this source.
	ListRuns(ctx context.Context) ([]string, error)
	// LoadRun loads the result table for one run.
	LoadRun(ctx context.Context, run string) (*Table, error)
	// LoadLocations loads the shared locations table, or (nil, nil)
	// when the source has none.
	LoadLocations(ctx context.Context) (*Table, error)
}

// LocalConfig points a source at a directory of run subdirectories,
// each holding a results.csv.
type LocalConfig struct {
	BaseDir string `yaml:"base_dir"`
}

// RemoteConfig points a source at the object store. An empty Version
// means latest per run.
type RemoteConfig struct {
	Settings StorageSettings `yaml:"storage"`
	Version  string          `yaml:"version"`
	CacheDir string          `yaml:"cache_dir"`
}

// SourceConfig selects exactly one source variant.
type SourceConfig struct {
	Local  *LocalConfig  `yaml:"local"`
	Remote *RemoteConfig `yaml:"remote"`
}

// NewSource builds the source variant the config selects. Exactly one
// of Local and Remote must be set.
func NewSource(cfg SourceConfig) (Source, error) {
	switch {
	case cfg.Local != nil && cfg.Remote != nil:
		return nil, fmt.Errorf("source config selects both local and remote")
	case cfg.Local != nil:
		return &localSource{baseDir: cfg.Local.BaseDir}, nil
	case cfg.Remote != nil:
		store, err := NewStore(cfg.Remote.Settings)
		if err != nil {
			return nil, err
		}
		cacheDir := cfg.Remote.CacheDir
		if cacheDir == "" {
			cacheDir = filepath.Join(os.TempDir(), "globi-results")
		}
		return &remoteSource{store: store, version: cfg.Remote.Version, cacheDir: cacheDir}, nil
	default:
		return nil, fmt.Errorf("source config selects neither local nor remote")
	}
}

type localSource struct {
	baseDir string
}

func (s *localSource) ListRuns(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("listing runs in %s: %w", s.baseDir, err)
	}
	var runs []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.baseDir, e.Name(), ResultsArtifact)); err == nil {
			runs = append(runs, e.Name())
		}
	}
	sort.Strings(runs)
	return runs, nil
}

func (s *localSource) LoadRun(ctx context.Context, run string) (*Table, error) {
	return LoadCSV(filepath.Join(s.baseDir, run, ResultsArtifact))
}

func (s *localSource) LoadLocations(ctx context.Context) (*Table, error) {
	path := filepath.Join(s.baseDir, LocationsArtifact)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return LoadCSV(path)
}

type remoteSource struct {
	store    *Store
	version  string
	cacheDir string
}

func (s *remoteSource) ListRuns(ctx context.Context) ([]string, error) {
	return s.store.ListRuns(ctx)
}

func (s *remoteSource) LoadRun(ctx context.Context, run string) (*Table, error) {
	version, err := s.runVersion(ctx, run)
	if err != nil {
		return nil, err
	}
	local := filepath.Join(s.cacheDir, run, version.String(), ResultsArtifact)
	if _, err := os.Stat(local); err != nil {
		if err := s.store.GetArtifact(ctx, run, version, ResultsArtifact, local); err != nil {
			return nil, err
		}
	}
	return LoadCSV(local)
}

func (s *remoteSource) LoadLocations(ctx context.Context) (*Table, error) {
	return nil, nil
}

func (s *remoteSource) runVersion(ctx context.Context, run string) (Version, error) {
	if s.version == "" {
		return s.store.LatestVersion(ctx, run)
	}
	return ParseVersion(s.version)
}
