package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/MITSustainableDesignLab/globi/pkg/batch"
	"github.com/MITSustainableDesignLab/globi/pkg/engine"
	"github.com/MITSustainableDesignLab/globi/pkg/experiment"
	"github.com/MITSustainableDesignLab/globi/pkg/features"
	"github.com/MITSustainableDesignLab/globi/pkg/fileref"
	"github.com/MITSustainableDesignLab/globi/pkg/results"
	"github.com/MITSustainableDesignLab/globi/pkg/spec"
	"github.com/MITSustainableDesignLab/globi/pkg/validation"
	"github.com/MITSustainableDesignLab/globi/pkg/zone"
)

type simulateOptions struct {
	specPath   string
	epwzipFile string
	engineBin  string
	outputDir  string
	timeout    time.Duration
	dryRun     bool
}

type submitOptions struct {
	manifestPath         string
	scenario             string
	epwzipFile           string
	gridRun              bool
	maxTests             int
	skipConstructability bool
	concurrency          int
	outputDir            string
	engineBin            string
	upload               bool
}

type getOptions struct {
	run        string
	localDir   string
	version    string
	outputPath string
}

// newFetcher builds the shared file-reference resolver: a local cache
// directory plus object-store credentials from the environment.
func newFetcher() *fileref.Resolver {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		cacheDir = os.TempDir()
	}
	cacheDir = filepath.Join(cacheDir, "globi")

	st := results.SettingsFromEnv()
	return fileref.NewResolver(cacheDir,
		fileref.WithS3(st.Endpoint, st.AccessKey, st.SecretKey, st.UseSSL))
}

func sourceConfig(localDir, version string) results.SourceConfig {
	if localDir != "" {
		return results.SourceConfig{Local: &results.LocalConfig{BaseDir: localDir}}
	}
	return results.SourceConfig{Remote: &results.RemoteConfig{
		Settings: results.SettingsFromEnv(),
		Version:  version,
	}}
}

func runSimulate(ctx context.Context, opts simulateOptions) error {
	m := spec.DefaultMinimalBuildingSpec()
	if opts.specPath != "" {
		var err error
		m, err = spec.LoadMinimal(opts.specPath)
		if err != nil {
			return fmt.Errorf("loading building spec: %w", err)
		}
	}
	if opts.epwzipFile != "" {
		m.EPWZipFile = fileref.Reference(opts.epwzipFile)
	}

	s, err := m.BuildingSpec()
	if err != nil {
		return err
	}
	fetcher := newFetcher()

	vector, err := features.Extract(ctx, s, fetcher)
	if err != nil {
		return fmt.Errorf("extracting features: %w", err)
	}
	printFeatures(vector)

	var def *zone.Definition
	if s.DBFile != "" && s.ComponentMapFile != "" {
		def, err = zone.NewCompiler(fetcher).Compile(ctx, s)
		if err != nil {
			return fmt.Errorf("compiling zone: %w", err)
		}
		printZoneDefinition(def)
	} else {
		log.Printf("no component database configured; skipping zone compilation")
	}

	if opts.dryRun {
		return nil
	}
	if def == nil {
		return fmt.Errorf("simulation requires db_file and component_map_file")
	}
	if s.EPWZipFile == "" {
		return fmt.Errorf("simulation requires an epwzip file")
	}
	weatherPath, err := s.EPWZipPath(ctx, fetcher)
	if err != nil {
		return fmt.Errorf("resolving weather file: %w", err)
	}

	eng := &engine.ExecEngine{Binary: opts.engineBin, Timeout: opts.timeout}
	res, err := eng.Simulate(ctx, def, weatherPath, s)
	if err != nil {
		return err
	}
	printResultsSummary(res)

	if opts.outputDir != "" {
		return writeSimulationOutput(opts.outputDir, vector, res)
	}
	return nil
}

// writeSimulationOutput writes the single-building feature table and
// result JSON under dir, mirroring the layout of a batch output dir.
func writeSimulationOutput(dir string, vector features.Vector, res *engine.Results) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	table := results.FromFeatureRows([]features.Vector{vector})
	if err := table.SaveCSV(filepath.Join(dir, results.FeaturesArtifact)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding results: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "results.json"), data, 0o644)
}

func runSubmit(ctx context.Context, opts submitOptions) error {
	manifest, err := experiment.Load(opts.manifestPath)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}
	if opts.scenario != "" {
		manifest.Scenario = opts.scenario
	}

	report := validation.ValidateManifest(manifest)
	if !report.Valid {
		printValidationReport(report)
		return fmt.Errorf("manifest has validation errors")
	}

	fetcher := newFetcher()
	rows, err := loadGISRows(ctx, manifest.Files.GISFile, fetcher)
	if err != nil {
		return err
	}
	log.Printf("loaded %d GIS rows for experiment %q", len(rows), manifest.Name)

	var contexts []map[string]any
	if opts.gridRun {
		sfPath, err := fetcher.Fetch(ctx, manifest.Files.SemanticFieldsFile)
		if err != nil {
			return fmt.Errorf("resolving semantic fields: %w", err)
		}
		sf, err := experiment.LoadSemanticFields(sfPath)
		if err != nil {
			return err
		}
		contexts = sf.Combinations(opts.maxTests)
		log.Printf("grid run: %d semantic field combinations", len(contexts))
	}

	alloc, err := batch.Allocate(manifest, rows, batch.AllocateOptions{
		EPWZipOverride: fileref.Reference(opts.epwzipFile),
		Contexts:       contexts,
	})
	if err != nil {
		return err
	}
	log.Printf("allocated experiment %s with %d buildings", alloc.ExperimentID, len(alloc.Specs))

	runner := &batch.Runner{
		Engine:                    &engine.ExecEngine{Binary: opts.engineBin},
		Compiler:                  zone.NewCompiler(fetcher),
		Fetcher:                   fetcher,
		Concurrency:               opts.concurrency,
		SkipConstructabilityCheck: opts.skipConstructability,
	}
	batchReport, err := runner.Run(ctx, alloc)
	if err != nil {
		return err
	}

	outputDir := opts.outputDir
	if outputDir == "" {
		outputDir = filepath.Join("out", alloc.ExperimentID)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	featureTable := results.FromFeatureRows(batchReport.FeatureRows())
	resultTable := results.FromFeatureRows(batchReport.ResultRows())
	if err := featureTable.SaveCSV(filepath.Join(outputDir, results.FeaturesArtifact)); err != nil {
		return err
	}
	if err := resultTable.SaveCSV(filepath.Join(outputDir, results.ResultsArtifact)); err != nil {
		return err
	}

	printBatchSummary(batchReport, outputDir)

	if opts.upload {
		if err := uploadTables(ctx, manifest.Name, outputDir); err != nil {
			return err
		}
	}

	if len(batchReport.Errors) > 0 {
		return fmt.Errorf("%d of %d buildings failed", len(batchReport.Errors), len(alloc.Specs))
	}
	return nil
}

func uploadTables(ctx context.Context, run, outputDir string) error {
	store, err := results.NewStore(results.SettingsFromEnv())
	if err != nil {
		return err
	}
	version, err := store.NextVersion(ctx, run)
	if err != nil {
		return err
	}
	for _, name := range []string{results.FeaturesArtifact, results.ResultsArtifact} {
		local := filepath.Join(outputDir, name)
		if err := store.PutArtifactFile(ctx, run, version, name, local); err != nil {
			return err
		}
	}
	log.Printf("uploaded run %s as %s", run, version)
	return nil
}

func runValidate(ctx context.Context, manifestPath string, skipConstructability bool) error {
	manifest, err := experiment.Load(manifestPath)
	if err != nil {
		return fmt.Errorf("loading manifest: %w", err)
	}

	report := validation.ValidateManifest(manifest)
	if report.Valid && !skipConstructability {
		report.Merge(checkConstructability(ctx, manifest))
	}
	printValidationReport(report)

	if !report.Valid {
		os.Exit(1)
	}
	return nil
}

// checkConstructability compiles a placeholder building for every
// semantic field combination, surfacing contexts no component set can
// satisfy before any experiment is submitted.
func checkConstructability(ctx context.Context, manifest *experiment.Spec) *validation.Report {
	report := validation.NewReport()
	fetcher := newFetcher()

	sfPath, err := fetcher.Fetch(ctx, manifest.Files.SemanticFieldsFile)
	if err == nil {
		_, err = os.Stat(sfPath)
	}
	if err != nil {
		report.AddWarning(validation.Result{
			Level:    validation.LevelConstructability,
			Message:  fmt.Sprintf("semantic fields unavailable, constructability not checked: %v", err),
			SpecPath: "file_config.semantic_fields_file",
		})
		return report
	}
	sf, err := experiment.LoadSemanticFields(sfPath)
	if err != nil {
		report.AddWarning(validation.Result{
			Level:    validation.LevelConstructability,
			Message:  fmt.Sprintf("semantic fields unreadable, constructability not checked: %v", err),
			SpecPath: "file_config.semantic_fields_file",
		})
		return report
	}

	compiler := zone.NewCompiler(fetcher)
	contexts := sf.Combinations(0)
	for _, fieldContext := range contexts {
		m := spec.DefaultMinimalBuildingSpec()
		m.DBFile = manifest.Files.DBFile
		m.ComponentMapFile = manifest.Files.ComponentMapFile
		m.SemanticFieldContext = fieldContext

		s, err := m.BuildingSpec()
		if err != nil {
			report.AddError(validation.Result{
				Level:   validation.LevelConstructability,
				Message: fmt.Sprintf("building placeholder spec: %v", err),
			})
			continue
		}
		if _, err := compiler.Compile(ctx, s); err != nil {
			var cerr *zone.ConstructabilityError
			if errors.As(err, &cerr) {
				report.AddError(validation.Result{
					Level:       validation.LevelConstructability,
					Message:     fmt.Sprintf("no %s component for context %s", cerr.Slot, zone.ContextSignature(fieldContext)),
					ActualValue: fieldContext,
				})
			} else {
				report.AddError(validation.Result{
					Level:   validation.LevelConstructability,
					Message: fmt.Sprintf("compiling context %s: %v", zone.ContextSignature(fieldContext), err),
				})
			}
		}
	}
	report.AddInfo(validation.Result{
		Level:   validation.LevelConstructability,
		Message: fmt.Sprintf("checked %d semantic field combinations", len(contexts)),
	})
	return report
}

func runGet(ctx context.Context, opts getOptions) error {
	src, err := results.NewSource(sourceConfig(opts.localDir, opts.version))
	if err != nil {
		return err
	}
	table, err := src.LoadRun(ctx, opts.run)
	if err != nil {
		return fmt.Errorf("loading run %s: %w", opts.run, err)
	}
	if opts.outputPath != "" {
		return table.SaveCSV(opts.outputPath)
	}
	return table.WriteCSV(os.Stdout)
}

// loadGISRows reads a preprocessed GIS row array from a local or remote
// JSON file.
func loadGISRows(ctx context.Context, ref fileref.Reference, fetcher fileref.Fetcher) ([]spec.GISRow, error) {
	if ref == "" {
		return nil, fmt.Errorf("manifest has no gis_file")
	}
	path := string(ref)
	if ref.IsRemote() {
		var err error
		path, err = fetcher.Fetch(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("resolving GIS file: %w", err)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading GIS file: %w", err)
	}
	var rows []spec.GISRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parsing GIS file: %w", err)
	}
	return rows, nil
}
