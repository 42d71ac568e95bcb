package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/MITSustainableDesignLab/globi/pkg/spec"
	"github.com/MITSustainableDesignLab/globi/pkg/zone"
)

// ExecEngine shells out to an external simulation binary. The binary is
// invoked as
//
//	<binary> [args...] --input <dir>/input.json --weather <epw> --output <dir>/results.json
//
// where input.json carries the building spec and compiled zone
// definition, and results.json is read back as a Results value.
type ExecEngine struct {
	Binary  string
	Args    []string
	WorkDir string
	Timeout time.Duration
}

type execInput struct {
	Building *spec.BuildingSpec `json:"building"`
	Zone     *zone.Definition   `json:"zone"`
}

// Simulate runs one simulation in a fresh subdirectory of WorkDir.
func (e *ExecEngine) Simulate(ctx context.Context, def *zone.Definition, weatherPath string, s *spec.BuildingSpec) (*Results, error) {
	dir, err := os.MkdirTemp(e.WorkDir, "sim-"+s.BuildingID+"-")
	if err != nil {
		return nil, fmt.Errorf("creating simulation dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inputPath := filepath.Join(dir, "input.json")
	outputPath := filepath.Join(dir, "results.json")

	payload, err := json.Marshal(execInput{Building: s, Zone: def})
	if err != nil {
		return nil, fmt.Errorf("encoding simulation input: %w", err)
	}
	if err := os.WriteFile(inputPath, payload, 0o644); err != nil {
		return nil, fmt.Errorf("writing simulation input: %w", err)
	}

	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, e.Args...),
		"--input", inputPath,
		"--weather", weatherPath,
		"--output", outputPath,
	)
	cmd := exec.CommandContext(ctx, e.Binary, args...)
	cmd.Dir = dir

	start := time.Now()
	out, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("simulating %s: %w: %s", s.BuildingID, err, string(out))
	}
	log.Printf("simulated %s in %s", s.BuildingID, time.Since(start).Round(time.Millisecond))

	raw, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, fmt.Errorf("reading simulation output: %w", err)
	}
	var results Results
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, fmt.Errorf("decoding simulation output: %w", err)
	}
	results.BuildingID = s.BuildingID
	results.ExperimentID = s.ExperimentID
	return &results, nil
}
