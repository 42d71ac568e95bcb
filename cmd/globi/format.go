package main

import (
	"fmt"
	"sort"

	"github.com/MITSustainableDesignLab/globi/pkg/batch"
	"github.com/MITSustainableDesignLab/globi/pkg/engine"
	"github.com/MITSustainableDesignLab/globi/pkg/features"
	"github.com/MITSustainableDesignLab/globi/pkg/validation"
	"github.com/MITSustainableDesignLab/globi/pkg/zone"
)

func printValidationReport(r *validation.Report) {
	if len(r.Errors) > 0 {
		fmt.Printf("ERRORS (%d):\n", len(r.Errors))
		for _, e := range r.Errors {
			fmt.Printf("  [%s] %s\n", e.Level, e.Message)
			if e.SpecPath != "" {
				fmt.Printf("    -> %s = %v\n", e.SpecPath, e.ActualValue)
			}
			if e.Expected != "" {
				fmt.Printf("    expected: %s\n", e.Expected)
			}
			if e.BuildingID != "" {
				fmt.Printf("    building: %s\n", e.BuildingID)
			}
			for _, s := range e.Suggestions {
				fmt.Printf("    * %s\n", s)
			}
		}
		fmt.Println()
	}

	if len(r.Warnings) > 0 {
		fmt.Printf("WARNINGS (%d):\n", len(r.Warnings))
		for _, w := range r.Warnings {
			fmt.Printf("  [%s] %s\n", w.Level, w.Message)
			if w.SpecPath != "" {
				fmt.Printf("    -> %s = %v\n", w.SpecPath, w.ActualValue)
			}
			if w.Expected != "" {
				fmt.Printf("    expected: %s\n", w.Expected)
			}
		}
		fmt.Println()
	}

	if len(r.Info) > 0 {
		fmt.Printf("INFO (%d):\n", len(r.Info))
		for _, i := range r.Info {
			fmt.Printf("  [%s] %s\n", i.Level, i.Message)
		}
		fmt.Println()
	}

	if r.Valid {
		fmt.Printf("Result: VALID (%s)\n", r.Summary)
	} else {
		fmt.Printf("Result: INVALID (%s)\n", r.Summary)
	}
}

func printFeatures(v features.Vector) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fmt.Println("Features")
	fmt.Println("--------")
	for _, k := range keys {
		fmt.Printf("  %-45s %v\n", k, v[k])
	}
	fmt.Println()
}

func printZoneDefinition(def *zone.Definition) {
	fmt.Printf("Zone: %s\n", def.ZoneName)
	fmt.Println("--------")
	for _, c := range def.Components {
		fmt.Printf("  %-20s %s\n", c.Slot, c.Name)
	}
	fmt.Println()
}

func printResultsSummary(r *engine.Results) {
	fmt.Printf("Results for %s\n", r.BuildingID)
	fmt.Println("--------")

	names := make([]string, 0, len(r.EndUses))
	for name := range r.EndUses {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Printf("  %-16s %12s %12s\n", "End use", "Annual kWh", "Peak kW")
	for _, name := range names {
		fmt.Printf("  %-16s %12.1f %12.2f\n", name, r.AnnualTotal(name), r.Peaks[name])
	}
	if r.HourlyRef != "" {
		fmt.Printf("  Hourly output: %s\n", r.HourlyRef)
	}
	fmt.Println()
}

func printBatchSummary(r *batch.Report, outputDir string) {
	fmt.Printf("Experiment %s\n", r.ExperimentID)
	fmt.Println("--------")
	fmt.Printf("  Completed: %d\n", len(r.Rows))
	fmt.Printf("  Failed:    %d\n", len(r.Errors))
	for _, e := range r.Errors {
		fmt.Printf("    %s: %v\n", e.BuildingID, e.Err)
	}
	fmt.Printf("  Output:    %s\n", outputDir)
	fmt.Println()
}
