package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/MITSustainableDesignLab/globi/internal/server"
	"github.com/MITSustainableDesignLab/globi/pkg/results"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "globi",
		Short: "Building-energy simulation experiment orchestrator",
	}

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(submitCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func simulateCmd() *cobra.Command {
	var opts simulateOptions

	cmd := &cobra.Command{
		Use:   "simulate [minimal-spec.yml]",
		Short: "Simulate a single building from a minimal spec",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.specPath = args[0]
			}
			return runSimulate(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.epwzipFile, "epwzip-file", "", "weather file overriding the spec")
	cmd.Flags().StringVar(&opts.engineBin, "engine-bin", "globi-sim", "simulation engine binary")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 30*time.Minute, "per-simulation timeout")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "directory for the feature table and result JSON")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "extract features and compile the zone without simulating")
	return cmd
}

func submitCmd() *cobra.Command {
	var opts submitOptions

	cmd := &cobra.Command{
		Use:   "submit [manifest.yml]",
		Short: "Allocate and run a batch experiment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.manifestPath = args[0]
			return runSubmit(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.scenario, "scenario", "", "scenario overriding the manifest")
	cmd.Flags().StringVar(&opts.epwzipFile, "epwzip-file", "", "weather file overriding every building")
	cmd.Flags().BoolVar(&opts.gridRun, "grid-run", false, "stamp out every semantic field combination per building")
	cmd.Flags().IntVar(&opts.maxTests, "max-tests", 0, "cap on grid-run combinations (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.skipConstructability, "skip-constructability-check", false, "skip the batch constructability pre-check")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", 4, "buildings in flight")
	cmd.Flags().StringVarP(&opts.outputDir, "output", "o", "", "directory for result tables (default out/<experiment-id>)")
	cmd.Flags().StringVar(&opts.engineBin, "engine-bin", "globi-sim", "simulation engine binary")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload result tables to the object store")
	return cmd
}

func validateCmd() *cobra.Command {
	var skipConstructability bool

	cmd := &cobra.Command{
		Use:   "validate [manifest.yml]",
		Short: "Validate an experiment manifest without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), args[0], skipConstructability)
		},
	}

	cmd.Flags().BoolVar(&skipConstructability, "skip-constructability-check", false, "skip compiling every semantic field combination")
	return cmd
}

func getCmd() *cobra.Command {
	var opts getOptions

	cmd := &cobra.Command{
		Use:   "get [run]",
		Short: "Fetch a stored run's result table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.run = args[0]
			return runGet(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.localDir, "local", "", "read runs from a local directory instead of the object store")
	cmd.Flags().StringVar(&opts.version, "version", "", "run version (default latest)")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "write the table to a file instead of stdout")
	return cmd
}

func serveCmd() *cobra.Command {
	var port int
	var localDir string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local results-browsing server",
		RunE: func(_ *cobra.Command, _ []string) error {
			src, err := results.NewSource(sourceConfig(localDir, ""))
			if err != nil {
				return err
			}
			return server.New(src, port).Start()
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP server port")
	cmd.Flags().StringVar(&localDir, "local", "", "serve runs from a local directory instead of the object store")
	return cmd
}
