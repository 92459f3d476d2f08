package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/san-kum/qomsim/internal/config"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string
	// Experiment selection
	configFile string
	preset     string
	paramArgs  []string
	// Solver
	tMax       float64
	tDim       int
	rangeMin   int
	rangeMax   int
	integrator string
	maxDt      float64
	tolerance  float64
	adaptive   bool
	steady     bool
	// Measure
	measureCode string
	indices     []int
	reduce      string
	threshold   float64
	// Run inspection
	mode       int
	sample     int
	span       float64
	points     int
	xAxis      int
	yAxis      int
	period     float64
	quadrature int
	outPath    string
	what       string
	// Sweeps and batches
	workers      int
	cacheBackend string
	noTUI        bool
	trials       int
	perturbation float64
	seed         int64
)

// main loads .env defaults, registers the commands and runs the one named
// on the command line. It exits with status 1 on error.
func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: .env: %v\n", err)
	}

	rootCmd := &cobra.Command{
		Use:           "qomsim",
		Short:         "gaussian-state dynamics of modulated opto- and electro-mechanical systems",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", envOr("QOMSIM_DATA", ".qomsim"), "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("QOMSIM_LOG_LEVEL", "info"), "log level (debug|info|warn|error)")

	runCmd := &cobra.Command{
		Use:   "run [model]",
		Short: "integrate a model, store the run and print the reduced measure",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addExperimentFlags(runCmd)
	runCmd.Flags().BoolVar(&steady, "steady-state", false, "start from the mean-field fixed point (mod_00, oem_20)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	measureCmd := &cobra.Command{
		Use:   "measure [run_id]",
		Short: "evaluate a measure over a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  measureRun,
	}
	addMeasureFlags(measureCmd)
	measureCmd.Flags().Float64Var(&threshold, "threshold", 0, "also report the fraction of samples above this value")

	stabilityCmd := &cobra.Command{
		Use:   "stability [run_id]",
		Short: "routh-hurwitz instability counts along a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  stabilityRun,
	}

	wignerCmd := &cobra.Command{
		Use:   "wigner [run_id]",
		Short: "single-mode wigner function at one sample",
		Args:  cobra.ExactArgs(1),
		RunE:  wignerRun,
	}
	wignerCmd.Flags().IntVar(&mode, "mode", 0, "mode index")
	wignerCmd.Flags().IntVar(&sample, "sample", -1, "sample index (negative counts from the end)")
	wignerCmd.Flags().Float64Var(&span, "span", 4, "half-width of the (q, p) grid around the mean")
	wignerCmd.Flags().IntVar(&points, "points", 81, "grid points per axis")
	wignerCmd.Flags().StringVar(&outPath, "out", "", "write a heat map (.png, .svg or .pdf)")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the measure series, or mode intensities when none was stored",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase portrait of two mean-field quadratures",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xAxis, "x-axis", 0, "quadrature index for the x-axis")
	phaseCmd.Flags().IntVar(&yAxis, "y-axis", 1, "quadrature index for the y-axis")
	phaseCmd.Flags().Float64Var(&period, "period", 0, "stroboscopic period for mode x-axis/2 (0 disables)")

	spectrumCmd := &cobra.Command{
		Use:   "spectrum [run_id]",
		Short: "power spectrum of a mean-field quadrature",
		Args:  cobra.ExactArgs(1),
		RunE:  spectrumRun,
	}
	spectrumCmd.Flags().IntVar(&quadrature, "quadrature", 0, "quadrature index")

	sweepCmd := &cobra.Command{
		Use:   "sweep [model]",
		Short: "evaluate an experiment over a parameter grid",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepRun,
	}
	addExperimentFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&workers, "workers", envInt("QOMSIM_WORKERS", 0), "parallel grid points (0 uses GOMAXPROCS)")
	sweepCmd.Flags().StringVar(&cacheBackend, "cache-backend", "", "override the cache backend (memory|sqlite)")
	sweepCmd.Flags().BoolVar(&noTUI, "no-tui", false, "log progress instead of drawing it")
	sweepCmd.Flags().StringVar(&outPath, "out", "", "write the grid as a figure (.png, .svg or .pdf)")

	presetsCmd := &cobra.Command{
		Use:   "presets [model]",
		Short: "list available presets for a model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for model: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				cfg := config.GetPreset(args[0], p)
				kind := "run"
				if cfg.Sweep != nil {
					kind = "sweep"
				}
				fmt.Printf("  %-16s %s, %s\n", p, kind, cfg.Measure.Code)
			}
			return nil
		},
	}

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list models, measures and integrators",
		RunE:  listModels,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outPath, "out", "", "output file (stdout when empty)")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "export a figure of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVar(&outPath, "out", "", "output file; the extension picks the format (default <run_id>.png)")
	exportPNGCmd.Flags().StringVar(&what, "what", "series", "series|modes|portrait")
	exportPNGCmd.Flags().IntVar(&mode, "mode", 0, "mode index for portrait")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run the experiments of a YAML scenario in order",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [model]",
		Short: "stability of an experiment under random parameter perturbations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addExperimentFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturbation", 0.05, "relative perturbation of every parameter")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 seeds from the clock)")

	rootCmd.AddCommand(runCmd, listCmd, measureCmd, stabilityCmd, wignerCmd, plotCmd, phaseCmd, spectrumCmd,
		sweepCmd, presetsCmd, modelsCmd, exportCSVCmd, exportJSONCmd, exportPNGCmd, scenarioCmd, monteCarloCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func addExperimentFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVarP(&paramArgs, "param", "p", nil, "parameter override name=v1,v2,... or name=option (repeatable)")
	cmd.Flags().Float64Var(&tMax, "t-max", 0, "end of the time grid")
	cmd.Flags().IntVar(&tDim, "t-dim", 0, "samples on the time grid")
	cmd.Flags().IntVar(&rangeMin, "range-min", 0, "first sample of the evaluation window")
	cmd.Flags().IntVar(&rangeMax, "range-max", 0, "end of the evaluation window (0 for the last sample)")
	cmd.Flags().StringVar(&integrator, "integrator", "rk4", "integrator")
	cmd.Flags().Float64Var(&maxDt, "max-dt", 0, "largest integration step")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "error tolerance for adaptive stepping")
	cmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive stepping (rk45)")
	addMeasureFlags(cmd)
}

func addMeasureFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&measureCode, "measure", "", "measure code")
	cmd.Flags().IntSliceVar(&indices, "indices", nil, "mode or quadrature indices of the measure")
	cmd.Flags().StringVar(&reduce, "reduce", "average", "average|minmax")
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %s=%q is not an integer\n", key, v)
		return fallback
	}
	return n
}
