package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/san-kum/qomsim/internal/analysis"
	"github.com/san-kum/qomsim/internal/automation"
	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/export"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/measures"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/storage"
	"github.com/san-kum/qomsim/internal/sweep"
	"github.com/san-kum/qomsim/internal/systems"
	"github.com/san-kum/qomsim/internal/viz"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp, err := experiment.New(registry, cfg.Spec, slog.Default())
	if err != nil {
		return err
	}

	var opts []langevin.Option
	if steady {
		start, err := langevin.FromSteadyState(exp.Model())
		if err != nil {
			return err
		}
		opts = append(opts, start)
	}

	fmt.Printf("running %s (%s)...\n", cfg.Model, registry.Describe(cfg.Model))
	out, err := exp.Run(cmd.Context(), opts...)
	if err != nil {
		return err
	}

	runID, err := st.Save(cfg.Spec, out)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", out.Elapsed.Round(time.Millisecond))
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", out.Trajectory.Len())
	if out.Series != nil {
		fmt.Println()
		fmt.Println(viz.RenderSummary(cfg.Measure.Code, out.Summary))
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMODEL\tTIME\tSAMPLES\tMEASURE\tRESULT\tELAPSED")

	for _, run := range runs {
		result := "-"
		if run.Summary != nil {
			result = run.Summary.String()
		}
		measure := run.Spec.Measure.Code
		if measure == "" {
			measure = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\t%v\n",
			run.ID,
			run.Model,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			measure,
			result,
			run.Elapsed.Round(time.Millisecond),
		)
	}

	return w.Flush()
}

// storedRun is a run read back from the store with its model rebuilt.
type storedRun struct {
	meta     *storage.RunMetadata
	tr       *langevin.Trajectory
	model    systems.Model
	registry *experiment.Registry
}

func loadRun(runID string) (*storedRun, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, err
	}
	if tr.Len() == 0 {
		return nil, fmt.Errorf("run %s has no samples", runID)
	}
	registry := experiment.NewRegistry()
	model, err := registry.GetModel(meta.Spec.Model, meta.Spec.Params)
	if err != nil {
		return nil, err
	}
	return &storedRun{meta: meta, tr: tr, model: model, registry: registry}, nil
}

func (r *storedRun) header(title string) {
	fmt.Println(viz.Title.Render(title))
	fmt.Println(viz.Field("run", r.meta.ID))
	fmt.Println(viz.Field("model", fmt.Sprintf("%s (%s)", r.meta.Model, r.meta.Name)))
	fmt.Println(viz.Field("samples", r.tr.Len()))
	fmt.Println()
}

func measureRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}

	m := run.meta.Spec.Measure
	if err := applyMeasureFlags(cmd, &m.Code, &m.Indices, &m.Reduce); err != nil {
		return err
	}
	if m.Code == "" {
		return fmt.Errorf("run %s has no measure; pass --measure", run.meta.ID)
	}
	eval, err := run.registry.GetMeasure(m.Code, m.Indices)
	if err != nil {
		return err
	}
	series, err := eval(run.model, run.tr)
	if err != nil {
		return err
	}
	summary, err := metrics.Reduce(series, m.Reduce)
	if err != nil {
		return err
	}

	run.header("measure")
	fmt.Println(viz.Chart(series, fmt.Sprintf("%s %v", m.Code, m.Indices)))
	fmt.Println()
	fmt.Println(viz.RenderSummary(m.Code, summary))

	if cmd.Flags().Changed("threshold") {
		ex := metrics.NewExceedance(threshold)
		metrics.ObserveSeries(ex, series, run.tr.Times)
		ext := metrics.NewExtrema()
		metrics.ObserveSeries(ext, series, run.tr.Times)
		fmt.Println(viz.Field("above", fmt.Sprintf("%.1f%% of samples exceed %g", 100*ex.Value(), threshold)))
		fmt.Println(viz.Field("extrema", fmt.Sprintf("min at t=%g, max at t=%g", ext.At[0], ext.At[1])))
	}
	return nil
}

func stabilityRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	counts, err := analysis.InstabilityCounts(run.model, run.tr)
	if err != nil {
		return err
	}
	verdict, err := analysis.Verdict(counts)
	if err != nil {
		return err
	}

	run.header("stability")
	fmt.Println(viz.Chart(metrics.Counts(counts), "roots with positive real part"))
	fmt.Println()
	fmt.Println(viz.RenderStability(verdict))
	return nil
}

func sampleIndex(tr *langevin.Trajectory, k int) (int, error) {
	if k < 0 {
		k += tr.Len()
	}
	if k < 0 || k >= tr.Len() {
		return 0, fmt.Errorf("sample %d outside %d samples", sample, tr.Len())
	}
	return k, nil
}

func wignerRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	k, err := sampleIndex(run.tr, sample)
	if err != nil {
		return err
	}
	if mode < 0 || mode >= run.tr.NumModes {
		return fmt.Errorf("mode %d outside %d modes", mode, run.tr.NumModes)
	}
	if points < 2 || !(span > 0) {
		return fmt.Errorf("need --points >= 2 and a positive --span")
	}

	mean := measures.MeanQuadratures(run.tr.Modes[k][mode])
	q := floats.Span(make([]float64, points), mean[0]-span, mean[0]+span)
	p := floats.Span(make([]float64, points), mean[1]-span, mean[1]+span)
	s, err := measures.Wigner(measures.ModeCovariance(run.tr.Corrs[k], mode), mean, q, p)
	if err != nil {
		return err
	}

	cell := (q[1] - q[0]) * (p[1] - p[0])
	total := 0.0
	for _, row := range s.W {
		total += floats.Sum(row)
	}

	run.header("wigner")
	fmt.Println(viz.Field("time", fmt.Sprintf("%g (sample %d)", run.tr.Times[k], k)))
	fmt.Println(viz.Field("mean (q, p)", fmt.Sprintf("(%.4g, %.4g)", mean[0], mean[1])))
	fmt.Println(viz.Field("peak", fmt.Sprintf("%.6g", s.Max())))
	fmt.Println(viz.Field("integral", fmt.Sprintf("%.6f", total*cell)))
	fmt.Println()
	fmt.Print(shade(s, 60, 24))

	if outPath != "" {
		plt, err := export.WignerPlot(s, fmt.Sprintf("%s mode %d, t=%g", run.meta.ID, mode, run.tr.Times[k]))
		if err != nil {
			return err
		}
		if err := export.Save(plt, outPath, export.DefaultHeight, export.DefaultHeight); err != nil {
			return err
		}
		fmt.Printf("\nwrote %s\n", outPath)
	}
	return nil
}

// shade draws a surface as ASCII density, p increasing upwards.
func shade(s *measures.Surface, width, height int) string {
	const ramp = " .:-=+*#%@"
	peak := s.Max()
	if peak <= 0 {
		return ""
	}
	var b strings.Builder
	for row := height - 1; row >= 0; row-- {
		r := row * (len(s.P) - 1) / max(height-1, 1)
		for col := 0; col < width; col++ {
			c := col * (len(s.Q) - 1) / max(width-1, 1)
			level := int(s.W[r][c] / peak * float64(len(ramp)-1))
			b.WriteByte(ramp[max(0, min(level, len(ramp)-1))])
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func loadSeries(runID string) ([]float64, error) {
	_, series, err := storage.New(dataDir).LoadSeries(runID)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return series, err
}

func intensities(tr *langevin.Trajectory) [][]float64 {
	out := make([][]float64, tr.NumModes)
	for m := range out {
		out[m] = make([]float64, tr.Len())
		for k, modes := range tr.Modes {
			a := modes[m]
			out[m][k] = real(a)*real(a) + imag(a)*imag(a)
		}
	}
	return out
}

func plotRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	series, err := loadSeries(run.meta.ID)
	if err != nil {
		return err
	}

	run.header("plot")
	if series != nil {
		fmt.Println(viz.Chart(series, run.meta.Spec.Measure.Code))
		return nil
	}
	fmt.Println(viz.ChartMany(intensities(run.tr), "mode intensities |alpha_m|^2"))
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	portrait, err := analysis.QuadraturePortrait(run.tr, xAxis, yAxis)
	if err != nil {
		return err
	}

	run.header("phase portrait")
	canvas := viz.NewCanvas(70, 20)
	xMin, xMax, yMin, yMax := canvas.Portrait(portrait)
	fmt.Printf("x%d in [%.4g, %.4g], x%d in [%.4g, %.4g]\n\n", xAxis, xMin, xMax, yAxis, yMin, yMax)
	fmt.Print(canvas.String())

	if period > 0 {
		section, err := analysis.StroboscopicSection(run.tr, xAxis/2, period)
		if err != nil {
			return err
		}
		fmt.Printf("\nstroboscopic section of mode %d, period %g (%d points)\n", xAxis/2, period, len(section.Points))
		fmt.Print(analysis.PhasePortraitToASCII(section, 70, 20))
	}
	return nil
}

func spectrumRun(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	if run.tr.Len() < 2 {
		return fmt.Errorf("run %s has too few samples for a spectrum", run.meta.ID)
	}
	series, err := analysis.QuadratureSeries(run.tr, quadrature)
	if err != nil {
		return err
	}
	dt := run.tr.Times[1] - run.tr.Times[0]
	freqs, power, err := analysis.PowerSpectrum(series, dt)
	if err != nil {
		return err
	}
	f0, err := analysis.DominantFrequency(series, dt)
	if err != nil {
		return err
	}

	run.header("spectrum")
	cut := max(len(power)/4, min(len(power), 2))
	fmt.Println(viz.Chart(power[:cut], fmt.Sprintf("power spectrum (x%d), 0 to %.3g", quadrature, freqs[cut-1])))
	fmt.Println()
	fmt.Println(viz.Field("dominant", fmt.Sprintf("%.6g", f0)))
	if f0 > 0 {
		fmt.Println(viz.Field("angular", fmt.Sprintf("%.6g", 2*math.Pi*f0)))
		fmt.Println(viz.Field("period", fmt.Sprintf("%.6g", 1/f0)))
	}
	return nil
}

func sweepRun(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Sweep == nil {
		return fmt.Errorf("no sweep configured; use a config file or preset with a sweep section")
	}
	sc := *cfg.Sweep
	if cmd.Flags().Changed("workers") || sc.Workers == 0 {
		sc.Workers = workers
	}
	if cacheBackend != "" {
		sc.Cache, sc.CacheBackend = true, cacheBackend
	}

	ctx := cmd.Context()
	var opts []sweep.Option
	if sc.Cache {
		path := sc.CachePath
		if path == "" {
			path = filepath.Join(dataDir, "cache.db")
		}
		cache, err := storage.NewCache(ctx, sc.CacheBackend, path)
		if err != nil {
			return err
		}
		defer cache.Close()
		opts = append(opts, sweep.WithCache(cache))
	}

	registry := experiment.NewRegistry()
	total := sc.X.Dim
	if sc.Y != nil {
		total *= sc.Y.Dim
	}
	title := fmt.Sprintf("sweep %s %s over %d points", cfg.Model, cfg.Measure.Code, total)

	var grid *sweep.Grid
	if noTUI || !isatty.IsTerminal(os.Stdout.Fd()) {
		step := max(total/10, 1)
		progress := func(done, total int) {
			if done%step == 0 || done == total {
				slog.Info("sweep progress", slog.Int("done", done), slog.Int("total", total))
			}
		}
		grid, err = sweep.NewRunner(registry, append(opts, sweep.WithProgress(progress))...).Run(ctx, cfg.Spec, sc)
	} else {
		grid, err = viz.RunWithProgress(ctx, title, total, func(ctx context.Context, progress func(int, int)) (*sweep.Grid, error) {
			// Logs would tear the progress view.
			quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
			runner := sweep.NewRunner(registry, append(opts, sweep.WithProgress(progress), sweep.WithLogger(quiet))...)
			return runner.Run(ctx, cfg.Spec, sc)
		})
	}
	if err != nil {
		return err
	}

	th, err := grid.Thresholds()
	if err != nil {
		return err
	}
	fmt.Println(viz.RenderThresholds(grid, th))

	if outPath != "" {
		plt, err := export.GridPlot(grid, title, cfg.Measure.Code)
		if err != nil {
			return err
		}
		if err := export.Save(plt, outPath, export.DefaultWidth, export.DefaultHeight); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outPath)
	}
	return nil
}

func listModels(cmd *cobra.Command, args []string) error {
	registry := experiment.NewRegistry()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tDESCRIPTION\tPARAMETERS")
	for _, code := range registry.ListModels() {
		defaults, err := registry.Defaults(code)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", code, registry.Describe(code), strings.Join(defaults.Names(), " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nmeasures: %s\n", strings.Join(registry.ListMeasures(), ", "))
	fmt.Printf("integrators: %s\n", strings.Join(registry.ListIntegrators(), ", "))
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	series, err := loadSeries(run.meta.ID)
	if err != nil {
		return err
	}

	w := csv.NewWriter(os.Stdout)
	defer w.Flush()

	header := []string{"time"}
	for m := 0; m < run.tr.NumModes; m++ {
		header = append(header, fmt.Sprintf("re_a%d", m), fmt.Sprintf("im_a%d", m))
	}
	if series != nil {
		header = append(header, run.meta.Spec.Measure.Code)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	for k, t := range run.tr.Times {
		row := []string{format(t)}
		for _, a := range run.tr.Modes[k] {
			row = append(row, format(real(a)), format(imag(a)))
		}
		if series != nil {
			row = append(row, format(series[k]))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	series, err := loadSeries(run.meta.ID)
	if err != nil {
		return err
	}
	data := export.NewExportData(*run.meta, run.tr, series)
	if outPath == "" {
		return export.ExportJSONStdout(data)
	}
	if err := export.ExportJSON(outPath, data); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outPath)
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	run, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = run.meta.ID + ".png"
	}
	title := fmt.Sprintf("%s (%s)", run.meta.ID, run.meta.Name)

	switch what {
	case "series":
		series, err := loadSeries(run.meta.ID)
		if err != nil {
			return err
		}
		if series == nil {
			return fmt.Errorf("run %s has no measure series; try --what modes", run.meta.ID)
		}
		p, err := export.LinePlot(title, "t", run.meta.Spec.Measure.Code, export.Line{X: run.tr.Times, Y: series})
		if err != nil {
			return err
		}
		if err := export.Save(p, path, export.DefaultWidth, export.DefaultHeight); err != nil {
			return err
		}
	case "modes":
		var lines []export.Line
		for m, s := range intensities(run.tr) {
			lines = append(lines, export.Line{Label: fmt.Sprintf("|alpha_%d|^2", m), X: run.tr.Times, Y: s})
		}
		p, err := export.LinePlot(title, "t", "intensity", lines...)
		if err != nil {
			return err
		}
		if err := export.Save(p, path, export.DefaultWidth, export.DefaultHeight); err != nil {
			return err
		}
	case "portrait":
		portrait, err := analysis.PhasePortrait(run.tr, mode)
		if err != nil {
			return err
		}
		p, err := export.PortraitPlot(portrait, nil, title)
		if err != nil {
			return err
		}
		if err := export.Save(p, path, export.DefaultHeight, export.DefaultHeight); err != nil {
			return err
		}
	default:
		return fmt.Errorf("--what %q: expected series, modes or portrait", what)
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario %s: %s\n\n", scenario.Name, scenario.Description)
	runner := automation.NewRunner(experiment.NewRegistry(), st, slog.Default())
	results, runErr := runner.RunScenario(cmd.Context(), scenario)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tRESULT\tELAPSED")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		result := "-"
		if r.Summary.Samples > 0 {
			result = r.Summary.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n", r.Name, id, result, r.Elapsed.Round(time.Millisecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	runner := automation.NewRunner(experiment.NewRegistry(), nil, slog.Default())
	results, err := runner.RunMonteCarlo(cmd.Context(), automation.MonteCarloConfig{
		Base:         cfg.Spec,
		Perturbation: perturbation,
		NumTrials:    trials,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	means := make([]float64, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			means = append(means, r.Stability.Mean)
		}
	}
	stable, unstable, failed := automation.MonteCarloStats(results)
	fmt.Println(viz.Title.Render(fmt.Sprintf("monte carlo %s, ±%g%%", cfg.Model, 100*perturbation)))
	fmt.Println(viz.Field("trials", len(results)))
	fmt.Println(viz.Field("stable", viz.StatusOK.Render(strconv.Itoa(stable))))
	fmt.Println(viz.Field("unstable", viz.StatusFail.Render(strconv.Itoa(unstable))))
	if failed > 0 {
		fmt.Println(viz.Field("failed", viz.StatusWarn.Render(strconv.Itoa(failed))))
	}
	if len(means) > 0 {
		fmt.Println(viz.Field("mean instability", fmt.Sprintf("%.3g", automation.MeanInstability(results))))
		fmt.Println(viz.Field("mean counts", viz.Sparkline(means, min(len(means), 60))))
	}
	return nil
}
