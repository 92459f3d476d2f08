// Package experiment ties a model, solver settings and a measure into one
// reproducible computation: parameters in, reduced measure out.
package experiment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/systems"
)

// Spec fully determines an experiment.
type Spec struct {
	Model   string                `yaml:"model" json:"model"`
	Params  systems.Params        `yaml:"params,omitempty" json:"params,omitempty"`
	Solver  langevin.SolverConfig `yaml:"solver" json:"solver"`
	Measure MeasureSpec           `yaml:"measure" json:"measure"`
}

type MeasureSpec struct {
	Code    string       `yaml:"code" json:"code"`
	Indices []int        `yaml:"indices,flow" json:"indices"`
	Reduce  metrics.Mode `yaml:"reduce" json:"reduce"`
}

// Fingerprint digests every field that affects the reduced measure.
func (s Spec) Fingerprint() string {
	var b strings.Builder
	fmt.Fprintf(&b, "model=%s;params=%s;", s.Model, s.Params.Fingerprint())
	c := s.Solver
	fmt.Fprintf(&b, "solver=%s,%s,%d,%d,%d,%s,%s,%s,%t;",
		ftoa(c.TMin), ftoa(c.TMax), c.TDim, c.RangeMin, c.RangeMax,
		c.Integrator, ftoa(c.MaxDt), ftoa(c.Tolerance), c.Adaptive)
	fmt.Fprintf(&b, "measure=%s,%v,%s", s.Measure.Code, s.Measure.Indices, s.Measure.Reduce)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

func ftoa(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

// Outcome is everything one run produces.
type Outcome struct {
	Trajectory *langevin.Trajectory
	Series     []float64
	Summary    metrics.Summary
	Elapsed    time.Duration
}

type Experiment struct {
	spec     Spec
	registry *Registry
	model    systems.Model
	measure  Evaluator
	logger   *slog.Logger
}

// New resolves the model and measure of spec. A nil logger uses
// slog.Default().
func New(reg *Registry, spec Spec, logger *slog.Logger) (*Experiment, error) {
	if logger == nil {
		logger = slog.Default()
	}
	model, err := reg.GetModel(spec.Model, spec.Params)
	if err != nil {
		return nil, err
	}
	if err := spec.Solver.Validate(); err != nil {
		return nil, err
	}
	var eval Evaluator
	if spec.Measure.Code != "" {
		if eval, err = reg.GetMeasure(spec.Measure.Code, spec.Measure.Indices); err != nil {
			return nil, err
		}
	}
	return &Experiment{
		spec:     spec,
		registry: reg,
		model:    model,
		measure:  eval,
		logger:   logger.With(slog.String("component", "experiment"), slog.String("model", spec.Model)),
	}, nil
}

func (e *Experiment) Spec() Spec { return e.spec }

func (e *Experiment) Model() systems.Model { return e.model }

// Solve integrates the model without evaluating the measure.
func (e *Experiment) Solve(ctx context.Context, opts ...langevin.Option) (*langevin.Trajectory, error) {
	start := time.Now()
	tr, err := langevin.Solve(ctx, e.model, e.spec.Solver, opts...)
	if err != nil {
		e.logger.Warn("solve failed", slog.Any("error", err))
		return tr, fmt.Errorf("solve %s: %w", e.spec.Model, err)
	}
	e.logger.Debug("solved",
		slog.Int("samples", tr.Len()),
		slog.Duration("elapsed", time.Since(start)))
	return tr, nil
}

// Evaluate computes the measure series of tr and reduces it.
func (e *Experiment) Evaluate(tr *langevin.Trajectory) ([]float64, metrics.Summary, error) {
	if e.measure == nil {
		return nil, metrics.Summary{}, fmt.Errorf("experiment %s has no measure configured", e.spec.Model)
	}
	series, err := e.measure(e.model, tr)
	if err != nil {
		return nil, metrics.Summary{}, fmt.Errorf("measure %s: %w", e.spec.Measure.Code, err)
	}
	summary, err := metrics.Reduce(series, e.spec.Measure.Reduce)
	if err != nil {
		return series, metrics.Summary{}, fmt.Errorf("reduce %s: %w", e.spec.Measure.Code, err)
	}
	return series, summary, nil
}

// Run solves and measures.
func (e *Experiment) Run(ctx context.Context, opts ...langevin.Option) (*Outcome, error) {
	start := time.Now()
	tr, err := e.Solve(ctx, opts...)
	if err != nil {
		return nil, err
	}
	out := &Outcome{Trajectory: tr}
	if e.measure != nil {
		out.Series, out.Summary, err = e.Evaluate(tr)
		if err != nil {
			return nil, err
		}
	}
	out.Elapsed = time.Since(start)
	e.logger.Debug("experiment finished",
		slog.String("measure", e.spec.Measure.Code),
		slog.String("summary", out.Summary.String()),
		slog.Duration("elapsed", out.Elapsed))
	return out, nil
}
