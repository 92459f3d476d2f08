// Package automation runs scripted batches of experiments: scenarios read
// from YAML and Monte Carlo trials over jittered parameters.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/san-kum/qomsim/internal/analysis"
	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/experiment"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/storage"
	"github.com/san-kum/qomsim/internal/systems"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one experiment of a scenario. Save stores the run.
type ScenarioStep struct {
	experiment.Spec `yaml:",inline"`
	Name            string `yaml:"name,omitempty"`
	Save            bool   `yaml:"save,omitempty"`
}

// UnmarshalYAML starts each step from the default solver settings.
func (s *ScenarioStep) UnmarshalYAML(node *yaml.Node) error {
	type plain ScenarioStep
	p := plain{Spec: experiment.Spec{Solver: langevin.DefaultSolverConfig()}}
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = ScenarioStep(p)
	return nil
}

// StepResult is what one step produced. RunID is empty unless saved.
type StepResult struct {
	Name    string
	RunID   string
	Summary metrics.Summary
	Elapsed time.Duration
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, dynamo.Configf("steps", 0, "scenario %q has no steps", scenario.Name)
	}
	return &scenario, nil
}

// Runner executes scenarios and Monte Carlo trials against one registry.
// A nil store skips saving.
type Runner struct {
	registry *experiment.Registry
	store    *storage.Store
	logger   *slog.Logger
}

func NewRunner(reg *experiment.Registry, store *storage.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: reg, store: store, logger: logger.With(slog.String("component", "automation"))}
}

// RunScenario executes all steps in order and stops at the first failure,
// returning the results so far.
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("%s#%d", step.Model, i+1)
		}
		r.logger.Info("scenario step", slog.String("scenario", scenario.Name),
			slog.Int("step", i+1), slog.Int("of", len(scenario.Steps)), slog.String("name", name))

		exp, err := experiment.New(r.registry, step.Spec, r.logger)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}
		out, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d (%s): %w", i+1, name, err)
		}

		res := StepResult{Name: name, Summary: out.Summary, Elapsed: out.Elapsed}
		if step.Save && r.store != nil {
			if res.RunID, err = r.store.Save(step.Spec, out); err != nil {
				return results, fmt.Errorf("step %d (%s) save: %w", i+1, name, err)
			}
		}
		results = append(results, res)
	}

	return results, nil
}

// MonteCarloConfig perturbs every numeric parameter of Base by a uniform
// relative amount in [-Perturbation, Perturbation] per trial.
type MonteCarloConfig struct {
	Base         experiment.Spec
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult holds one trial. Stable is the Routh-Hurwitz verdict over
// the solver window; Err is set when the trial could not be evaluated.
type MonteCarloResult struct {
	TrialID   int
	Params    systems.Params
	Stability analysis.Stability
	Summary   metrics.Summary
	Err       error
}

// RunMonteCarlo executes the trials sequentially. Failed trials are
// recorded, not returned; cancellation stops the loop.
func (r *Runner) RunMonteCarlo(ctx context.Context, cfg MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials < 1 {
		return nil, dynamo.Configf("trials", cfg.NumTrials, "need at least one trial")
	}
	if cfg.Perturbation < 0 {
		return nil, dynamo.Configf("perturbation", cfg.Perturbation, "must be non-negative")
	}
	defaults, err := r.registry.Defaults(cfg.Base.Model)
	if err != nil {
		return nil, err
	}
	base := defaults.Merge(cfg.Base.Params)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		params := jitter(base, cfg.Perturbation, rng)
		res := MonteCarloResult{TrialID: trial, Params: params}
		res.Stability, res.Summary, res.Err = r.trial(ctx, cfg.Base, params)
		if res.Err != nil {
			r.logger.Warn("trial failed", slog.Int("trial", trial), slog.Any("error", res.Err))
		}
		results = append(results, res)

		if (trial+1)%10 == 0 {
			r.logger.Info("monte carlo", slog.Int("done", trial+1), slog.Int("of", cfg.NumTrials))
		}
	}

	return results, nil
}

func (r *Runner) trial(ctx context.Context, base experiment.Spec, params systems.Params) (analysis.Stability, metrics.Summary, error) {
	spec := base
	spec.Params = params
	exp, err := experiment.New(r.registry, spec, r.logger)
	if err != nil {
		return analysis.Stability{}, metrics.Summary{}, err
	}
	out, err := exp.Run(ctx)
	if err != nil {
		return analysis.Stability{}, metrics.Summary{}, err
	}
	counts, err := analysis.InstabilityCounts(exp.Model(), out.Trajectory)
	if err != nil {
		return analysis.Stability{}, out.Summary, err
	}
	st, err := analysis.Verdict(counts)
	return st, out.Summary, err
}

func jitter(p systems.Params, rel float64, rng *rand.Rand) systems.Params {
	c := p.Clone()
	for _, name := range c.Names() {
		vals, ok := c.Values[name]
		if !ok {
			continue
		}
		for i, v := range vals {
			vals[i] = v * (1 + (rng.Float64()-0.5)*2*rel)
		}
	}
	return c
}

// MonteCarloStats counts stable, unstable and failed trials.
func MonteCarloStats(results []MonteCarloResult) (stable, unstable, failed int) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
		case r.Stability.Stable:
			stable++
		default:
			unstable++
		}
	}
	return
}

// MeanInstability averages the mean unstable-root count over the trials
// that succeeded. It is NaN when none did.
func MeanInstability(results []MonteCarloResult) float64 {
	m := metrics.NewMean()
	for _, r := range results {
		if r.Err == nil {
			m.Observe(r.Stability.Mean, float64(r.TrialID))
		}
	}
	return m.Value()
}
