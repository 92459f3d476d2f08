package experiment

import (
	"sort"

	"github.com/san-kum/qomsim/internal/analysis"
	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/integrators"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/measures"
	"github.com/san-kum/qomsim/internal/metrics"
	"github.com/san-kum/qomsim/internal/systems"
)

// RHCCount is the measure code for the Routh–Hurwitz instability count.
const RHCCount = "rhc_count"

// Evaluator turns a trajectory into a measure series.
type Evaluator func(model systems.Model, tr *langevin.Trajectory) ([]float64, error)

type Registry struct {
	models   map[string]systems.Descriptor
	measures map[string]func(indices []int) (Evaluator, error)
}

func NewRegistry() *Registry {
	r := &Registry{
		models:   make(map[string]systems.Descriptor),
		measures: make(map[string]func([]int) (Evaluator, error)),
	}

	for _, code := range systems.Codes() {
		d, _ := systems.Lookup(code)
		r.models[code] = d
	}

	for _, code := range measures.Codes() {
		r.measures[code] = func(indices []int) (Evaluator, error) {
			m, err := measures.New(code, indices)
			if err != nil {
				return nil, err
			}
			return func(_ systems.Model, tr *langevin.Trajectory) ([]float64, error) {
				return measures.Series(tr, m)
			}, nil
		}
	}
	r.measures[RHCCount] = func([]int) (Evaluator, error) {
		return func(model systems.Model, tr *langevin.Trajectory) ([]float64, error) {
			counts, err := analysis.InstabilityCounts(model, tr)
			if err != nil {
				return nil, err
			}
			return metrics.Counts(counts), nil
		}, nil
	}

	return r
}

// GetModel builds the model code with params merged over its defaults.
func (r *Registry) GetModel(code string, params systems.Params) (systems.Model, error) {
	d, ok := r.models[code]
	if !ok {
		return nil, dynamo.Configf("model", code, "unknown")
	}
	defaults := d.Defaults()
	if err := params.Validate(defaults); err != nil {
		return nil, err
	}
	return d.Build(defaults.Merge(params))
}

// Defaults returns the documented parameter set of model code.
func (r *Registry) Defaults(code string) (systems.Params, error) {
	d, ok := r.models[code]
	if !ok {
		return systems.Params{}, dynamo.Configf("model", code, "unknown")
	}
	return d.Defaults(), nil
}

func (r *Registry) Describe(code string) string {
	return r.models[code].Description
}

func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	return integrators.New(name)
}

func (r *Registry) GetMeasure(code string, indices []int) (Evaluator, error) {
	fn, ok := r.measures[code]
	if !ok {
		return nil, dynamo.Configf("measure", code, "unknown")
	}
	return fn(indices)
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListMeasures() []string {
	return sortedKeys(r.measures)
}

func (r *Registry) ListIntegrators() []string {
	return integrators.Names()
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
