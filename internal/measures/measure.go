package measures

import (
	"fmt"
	"math/cmplx"
	"sort"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/langevin"
	"gonum.org/v1/gonum/mat"
)

// Measure maps one trajectory sample to a scalar.
type Measure interface {
	Code() string
	Eval(modes []complex128, V mat.Symmetric) (float64, error)
}

type logNegativity struct{ i, j int }

func (m logNegativity) Code() string { return "entan_ln" }
func (m logNegativity) Eval(_ []complex128, V mat.Symmetric) (float64, error) {
	return LogNegativity(V, m.i, m.j)
}

type quadVariance struct{ i, j int }

func (m quadVariance) Code() string { return "quad_var" }
func (m quadVariance) Eval(_ []complex128, V mat.Symmetric) (float64, error) {
	return QuadratureVariance(V, m.i, m.j)
}

type squeezing struct{ q int }

func (m squeezing) Code() string { return "squeezing" }
func (m squeezing) Eval(_ []complex128, V mat.Symmetric) (float64, error) {
	return Squeezing(V, m.q)
}

type minVariance struct{ m int }

func (m minVariance) Code() string { return "min_var" }
func (m minVariance) Eval(_ []complex128, V mat.Symmetric) (float64, error) {
	return MinimumVariance(V, m.m)
}

type modeIntensity struct{ m int }

func (m modeIntensity) Code() string { return "mode_intensity" }
func (m modeIntensity) Eval(modes []complex128, _ mat.Symmetric) (float64, error) {
	if m.m < 0 || m.m >= len(modes) {
		return 0, dynamo.Configf("mode", m.m, "outside %d modes", len(modes))
	}
	a := cmplx.Abs(modes[m.m])
	return a * a, nil
}

type factory struct {
	arity int
	usage string
	build func(idx []int) Measure
}

var factories = map[string]factory{
	"entan_ln":       {2, "two mode indices", func(idx []int) Measure { return logNegativity{idx[0], idx[1]} }},
	"quad_var":       {2, "two quadrature indices", func(idx []int) Measure { return quadVariance{idx[0], idx[1]} }},
	"squeezing":      {1, "one quadrature index", func(idx []int) Measure { return squeezing{idx[0]} }},
	"min_var":        {1, "one mode index", func(idx []int) Measure { return minVariance{idx[0]} }},
	"mode_intensity": {1, "one mode index", func(idx []int) Measure { return modeIntensity{idx[0]} }},
}

// New builds the measure named code over the given mode or quadrature indices.
func New(code string, indices []int) (Measure, error) {
	f, ok := factories[code]
	if !ok {
		return nil, dynamo.Configf("measure", code, "expected one of %v", Codes())
	}
	if len(indices) != f.arity {
		return nil, dynamo.Configf("indices", indices, "%s takes %s", code, f.usage)
	}
	return f.build(indices), nil
}

func Codes() []string {
	codes := make([]string, 0, len(factories))
	for c := range factories {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Series evaluates m at every sample of tr.
func Series(tr *langevin.Trajectory, m Measure) ([]float64, error) {
	out := make([]float64, tr.Len())
	for k := range out {
		v, err := m.Eval(tr.Modes[k], tr.Corrs[k])
		if err != nil {
			return nil, fmt.Errorf("%s at sample %d (t=%g): %w", m.Code(), k, tr.Times[k], err)
		}
		out[k] = v
	}
	return out, nil
}
