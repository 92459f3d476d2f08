package systems

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

func init() {
	register(Descriptor{
		Code:        "osc",
		Description: "independent damped thermal oscillators",
		Defaults: func() Params {
			return Params{}.
				With("omegas", 1).
				With("gammas", 0.1).
				With("n_ths", 0)
		},
		Build: func(p Params) (Model, error) { return NewOscillators(p) },
	})
}

// Oscillators is a set of uncoupled damped modes, each relaxing towards
// its thermal state. The number of modes is the length of "omegas".
type Oscillators struct {
	omegas []float64
	gammas []float64
	nths   []float64
	noise  *mat.SymDense
}

func NewOscillators(p Params) (*Oscillators, error) {
	r := &reader{p: p}
	omegas := r.vector("omegas", -1)
	n := len(omegas)
	o := &Oscillators{
		omegas: omegas,
		gammas: r.vector("gammas", n),
		nths:   r.vector("n_ths", n),
	}
	for i := 0; i < n && r.err == nil; i++ {
		r.check(o.gammas[i] >= 0, "gammas", o.gammas, "must be non-negative")
		r.check(o.nths[i] >= 0, "n_ths", o.nths, "must be non-negative")
	}
	if r.err != nil {
		return nil, r.err
	}

	diag := make([]float64, 2*n)
	for i := range omegas {
		d := o.gammas[i] * (2*o.nths[i] + 1)
		diag[2*i], diag[2*i+1] = d, d
	}
	o.noise = diagonal(diag...)
	return o, nil
}

func (o *Oscillators) Name() string  { return fmt.Sprintf("%d damped oscillators", len(o.omegas)) }
func (o *Oscillators) NumModes() int { return len(o.omegas) }

func (o *Oscillators) ModeRates(dst, modes []complex128, t float64) {
	for i, a := range modes {
		dst[i] = -complex(o.gammas[i], o.omegas[i]) * a
	}
}

func (o *Oscillators) DriftMatrix(ws *Workspace, modes []complex128, t float64) *mat.Dense {
	A := ws.reset(2 * len(o.omegas))
	for i := range o.omegas {
		q, p := 2*i, 2*i+1
		A.Set(q, q, -o.gammas[i])
		A.Set(q, p, o.omegas[i])
		A.Set(p, q, -o.omegas[i])
		A.Set(p, p, -o.gammas[i])
	}
	return A
}

func (o *Oscillators) NoiseMatrix() *mat.SymDense { return o.noise }

func (o *Oscillators) InitialState() ([]complex128, *mat.SymDense) {
	diag := make([]float64, 2*len(o.omegas))
	for i, n := range o.nths {
		diag[2*i], diag[2*i+1] = n+0.5, n+0.5
	}
	return make([]complex128, len(o.omegas)), diagonal(diag...)
}

// CharacteristicCoefficients multiplies the per-mode factors
// λ² + 2γλ + γ² + ω².
func (o *Oscillators) CharacteristicCoefficients(modes []complex128, t float64) []float64 {
	coeffs := []float64{1}
	for i, w := range o.omegas {
		g := o.gammas[i]
		factor := []float64{1, 2 * g, g*g + w*w}
		next := make([]float64, len(coeffs)+2)
		for a, ca := range coeffs {
			for b, fb := range factor {
				next[a+b] += ca * fb
			}
		}
		coeffs = next
	}
	return coeffs
}
