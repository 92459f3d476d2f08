// Package langevin evolves the mean-field mode amplitudes of a
// systems.Model together with the covariance of its quadrature
// fluctuations.
//
// The combined state is flattened for the integrators as
//
//	[Re α₀, Im α₀, …, Re αₙ₋₁, Im αₙ₋₁, V₀₀, V₀₁, …, V₂ₙ₋₁,₂ₙ₋₁]
//
// with V stored in full, row-major. The covariance obeys the Lyapunov
// equation dV/dt = A·V + V·Aᵀ + D.
package langevin

import (
	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/systems"
	"gonum.org/v1/gonum/mat"
)

// Equations adapts a model to dynamo.System. It owns a drift workspace and
// is not safe for concurrent use.
type Equations struct {
	model systems.Model
	n     int
	dim   int
	ws    *systems.Workspace
	noise []float64
	modes []complex128
	rates []complex128
}

func NewEquations(model systems.Model) *Equations {
	n := model.NumModes()
	dim := 2 * n
	e := &Equations{
		model: model,
		n:     n,
		dim:   dim,
		ws:    systems.NewWorkspace(n),
		noise: make([]float64, dim*dim),
		modes: make([]complex128, n),
		rates: make([]complex128, n),
	}
	D := model.NoiseMatrix()
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			e.noise[i*dim+j] = D.At(i, j)
		}
	}
	return e
}

func (e *Equations) Model() systems.Model { return e.model }

func (e *Equations) StateDim() int { return e.dim + e.dim*e.dim }

// InitialState packs the model's initial amplitudes and covariance.
func (e *Equations) InitialState() dynamo.State {
	modes, V := e.model.InitialState()
	return Pack(modes, V)
}

func (e *Equations) Derive(x dynamo.State, t float64) dynamo.State {
	dx := make(dynamo.State, len(x))

	for k := 0; k < e.n; k++ {
		e.modes[k] = complex(x[2*k], x[2*k+1])
	}
	e.model.ModeRates(e.rates, e.modes, t)
	for k, r := range e.rates {
		dx[2*k], dx[2*k+1] = real(r), imag(r)
	}

	raw := e.model.DriftMatrix(e.ws, e.modes, t).RawMatrix()
	a, stride := raw.Data, raw.Stride
	dim := e.dim
	V := x[e.dim:]
	dV := dx[e.dim:]

	// upper triangle of A·V + V·Aᵀ + D, mirrored
	for i := 0; i < dim; i++ {
		ai := a[i*stride : i*stride+dim]
		vi := V[i*dim : i*dim+dim]
		for j := i; j < dim; j++ {
			aj := a[j*stride : j*stride+dim]
			s := e.noise[i*dim+j]
			for k := 0; k < dim; k++ {
				s += ai[k]*V[k*dim+j] + vi[k]*aj[k]
			}
			dV[i*dim+j] = s
			dV[j*dim+i] = s
		}
	}
	return dx
}

// DirectRate evaluates A·V + V·Aᵀ + D with full matrix products.
func (e *Equations) DirectRate(modes []complex128, V *mat.SymDense, t float64) *mat.Dense {
	A := e.model.DriftMatrix(e.ws, modes, t)

	var AV, rate mat.Dense
	AV.Mul(A, V)
	rate.Add(&AV, AV.T())
	rate.Add(&rate, e.model.NoiseMatrix())
	return &rate
}

// Pack flattens amplitudes and covariance into a solver state.
func Pack(modes []complex128, V mat.Symmetric) dynamo.State {
	dim := 2 * len(modes)
	x := make(dynamo.State, dim+dim*dim)
	for k, a := range modes {
		x[2*k], x[2*k+1] = real(a), imag(a)
	}
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			x[dim+i*dim+j] = V.At(i, j)
		}
	}
	return x
}

// Unpack splits a solver state of n modes. The covariance is read from
// the upper triangle.
func Unpack(x dynamo.State, n int) ([]complex128, *mat.SymDense) {
	dim := 2 * n
	modes := make([]complex128, n)
	for k := range modes {
		modes[k] = complex(x[2*k], x[2*k+1])
	}
	V := mat.NewSymDense(dim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			V.SetSym(i, j, x[dim+i*dim+j])
		}
	}
	return modes, V
}
