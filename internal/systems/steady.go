package systems

import (
	"fmt"
	"math"
	"math/cmplx"
	"sort"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Stationary is implemented by models whose mean-field equations have a
// closed-form set of fixed points. Drives are held at their carrier
// amplitudes and the spring constant at its t=0 value.
type Stationary interface {
	SteadyState() ([][]complex128, error)
}

// SteadyState returns the fixed points of m ordered by the mechanical
// displacement 2·Re β, smallest magnitude first.
func SteadyState(m Model) ([][]complex128, error) {
	s, ok := m.(Stationary)
	if !ok {
		return nil, dynamo.Configf("model", m.Name(), "no closed-form steady state")
	}
	return s.SteadyState()
}

func (m *OEM20) SteadyState() ([][]complex128, error) {
	return electromechanicalFixedPoints(electromechanics{
		laser: m.laser[0], voltage: m.voltage[0],
		kappa: m.gammas[0], delta0: m.delta0, g: m.gab,
		gammaB: m.gammas[1], omegaB: m.MechanicalFrequency(0), g1: m.gbc,
		gammaC: m.gammas[2], omegaC: m.omegaC,
	})
}

func (m *Mod00) SteadyState() ([][]complex128, error) {
	return electromechanicalFixedPoints(electromechanics{
		laser: m.laser[0], voltage: m.voltage[0],
		kappa: m.kappa, delta0: m.delta0, g: m.g0,
		gammaB: m.gammas[0], omegaB: m.omegas[0], g1: m.g1,
		gammaC: m.gammas[1], omegaC: m.omegas[1],
	})
}

// electromechanics holds the static coefficients of a cavity, a membrane
// and an LC circuit coupled as in Mod00 and OEM20.
type electromechanics struct {
	laser, voltage   float64
	kappa, delta0, g float64
	gammaB, omegaB   float64
	g1               float64
	gammaC, omegaC   float64
}

// electromechanicalFixedPoints eliminates α and χ in favor of the sum
// s = β + β*. With c = χ + χ*,
//
//	|α|² = A_l² / (κ² + (Δ₀ − g s)²)
//	c    = 2ω_c A_v / (γ_c² + ω_c² − 4ω_c g₁ s)
//	s    = 2ω_b (g|α|² + g₁c²) / (γ_b² + ω_b²)
//
// and clearing denominators leaves a quintic in s.
func electromechanicalFixedPoints(e electromechanics) ([][]complex128, error) {
	// κ² + (Δ₀ − g s)²
	d1 := []float64{e.g * e.g, -2 * e.g * e.delta0, e.kappa*e.kappa + e.delta0*e.delta0}
	// γ_c² + ω_c² − 4ω_c g₁ s
	lc := []float64{-4 * e.omegaC * e.g1, e.gammaC*e.gammaC + e.omegaC*e.omegaC}
	d2 := polyMul(lc, lc)
	mech := e.gammaB*e.gammaB + e.omegaB*e.omegaB
	cv := 2 * e.omegaC * e.voltage

	lhs := polyMul([]float64{mech, 0}, polyMul(d1, d2))
	rhs := polyAdd(
		polyScale(d2, 2*e.omegaB*e.g*e.laser*e.laser),
		polyScale(d1, 2*e.omegaB*e.g1*cv*cv),
	)
	sums, err := realRoots(polyAdd(lhs, polyScale(rhs, -1)))
	if err != nil {
		return nil, err
	}
	sort.Slice(sums, func(i, j int) bool { return math.Abs(sums[i]) < math.Abs(sums[j]) })

	out := make([][]complex128, 0, len(sums))
	for _, s := range sums {
		alpha := complex(e.laser, 0) / complex(e.kappa, e.delta0-e.g*s)
		c := cv / polyEval(lc, s)
		n := real(cmplx.Conj(alpha) * alpha)
		beta := complex(0, e.g*n+e.g1*c*c) / complex(e.gammaB, e.omegaB)
		chi := complex(0, e.voltage+2*e.g1*s*c) / complex(e.gammaC, e.omegaC)
		if cmplx.IsNaN(alpha) || cmplx.IsInf(alpha) || math.IsInf(c, 0) || math.IsNaN(c) {
			continue
		}
		out = append(out, []complex128{alpha, beta, chi})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no finite fixed point", dynamo.ErrInvalidState)
	}
	return out, nil
}

// realRoots returns the real roots of the polynomial p, highest power
// first, as eigenvalues of its companion matrix. Each root is refined by
// Newton steps.
func realRoots(p []float64) ([]float64, error) {
	for len(p) > 0 && p[0] == 0 {
		p = p[1:]
	}
	n := len(p) - 1
	if n < 1 {
		return nil, nil
	}
	companion := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		companion.Set(0, j, -p[j+1]/p[0])
	}
	for i := 1; i < n; i++ {
		companion.Set(i, i-1, 1)
	}
	var eig mat.Eigen
	if !eig.Factorize(companion, mat.EigenNone) {
		return nil, fmt.Errorf("%w: companion matrix has no eigendecomposition", dynamo.ErrInvalidState)
	}

	var roots []float64
	for _, z := range eig.Values(nil) {
		if math.Abs(imag(z)) > 1e-7*math.Max(1, cmplx.Abs(z)) {
			continue
		}
		roots = append(roots, polish(p, real(z)))
	}
	return roots, nil
}

func polish(p []float64, x float64) float64 {
	dp := make([]float64, len(p)-1)
	for i := range dp {
		dp[i] = p[i] * float64(len(p)-1-i)
	}
	for range 4 {
		d := polyEval(dp, x)
		if d == 0 {
			break
		}
		next := x - polyEval(p, x)/d
		if math.Abs(polyEval(p, next)) >= math.Abs(polyEval(p, x)) {
			break
		}
		x = next
	}
	return x
}

func polyEval(p []float64, x float64) float64 {
	var y float64
	for _, c := range p {
		y = y*x + c
	}
	return y
}

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

func polyAdd(a, b []float64) []float64 {
	if len(a) < len(b) {
		a, b = b, a
	}
	out := append([]float64(nil), a...)
	off := len(a) - len(b)
	for i, y := range b {
		out[off+i] += y
	}
	return out
}

func polyScale(p []float64, k float64) []float64 {
	out := make([]float64, len(p))
	for i, c := range p {
		out[i] = k * c
	}
	return out
}
