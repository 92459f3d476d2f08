package measures

import (
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Surface is a Wigner function sampled on a rectangular (q, p) grid.
// W[r][c] is the value at (Q[c], P[r]). Surface satisfies the
// gonum plotter.GridXYZ interface.
type Surface struct {
	Q, P []float64
	W    [][]float64
}

func (s *Surface) Dims() (c, r int)   { return len(s.Q), len(s.P) }
func (s *Surface) Z(c, r int) float64 { return s.W[r][c] }
func (s *Surface) X(c int) float64    { return s.Q[c] }
func (s *Surface) Y(r int) float64    { return s.P[r] }

// Max returns the largest sample of the surface.
func (s *Surface) Max() float64 {
	m := math.Inf(-1)
	for _, row := range s.W {
		for _, w := range row {
			m = math.Max(m, w)
		}
	}
	return m
}

// gaussian2 holds the inverse and normalisation of a positive definite 2×2
// covariance.
type gaussian2 struct {
	i00, i01, i11 float64
	norm          float64
}

func newGaussian2(Vm mat.Symmetric) (gaussian2, error) {
	if Vm.SymmetricDim() != 2 {
		return gaussian2{}, dynamo.Configf("covariance", Vm.SymmetricDim(), "single-mode Wigner needs a 2x2 block")
	}
	a, b, d := Vm.At(0, 0), Vm.At(0, 1), Vm.At(1, 1)
	det := a*d - b*b
	if math.IsNaN(det) || math.IsInf(det, 0) {
		return gaussian2{}, &dynamo.SingularCovarianceError{Det: det, Reason: "non-finite entries"}
	}
	if !(a > 0) || !(det > 0) {
		return gaussian2{}, &dynamo.SingularCovarianceError{Det: det, Reason: "not positive definite"}
	}
	return gaussian2{
		i00:  d / det,
		i01:  -b / det,
		i11:  a / det,
		norm: 1 / (2 * math.Pi * math.Sqrt(det)),
	}, nil
}

func (g gaussian2) at(q, p float64) float64 {
	quad := g.i00*q*q + 2*g.i01*q*p + g.i11*p*p
	return g.norm * math.Exp(-0.5*quad)
}

// Wigner evaluates the single-mode Wigner function
//
//	W(x) = exp(−½ (x−μ)ᵀ V⁻¹ (x−μ)) / (2π √det V)
//
// on the grid q × p. Rows are evaluated in parallel for large grids.
func Wigner(Vm mat.Symmetric, mean [2]float64, q, p []float64) (*Surface, error) {
	g, err := newGaussian2(Vm)
	if err != nil {
		return nil, err
	}

	s := &Surface{
		Q: append([]float64(nil), q...),
		P: append([]float64(nil), p...),
		W: make([][]float64, len(p)),
	}
	dynamo.ParallelFor(len(p), 64, func(start, end int) {
		for r := start; r < end; r++ {
			row := make([]float64, len(q))
			dp := p[r] - mean[1]
			for c, x := range q {
				row[c] = g.at(x-mean[0], dp)
			}
			s.W[r] = row
		}
	})
	return s, nil
}

// WignerAt evaluates the single-mode Wigner function at one point.
func WignerAt(Vm mat.Symmetric, mean [2]float64, q, p float64) (float64, error) {
	g, err := newGaussian2(Vm)
	if err != nil {
		return 0, err
	}
	return g.at(q-mean[0], p-mean[1]), nil
}

// Wigner2 evaluates the two-mode Wigner function
//
//	W(x) = exp(−½ (x−μ)ᵀ V⁻¹ (x−μ)) / (4π² √det V)
//
// of a 4×4 covariance at every point.
func Wigner2(V mat.Symmetric, mean [4]float64, points [][4]float64) ([]float64, error) {
	if V.SymmetricDim() != 4 {
		return nil, dynamo.Configf("covariance", V.SymmetricDim(), "two-mode Wigner needs a 4x4 block")
	}
	if !finite(V) {
		return nil, &dynamo.SingularCovarianceError{Det: math.NaN(), Reason: "non-finite entries"}
	}

	var chol mat.Cholesky
	if !chol.Factorize(V) {
		return nil, &dynamo.SingularCovarianceError{Det: mat.Det(V), Reason: "not positive definite"}
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, &dynamo.SingularCovarianceError{Det: chol.Det(), Reason: err.Error()}
	}
	norm := 1 / (4 * math.Pi * math.Pi * math.Sqrt(chol.Det()))

	out := make([]float64, len(points))
	x := mat.NewVecDense(4, nil)
	for k, pt := range points {
		for i := range pt {
			x.SetVec(i, pt[i]-mean[i])
		}
		out[k] = norm * math.Exp(-0.5*mat.Inner(x, &inv, x))
	}
	return out, nil
}

// MeanQuadratures returns the phase-space centre (√2 Re α, √2 Im α).
func MeanQuadratures(alpha complex128) [2]float64 {
	return [2]float64{math.Sqrt2 * real(alpha), math.Sqrt2 * imag(alpha)}
}
