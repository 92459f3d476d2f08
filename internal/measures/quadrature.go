package measures

import (
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// VacuumVariance is the variance of either quadrature in the vacuum state.
const VacuumVariance = 0.5

// QuadratureVariance returns the correlation V[i][j] of two quadratures.
func QuadratureVariance(V mat.Symmetric, i, j int) (float64, error) {
	if err := checkQuadrature(V, i); err != nil {
		return 0, err
	}
	if err := checkQuadrature(V, j); err != nil {
		return 0, err
	}
	v := V.At(i, j)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &dynamo.CovarianceDomainError{Quantity: "quadrature variance", Value: v}
	}
	return v, nil
}

// Squeezing returns V[q][q] − 1/2. Negative values are squeezed below the
// vacuum.
func Squeezing(V mat.Symmetric, q int) (float64, error) {
	v, err := QuadratureVariance(V, q, q)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, &dynamo.CovarianceDomainError{Quantity: "quadrature variance", Value: v}
	}
	return v - VacuumVariance, nil
}

// MinimumVariance returns the smallest variance of mode m over all
// quadrature angles, the lower eigenvalue of its 2×2 block.
func MinimumVariance(V mat.Symmetric, m int) (float64, error) {
	if err := checkMode(V, m); err != nil {
		return 0, err
	}
	a, b, d := V.At(2*m, 2*m), V.At(2*m, 2*m+1), V.At(2*m+1, 2*m+1)
	lo := (a+d)/2 - math.Hypot((a-d)/2, b)
	if math.IsNaN(lo) || lo < 0 {
		return 0, &dynamo.CovarianceDomainError{Quantity: "minimum variance", Value: lo}
	}
	return lo, nil
}
