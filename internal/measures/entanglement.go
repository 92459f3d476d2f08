package measures

import (
	"math"
	"sort"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// discriminantTolerance absorbs round-off in Δ² − 4·det V for pure states,
// where the discriminant is exactly zero.
const discriminantTolerance = 1e-12

// discriminantResolution is how finely Δ² − 4·det V is resolved, relative
// to Δ². Below it the two symplectic eigenvalues coincide.
const discriminantResolution = 64 * 0x1p-52

// separabilityTolerance snaps E_N within round-off of the separable
// boundary 2ν₋ = 1 to zero.
const separabilityTolerance = 1e-12

// LogNegativity returns E_N = max(0, −ln 2ν₋) of modes i and j, where ν₋ is
// the smaller symplectic eigenvalue of the partially transposed two-mode
// covariance.
func LogNegativity(V mat.Symmetric, i, j int) (float64, error) {
	if err := checkMode(V, i); err != nil {
		return 0, err
	}
	if err := checkMode(V, j); err != nil {
		return 0, err
	}
	if i == j {
		return 0, dynamo.Configf("mode", j, "log-negativity needs two distinct modes")
	}

	B := Block(V, 2*i, 2*i+1, 2*j, 2*j+1)
	if !finite(B) {
		return 0, &dynamo.CovarianceDomainError{Quantity: "covariance", Value: math.NaN()}
	}

	a := det2(B.At(0, 0), B.At(0, 1), B.At(1, 0), B.At(1, 1))
	b := det2(B.At(2, 2), B.At(2, 3), B.At(3, 2), B.At(3, 3))
	c := det2(B.At(0, 2), B.At(0, 3), B.At(1, 2), B.At(1, 3))
	detV := mat.Det(B)

	delta := a + b - 2*c
	disc := delta*delta - 4*detV
	if disc < discriminantResolution*delta*delta {
		if disc < -discriminantTolerance*math.Max(delta*delta, 1) {
			return 0, &dynamo.CovarianceDomainError{Quantity: "discriminant", Value: disc}
		}
		disc = 0
	}

	// smaller root of x² − Δx + det V, without cancellation
	nu2 := 2 * detV / (delta + math.Sqrt(disc))
	if !(nu2 > 0) {
		return 0, &dynamo.CovarianceDomainError{Quantity: "symplectic eigenvalue squared", Value: nu2}
	}
	en := -math.Log(2 * math.Sqrt(nu2))
	if en < separabilityTolerance {
		return 0, nil
	}
	return en, nil
}

// symplecticForm returns Ω = ⊕ [[0, 1], [−1, 0]] for n modes.
func symplecticForm(n int) *mat.Dense {
	omega := mat.NewDense(2*n, 2*n, nil)
	for k := 0; k < n; k++ {
		omega.Set(2*k, 2*k+1, 1)
		omega.Set(2*k+1, 2*k, -1)
	}
	return omega
}

// SymplecticEigenvalues returns the n symplectic eigenvalues of V in
// ascending order, the moduli of the eigenvalues of iΩV.
func SymplecticEigenvalues(V mat.Symmetric) ([]float64, error) {
	dim := V.SymmetricDim()
	if dim%2 != 0 {
		return nil, dynamo.Configf("covariance", dim, "dimension must be even")
	}
	if !finite(V) {
		return nil, &dynamo.CovarianceDomainError{Quantity: "covariance", Value: math.NaN()}
	}

	var OV mat.Dense
	OV.Mul(symplecticForm(dim/2), V)

	var eig mat.Eigen
	if !eig.Factorize(&OV, mat.EigenNone) {
		return nil, &dynamo.SingularCovarianceError{Reason: "eigen decomposition did not converge"}
	}
	vals := eig.Values(nil)

	// eigenvalues come in pairs ±iν
	nus := make([]float64, 0, dim)
	for _, v := range vals {
		nus = append(nus, math.Abs(imag(v)))
	}
	sort.Float64s(nus)
	out := make([]float64, dim/2)
	for k := range out {
		out[k] = (nus[2*k] + nus[2*k+1]) / 2
	}
	return out, nil
}

// CheckPhysical reports a *dynamo.CovarianceDomainError when V violates the
// uncertainty principle V + iΩ/2 ≥ 0 by more than tol.
func CheckPhysical(V mat.Symmetric, tol float64) error {
	nus, err := SymplecticEigenvalues(V)
	if err != nil {
		return err
	}
	if nus[0] < 0.5-tol {
		return &dynamo.CovarianceDomainError{Quantity: "smallest symplectic eigenvalue", Value: nus[0]}
	}
	return nil
}
