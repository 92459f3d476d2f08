package analysis

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// minorTolerance is the fraction of the Hadamard bound below which a
// Hurwitz minor is taken to be zero.
const minorTolerance = 1e-12

// maxMinorDim bounds the principal-minor expansion, which visits every
// subset of rows. Larger matrices use the Faddeev–LeVerrier recursion.
const maxMinorDim = 12

// CharacteristicCoefficients returns c₀..cₘ with
// det(λI − A) = c₀λᵐ + c₁λᵐ⁻¹ + … + cₘ, so c₀ = 1 and cₖ = (−1)ᵏ Eₖ(A) where
// Eₖ is the sum of the k×k principal minors of A.
func CharacteristicCoefficients(A mat.Matrix) []float64 {
	m, c := A.Dims()
	if m != c {
		panic(mat.ErrSquare)
	}
	if m > maxMinorDim {
		return leVerrier(A)
	}

	coeffs := make([]float64, m+1)
	coeffs[0] = 1
	idx := make([]int, 0, m)
	bufs := make([]*mat.Dense, m+1)
	var lu mat.LU

	for mask := 1; mask < 1<<m; mask++ {
		idx = idx[:0]
		for i := 0; i < m; i++ {
			if mask&(1<<i) != 0 {
				idx = append(idx, i)
			}
		}
		k := len(idx)
		var minor float64
		switch k {
		case 1:
			minor = A.At(idx[0], idx[0])
		case 2:
			i, j := idx[0], idx[1]
			minor = A.At(i, i)*A.At(j, j) - A.At(i, j)*A.At(j, i)
		case 3:
			minor = det3(A, idx[0], idx[1], idx[2])
		default:
			if bufs[k] == nil {
				bufs[k] = mat.NewDense(k, k, nil)
			}
			sub := bufs[k]
			for r, i := range idx {
				for s, j := range idx {
					sub.Set(r, s, A.At(i, j))
				}
			}
			lu.Factorize(sub)
			minor = lu.Det()
		}
		if k%2 == 1 {
			minor = -minor
		}
		coeffs[k] += minor
	}
	return coeffs
}

func det3(A mat.Matrix, i, j, k int) float64 {
	a, b, c := A.At(i, i), A.At(i, j), A.At(i, k)
	d, e, f := A.At(j, i), A.At(j, j), A.At(j, k)
	g, h, l := A.At(k, i), A.At(k, j), A.At(k, k)
	return a*(e*l-f*h) - b*(d*l-f*g) + c*(d*h-e*g)
}

// leVerrier computes the same coefficients through the recursion
// Mₖ = A·Mₖ₋₁ + cₖ₋₁I, cₖ = −tr(A·Mₖ)/k.
func leVerrier(A mat.Matrix) []float64 {
	m, _ := A.Dims()
	coeffs := make([]float64, m+1)
	coeffs[0] = 1

	M := mat.NewDense(m, m, nil)
	var AM mat.Dense
	for k := 1; k <= m; k++ {
		for i := 0; i < m; i++ {
			M.Set(i, i, M.At(i, i)+coeffs[k-1])
		}
		AM.Mul(A, M)
		coeffs[k] = -mat.Trace(&AM) / float64(k)
		M.Copy(&AM)
	}
	return coeffs
}

// HurwitzMatrix returns the m×m Hurwitz matrix H with Hᵢⱼ = a₂ⱼ₋ᵢ
// (one-based), taking aₖ = 0 outside 0..m.
func HurwitzMatrix(coeffs []float64) *mat.Dense {
	m := len(coeffs) - 1
	if m < 1 {
		return nil
	}
	H := mat.NewDense(m, m, nil)
	for i := 1; i <= m; i++ {
		for j := 1; j <= m; j++ {
			if k := 2*j - i; k >= 0 && k <= m {
				H.Set(i-1, j-1, coeffs[k])
			}
		}
	}
	return H
}

// HurwitzMinors returns the leading principal minors Δ₁..Δₘ of the Hurwitz
// matrix together with their Hadamard bounds.
func HurwitzMinors(coeffs []float64) (minors, bounds []float64) {
	H := HurwitzMatrix(coeffs)
	if H == nil {
		return nil, nil
	}
	m, _ := H.Dims()
	minors = make([]float64, m)
	bounds = make([]float64, m)

	var lu mat.LU
	for k := 1; k <= m; k++ {
		lead := H.Slice(0, k, 0, k)
		bound := 1.0
		for i := 0; i < k; i++ {
			bound *= mat.Norm(H.Slice(i, i+1, 0, k), 2)
		}
		lu.Factorize(lead)
		minors[k-1] = lu.Det()
		bounds[k-1] = bound
	}
	return minors, bounds
}

// UnstableCount returns the number of sign changes in
// a₀, Δ₁, Δ₂/Δ₁, …, Δₘ/Δₘ₋₁, which equals the number of roots with positive
// real part when no minor vanishes. A non-positive coefficient or a
// vanishing minor marks the polynomial as marginal and the count is at
// least one.
func UnstableCount(coeffs []float64) int {
	if len(coeffs) < 2 {
		return 0
	}
	a := coeffs
	if a[0] < 0 {
		a = make([]float64, len(coeffs))
		for i, c := range coeffs {
			a[i] = -c
		}
	}

	marginal := !(a[0] > 0)
	for _, c := range a[1:] {
		if !(c > 0) {
			marginal = true
		}
	}

	minors, bounds := HurwitzMinors(a)
	changes := 0
	prevSign, prevMinorSign := sign(a[0]), 1.0
	for k, d := range minors {
		if math.IsNaN(d) || math.Abs(d) <= minorTolerance*bounds[k] {
			marginal = true
			break
		}
		s := sign(d) * prevMinorSign
		if s != prevSign {
			changes++
		}
		prevSign, prevMinorSign = s, sign(d)
	}

	if marginal && changes == 0 {
		return 1
	}
	return changes
}

func sign(x float64) float64 {
	if x < 0 {
		return -1
	}
	return 1
}
