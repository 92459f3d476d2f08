package measures

import (
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// Block extracts the covariance of the quadratures in idx.
func Block(V mat.Symmetric, idx ...int) *mat.SymDense {
	b := mat.NewSymDense(len(idx), nil)
	for r, i := range idx {
		for c := r; c < len(idx); c++ {
			b.SetSym(r, c, V.At(i, idx[c]))
		}
	}
	return b
}

// ModeCovariance returns the 2×2 covariance of mode m.
func ModeCovariance(V mat.Symmetric, m int) *mat.SymDense {
	return Block(V, 2*m, 2*m+1)
}

func checkMode(V mat.Symmetric, m int) error {
	if n := V.SymmetricDim() / 2; m < 0 || m >= n {
		return dynamo.Configf("mode", m, "outside %d modes", n)
	}
	return nil
}

func checkQuadrature(V mat.Symmetric, q int) error {
	if dim := V.SymmetricDim(); q < 0 || q >= dim {
		return dynamo.Configf("quadrature", q, "outside %d quadratures", dim)
	}
	return nil
}

func finite(V mat.Symmetric) bool {
	n := V.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := V.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func det2(a, b, c, d float64) float64 { return a*d - b*c }
