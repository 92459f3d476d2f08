package measures

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/san-kum/qomsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// twoModeSqueezed is the covariance of a two-mode squeezed vacuum with
// squeezing r, optionally embedded next to a vacuum mode at index 0.
func twoModeSqueezed(r float64, padded bool) *mat.SymDense {
	c, s := math.Cosh(2*r)/2, math.Sinh(2*r)/2
	off := 0
	dim := 4
	if padded {
		off, dim = 2, 6
	}
	V := mat.NewSymDense(dim, nil)
	if padded {
		V.SetSym(0, 0, 0.5)
		V.SetSym(1, 1, 0.5)
	}
	for k := 0; k < 4; k++ {
		V.SetSym(off+k, off+k, c)
	}
	V.SetSym(off+0, off+2, s)
	V.SetSym(off+1, off+3, -s)
	return V
}

func TestLogNegativityTwoModeSqueezed(t *testing.T) {
	for _, r := range []float64{0, 0.1, 0.5, 1.2} {
		got, err := LogNegativity(twoModeSqueezed(r, false), 0, 1)
		if err != nil {
			t.Fatalf("r=%g: %v", r, err)
		}
		if math.Abs(got-2*r) > 1e-9 {
			t.Errorf("r=%g: E_N = %.12f, want %.12f", r, got, 2*r)
		}

		padded, err := LogNegativity(twoModeSqueezed(r, true), 2, 1)
		if err != nil {
			t.Fatalf("r=%g padded: %v", r, err)
		}
		if math.Abs(padded-2*r) > 1e-9 {
			t.Errorf("r=%g padded: E_N = %.12f, want %.12f", r, padded, 2*r)
		}
	}
}

func TestLogNegativityProductStates(t *testing.T) {
	tests := []struct {
		name string
		diag []float64
	}{
		{"vacuum", []float64{0.5, 0.5, 0.5, 0.5}},
		{"thermal", []float64{1.5, 1.5, 10.5, 10.5}},
		{"squeezed", []float64{0.5 * math.Exp(-1), 0.5 * math.Exp(1), 0.5 * math.Exp(0.6), 0.5 * math.Exp(-0.6)}},
	}
	for _, r := range []float64{0.1, 0.3, 0.5, 1.0} {
		tests = append(tests, struct {
			name string
			diag []float64
		}{fmt.Sprintf("squeezed r=%g with vacuum", r), []float64{0.5 * math.Exp(-2*r), 0.5 * math.Exp(2*r), 0.5, 0.5}})
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			V := mat.NewSymDense(4, nil)
			for i, d := range tt.diag {
				V.SetSym(i, i, d)
			}
			got, err := LogNegativity(V, 0, 1)
			if err != nil {
				t.Fatal(err)
			}
			if got != 0 {
				t.Errorf("E_N = %g, want exactly 0", got)
			}
		})
	}
}

func TestLogNegativityDomainErrors(t *testing.T) {
	negDisc := mat.NewSymDense(4, []float64{
		2, 0, 0, 2,
		0, 2, -2, 0,
		0, -2, 1, 0,
		2, 0, 0, 1,
	})
	negRadicand := mat.NewSymDense(4, []float64{
		1, 0, 2, 0,
		0, 1, 0, 1,
		2, 0, 1, 0,
		0, 1, 0, 1,
	})
	withNaN := twoModeSqueezed(0.3, false)
	withNaN.SetSym(0, 1, math.NaN())

	tests := []struct {
		name     string
		V        mat.Symmetric
		quantity string
	}{
		{"negative discriminant", negDisc, "discriminant"},
		{"negative radicand", negRadicand, "symplectic eigenvalue squared"},
		{"NaN entry", withNaN, "covariance"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LogNegativity(tt.V, 0, 1)
			var domain *dynamo.CovarianceDomainError
			if !errors.As(err, &domain) {
				t.Fatalf("expected domain error, got %v", err)
			}
			if domain.Quantity != tt.quantity {
				t.Errorf("quantity = %q, want %q", domain.Quantity, tt.quantity)
			}
		})
	}

	if _, err := LogNegativity(twoModeSqueezed(0.3, false), 1, 1); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("same mode: expected configuration error, got %v", err)
	}
	if _, err := LogNegativity(twoModeSqueezed(0.3, false), 0, 2); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("missing mode: expected configuration error, got %v", err)
	}
}

func TestSymplecticEigenvalues(t *testing.T) {
	nus, err := SymplecticEigenvalues(twoModeSqueezed(0.7, false))
	if err != nil {
		t.Fatal(err)
	}
	for _, nu := range nus {
		if math.Abs(nu-0.5) > 1e-9 {
			t.Errorf("pure state symplectic eigenvalue %g, want 0.5", nu)
		}
	}

	thermal := mat.NewSymDense(4, []float64{
		3.5, 0, 0, 0,
		0, 3.5, 0, 0,
		0, 0, 1.5, 0,
		0, 0, 0, 1.5,
	})
	nus, err = SymplecticEigenvalues(thermal)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(nus[0]-1.5) > 1e-9 || math.Abs(nus[1]-3.5) > 1e-9 {
		t.Errorf("thermal symplectic eigenvalues %v, want [1.5 3.5]", nus)
	}

	if err := CheckPhysical(thermal, 1e-9); err != nil {
		t.Errorf("thermal state reported unphysical: %v", err)
	}
	tooSharp := mat.NewSymDense(2, []float64{0.2, 0, 0, 0.2})
	if err := CheckPhysical(tooSharp, 1e-9); !errors.Is(err, dynamo.ErrCovarianceDomain) {
		t.Errorf("expected uncertainty violation, got %v", err)
	}
}

func TestQuadratures(t *testing.T) {
	s := 0.4
	// squeezed vacuum rotated by π/4
	lo, hi := 0.5*math.Exp(-2*s), 0.5*math.Exp(2*s)
	V := mat.NewSymDense(2, []float64{
		(lo + hi) / 2, (hi - lo) / 2,
		(hi - lo) / 2, (lo + hi) / 2,
	})

	v, err := QuadratureVariance(V, 0, 1)
	if err != nil || v != (hi-lo)/2 {
		t.Errorf("QuadratureVariance = %g, %v", v, err)
	}
	sq, err := Squeezing(V, 0)
	if err != nil || math.Abs(sq-((lo+hi)/2-0.5)) > 1e-15 {
		t.Errorf("Squeezing = %g, %v", sq, err)
	}
	mv, err := MinimumVariance(V, 0)
	if err != nil || math.Abs(mv-lo) > 1e-12 {
		t.Errorf("MinimumVariance = %g, want %g (%v)", mv, lo, err)
	}

	if _, err := QuadratureVariance(V, 0, 2); !errors.Is(err, dynamo.ErrConfiguration) {
		t.Errorf("expected configuration error, got %v", err)
	}
}
