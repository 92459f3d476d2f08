package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/systems"
)

// InstabilityCounts applies UnstableCount to the drift matrix at every
// sample of tr. Models implementing systems.Characteristic supply their
// coefficients directly.
func InstabilityCounts(model systems.Model, tr *langevin.Trajectory) ([]int, error) {
	if tr.NumModes != model.NumModes() {
		return nil, fmt.Errorf("%w: trajectory has %d modes, model %d",
			dynamo.ErrDimensionMismatch, tr.NumModes, model.NumModes())
	}

	closed, hasClosed := model.(systems.Characteristic)
	ws := systems.NewWorkspace(model.NumModes())
	counts := make([]int, tr.Len())

	for k, t := range tr.Times {
		var coeffs []float64
		if hasClosed {
			coeffs = closed.CharacteristicCoefficients(tr.Modes[k], t)
		} else {
			coeffs = CharacteristicCoefficients(model.DriftMatrix(ws, tr.Modes[k], t))
		}
		for _, c := range coeffs {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return nil, fmt.Errorf("%w: characteristic polynomial at t=%g", dynamo.ErrInvalidState, t)
			}
		}
		counts[k] = UnstableCount(coeffs)
	}
	return counts, nil
}

// Stability summarises an instability count series.
type Stability struct {
	Mean     float64
	Unstable int
	Samples  int
	Stable   bool
}

// Verdict reports the mean count over counts. The window is stable only if
// every count is zero.
func Verdict(counts []int) (Stability, error) {
	if len(counts) == 0 {
		return Stability{}, dynamo.Configf("window", 0, "no samples to assess")
	}
	v := Stability{Samples: len(counts)}
	total := 0
	for _, c := range counts {
		total += c
		if c > 0 {
			v.Unstable++
		}
	}
	v.Mean = float64(total) / float64(len(counts))
	v.Stable = v.Unstable == 0
	return v, nil
}
