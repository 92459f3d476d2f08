package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/san-kum/qomsim/internal/dynamo"
	"github.com/san-kum/qomsim/internal/langevin"
	"github.com/san-kum/qomsim/internal/systems"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// QuadratureSeries returns the mean-field quadrature q of tr, ordered as
// (q₀, p₀, q₁, p₁, …).
func QuadratureSeries(tr *langevin.Trajectory, q int) ([]float64, error) {
	if q < 0 || q >= 2*tr.NumModes {
		return nil, dynamo.Configf("quadrature", q, "outside %d quadratures", 2*tr.NumModes)
	}
	out := make([]float64, tr.Len())
	for k, modes := range tr.Modes {
		x, p := systems.Quadratures(modes[q/2])
		if q%2 == 1 {
			x = p
		}
		out[k] = x
	}
	return out, nil
}

// PowerSpectrum returns the one-sided periodogram |X_k|²/N of the mean
// subtracted series, sampled every dt, and the frequencies k/(N·dt) in
// cycles per unit time.
func PowerSpectrum(series []float64, dt float64) (freqs, power []float64, err error) {
	n := len(series)
	if n < 4 {
		return nil, nil, dynamo.Configf("series", n, "need at least 4 samples")
	}
	if !(dt > 0) {
		return nil, nil, dynamo.Configf("dt", dt, "must be positive")
	}

	mean := stat.Mean(series, nil)
	centred := make([]float64, n)
	for i, v := range series {
		centred[i] = v - mean
	}

	spec := fft.FFTReal(centred)
	half := n/2 + 1
	freqs = make([]float64, half)
	power = make([]float64, half)
	for k := 0; k < half; k++ {
		a := cmplx.Abs(spec[k])
		power[k] = a * a / float64(n)
		freqs[k] = float64(k) / (float64(n) * dt)
	}
	return freqs, power, nil
}

// DominantFrequency returns the non-zero frequency with the largest power.
func DominantFrequency(series []float64, dt float64) (float64, error) {
	freqs, power, err := PowerSpectrum(series, dt)
	if err != nil {
		return 0, err
	}
	return freqs[1+floats.MaxIdx(power[1:])], nil
}
