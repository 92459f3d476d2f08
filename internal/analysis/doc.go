// Package analysis characterises trajectories produced by langevin.Solve.
//
// The package covers:
//
//   - [CharacteristicCoefficients], [HurwitzMatrix], [UnstableCount]: the
//     Routh–Hurwitz test for roots of the drift matrix in the right half plane
//   - [InstabilityCounts], [Verdict]: the test applied at every sample
//   - [PowerSpectrum], [DominantFrequency]: spectra of mean-field quadratures
//   - [PhasePortrait], [StroboscopicSection]: mean-field phase space plots
//
// # Stability
//
// A trajectory is stable over its window only if no sample has a drift
// matrix with an eigenvalue of positive real part:
//
//	counts, err := analysis.InstabilityCounts(model, tr)
//	v, err := analysis.Verdict(counts)
//	if !v.Stable {
//	    // linearisation is not valid along tr
//	}
package analysis
