// Package measures derives physical quantities from a single sample of a
// Gaussian state: logarithmic negativity between two modes, quadrature
// variances and squeezing, symplectic eigenvalues and Wigner
// quasi-probability surfaces.
//
// Every function is pure. Inputs outside a measure's domain (NaN entries,
// negative discriminants, singular blocks) are reported as typed dynamo
// errors, never as sentinel numbers. The one deliberate floor is the
// logarithmic negativity, which is zero for separable states.
//
// [Series] applies a [Measure] to every sample of a langevin.Trajectory.
package measures
