// Package systems defines the linearized quantum models simulated by qomsim.
//
// A [Model] supplies, for a fixed parameter set:
//
//   - the nonlinear mean-field rate equations of its bosonic modes
//   - the real 2n×2n drift matrix A(α, t) of the quadrature fluctuations
//   - the constant noise matrix D
//   - the initial mode amplitudes and quadrature covariance V₀
//
// Quadratures are ordered (q₀, p₀, q₁, p₁, …) with q = (a+a†)/√2 and
// p = (a−a†)/(i√2), so the mean-field quadratures of mode k are
// √2·Re αₖ and √2·Im αₖ.
//
// # Parameters
//
// Models are built from [Params] merged over the defaults of their
// [Descriptor]. Selector options such as "t_mod" and "t_pos" are parsed
// once at construction; unknown values return a *dynamo.ConfigurationError.
//
//	model, err := systems.New("mod_00", systems.Params{}.With("A_ls", 25, 2.5))
//
// # Thread Safety
//
// Models are immutable after construction and may be shared. The drift
// matrix is written into a caller-owned [Workspace]; each goroutine needs
// its own workspace.
package systems
