// Package dynamo provides the numerical primitives shared by the qomsim
// packages.
//
// The package defines the state vector, the ODE contract and the typed
// errors returned across package boundaries:
//
//   - [State]: flat real vector handed to integrators
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator]: fixed-step integrator interface
//   - [AdaptiveIntegrator]: integrators with embedded error estimates
//   - [Config]: sampling and step-control settings for a run
//
// # Example
//
//	eq := langevin.NewEquations(model)
//	s := sim.New(eq, integrators.NewRK45())
//	result, err := s.Run(ctx, eq.InitialState(), cfg)
//
// # Errors
//
// Every typed error unwraps to one of the sentinel values below, so callers
// may use either errors.Is or errors.As.
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT safe for concurrent use.
// Give every worker its own integrator and system.
package dynamo
