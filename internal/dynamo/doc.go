// Package dynamo provides core simulation primitives for particle systems.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: flattened [positions | velocities] state vector
//   - [System]: interface for ODE right-hand sides (dX/dt = f(X, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [AdaptiveIntegrator]: integrator with error-controlled step selection
//
// # Thread Safety
//
// A [System] implementation is required to be a pure function of its inputs,
// so a single system may be shared across goroutines. Integrators carry
// scratch buffers and are NOT safe for concurrent use; allocate one per
// goroutine.
package dynamo
