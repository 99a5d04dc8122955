// Package physics implements the point-particle interaction model.
//
// A [System] couples N particles through one of three pair potentials:
//
//   - [Gravity]: Newtonian attraction, U = c*G*mA*mB/d
//   - [Coulomb]: electrostatic interaction, U = -c*K*qA*qB/d
//   - [Spring]: harmonic pair coupling, U = -(c/2)*(d-rest)^2
//
// Pair forces are the derivative dU/dd projected onto the separation unit
// vector, accumulated with Newton's third law over all unordered pairs.
// The derivative is analytic by default; a forward finite difference with
// an explicit step size is available for cross-checking
// ([System.UseFiniteDifference]).
//
// A System implements [dynamo.System] over the flattened
// [positions | velocities] state layout and [dynamo.Hamiltonian] for energy
// diagnostics.
package physics
