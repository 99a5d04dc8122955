package physics

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// SeparationError reports a particle pair whose separation makes the force
// direction undefined. It is a fatal domain error: the run is aborted, not
// retried.
type SeparationError struct {
	I, J int
	Kind ForceKind
}

func (e SeparationError) Error() string {
	return fmt.Sprintf("particles %d and %d coincide: %v force undefined at zero separation", e.I, e.J, e.Kind)
}

// Forces accumulates the net force on every particle over all unordered
// pairs i<j. For each pair the scalar force dU/dd is projected onto the
// separation unit vector r/d; the contribution is added to particle i and
// subtracted from particle j (Newton's third law), so the pair sum is
// exactly zero.
func (s *System) Forces(snap Snapshot) ([]mgl64.Vec3, error) {
	n := len(snap.Positions)
	forces := make([]mgl64.Vec3, n)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			r := snap.Positions[i].Sub(snap.Positions[j])
			d := r.Len()
			if d == 0 {
				// A spring already at zero rest length exerts no force on a
				// coincident pair. Every other case has no defined direction.
				if s.kind == Spring && s.rest.At(i, j) == 0 {
					continue
				}
				return nil, SeparationError{I: i, J: j, Kind: s.kind}
			}

			mag, err := scalarForce(s.kind, s.gradient, s.fdStep, d,
				s.particles[i], s.particles[j], s.coupling.At(i, j), s.rest.At(i, j))
			if err != nil {
				return nil, fmt.Errorf("pair (%d,%d): %w", i, j, err)
			}

			f := r.Mul(mag / d)
			forces[i] = forces[i].Add(f)
			forces[j] = forces[j].Sub(f)
		}
	}
	return forces, nil
}
