package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Particle is a point mass with position, velocity and electric charge.
// Positions and velocities are 3-vectors by type; mass is strictly positive.
type Particle struct {
	Mass     float64
	Charge   float64
	Position mgl64.Vec3
	Velocity mgl64.Vec3
}

// NewParticle validates and constructs a particle. Mass must be positive and
// finite; charge and all vector components must be finite.
func NewParticle(mass, charge float64, position, velocity mgl64.Vec3) (Particle, error) {
	if !isFinite(mass) || mass <= 0 {
		return Particle{}, fmt.Errorf("particle mass must be positive and finite, got %g", mass)
	}
	if !isFinite(charge) {
		return Particle{}, fmt.Errorf("particle charge must be finite, got %g", charge)
	}
	for axis := 0; axis < 3; axis++ {
		if !isFinite(position[axis]) {
			return Particle{}, fmt.Errorf("particle position component %d is not finite: %g", axis, position[axis])
		}
		if !isFinite(velocity[axis]) {
			return Particle{}, fmt.Errorf("particle velocity component %d is not finite: %g", axis, velocity[axis])
		}
	}
	return Particle{Mass: mass, Charge: charge, Position: position, Velocity: velocity}, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
