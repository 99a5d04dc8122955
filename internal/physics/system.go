package physics

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/partsim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

// System is a fixed-topology collection of particles plus interaction
// parameters. Topology (particle count, force kind, coupling matrix,
// equilibrium matrix) is immutable after construction; only the kinematic
// state carried in flattened state vectors evolves.
type System struct {
	kind      ForceKind
	gradient  GradientMethod
	fdStep    float64
	particles []Particle
	coupling  *mat.SymDense
	rest      *mat.SymDense
}

// NewSystem validates and constructs a system. coupling must be an N×N
// symmetric matrix; rest may be nil (treated as all zeros, it is only
// consulted for the Spring kind). All configuration errors surface here,
// before any integration begins.
func NewSystem(kind ForceKind, particles []Particle, coupling, rest *mat.SymDense) (*System, error) {
	if !kind.valid() {
		return nil, fmt.Errorf("unsupported force kind: %v", kind)
	}
	n := len(particles)
	if n < 1 {
		return nil, fmt.Errorf("system requires at least one particle")
	}
	if coupling == nil {
		return nil, fmt.Errorf("coupling matrix is required")
	}
	if d := coupling.SymmetricDim(); d != n {
		return nil, fmt.Errorf("coupling matrix is %dx%d, want %dx%d for %d particles", d, d, n, n, n)
	}
	if rest == nil {
		rest = mat.NewSymDense(n, nil)
	} else if d := rest.SymmetricDim(); d != n {
		return nil, fmt.Errorf("equilibrium matrix is %dx%d, want %dx%d for %d particles", d, d, n, n, n)
	}

	ps := make([]Particle, n)
	copy(ps, particles)
	return &System{
		kind:      kind,
		gradient:  Analytic,
		fdStep:    DefaultFDStep,
		particles: ps,
		coupling:  coupling,
		rest:      rest,
	}, nil
}

// UseFiniteDifference switches the force accumulator to a one-sided forward
// difference of the potential with the given step size. A step of 0 selects
// DefaultFDStep.
func (s *System) UseFiniteDifference(step float64) error {
	if step < 0 || !isFinite(step) {
		return fmt.Errorf("finite-difference step must be positive, got %g", step)
	}
	if step == 0 {
		step = DefaultFDStep
	}
	s.gradient = ForwardDifference
	s.fdStep = step
	return nil
}

func (s *System) N() int          { return len(s.particles) }
func (s *System) Kind() ForceKind { return s.kind }
func (s *System) StateDim() int   { return 6 * len(s.particles) }

// Particle returns a copy of particle i as configured at construction.
func (s *System) Particle(i int) Particle { return s.particles[i] }

// Snapshot is an immutable per-call view of particle kinematics. The force
// accumulator reads from a snapshot rather than from shared particle
// records, which keeps Derive reentrant.
type Snapshot struct {
	Positions  []mgl64.Vec3
	Velocities []mgl64.Vec3
}

// Unpack splits a flattened state vector into per-particle positions and
// velocities. Layout: 3N positions particle-major, then 3N velocities.
func (s *System) Unpack(x dynamo.State) (Snapshot, error) {
	n := len(s.particles)
	if len(x) != 6*n {
		return Snapshot{}, fmt.Errorf("%w: state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x), 6*n)
	}
	snap := Snapshot{
		Positions:  make([]mgl64.Vec3, n),
		Velocities: make([]mgl64.Vec3, n),
	}
	for i := 0; i < n; i++ {
		snap.Positions[i] = mgl64.Vec3{x[3*i], x[3*i+1], x[3*i+2]}
		snap.Velocities[i] = mgl64.Vec3{x[3*n+3*i], x[3*n+3*i+1], x[3*n+3*i+2]}
	}
	return snap, nil
}

// Pack is the inverse of Unpack.
func (s *System) Pack(snap Snapshot) dynamo.State {
	n := len(snap.Positions)
	x := make(dynamo.State, 6*n)
	for i := 0; i < n; i++ {
		x[3*i], x[3*i+1], x[3*i+2] = snap.Positions[i][0], snap.Positions[i][1], snap.Positions[i][2]
		x[3*n+3*i], x[3*n+3*i+1], x[3*n+3*i+2] = snap.Velocities[i][0], snap.Velocities[i][1], snap.Velocities[i][2]
	}
	return x
}

// InitialState packs the construction-time particle kinematics.
func (s *System) InitialState() dynamo.State {
	n := len(s.particles)
	snap := Snapshot{
		Positions:  make([]mgl64.Vec3, n),
		Velocities: make([]mgl64.Vec3, n),
	}
	for i, p := range s.particles {
		snap.Positions[i] = p.Position
		snap.Velocities[i] = p.Velocity
	}
	return s.Pack(snap)
}

// Derive is the ODE right-hand side: [velocities | accelerations] in the
// same layout as the input. It does not mutate the system.
func (s *System) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	snap, err := s.Unpack(x)
	if err != nil {
		return nil, err
	}
	forces, err := s.Forces(snap)
	if err != nil {
		return nil, err
	}

	n := len(s.particles)
	dx := make(dynamo.State, 6*n)
	for i := 0; i < n; i++ {
		v := snap.Velocities[i]
		// Mass is validated positive at construction, the division is safe.
		a := forces[i].Mul(1 / s.particles[i].Mass)
		dx[3*i], dx[3*i+1], dx[3*i+2] = v[0], v[1], v[2]
		dx[3*n+3*i], dx[3*n+3*i+1], dx[3*n+3*i+2] = a[0], a[1], a[2]
	}
	return dx, nil
}

// Energy reports kinetic plus pair potential energy, implementing
// dynamo.Hamiltonian. Potential uses the force convention F = +dU/dd, so
// the conserved potential energy is -U. Coincident particles under an
// inverse-distance kind produce an infinite value, which state validation
// flags downstream.
func (s *System) Energy(x dynamo.State) float64 {
	snap, err := s.Unpack(x)
	if err != nil {
		return math.NaN()
	}

	n := len(s.particles)
	ke := 0.0
	pe := 0.0
	for i := 0; i < n; i++ {
		v := snap.Velocities[i]
		ke += 0.5 * s.particles[i].Mass * v.Dot(v)

		for j := i + 1; j < n; j++ {
			d := snap.Positions[i].Sub(snap.Positions[j]).Len()
			u, err := Potential(s.kind, d, s.particles[i], s.particles[j], s.coupling.At(i, j), s.rest.At(i, j))
			if err != nil {
				pe = math.Inf(1)
				continue
			}
			pe -= u
		}
	}
	return ke + pe
}

// Momentum reports total linear momentum.
func (s *System) Momentum(x dynamo.State) mgl64.Vec3 {
	snap, err := s.Unpack(x)
	if err != nil {
		return mgl64.Vec3{}
	}
	var p mgl64.Vec3
	for i := range s.particles {
		p = p.Add(snap.Velocities[i].Mul(s.particles[i].Mass))
	}
	return p
}

// AngularMomentum reports total angular momentum about the origin.
func (s *System) AngularMomentum(x dynamo.State) mgl64.Vec3 {
	snap, err := s.Unpack(x)
	if err != nil {
		return mgl64.Vec3{}
	}
	var l mgl64.Vec3
	for i := range s.particles {
		l = l.Add(snap.Positions[i].Cross(snap.Velocities[i].Mul(s.particles[i].Mass)))
	}
	return l
}

// Separation reports the distance between particles i and j in state x.
func (s *System) Separation(x dynamo.State, i, j int) float64 {
	snap, err := s.Unpack(x)
	if err != nil {
		return math.NaN()
	}
	return snap.Positions[i].Sub(snap.Positions[j]).Len()
}
