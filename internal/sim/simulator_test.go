package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/integrators"
	"github.com/san-kum/partsim/internal/physics"
	"gonum.org/v1/gonum/mat"
)

// Exponential decay x' = -x, exact solution exp(-t).
type decayDynamics struct{}

func (d *decayDynamics) StateDim() int { return 1 }

func (d *decayDynamics) Derive(x dynamo.State, t float64) (dynamo.State, error) {
	return dynamo.State{-x[0]}, nil
}

func mustTimes(t *testing.T, start, end float64, n int) []float64 {
	t.Helper()
	times, err := SampleTimes(start, end, n)
	if err != nil {
		t.Fatalf("sample times: %v", err)
	}
	return times
}

func pairSystem(t *testing.T, kind physics.ForceKind, a, b physics.Particle, coupling, rest float64) *physics.System {
	t.Helper()
	c := mat.NewSymDense(2, nil)
	c.SetSym(0, 1, coupling)
	r := mat.NewSymDense(2, nil)
	r.SetSym(0, 1, rest)
	sys, err := physics.NewSystem(kind, []physics.Particle{a, b}, c, r)
	if err != nil {
		t.Fatalf("system: %v", err)
	}
	return sys
}

func TestSimulatorRun(t *testing.T) {
	s := New(&decayDynamics{}, integrators.NewRK4())

	times := mustTimes(t, 0, 1, 11)
	result, err := s.Run(context.Background(), dynamo.State{1.0}, times, dynamo.Config{Dt: 0.05})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if len(result.States) != 11 || len(result.Times) != 11 {
		t.Fatalf("expected 11 samples, got %d states / %d times", len(result.States), len(result.Times))
	}

	final := result.States[10][0]
	if math.Abs(final-math.Exp(-1)) > 1e-6 {
		t.Errorf("expected final state ~%.6f, got %.6f", math.Exp(-1), final)
	}
}

// Samples must land exactly on the requested times even when dt does not
// divide the intervals.
func TestSimulatorLandsOnSampleTimes(t *testing.T) {
	s := New(&decayDynamics{}, integrators.NewRK4())

	times := []float64{0, 0.25, 0.7, 1.13}
	result, err := s.Run(context.Background(), dynamo.State{1.0}, times, dynamo.Config{Dt: 0.1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for i, want := range times {
		if result.Times[i] != want {
			t.Errorf("sample %d: expected t=%g exactly, got %g", i, want, result.Times[i])
		}
	}
}

func TestSimulatorInvalidInput(t *testing.T) {
	s := New(&decayDynamics{}, integrators.NewEuler())
	goodTimes := []float64{0, 1}

	tests := []struct {
		name  string
		x0    dynamo.State
		times []float64
		cfg   dynamo.Config
	}{
		{"zero dt", dynamo.State{1}, goodTimes, dynamo.Config{Dt: 0}},
		{"negative dt", dynamo.State{1}, goodTimes, dynamo.Config{Dt: -0.1}},
		{"adaptive without tolerance", dynamo.State{1}, goodTimes, dynamo.Config{Dt: 0.1, Adaptive: true}},
		{"empty times", dynamo.State{1}, nil, dynamo.Config{Dt: 0.1}},
		{"non-increasing times", dynamo.State{1}, []float64{0, 1, 1}, dynamo.Config{Dt: 0.1}},
		{"wrong state dim", dynamo.State{1, 2}, goodTimes, dynamo.Config{Dt: 0.1}},
		{"nan initial state", dynamo.State{math.NaN()}, goodTimes, dynamo.Config{Dt: 0.1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Run(context.Background(), tt.x0, tt.times, tt.cfg); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

type countingMetric struct {
	count int
}

func (c *countingMetric) Name() string                      { return "count" }
func (c *countingMetric) Observe(x dynamo.State, t float64) { c.count++ }
func (c *countingMetric) Value() float64                    { return float64(c.count) }
func (c *countingMetric) Reset()                            { c.count = 0 }

func TestSimulatorMetrics(t *testing.T) {
	s := New(&decayDynamics{}, integrators.NewEuler())
	metric := &countingMetric{}
	s.AddMetric(metric)

	times := mustTimes(t, 0, 1, 11)
	result, err := s.Run(context.Background(), dynamo.State{1.0}, times, dynamo.Config{Dt: 0.1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if _, ok := result.Metrics["count"]; !ok {
		t.Error("metric not found in result")
	}
	if metric.count == 0 {
		t.Error("metric never observed")
	}
}

func TestSimulatorContextCancellation(t *testing.T) {
	s := New(&decayDynamics{}, integrators.NewEuler())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	times := mustTimes(t, 0, 1, 11)
	_, err := s.Run(ctx, dynamo.State{1.0}, times, dynamo.Config{Dt: 0.1})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRunWithCallbackEarlyStop(t *testing.T) {
	s := New(&decayDynamics{}, integrators.NewEuler())

	calls := 0
	err := s.RunWithCallback(context.Background(), dynamo.State{1.0}, mustTimes(t, 0, 1, 11), dynamo.Config{Dt: 0.1},
		func(x dynamo.State, tm float64) bool {
			calls++
			return calls < 3
		})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 callback invocations, got %d", calls)
	}
}

func TestSimulatorAdaptive(t *testing.T) {
	times := mustTimes(t, 0, 1, 6)
	cfg := dynamo.Config{Dt: 0.05, Adaptive: true, Tolerance: 1e-8, MinDt: 1e-6, MaxDt: 0.2}

	// Native adaptive integrator and the step-doubling fallback should both
	// hit the analytic solution.
	for _, tt := range []struct {
		name  string
		integ dynamo.Integrator
	}{
		{"rk45", integrators.NewRK45()},
		{"step doubling rk4", integrators.NewRK4()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&decayDynamics{}, tt.integ)
			result, err := s.Run(context.Background(), dynamo.State{1.0}, times, cfg)
			if err != nil {
				t.Fatalf("run failed: %v", err)
			}
			final := result.States[len(result.States)-1][0]
			if math.Abs(final-math.Exp(-1)) > 1e-5 {
				t.Errorf("expected %.8f, got %.8f", math.Exp(-1), final)
			}
		})
	}
}

// An isolated particle moves in a straight line at constant velocity.
func TestFreeParticleLinearTrajectory(t *testing.T) {
	p, err := physics.NewParticle(2.0, 0, mgl64.Vec3{1, 2, 3}, mgl64.Vec3{0.5, -1.0, 0.25})
	if err != nil {
		t.Fatalf("particle: %v", err)
	}
	sys, err := physics.NewSystem(physics.Gravity, []physics.Particle{p}, mat.NewSymDense(1, nil), nil)
	if err != nil {
		t.Fatalf("system: %v", err)
	}

	s := New(sys, integrators.NewEuler())
	times := mustTimes(t, 0, 4, 9)
	result, err := s.Run(context.Background(), sys.InitialState(), times, dynamo.Config{Dt: 0.1})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	for k, tm := range result.Times {
		snap, err := sys.Unpack(result.States[k])
		if err != nil {
			t.Fatalf("unpack: %v", err)
		}
		want := p.Position.Add(p.Velocity.Mul(tm))
		if got := snap.Positions[0]; got.Sub(want).Len() > 1e-9 {
			t.Errorf("t=%g: expected position %v, got %v", tm, want, got)
		}
		if got := snap.Velocities[0]; got.Sub(p.Velocity).Len() != 0 {
			t.Errorf("t=%g: velocity changed to %v", tm, got)
		}
	}
}

// Two unit masses on a stiff spring, released from rest: total momentum stays
// zero and the separation stays inside the energy bound.
func TestSpringPairOscillation(t *testing.T) {
	a, _ := physics.NewParticle(1.0, 0, mgl64.Vec3{1, 4, 5}, mgl64.Vec3{})
	b, _ := physics.NewParticle(1.0, 0, mgl64.Vec3{1, 7, 8}, mgl64.Vec3{})
	sys := pairSystem(t, physics.Spring, a, b, 10.0, 1.0)

	s := New(sys, integrators.NewRK4())
	times := mustTimes(t, 0, 10, 201)
	result, err := s.Run(context.Background(), sys.InitialState(), times, dynamo.Config{Dt: 0.005, ValidateState: true})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	initialSep := sys.Separation(result.States[0], 0, 1)
	if math.Abs(initialSep-math.Sqrt(18)) > 1e-12 {
		t.Fatalf("expected initial separation sqrt(18), got %g", initialSep)
	}

	minSep := math.Inf(1)
	for _, x := range result.States {
		if p := sys.Momentum(x).Len(); p > 1e-9 {
			t.Fatalf("momentum not conserved: |P|=%g", p)
		}
		sep := sys.Separation(x, 0, 1)
		if sep > initialSep+0.1 {
			t.Fatalf("separation %g exceeds energy bound %g", sep, initialSep)
		}
		minSep = math.Min(minSep, sep)
	}
	if minSep > 2.0 {
		t.Errorf("expected oscillation well below the initial separation, min was %g", minSep)
	}
}

// Two equal masses on a circular mutual orbit: momentum stays zero, the
// separation stays near the initial value and energy drift is tiny under the
// symplectic integrator.
func TestTwoBodyOrbit(t *testing.T) {
	const (
		m = 5.972e24
		r = 5e7
		v = 1411.7
	)
	a, _ := physics.NewParticle(m, 0, mgl64.Vec3{-r, 0, 0}, mgl64.Vec3{0, -v, 0})
	b, _ := physics.NewParticle(m, 0, mgl64.Vec3{r, 0, 0}, mgl64.Vec3{0, v, 0})
	sys := pairSystem(t, physics.Gravity, a, b, 1.0, 0)

	s := New(sys, integrators.NewLeapfrog())
	times := mustTimes(t, 0, 450000, 101)
	result, err := s.Run(context.Background(), sys.InitialState(), times, dynamo.Config{Dt: 50})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	pScale := m * v
	for k, x := range result.States {
		if p := sys.Momentum(x).Len(); p/pScale > 1e-10 {
			t.Fatalf("sample %d: momentum drifted, |P|/mv=%g", k, p/pScale)
		}
		sep := sys.Separation(x, 0, 1)
		if sep < 0.9e8 || sep > 1.1e8 {
			t.Errorf("sample %d: separation %g left the near-circular band", k, sep)
		}
	}

	if result.EnergyDrift > 1e-6 {
		t.Errorf("energy drift too high: %g", result.EnergyDrift)
	}
}

func TestRunCoincidentParticlesFails(t *testing.T) {
	a, _ := physics.NewParticle(1.0, 0, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
	b, _ := physics.NewParticle(1.0, 0, mgl64.Vec3{1, 1, 1}, mgl64.Vec3{})
	sys := pairSystem(t, physics.Gravity, a, b, 1.0, 0)

	s := New(sys, integrators.NewRK4())
	_, err := s.Run(context.Background(), sys.InitialState(), []float64{0, 1}, dynamo.Config{Dt: 0.1})
	var sepErr physics.SeparationError
	if !errors.As(err, &sepErr) {
		t.Fatalf("expected separation error, got %v", err)
	}
}

func TestEnsembleRun(t *testing.T) {
	a, _ := physics.NewParticle(1.0, 0, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{})
	b, _ := physics.NewParticle(1.0, 0, mgl64.Vec3{3, 0, 0}, mgl64.Vec3{})
	sys := pairSystem(t, physics.Spring, a, b, 5.0, 2.0)

	ens := NewEnsemble(sys, func() dynamo.Integrator { return integrators.NewRK4() }, 4, 42, 1e-3)
	times := mustTimes(t, 0, 1, 11)
	results, err := ens.Run(context.Background(), sys.InitialState(), times, dynamo.Config{Dt: 0.01})
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}

	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for i, r := range results {
		if len(r.States) != 11 {
			t.Errorf("run %d: expected 11 samples, got %d", i, len(r.States))
		}
	}

	// Run 0 is unperturbed; later runs are jittered and must diverge.
	base := results[0].States[10]
	diverged := false
	for i := 1; i < 4; i++ {
		if results[i].States[10].Sub(base).Norm() > 0 {
			diverged = true
		}
	}
	if !diverged {
		t.Error("jittered runs identical to the baseline")
	}
}
