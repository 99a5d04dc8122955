package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Simulator drives an integrator through a sequence of requested sample
// times, sub-stepping at cfg.Dt between samples and landing exactly on each
// one. The produced trajectory holds one flattened state per sample time.
type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

// Run integrates from times[0] through the last sample time. A domain error
// from the system (for example coincident particles) aborts the run; there
// are no partial-failure semantics.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, times []float64, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validate(x0, times, cfg); err != nil {
		return nil, err
	}

	result := &dynamo.Result{
		States:  make([]dynamo.State, 0, len(times)),
		Times:   make([]float64, 0, len(times)),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	x := x0.Clone()
	t := times[0]
	dt := cfg.Dt

	initialEnergy := s.energy(x)
	s.observe(x, t)
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	step := 0
	for target := 1; target < len(times); target++ {
		for t < times[target] {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			default:
			}

			remaining := times[target] - t
			h := math.Min(dt, remaining)

			var newX dynamo.State
			var err error
			if cfg.Adaptive {
				newX, dt, err = s.adaptiveStep(x, t, h, cfg)
			} else {
				newX, err = s.integrator.Step(s.dyn, x, t, h)
			}
			if err != nil {
				return nil, fmt.Errorf("step %d (t=%.4g): %w", step, t, err)
			}

			if cfg.ValidateState && !newX.IsValid() {
				return nil, dynamo.SimError{Time: t, Step: step, Message: "invalid state (NaN/Inf)"}
			}

			x = newX
			if h >= remaining {
				t = times[target]
			} else {
				t += h
			}
			step++
			result.StepsTaken++
			s.observe(x, t)
		}

		result.States = append(result.States, x.Clone())
		result.Times = append(result.Times, t)
	}

	finalEnergy := s.energy(x)
	if initialEnergy != 0 && !math.IsInf(initialEnergy, 0) {
		result.EnergyDrift = math.Abs(finalEnergy-initialEnergy) / math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

// RunWithCallback integrates as Run does but hands every sample to the
// callback instead of accumulating a Result. Returning false from the
// callback stops the run early without error.
func (s *Simulator) RunWithCallback(ctx context.Context, x0 dynamo.State, times []float64, cfg dynamo.Config, callback func(x dynamo.State, t float64) bool) error {
	if err := s.validate(x0, times, cfg); err != nil {
		return err
	}

	x := x0.Clone()
	t := times[0]
	dt := cfg.Dt

	if !callback(x, t) {
		return nil
	}

	for target := 1; target < len(times); target++ {
		for t < times[target] {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			remaining := times[target] - t
			h := math.Min(dt, remaining)

			var newX dynamo.State
			var err error
			if cfg.Adaptive {
				newX, dt, err = s.adaptiveStep(x, t, h, cfg)
			} else {
				newX, err = s.integrator.Step(s.dyn, x, t, h)
			}
			if err != nil {
				return fmt.Errorf("t=%.4g: %w", t, err)
			}

			if cfg.ValidateState && !newX.IsValid() {
				return fmt.Errorf("invalid state at t=%.4g: %w", t, dynamo.ErrInvalidState)
			}

			x = newX
			if h >= remaining {
				t = times[target]
			} else {
				t += h
			}
		}

		if !callback(x, t) {
			return nil
		}
	}

	return nil
}

func (s *Simulator) validate(x0 dynamo.State, times []float64, cfg dynamo.Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %g", cfg.Dt)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: initial state has %d components, want %d", dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if !x0.IsValid() {
		return fmt.Errorf("initial state: %w", dynamo.ErrInvalidState)
	}
	return ValidateTimes(times)
}

func (s *Simulator) observe(x dynamo.State, t float64) {
	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) energy(x dynamo.State) float64 {
	if h, ok := s.dyn.(dynamo.Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}

func (s *Simulator) adaptiveStep(x dynamo.State, t, dt float64, cfg dynamo.Config) (dynamo.State, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		newX, dtNext, err := adaptive.StepAdaptive(s.dyn, x, t, dt, cfg.Tolerance)
		if err != nil {
			return nil, dt, err
		}
		return newX, clamp(dtNext, cfg.MinDt, cfg.MaxDt), nil
	}

	// Step-doubling fallback for fixed-step integrators.
	x1, err := s.integrator.Step(s.dyn, x, t, dt)
	if err != nil {
		return nil, dt, err
	}
	xHalf, err := s.integrator.Step(s.dyn, x, t, dt/2)
	if err != nil {
		return nil, dt, err
	}
	x2, err := s.integrator.Step(s.dyn, xHalf, t+dt/2, dt/2)
	if err != nil {
		return nil, dt, err
	}

	stepErr := x1.Sub(x2).Norm()

	if stepErr > cfg.Tolerance {
		if dt > cfg.MinDt {
			return s.adaptiveStep(x, t, math.Max(dt/2, cfg.MinDt), cfg)
		}
		if cfg.MinDt > 0 {
			return nil, dt, fmt.Errorf("t=%.4g: %w", t, dynamo.ErrStepTooSmall)
		}
	}

	if stepErr < cfg.Tolerance/10 && dt < cfg.MaxDt {
		dt = math.Min(dt*2, cfg.MaxDt)
	}

	return x2, dt, nil
}

func clamp(v, lo, hi float64) float64 {
	if lo > 0 && v < lo {
		return lo
	}
	if hi > 0 && v > hi {
		return hi
	}
	return v
}
