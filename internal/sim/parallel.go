package sim

import (
	"context"
	"math/rand"
	"sync"

	"github.com/san-kum/partsim/internal/dynamo"
)

// Ensemble runs the same system from perturbed initial conditions, one
// goroutine per run. The system is shared (Derive is pure); each run gets
// its own integrator because integrators carry scratch buffers.
type Ensemble struct {
	dyn           dynamo.System
	newIntegrator func() dynamo.Integrator
	numRuns       int
	seedStart     int64
	jitter        float64
}

func NewEnsemble(dyn dynamo.System, newIntegrator func() dynamo.Integrator, numRuns int, seedStart int64, jitter float64) *Ensemble {
	return &Ensemble{
		dyn:           dyn,
		newIntegrator: newIntegrator,
		numRuns:       numRuns,
		seedStart:     seedStart,
		jitter:        jitter,
	}
}

func (e *Ensemble) Run(ctx context.Context, x0 dynamo.State, times []float64, cfg dynamo.Config) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			rng := rand.New(rand.NewSource(e.seedStart + int64(idx)))
			xi := x0.Clone()
			if idx > 0 && e.jitter > 0 {
				for j := range xi {
					xi[j] += e.jitter * rng.NormFloat64()
				}
			}

			s := New(e.dyn, e.newIntegrator())
			results[idx], errs[idx] = s.Run(ctx, xi, times, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
