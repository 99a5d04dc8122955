package integrators

import "github.com/san-kum/partsim/internal/dynamo"

// Leapfrog is a kick-drift-kick symplectic integrator. It relies on the
// [positions | velocities] state layout: the first half of the derivative is
// the velocities, the second half the accelerations.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, error) {
	n := len(x)
	half := n / 2

	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}

	dx, err := dyn.Derive(x, t)
	if err != nil {
		return nil, err
	}

	result := make(dynamo.State, n)
	halfDt := dt * 0.5

	for i := 0; i < half; i++ {
		l.scratch[half+i] = x[half+i] + dx[half+i]*halfDt
	}

	for i := 0; i < half; i++ {
		result[i] = x[i] + l.scratch[half+i]*dt
		l.scratch[i] = result[i]
	}

	dxNew, err := dyn.Derive(l.scratch, t+dt)
	if err != nil {
		return nil, err
	}

	for i := 0; i < half; i++ {
		result[half+i] = l.scratch[half+i] + dxNew[half+i]*halfDt
	}

	return result, nil
}
