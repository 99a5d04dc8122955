package integrators

import (
	"fmt"

	"github.com/san-kum/partsim/internal/dynamo"
)

// New returns a fresh integrator by name. Integrators carry scratch buffers,
// so callers needing concurrency must call New once per goroutine.
func New(name string) (dynamo.Integrator, error) {
	switch name {
	case "euler":
		return NewEuler(), nil
	case "leapfrog":
		return NewLeapfrog(), nil
	case "rk4":
		return NewRK4(), nil
	case "rk45":
		return NewRK45(), nil
	default:
		return nil, fmt.Errorf("unknown integrator: %s (available: %v)", name, Names())
	}
}

func Names() []string {
	return []string{"euler", "leapfrog", "rk4", "rk45"}
}
