package metrics

import (
	"math"

	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

// Momentum tracks the largest total-linear-momentum magnitude seen during a
// run. For a closed system this should stay at its initial value; for a
// system starting with zero net momentum it should stay numerically zero.
type Momentum struct {
	name string
	sys  *physics.System
	max  float64
}

func NewMomentum(sys *physics.System) *Momentum {
	return &Momentum{name: "momentum_max", sys: sys}
}

func (m *Momentum) Name() string { return m.name }

func (m *Momentum) Observe(x dynamo.State, t float64) {
	m.max = math.Max(m.max, m.sys.Momentum(x).Len())
}

func (m *Momentum) Value() float64 {
	return m.max
}

func (m *Momentum) Reset() {
	m.max = 0
}
