package metrics

import (
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
)

// Separation reports the distance between one particle pair at the last
// observed sample. Useful for watching a spring pair settle toward its rest
// length.
type Separation struct {
	name string
	sys  *physics.System
	i, j int
	last float64
}

func NewSeparation(sys *physics.System, i, j int) *Separation {
	return &Separation{name: "separation", sys: sys, i: i, j: j}
}

func (s *Separation) Name() string { return s.name }

func (s *Separation) Observe(x dynamo.State, t float64) {
	s.last = s.sys.Separation(x, s.i, s.j)
}

func (s *Separation) Value() float64 {
	return s.last
}

func (s *Separation) Reset() {
	s.last = 0
}
