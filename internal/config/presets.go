package config

import "sort"

// Electron/proton constants for the hydrogen preset, SI units.
const (
	electronMass   = 9.1093837e-31
	protonMass     = 1.6726219e-27
	elementaryChrg = 1.602176634e-19
	bohrRadius     = 5.29177e-11
)

var Presets = map[string]*Config{
	// The canonical spring scenario: two unit masses released from rest at
	// separation sqrt(18), oscillating about rest length 1.
	"spring-pair": DefaultConfig(),

	"spring-triangle": {
		Force:      "spring",
		Integrator: "rk4",
		Dt:         0.005,
		Start:      0,
		End:        20,
		Samples:    2000,
		Particles: []ParticleConfig{
			{Mass: 1, Position: []float64{0, 0, 0}, Velocity: []float64{0, 0, 0}},
			{Mass: 1, Position: []float64{3, 0, 0}, Velocity: []float64{0, 0, 0}},
			{Mass: 1, Position: []float64{1.5, 2.6, 0}, Velocity: []float64{0, 0, 0}},
		},
		Coupling:    [][]float64{{0, 5, 5}, {5, 0, 5}, {5, 5, 0}},
		Equilibrium: [][]float64{{0, 2, 2}, {2, 0, 2}, {2, 2, 0}},
	},

	// Two Earth-mass bodies on a circular mutual orbit, zero net momentum.
	// v = sqrt(G*m/(2d)) for equal masses at separation d.
	"binary": {
		Force:      "gravity",
		Integrator: "leapfrog",
		Dt:         50,
		Start:      0,
		End:        450000,
		Samples:    1000,
		Particles: []ParticleConfig{
			{Mass: 5.972e24, Position: []float64{-5e7, 0, 0}, Velocity: []float64{0, -1411.7, 0}},
			{Mass: 5.972e24, Position: []float64{5e7, 0, 0}, Velocity: []float64{0, 1411.7, 0}},
		},
		Coupling: [][]float64{{0, 1}, {1, 0}},
	},

	// Electron orbiting a proton at the Bohr radius; the circular-orbit
	// speed is sqrt(K*e^2/(m_e*r)) ~ 2.19e6 m/s, period ~ 1.5e-16 s.
	"hydrogen": {
		Force:      "coulomb",
		Integrator: "rk4",
		Dt:         1e-19,
		Start:      0,
		End:        3e-16,
		Samples:    1000,
		Particles: []ParticleConfig{
			{Mass: protonMass, Charge: elementaryChrg, Position: []float64{0, 0, 0}, Velocity: []float64{0, 0, 0}},
			{Mass: electronMass, Charge: -elementaryChrg, Position: []float64{bohrRadius, 0, 0}, Velocity: []float64{0, 2.188e6, 0}},
		},
		Coupling: [][]float64{{0, 1}, {1, 0}},
	},
}

func GetPreset(name string) *Config {
	return Presets[name]
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
