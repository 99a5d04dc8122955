package config

import (
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/partsim/internal/dynamo"
	"github.com/san-kum/partsim/internal/physics"
	"github.com/san-kum/partsim/internal/sim"
	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDt      = 0.005
	DefaultStart   = 0.0
	DefaultEnd     = 10.0
	DefaultSamples = 1000
)

// ParticleConfig describes one particle. Position and velocity must have
// exactly three components.
type ParticleConfig struct {
	Mass     float64   `yaml:"mass"`
	Charge   float64   `yaml:"charge"`
	Position []float64 `yaml:"position"`
	Velocity []float64 `yaml:"velocity"`
}

// Config is the YAML description of one simulation run: the system topology
// plus integration parameters.
type Config struct {
	Force       string           `yaml:"force"`
	Integrator  string           `yaml:"integrator"`
	Gradient    string           `yaml:"gradient,omitempty"`
	FDStep      float64          `yaml:"fd_step,omitempty"`
	Dt          float64          `yaml:"dt"`
	Start       float64          `yaml:"start"`
	End         float64          `yaml:"end"`
	Samples     int              `yaml:"samples"`
	Adaptive    bool             `yaml:"adaptive,omitempty"`
	Tolerance   float64          `yaml:"tolerance,omitempty"`
	Particles   []ParticleConfig `yaml:"particles"`
	Coupling    [][]float64      `yaml:"coupling"`
	Equilibrium [][]float64      `yaml:"equilibrium,omitempty"`
}

// DefaultConfig is the spring-pair scenario: two unit masses coupled by a
// spring of strength 10 and rest length 1, released from rest.
func DefaultConfig() *Config {
	return &Config{
		Force:      "spring",
		Integrator: "rk4",
		Dt:         DefaultDt,
		Start:      DefaultStart,
		End:        DefaultEnd,
		Samples:    DefaultSamples,
		Particles: []ParticleConfig{
			{Mass: 1, Position: []float64{1, 4, 5}, Velocity: []float64{0, 0, 0}},
			{Mass: 1, Position: []float64{1, 7, 8}, Velocity: []float64{0, 0, 0}},
		},
		Coupling:    [][]float64{{0, 10}, {10, 0}},
		Equilibrium: [][]float64{{0, 1}, {1, 0}},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Dt == 0 {
		cfg.Dt = DefaultDt
	}
	if cfg.Samples == 0 {
		cfg.Samples = DefaultSamples
	}
	if cfg.Integrator == "" {
		cfg.Integrator = "rk4"
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// BuildSystem validates the config and constructs the particle system. All
// construction and configuration errors surface here, before any integration.
func (c *Config) BuildSystem() (*physics.System, error) {
	kind, err := physics.ParseForceKind(c.Force)
	if err != nil {
		return nil, err
	}

	if len(c.Particles) == 0 {
		return nil, fmt.Errorf("config: at least one particle is required")
	}
	particles := make([]physics.Particle, len(c.Particles))
	for i, pc := range c.Particles {
		pos, err := vec3(pc.Position)
		if err != nil {
			return nil, fmt.Errorf("particle %d position: %w", i, err)
		}
		vel, err := vec3(pc.Velocity)
		if err != nil {
			return nil, fmt.Errorf("particle %d velocity: %w", i, err)
		}
		p, err := physics.NewParticle(pc.Mass, pc.Charge, pos, vel)
		if err != nil {
			return nil, fmt.Errorf("particle %d: %w", i, err)
		}
		particles[i] = p
	}

	n := len(particles)
	coupling, err := symFromRows("coupling", c.Coupling, n)
	if err != nil {
		return nil, err
	}
	if coupling == nil {
		return nil, fmt.Errorf("config: coupling matrix is required")
	}
	rest, err := symFromRows("equilibrium", c.Equilibrium, n)
	if err != nil {
		return nil, err
	}

	sys, err := physics.NewSystem(kind, particles, coupling, rest)
	if err != nil {
		return nil, err
	}

	switch c.Gradient {
	case "", "analytic":
	case "forward-difference":
		if err := sys.UseFiniteDifference(c.FDStep); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown gradient method: %q (want analytic or forward-difference)", c.Gradient)
	}

	return sys, nil
}

// SampleTimes expands start/end/samples into the requested output times.
func (c *Config) SampleTimes() ([]float64, error) {
	return sim.SampleTimes(c.Start, c.End, c.Samples)
}

// SimConfig maps the run parameters onto the simulator configuration.
func (c *Config) SimConfig() dynamo.Config {
	cfg := dynamo.DefaultConfig()
	cfg.Dt = c.Dt
	cfg.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		cfg.Tolerance = c.Tolerance
	}
	return cfg
}

func vec3(v []float64) (mgl64.Vec3, error) {
	if len(v) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("want exactly 3 components, got %d", len(v))
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

func symFromRows(name string, rows [][]float64, n int) (*mat.SymDense, error) {
	if rows == nil {
		return nil, nil
	}
	if len(rows) != n {
		return nil, fmt.Errorf("%s matrix has %d rows, want %d", name, len(rows), n)
	}
	data := make([]float64, n*n)
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%s matrix row %d has %d columns, want %d", name, i, len(row), n)
		}
		copy(data[i*n:], row)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rows[i][j] != rows[j][i] {
				return nil, fmt.Errorf("%s matrix is not symmetric at (%d,%d)", name, i, j)
			}
		}
	}
	return mat.NewSymDense(n, data), nil
}
