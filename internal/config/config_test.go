package config

import (
	"path/filepath"
	"testing"

	"github.com/san-kum/partsim/internal/physics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "spring", cfg.Force)
	assert.Equal(t, "rk4", cfg.Integrator)
	assert.Positive(t, cfg.Dt)
	assert.Greater(t, cfg.End, cfg.Start)
	assert.Len(t, cfg.Particles, 2)

	sys, err := cfg.BuildSystem()
	require.NoError(t, err)
	assert.Equal(t, 2, sys.N())
	assert.Equal(t, physics.Spring, sys.Kind())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")

	cfg := DefaultConfig()
	cfg.Gradient = "forward-difference"
	cfg.FDStep = 1e-7
	cfg.Adaptive = true
	cfg.Tolerance = 1e-8
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparse.yaml")
	require.NoError(t, Save(path, &Config{Force: "gravity", End: 5}))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultDt, cfg.Dt)
	assert.Equal(t, DefaultSamples, cfg.Samples)
	assert.Equal(t, "rk4", cfg.Integrator)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestBuildSystemErrors(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown force", func(c *Config) { c.Force = "magnetism" }},
		{"no particles", func(c *Config) { c.Particles = nil }},
		{"short position", func(c *Config) { c.Particles[0].Position = []float64{1, 2} }},
		{"long velocity", func(c *Config) { c.Particles[0].Velocity = []float64{1, 2, 3, 4} }},
		{"zero mass", func(c *Config) { c.Particles[0].Mass = 0 }},
		{"missing coupling", func(c *Config) { c.Coupling = nil }},
		{"non-square coupling", func(c *Config) { c.Coupling = [][]float64{{0, 1}} }},
		{"ragged coupling row", func(c *Config) { c.Coupling = [][]float64{{0, 1}, {1}} }},
		{"asymmetric coupling", func(c *Config) { c.Coupling = [][]float64{{0, 1}, {2, 0}} }},
		{"asymmetric equilibrium", func(c *Config) { c.Equilibrium = [][]float64{{0, 1}, {3, 0}} }},
		{"unknown gradient", func(c *Config) { c.Gradient = "central" }},
		{"negative fd step", func(c *Config) { c.Gradient = "forward-difference"; c.FDStep = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			_, err := cfg.BuildSystem()
			assert.Error(t, err)
		})
	}
}

func TestBuildSystemGradientSelection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gradient = "forward-difference"
	_, err := cfg.BuildSystem()
	require.NoError(t, err)

	cfg.Gradient = "analytic"
	cfg.FDStep = 0
	_, err = cfg.BuildSystem()
	require.NoError(t, err)
}

func TestSampleTimes(t *testing.T) {
	cfg := DefaultConfig()
	times, err := cfg.SampleTimes()
	require.NoError(t, err)
	assert.Len(t, times, cfg.Samples)
	assert.Equal(t, cfg.Start, times[0])
	assert.Equal(t, cfg.End, times[len(times)-1])

	cfg.End = cfg.Start
	_, err = cfg.SampleTimes()
	assert.Error(t, err)
}

func TestSimConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Adaptive = true
	cfg.Tolerance = 1e-9

	sc := cfg.SimConfig()
	assert.Equal(t, cfg.Dt, sc.Dt)
	assert.True(t, sc.Adaptive)
	assert.Equal(t, 1e-9, sc.Tolerance)
}

// Every shipped preset must build a valid system and sample grid.
func TestPresetsBuild(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			cfg := GetPreset(name)
			require.NotNil(t, cfg)

			sys, err := cfg.BuildSystem()
			require.NoError(t, err)
			assert.Equal(t, len(cfg.Particles), sys.N())

			_, err = cfg.SampleTimes()
			require.NoError(t, err)
		})
	}
}

func TestGetPresetNotFound(t *testing.T) {
	assert.Nil(t, GetPreset("nonexistent"))
}
