package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.db")

	states := [][]float64{
		{1, 4, 5, 1, 7, 8, 0, 0, 0, 0, 0, 0},
		{1.1, 4.2, 5.3, 0.9, 6.8, 7.7, 0.5, -0.5, 0.25, -0.5, 0.5, -0.25},
		{1.2, 4.4, 5.6, 0.8, 6.6, 7.4, 1.0, -1.0, 0.5, -1.0, 1.0, -0.5},
	}
	times := []float64{0, 0.01, 0.02}

	require.NoError(t, ExportSQLite(path, 2, states, times))

	for k := range states {
		state, tm, err := ReadSQLiteSample(path, 2, k)
		require.NoError(t, err)
		assert.Equal(t, times[k], tm)
		assert.Equal(t, states[k], state)
	}
}

func TestSQLiteRefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.db")
	states := [][]float64{{0, 0, 0, 0, 0, 0}}
	times := []float64{0}

	require.NoError(t, ExportSQLite(path, 1, states, times))
	assert.Error(t, ExportSQLite(path, 1, states, times))
}

func TestSQLiteInputValidation(t *testing.T) {
	dir := t.TempDir()

	err := ExportSQLite(filepath.Join(dir, "a.db"), 1, [][]float64{{0, 0, 0, 0, 0, 0}}, []float64{0, 1})
	assert.Error(t, err, "state/time length mismatch")

	err = ExportSQLite(filepath.Join(dir, "b.db"), 2, [][]float64{{0, 0, 0, 0, 0, 0}}, []float64{0})
	assert.Error(t, err, "state too short for particle count")
}

func TestSQLiteMissingSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trajectory.db")
	require.NoError(t, ExportSQLite(path, 1, [][]float64{{0, 0, 0, 0, 0, 0}}, []float64{0}))

	_, _, err := ReadSQLiteSample(path, 1, 5)
	assert.Error(t, err)
}
