package sim

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// SampleTimes returns n evenly spaced sample times spanning [start, end].
func SampleTimes(start, end float64, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 sample times, got %d", n)
	}
	if end <= start {
		return nil, fmt.Errorf("end time %g must be after start time %g", end, start)
	}
	return floats.Span(make([]float64, n), start, end), nil
}

// ValidateTimes checks that a sample-time sequence is usable by the
// simulator: non-empty and strictly increasing.
func ValidateTimes(times []float64) error {
	if len(times) == 0 {
		return fmt.Errorf("sample times must not be empty")
	}
	for i := 1; i < len(times); i++ {
		if times[i] <= times[i-1] {
			return fmt.Errorf("sample times must be strictly increasing: times[%d]=%g, times[%d]=%g", i-1, times[i-1], i, times[i])
		}
	}
	return nil
}
