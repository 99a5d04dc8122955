package dynamo

import "errors"

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrDimensionMismatch indicates a state vector whose length does not
	// match the system's StateDim.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrStepTooSmall indicates the adaptive timestep shrank below MinDt
	// without meeting the error tolerance.
	ErrStepTooSmall = errors.New("dynamo: adaptive timestep below minimum")
)
