package sensor

import "errors"

// Domain errors for the sensor package. Check with errors.Is().
var (
	// ErrNotFound is returned when a sensor ID is not in the registry.
	ErrNotFound = errors.New("sensor: not found")

	// ErrRegistryFull is returned when the registry is at capacity and
	// the sensor is not already known.
	ErrRegistryFull = errors.New("sensor: registry full")

	// ErrEmptyID is returned when an operation is given an empty sensor ID.
	ErrEmptyID = errors.New("sensor: empty id")
)
