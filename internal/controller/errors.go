package controller

import "errors"

// Domain errors for the controller package. Check with errors.Is().
var (
	// ErrAlreadyArmed is returned on a Reply channel when an arm command
	// arrives while the system is already Armed. State is unchanged.
	ErrAlreadyArmed = errors.New("controller: already armed")

	// ErrInvalidMessage is returned when a message carries no body.
	ErrInvalidMessage = errors.New("controller: invalid message")

	// ErrDispatchFull reports a rejected enqueue. Enqueue itself signals
	// rejection with its boolean return; producers use this sentinel
	// when surfacing the drop to their own callers.
	ErrDispatchFull = errors.New("controller: dispatch queue full")
)
