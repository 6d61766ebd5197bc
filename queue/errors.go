package queue

import "errors"

// Queue state and capacity errors.
var (
	// ErrQueueFull is returned by Enqueue when MaxDepth is set and exceeded.
	ErrQueueFull = errors.New("command queue full")

	// ErrQueueStopped is returned by Enqueue once the queue has been stopped.
	ErrQueueStopped = errors.New("command queue stopped")
)
