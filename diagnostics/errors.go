package diagnostics

import "errors"

// Server lifecycle errors.
var (
	// ErrAlreadyStarted is returned by Start when the diagnostics server is
	// already listening.
	ErrAlreadyStarted = errors.New("diagnostics server already started")

	// ErrNotStarted is returned by Stop when the diagnostics server was never
	// started.
	ErrNotStarted = errors.New("diagnostics server not started")
)
