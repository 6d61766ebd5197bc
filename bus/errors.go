package bus

import "errors"

// ErrBusNotStarted is returned by Publish when the bus thread has not been
// started.
var ErrBusNotStarted = errors.New("bus: not started")

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("bus: already started")
