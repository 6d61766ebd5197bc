package process

import "errors"

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("process: already started")

// ErrNotStarted is not returned by any Thread method: Enqueue and the
// Schedule methods accept work before Start, and it runs once Start
// launches the worker.
var ErrNotStarted = errors.New("process: not started")
