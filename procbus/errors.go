package procbus

import "errors"

// ErrAlreadyStarted is returned by Start when called more than once.
var ErrAlreadyStarted = errors.New("procbus: already started")

// ErrRequestCancelled is returned by RequestReply.Wait when Cancel was
// called before a reply arrived.
var ErrRequestCancelled = errors.New("procbus: request cancelled")

// ErrRequestTimeout is returned by RequestReply.Wait when ctx ends before a
// reply arrives.
var ErrRequestTimeout = errors.New("procbus: request timed out")
