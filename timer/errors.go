package timer

import "errors"

// ErrIntervalRequired is returned by ScheduleOnInterval when interval <= 0.
var ErrIntervalRequired = errors.New("timer: interval must be positive")

// ErrThreadStopped is returned when scheduling against a stopped TimerThread.
var ErrThreadStopped = errors.New("timer: thread stopped")
