package config

import (
	"github.com/shibukraj/retlang/bus"
	"github.com/shibukraj/retlang/procbus"
	"github.com/shibukraj/retlang/process"
	"github.com/shibukraj/retlang/queue"
	"github.com/shibukraj/retlang/timer"
)

// QueueConfig converts into the queue package's own Config, so a loaded
// RuntimeConfig feeds construction directly rather than the caller
// hand-copying fields.
func (c QueueConfig) QueueConfig() queue.Config {
	return queue.Config{MaxDepth: c.MaxDepth}
}

// ProcessConfig converts into the process package's own Config.
func (c ProcessConfig) ProcessConfig() process.Config {
	return process.Config{MaxQueueDepth: c.MaxQueueDepth, Source: c.Source}
}

// BusConfig converts into the bus package's own Config.
func (c BusConfig) BusConfig() bus.Config {
	return bus.Config{
		MaxQueueDepth:    c.MaxQueueDepth,
		Source:           c.Source,
		AsyncWorkerCount: c.AsyncWorkerCount,
	}
}

// ProcBusConfig converts into the procbus package's own Config.
func (c ProcBusConfig) ProcBusConfig() procbus.Config {
	return procbus.Config{
		MaxQueueDepth:         c.MaxQueueDepth,
		Source:                c.Source,
		DefaultRequestTimeout: c.DefaultRequestTimeout,
	}
}

// TimerConfig converts into the timer package's own Config.
func (c TimerConfig) TimerConfig() timer.Config {
	return timer.Config{Source: c.Source}
}
