package procbus

import "time"

// Config carries a ProcessBus's own process-thread tunables plus its
// request/reply timeout default, teacher's small-struct-with-tags
// convention. Batch subscribers take their window as an explicit argument;
// there is no batch default here.
type Config struct {
	// MaxQueueDepth bounds this context's own process thread; zero means
	// unbounded.
	MaxQueueDepth int `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth" env:"PROCBUS_MAX_QUEUE_DEPTH"`

	// Source identifies this ProcessBus in emitted telemetry events.
	Source string `json:"source" yaml:"source" toml:"source" env:"PROCBUS_SOURCE"`

	// DefaultRequestTimeout bounds SendRequest's blocking Wait when the
	// caller's context carries no deadline of its own.
	DefaultRequestTimeout time.Duration `json:"default_request_timeout" yaml:"default_request_timeout" toml:"default_request_timeout" env:"PROCBUS_DEFAULT_REQUEST_TIMEOUT"`
}

// DefaultConfig returns an unbounded process thread, a generic source name,
// and a five second default request timeout.
func DefaultConfig() Config {
	return Config{
		Source:                "process-bus",
		DefaultRequestTimeout: 5 * time.Second,
	}
}
