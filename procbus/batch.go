package procbus

import (
	"sync"
	"time"
)

// BatchHandler receives the collected slice at the end of a batch window.
type BatchHandler[T any] func(batch []T)

// BatchSubscriber coalesces individual messages into windowed batches,
// flushing at most once per MinBatchInterval. Grounded on
// other_examples/f678b02b_dapr-kit__events-batcher-batcher.go.go's
// pending-list-plus-mutex, single-armed-flush shape, adapted from a
// generic key/TTL batcher keyed by k8s.io/utils/clock to a window scheduled
// through process.ProcessThread.Schedule's shared timer. Each flush runs on
// the owning ProcessBus's own process thread, serially with every other
// command that thread executes.
type BatchSubscriber[T any] struct {
	pb               *ProcessBus
	minBatchInterval time.Duration
	handler          BatchHandler[T]

	mu      sync.Mutex
	pending []T
	armed   bool
}

// NewBatchSubscriber creates a BatchSubscriber whose flushes run on pb's own
// process thread.
func NewBatchSubscriber[T any](pb *ProcessBus, minBatchInterval time.Duration, handler BatchHandler[T]) *BatchSubscriber[T] {
	return &BatchSubscriber[T]{pb: pb, minBatchInterval: minBatchInterval, handler: handler}
}

// ReceiveMessage appends msg to the current window. If no flush is armed for
// this window, it schedules exactly one, MinBatchInterval from now.
func (b *BatchSubscriber[T]) ReceiveMessage(msg T) {
	b.mu.Lock()
	b.pending = append(b.pending, msg)
	needsArm := !b.armed
	if needsArm {
		b.armed = true
	}
	b.mu.Unlock()

	if needsArm {
		b.pb.Schedule(b.flush, b.minBatchInterval)
	}
}

// flush swaps out the pending list and invokes handler with the collected
// slice, unless the window collected nothing.
func (b *BatchSubscriber[T]) flush() {
	b.mu.Lock()
	batch := b.pending
	b.pending = nil
	b.armed = false
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	b.handler(batch)
}
