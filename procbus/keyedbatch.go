package procbus

import (
	"sync"
	"time"
)

// KeyedBatchHandler receives the collected map at the end of a batch window.
type KeyedBatchHandler[K comparable, V any] func(batch map[K]V)

// KeyedBatchSubscriber is BatchSubscriber's keyed sibling: messages for the
// same key within one window collapse to the last value received,
// last-write-wins.
type KeyedBatchSubscriber[K comparable, V any] struct {
	pb               *ProcessBus
	minBatchInterval time.Duration
	handler          KeyedBatchHandler[K, V]

	mu      sync.Mutex
	pending map[K]V
	armed   bool
}

// NewKeyedBatchSubscriber creates a KeyedBatchSubscriber whose flushes run on
// pb's own process thread.
func NewKeyedBatchSubscriber[K comparable, V any](pb *ProcessBus, minBatchInterval time.Duration, handler KeyedBatchHandler[K, V]) *KeyedBatchSubscriber[K, V] {
	return &KeyedBatchSubscriber[K, V]{
		pb:               pb,
		minBatchInterval: minBatchInterval,
		handler:          handler,
		pending:          make(map[K]V),
	}
}

// ReceiveMessage records value under key for the current window,
// overwriting any earlier value for the same key this window. If no flush
// is armed for this window, it schedules exactly one, MinBatchInterval from
// now.
func (b *KeyedBatchSubscriber[K, V]) ReceiveMessage(key K, value V) {
	b.mu.Lock()
	b.pending[key] = value
	needsArm := !b.armed
	if needsArm {
		b.armed = true
	}
	b.mu.Unlock()

	if needsArm {
		b.pb.Schedule(b.flush, b.minBatchInterval)
	}
}

func (b *KeyedBatchSubscriber[K, V]) flush() {
	b.mu.Lock()
	batch := b.pending
	b.pending = make(map[K]V)
	b.armed = false
	b.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	b.handler(batch)
}
