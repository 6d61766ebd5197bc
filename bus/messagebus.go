package bus

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/shibukraj/retlang/process"
	"github.com/shibukraj/retlang/telemetry"
	"github.com/shibukraj/retlang/timer"
)

// MessageBus is the runtime-wide pub/sub hub: one dedicated bus thread
// serializes every Publish so all subscribers observe a single consistent
// delivery order, grounded on the teacher's MemoryEventBus lifecycle
// (Start/Stop/isStarted/ctx,cancel/wg in memory.go), generalized so the
// dispatch thread is itself a process.ProcessThread rather than the
// teacher's many-goroutines-per-subscription model.
type MessageBus struct {
	cfg       Config
	logger    telemetry.Logger
	emitter   telemetry.Emitter
	registry  *SubscriberRegistry
	busThread *process.Thread
	asyncPool *WorkerPool

	mu      sync.Mutex
	started bool

	delivered uint64
	dropped   uint64
}

// New creates a MessageBus whose bus thread shares sharedTimer with the rest
// of the runtime.
func New(cfg Config, logger telemetry.Logger, emitter telemetry.Emitter, sharedTimer *timer.Thread) *MessageBus {
	if logger == nil {
		logger = telemetry.NopLogger{}
	}
	if emitter == nil {
		emitter = telemetry.NopEmitter{}
	}
	return &MessageBus{
		cfg:      cfg,
		logger:   logger,
		emitter:  emitter,
		registry: NewRegistry(),
		busThread: process.New(process.Config{
			MaxQueueDepth: cfg.MaxQueueDepth,
			Source:        cfg.Source,
		}, logger, sharedTimer),
		asyncPool: NewWorkerPool(cfg.AsyncWorkerCount),
	}
}

// Start launches the bus thread. It is an error to call Start more than
// once.
func (b *MessageBus) Start() error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return ErrAlreadyStarted
	}
	b.started = true
	b.mu.Unlock()

	if err := b.busThread.Start(); err != nil {
		return err
	}
	b.emitter.Emit(context.Background(), telemetry.EventBusStarted, b.cfg.Source, nil)
	return nil
}

// Stop halts the bus thread and drains the async worker pool. Publishes
// already enqueued before Stop still complete; nothing new is accepted
// afterward.
func (b *MessageBus) Stop() {
	b.busThread.Stop()
	b.asyncPool.Stop()
	b.emitter.Emit(context.Background(), telemetry.EventBusStopped, b.cfg.Source, nil)
}

// Join blocks until the bus thread has fully exited after Stop.
func (b *MessageBus) Join() {
	b.busThread.Join()
}

// Subscribe registers handler against matcher, touching the registry
// directly - subscription bookkeeping doesn't need to run on the bus
// thread, only dispatch does, so a caller never has to wait for the bus
// thread to catch up before its subscription takes effect.
func (b *MessageBus) Subscribe(matcher TopicMatcher, handler Handler) Subscription {
	sub := b.registry.Subscribe(matcher, handler)
	b.emitter.Emit(context.Background(), telemetry.EventSubscribed, b.cfg.Source, map[string]any{
		"subscription": string(sub),
	})
	return sub
}

// SubscribeAsync registers handler against matcher like Subscribe, but
// dispatches each matching delivery through the bus's bounded WorkerPool
// instead of running it on the calling bus-thread goroutine, so one slow
// async handler cannot stall delivery to every other subscriber. Ported
// from the teacher's async subscription path (modules/eventbus/memory.go's
// queueEventHandler): a saturated pool drops the delivery, counted in
// Stats, rather than blocking the bus thread.
func (b *MessageBus) SubscribeAsync(matcher TopicMatcher, handler Handler) Subscription {
	wrapped := func(env TransferEnvelope) {
		if !b.asyncPool.Submit(func() { handler(env) }) {
			atomic.AddUint64(&b.dropped, 1)
			b.logger.Warn("async subscriber dropped, worker pool saturated")
		}
	}
	sub := b.registry.Subscribe(matcher, wrapped)
	b.emitter.Emit(context.Background(), telemetry.EventSubscribed, b.cfg.Source, map[string]any{
		"subscription": string(sub),
		"async":        true,
	})
	return sub
}

// Unsubscribe removes a prior subscription.
func (b *MessageBus) Unsubscribe(sub Subscription) {
	b.registry.Unsubscribe(sub)
	b.emitter.Emit(context.Background(), telemetry.EventUnsubscribed, b.cfg.Source, map[string]any{
		"subscription": string(sub),
	})
}

// Publish enqueues a command that calls registry.Publish on the bus thread.
// This single-threaded dispatch is what gives every subscriber a consistent
// delivery order. Publish returns ErrBusNotStarted before Start, and
// otherwise any error enqueuing onto the bus thread (e.g. ErrQueueFull if
// bounded and saturated), counting the latter against Stats' dropped total;
// it does not wait for dispatch to complete.
func (b *MessageBus) Publish(env TransferEnvelope) error {
	b.mu.Lock()
	started := b.started
	b.mu.Unlock()
	if !started {
		return ErrBusNotStarted
	}

	err := b.busThread.Enqueue(func() {
		if b.registry.Publish(env) {
			atomic.AddUint64(&b.delivered, 1)
		}
	})
	if err != nil {
		atomic.AddUint64(&b.dropped, 1)
	}
	return err
}

// SubmitAsync runs task on the bus's bounded WorkerPool, off whatever
// goroutine called it. Exposed so callers that already hold a MessageBus
// (e.g. procbus's cross-context notification fan-out) can offload work
// without standing up their own pool. Returns false if the pool is
// saturated and task was dropped.
func (b *MessageBus) SubmitAsync(task func()) bool {
	return b.asyncPool.Submit(task)
}

// SubscriberCount reports the current number of subscriptions, for
// diagnostics.
func (b *MessageBus) SubscriberCount() int {
	return b.registry.Count()
}

// Stats returns lifetime delivered/dropped counters for monitoring,
// grounded on the teacher's MemoryEventBus.Stats() atomic counters
// (modules/eventbus/memory.go). delivered counts envelopes that reached at
// least one subscriber; dropped counts envelopes the bus thread refused
// (its queue saturated or stopped) and async deliveries dropped because the
// worker pool was saturated.
func (b *MessageBus) Stats() (delivered, dropped uint64) {
	return atomic.LoadUint64(&b.delivered), atomic.LoadUint64(&b.dropped)
}
