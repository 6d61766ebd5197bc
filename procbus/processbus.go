// Package procbus implements ProcessBus, the per-context façade subscribers
// use to join a shared bus.MessageBus without touching it directly. A
// ProcessBus owns one process.ProcessThread, fans every bus delivery through
// it, and re-dispatches via its own internal bus.SubscriberRegistry so this
// context's subscriptions run serialized on this context's own thread.
package procbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shibukraj/retlang/bus"
	"github.com/shibukraj/retlang/process"
	"github.com/shibukraj/retlang/queue"
	"github.com/shibukraj/retlang/telemetry"
	"github.com/shibukraj/retlang/timer"
)

// QueueFullListener is notified when a bus delivery could not be enqueued
// onto this ProcessBus's own process thread because it was full. Grounded on
// the teacher's EventEmitter/observer fan-out (application_observer.go
// pattern), generalized from CloudEvents-any-observer to this typed
// listener set.
type QueueFullListener func(env bus.TransferEnvelope)

// ProcessBus is the per-context façade bound to one process.ProcessThread and
// composed with one shared bus.MessageBus.
type ProcessBus struct {
	cfg     Config
	logger  telemetry.Logger
	emitter telemetry.Emitter

	sharedBus *bus.MessageBus
	thread    *process.Thread
	registry  *bus.SubscriberRegistry

	mu              sync.Mutex
	started         bool
	busSubscription bus.Subscription

	listenersMu sync.RWMutex
	listeners   []QueueFullListener
}

// New creates a ProcessBus bound to sharedBus, with its own process thread
// sharing sharedTimer with the rest of the runtime.
func New(cfg Config, logger telemetry.Logger, emitter telemetry.Emitter, sharedBus *bus.MessageBus, sharedTimer *timer.Thread) *ProcessBus {
	if logger == nil {
		logger = telemetry.NopLogger{}
	}
	if emitter == nil {
		emitter = telemetry.NopEmitter{}
	}
	return &ProcessBus{
		cfg:       cfg,
		logger:    logger,
		emitter:   emitter,
		sharedBus: sharedBus,
		thread: process.New(process.Config{
			MaxQueueDepth: cfg.MaxQueueDepth,
			Source:        cfg.Source,
		}, logger, sharedTimer),
		registry: bus.NewRegistry(),
	}
}

// Start launches this context's process thread and registers this
// ProcessBus as the shared bus's single catch-all subscriber: every
// delivery, regardless of topic, is enqueued onto this context's own thread,
// which then re-dispatches through this context's own registry. A QueueFull
// there fires the QueueFullListener fan-out instead of propagating.
func (p *ProcessBus) Start() error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return ErrAlreadyStarted
	}
	p.started = true
	p.mu.Unlock()

	if err := p.thread.Start(); err != nil {
		return err
	}

	p.busSubscription = p.sharedBus.Subscribe(bus.AllTopics{}, func(env bus.TransferEnvelope) {
		if err := p.thread.Enqueue(func() { p.registry.Publish(env) }); err != nil {
			p.emitter.Emit(context.Background(), telemetry.EventQueueFull, p.cfg.Source, map[string]any{
				"topic": string(env.Header.Topic()),
			})
			p.fanOutQueueFull(env)
		}
	})
	return nil
}

// Stop unregisters from the shared bus and halts this context's thread.
func (p *ProcessBus) Stop() {
	p.sharedBus.Unsubscribe(p.busSubscription)
	p.thread.Stop()
}

// Join blocks until this context's process thread has fully exited.
func (p *ProcessBus) Join() {
	p.thread.Join()
}

// AddQueueFullListener registers l to be called whenever a bus delivery
// could not be enqueued onto this context's own thread.
func (p *ProcessBus) AddQueueFullListener(l QueueFullListener) {
	p.listenersMu.Lock()
	p.listeners = append(p.listeners, l)
	p.listenersMu.Unlock()
}

// fanOutQueueFull notifies every registered QueueFullListener that env could
// not be enqueued onto this context's own thread. Each call is dispatched
// through the shared bus's bounded worker pool (bus.MessageBus.SubmitAsync)
// rather than run inline here, since fanOutQueueFull itself executes on the
// shared bus's single dispatch thread (it's invoked from the catch-all
// subscription registered in Start): a slow listener running inline would
// stall delivery to every other ProcessBus sharing that bus. A saturated
// pool silently drops the notification rather than blocking the bus thread.
func (p *ProcessBus) fanOutQueueFull(env bus.TransferEnvelope) {
	p.listenersMu.RLock()
	listeners := append([]QueueFullListener(nil), p.listeners...)
	p.listenersMu.RUnlock()
	for _, l := range listeners {
		l := l
		p.sharedBus.SubmitAsync(func() { l(env) })
	}
}

// Subscribe registers handler against matcher in this context's own
// registry. Subscriptions here never touch the shared bus directly.
func (p *ProcessBus) Subscribe(matcher bus.TopicMatcher, handler bus.Handler) bus.Subscription {
	sub := p.registry.Subscribe(matcher, handler)
	p.emitter.Emit(context.Background(), telemetry.EventSubscribed, p.cfg.Source, map[string]any{
		"subscription": string(sub),
	})
	return sub
}

// Unsubscribe removes a prior subscription from this context's own registry.
func (p *ProcessBus) Unsubscribe(sub bus.Subscription) {
	p.registry.Unsubscribe(sub)
	p.emitter.Emit(context.Background(), telemetry.EventUnsubscribed, p.cfg.Source, map[string]any{
		"subscription": string(sub),
	})
}

// Receive dispatches env directly through this context's own registry,
// bypassing the shared bus entirely; returns whether any subscriber matched.
// Used by tests and by components that already hold an envelope in hand.
func (p *ProcessBus) Receive(env bus.TransferEnvelope) (consumed bool) {
	return p.registry.Publish(env)
}

// Publish forwards to the shared bus.
func (p *ProcessBus) Publish(env bus.TransferEnvelope) error {
	return p.sharedBus.Publish(env)
}

// Enqueue forwards cmd to this context's own process thread.
func (p *ProcessBus) Enqueue(cmd queue.Command) error {
	return p.thread.Enqueue(cmd)
}

// Schedule delegates to this context's process thread.
func (p *ProcessBus) Schedule(cmd queue.Command, delay time.Duration) (timer.Control, error) {
	return p.thread.Schedule(cmd, delay)
}

// ScheduleOnInterval delegates to this context's process thread.
func (p *ProcessBus) ScheduleOnInterval(cmd queue.Command, first, interval time.Duration) (timer.Control, error) {
	return p.thread.ScheduleOnInterval(cmd, first, interval)
}

// CreateUniqueTopic returns a fresh opaque topic value backed by
// google/uuid, used to correlate a request with its reply.
func (p *ProcessBus) CreateUniqueTopic() bus.Topic {
	return bus.Topic(uuid.New().String())
}
