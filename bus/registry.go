package bus

import (
	"sync"

	"github.com/google/uuid"
)

// Handler receives a delivered envelope. Handlers run on whatever thread the
// owning dispatcher (MessageBus's bus thread, or ProcessBus's adapter) calls
// them from; a handler must not block indefinitely.
type Handler func(env TransferEnvelope)

// Subscription is the opaque handle returned by Subscribe, passed back to
// Unsubscribe.
type Subscription string

type subscriber struct {
	id      Subscription
	matcher TopicMatcher
	handler Handler
}

// SubscriberRegistry holds topic-matched subscribers and dispatches publishes
// to them. Grounded on the teacher's
// subscriptions map[string]map[string]*memorySubscription + topicMutex shape
// (memory.go), generalized from exact-topic-keyed maps to an explicit
// matcher list since this package's TopicMatcher is a predicate, not just a
// string key.
type SubscriberRegistry struct {
	mu   sync.RWMutex
	subs []subscriber
}

// NewRegistry creates an empty SubscriberRegistry.
func NewRegistry() *SubscriberRegistry {
	return &SubscriberRegistry{}
}

// Subscribe registers handler against matcher and returns a Subscription
// handle for later Unsubscribe.
func (r *SubscriberRegistry) Subscribe(matcher TopicMatcher, handler Handler) Subscription {
	id := Subscription(uuid.New().String())
	r.mu.Lock()
	r.subs = append(r.subs, subscriber{id: id, matcher: matcher, handler: handler})
	r.mu.Unlock()
	return id
}

// Unsubscribe removes the subscriber with the given id, if present. O(n) in
// the current subscriber count - amortised O(1) relative to registry
// lifetime since subscriptions churn far less than publishes.
func (r *SubscriberRegistry) Unsubscribe(id Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.subs {
		if s.id == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

// Publish dispatches env to every subscriber whose matcher matches its
// topic, from a point-in-time snapshot taken under the read lock. Dispatching
// from a snapshot (rather than holding the lock across handler calls) means a
// handler that unsubscribes itself, or another subscriber, mid-dispatch
// cannot deadlock the registry. Publish reports whether at least one
// subscriber matched.
func (r *SubscriberRegistry) Publish(env TransferEnvelope) bool {
	r.mu.RLock()
	matched := make([]Handler, 0, len(r.subs))
	for _, s := range r.subs {
		if s.matcher.IsMatch(env.Header.Topic()) {
			matched = append(matched, s.handler)
		}
	}
	r.mu.RUnlock()

	for _, h := range matched {
		h(env)
	}
	return len(matched) > 0
}

// Count reports the current number of subscriptions, for diagnostics.
func (r *SubscriberRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}
