package telemetry

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Event type constants, following the teacher's CloudEvents reverse-domain
// naming convention (com.retlang.<area>.<event>).
const (
	EventQueueFull        = "com.retlang.queue.full"
	EventBusStarted       = "com.retlang.bus.started"
	EventBusStopped       = "com.retlang.bus.stopped"
	EventSubscribed       = "com.retlang.bus.subscription.created"
	EventUnsubscribed     = "com.retlang.bus.subscription.removed"
	EventTimerArmed       = "com.retlang.timer.armed"
	EventTimerCancelled   = "com.retlang.timer.cancelled"
	EventConfigReloaded   = "com.retlang.config.reloaded"
	EventBatchFlushed     = "com.retlang.procbus.batch.flushed"
	EventRequestCompleted = "com.retlang.procbus.request.completed"
)

// Emitter emits CloudEvents describing runtime lifecycle/notification
// activity. This module's packages emit queue saturation, bus start/stop,
// subscription changes, timer arming and config reloads;
// EventTimerCancelled, EventBatchFlushed and EventRequestCompleted are
// defined but not emitted by any package here.
type Emitter interface {
	Emit(ctx context.Context, eventType, source string, data any)
}

// NopEmitter discards every event.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, string, string, any) {}

// NewEvent builds a CloudEvents v1.0 event the way the teacher's
// modular.NewCloudEvent does: a fresh UUID, the given type/source, and a
// JSON-encoded data payload.
func NewEvent(eventType, source string, data any) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(uuid.NewString())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	return event
}

// Listener receives every event handed to a Recorder. Listeners are invoked
// synchronously, on the emitting goroutine - callers that need isolation
// should enqueue onto their own process thread from within the listener,
// exactly like a ProcessBus subscription adapter does.
type Listener func(ctx context.Context, event cloudevents.Event)

// Recorder is the delegate/multicast sink: an add/remove pair plus an
// internal fan-out over a snapshot of listeners. It satisfies Emitter; the
// packages here default to NopEmitter when no Emitter is supplied.
type Recorder struct {
	mu        sync.RWMutex
	listeners map[int]Listener
	nextID    int
	source    string
	logger    Logger
}

// NewRecorder creates a Recorder that uses source as the CloudEvents
// "source" attribute of any event emitted with an empty source.
func NewRecorder(source string, logger Logger) *Recorder {
	return &Recorder{
		listeners: make(map[int]Listener),
		source:    source,
		logger:    orNop(logger),
	}
}

// AddListener registers a listener and returns a handle usable with
// RemoveListener.
func (r *Recorder) AddListener(l Listener) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := r.nextID
	r.nextID++
	r.listeners[id] = l
	return id
}

// RemoveListener removes a previously registered listener. Idempotent.
func (r *Recorder) RemoveListener(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.listeners, id)
}

// Emit builds a CloudEvent and fans it out to a snapshot of listeners.
func (r *Recorder) Emit(ctx context.Context, eventType, source string, data any) {
	if source == "" {
		source = r.source
	}
	event := NewEvent(eventType, source, data)

	r.mu.RLock()
	snapshot := make([]Listener, 0, len(r.listeners))
	for _, l := range r.listeners {
		snapshot = append(snapshot, l)
	}
	r.mu.RUnlock()

	for _, l := range snapshot {
		func() {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("telemetry listener panicked", "event_type", eventType, "panic", rec)
				}
			}()
			l(ctx, event)
		}()
	}
}
