// Package timer implements the single, shared TimerThread: one scheduler
// per runtime, dispatching expiring one-shot and recurring events into
// target CommandQueues, arming exactly one OS-level timed wait at a time.
package timer

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/shibukraj/retlang/queue"
	"github.com/shibukraj/retlang/telemetry"
)

// Thread is the runtime's single timer/scheduler. Construct one per runtime
// and share it across every process.ProcessThread.
type Thread struct {
	cfg     Config
	logger  telemetry.Logger
	emitter telemetry.Emitter

	mu        sync.Mutex
	heap      eventHeap
	seq       uint64
	clockZero time.Time
	stopped   bool
	frozenAt  int64

	wake     chan struct{}
	stopCh   chan struct{}
	started  bool
	startsOn sync.Once
}

// NewThread creates a TimerThread. Its clock starts at zero at construction
// time and only ever advances.
//
// This implementation lazily starts its background goroutine on the first
// Schedule/ScheduleOnInterval call; there is no separate Start method to
// forget to call, and behavior is equivalent to an eagerly-started scheduler
// since no event can possibly be pending before that first call.
func NewThread(cfg Config, logger telemetry.Logger, emitter telemetry.Emitter) *Thread {
	if logger == nil {
		logger = telemetry.NopLogger{}
	}
	if emitter == nil {
		emitter = telemetry.NopEmitter{}
	}
	return &Thread{
		cfg:       cfg,
		logger:    logger,
		emitter:   emitter,
		clockZero: time.Now(),
		wake:      make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

func (t *Thread) ensureStarted() {
	t.startsOn.Do(func() {
		t.mu.Lock()
		t.started = true
		t.mu.Unlock()
		go t.run()
	})
}

// nowLocked returns the current monotonic millisecond instant. Must be
// called with mu held.
func (t *Thread) nowLocked() int64 {
	if t.stopped {
		return t.frozenAt
	}
	return time.Since(t.clockZero).Milliseconds()
}

// Schedule arms a one-shot event that enqueues cmd onto target after delay.
func (t *Thread) Schedule(target *queue.CommandQueue, cmd queue.Command, delay time.Duration) (Control, error) {
	t.ensureStarted()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return Control{}, ErrThreadStopped
	}
	now := t.nowLocked()
	t.seq++
	ev := newSingleEvent(t.seq, now+delay.Milliseconds(), target, cmd)
	t.insertLocked(ev)
	t.mu.Unlock()

	t.emitter.Emit(context.Background(), telemetry.EventTimerArmed, t.cfg.Source, map[string]any{
		"recurring": false,
		"delay_ms":  delay.Milliseconds(),
	})
	return Control{ev: ev}, nil
}

// ScheduleOnInterval arms a recurring event: first fire after first, then
// every interval thereafter until cancelled.
func (t *Thread) ScheduleOnInterval(target *queue.CommandQueue, cmd queue.Command, first, interval time.Duration) (Control, error) {
	if interval <= 0 {
		return Control{}, ErrIntervalRequired
	}
	t.ensureStarted()

	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return Control{}, ErrThreadStopped
	}
	now := t.nowLocked()
	t.seq++
	ev := newRecurringEvent(t.seq, now+first.Milliseconds(), interval.Milliseconds(), target, cmd)
	t.insertLocked(ev)
	t.mu.Unlock()

	t.emitter.Emit(context.Background(), telemetry.EventTimerArmed, t.cfg.Source, map[string]any{
		"recurring":   true,
		"first_ms":    first.Milliseconds(),
		"interval_ms": interval.Milliseconds(),
	})
	return Control{ev: ev}, nil
}

// insertLocked pushes ev onto the heap and, if it is now the earliest
// pending event, wakes the run loop so it can rearm for the new minimum.
// Must be called with mu held.
func (t *Thread) insertLocked(ev *pendingEvent) {
	wasMin := len(t.heap) == 0 || ev.expiration < t.heap[0].expiration
	heap.Push(&t.heap, ev)
	if wasMin {
		select {
		case t.wake <- struct{}{}:
		default:
		}
	}
}

// run is the TimerThread's single background goroutine: it arms exactly one
// timed wait for the earliest pending expiration.
func (t *Thread) run() {
	for {
		t.mu.Lock()
		if t.stopped {
			t.mu.Unlock()
			return
		}

		if len(t.heap) == 0 {
			t.mu.Unlock()
			select {
			case <-t.wake:
				continue
			case <-t.stopCh:
				return
			}
		}

		now := t.nowLocked()
		next := t.heap[0].expiration
		t.mu.Unlock()

		if next <= now {
			t.drainDue()
			continue
		}

		wait := time.NewTimer(time.Duration(next-now) * time.Millisecond)
		select {
		case <-wait.C:
			t.drainDue()
		case <-t.wake:
			wait.Stop()
		case <-t.stopCh:
			wait.Stop()
			return
		}
	}
}

// drainDue pops every event whose expiration is now due (in ascending
// (expiration, insertion) order), executes each outside the timer lock, and
// re-inserts any recurring successors.
func (t *Thread) drainDue() {
	t.mu.Lock()
	now := t.nowLocked()
	var due []*pendingEvent
	for len(t.heap) > 0 && t.heap[0].expiration <= now {
		due = append(due, heap.Pop(&t.heap).(*pendingEvent))
	}
	t.mu.Unlock()

	for _, ev := range due {
		successor := ev.execute(now)
		if successor != nil {
			t.mu.Lock()
			if !t.stopped {
				t.insertLocked(successor)
			}
			t.mu.Unlock()
		}
	}
}

// Stop freezes the clock and arms no further waits. Events already popped
// for execution complete; nothing new is dispatched afterward.
func (t *Thread) Stop() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	t.frozenAt = time.Since(t.clockZero).Milliseconds()
	t.mu.Unlock()
	close(t.stopCh)
}

// Len reports how many events (cancelled or not) remain pending.
func (t *Thread) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.heap)
}

// waitUntilIdle is a test helper: blocks until the heap is empty or ctx ends.
func (t *Thread) waitUntilIdle(ctx context.Context) {
	for {
		t.mu.Lock()
		empty := len(t.heap) == 0
		t.mu.Unlock()
		if empty {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Millisecond):
		}
	}
}
