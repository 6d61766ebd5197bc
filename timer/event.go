package timer

import (
	"sync/atomic"

	"github.com/shibukraj/retlang/queue"
)

// pendingEvent is the scheduled unit: an expiration (absolute monotonic
// millisecond instant on the owning TimerThread's clock), a target queue, a
// command, a monotonic cancellation flag, and - for recurring events - an
// interval. Single-shot and recurring events are not separate Go types;
// they are the two ways this struct can be constructed, avoiding the
// ceremony of an interface for what is, underneath, the same execute/cancel
// contract.
type pendingEvent struct {
	seq        uint64
	expiration int64
	target     *queue.CommandQueue
	cmd        queue.Command

	recurring bool
	interval  int64 // milliseconds; zero for single-shot events

	cancelled atomic.Bool
}

func newSingleEvent(seq uint64, expiration int64, target *queue.CommandQueue, cmd queue.Command) *pendingEvent {
	return &pendingEvent{seq: seq, expiration: expiration, target: target, cmd: cmd}
}

func newRecurringEvent(seq uint64, expiration int64, intervalMs int64, target *queue.CommandQueue, cmd queue.Command) *pendingEvent {
	return &pendingEvent{seq: seq, expiration: expiration, target: target, cmd: cmd, recurring: true, interval: intervalMs}
}

// execute runs the event's command at instant now (unless cancelled) and, for
// a recurring event, returns itself re-armed for the next interval. A
// cancelled event enqueues nothing and never produces a successor:
// cancellation is not an error, and a cancelled event is simply inert from
// here on.
func (e *pendingEvent) execute(now int64) (successor *pendingEvent) {
	if e.cancelled.Load() {
		return nil
	}

	// QueueFull is swallowed at the timer boundary: the timer has no
	// notion of a subscriber-facing QueueFullEvent policy.
	_ = e.target.Enqueue(e.cmd)

	if !e.recurring {
		return nil
	}

	e.expiration = now + e.interval
	return e
}

// Control is the caller-facing handle returned by Schedule/ScheduleOnInterval.
// Its only operation is Cancel.
type Control struct {
	ev *pendingEvent
}

// Cancel marks the underlying event cancelled. It is safe to call from any
// goroutine, any number of times: the flag is monotonic (set-once
// semantics), so repeated calls are no-ops after the first.
func (c Control) Cancel() {
	c.ev.cancelled.Store(true)
}

// Cancelled reports whether Cancel has been called.
func (c Control) Cancelled() bool {
	return c.ev.cancelled.Load()
}

// eventHeap implements container/heap.Interface, ordering pendingEvents by
// (expiration, seq) - expiration first, insertion order breaking ties.
// Events are popped from the heap once due; a cancelled event is still
// popped (and found to be a no-op in execute) rather than proactively
// removed, trading an occasional wasted pop for O(1) cancellation instead of
// a linear scan-and-remove. A flat per-key index would make cancellation a
// direct lookup but turn "find the next expiration" into a linear scan; the
// heap gives the same "exactly one armed wait for the global minimum"
// behavior with O(log n) insert/pop instead.
type eventHeap []*pendingEvent

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].expiration != h[j].expiration {
		return h[i].expiration < h[j].expiration
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(*pendingEvent))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
