package queue

import (
	"sync"
	"sync/atomic"

	"github.com/shibukraj/retlang/telemetry"
)

// CommandQueue is a single-consumer, many-producer blocking FIFO of Commands.
// Producers call Enqueue from any goroutine; exactly one consumer is expected
// to drive the queue via Run (or ExecuteNext/Dequeue directly).
//
// FIFO order is absolute: if Enqueue(c1) happens-before Enqueue(c2), c1 is
// dequeued - and therefore begins executing - before c2.
type CommandQueue struct {
	cfg    Config
	logger telemetry.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	items   []Command
	running bool

	enqueued uint64
	executed uint64
}

// New creates a CommandQueue in the running state, ready to accept commands.
func New(cfg Config, logger telemetry.Logger) *CommandQueue {
	if logger == nil {
		logger = telemetry.NopLogger{}
	}
	q := &CommandQueue{
		cfg:     cfg,
		logger:  logger,
		running: true,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends cmd to the tail of the queue and wakes a waiting consumer.
// It returns ErrQueueFull if Config.MaxDepth is set and already reached, and
// ErrQueueStopped once Stop has been called.
func (q *CommandQueue) Enqueue(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return ErrQueueStopped
	}
	if q.cfg.MaxDepth > 0 && len(q.items) >= q.cfg.MaxDepth {
		return ErrQueueFull
	}

	q.items = append(q.items, cmd)
	atomic.AddUint64(&q.enqueued, 1)
	q.cond.Signal()
	return nil
}

// Dequeue blocks while the queue is empty and running, and returns the next
// Command in FIFO order. It returns (nil, false) once the queue has been
// stopped and drained, or was already empty when Stop was called.
func (q *CommandQueue) Dequeue() (Command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && q.running {
		q.cond.Wait()
	}

	if len(q.items) == 0 {
		return nil, false
	}

	cmd := q.items[0]
	q.items = q.items[1:]
	return cmd, true
}

// ExecuteNext dequeues and invokes the next Command, recovering a panic from
// within it so that one misbehaving command never silences the consumer
// loop. It returns false once the queue has stopped and drained.
func (q *CommandQueue) ExecuteNext() bool {
	cmd, ok := q.Dequeue()
	if !ok {
		return false
	}
	q.invoke(cmd)
	atomic.AddUint64(&q.executed, 1)
	return true
}

func (q *CommandQueue) invoke(cmd Command) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("command panicked", "panic", r)
		}
	}()
	cmd()
}

// Run loops ExecuteNext until the queue stops and drains. It is meant to be
// the body of the single consumer goroutine for this queue.
func (q *CommandQueue) Run() {
	for q.ExecuteNext() {
	}
}

// Stop marks the queue non-running and wakes every waiter. Idempotent.
// Commands already enqueued may or may not run - the queue drains
// opportunistically - but no further Enqueue call will be admitted.
func (q *CommandQueue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return
	}
	q.running = false
	q.cond.Broadcast()
}

// Depth returns the current number of queued, not-yet-dequeued commands.
func (q *CommandQueue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Running reports whether the queue still accepts new commands.
func (q *CommandQueue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Stats returns lifetime enqueue/execute counters, grounded on the teacher's
// MemoryEventBus.Stats() atomic delivered/dropped counters.
func (q *CommandQueue) Stats() (enqueued, executed uint64) {
	return atomic.LoadUint64(&q.enqueued), atomic.LoadUint64(&q.executed)
}
