// Package process implements ProcessThread: a single-consumer worker
// wrapping one queue.CommandQueue, sharing one timer.Thread with every
// other ProcessThread in the runtime so scheduled work across the whole
// process competes for exactly one armed OS wait.
package process

import (
	"sync"
	"time"

	"github.com/shibukraj/retlang/queue"
	"github.com/shibukraj/retlang/telemetry"
	"github.com/shibukraj/retlang/timer"
)

// Thread is a ProcessThread: a dedicated worker goroutine draining its own
// CommandQueue, plus scheduling convenience methods delegating to a shared
// timer.Thread. Grounded on the teacher's worker-goroutine-per-module
// lifecycle (Start/Stop/wg.Wait in scheduler.go and memory.go).
type Thread struct {
	cfg    Config
	logger telemetry.Logger

	queue *queue.CommandQueue
	timer *timer.Thread

	mu      sync.Mutex
	started bool
	done    chan struct{}
}

// New creates a ProcessThread bound to the given shared timer.Thread. The
// timer is shared across every ProcessThread in a runtime.
func New(cfg Config, logger telemetry.Logger, sharedTimer *timer.Thread) *Thread {
	if logger == nil {
		logger = telemetry.NopLogger{}
	}
	return &Thread{
		cfg:   cfg,
		logger: logger,
		queue: queue.New(queue.Config{MaxDepth: cfg.MaxQueueDepth}, logger),
		timer: sharedTimer,
	}
}

// Start launches the worker goroutine that drains this thread's queue. It is
// an error to call Start more than once.
func (t *Thread) Start() error {
	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	t.started = true
	t.done = make(chan struct{})
	t.mu.Unlock()

	go func() {
		defer close(t.done)
		t.queue.Run()
	}()
	return nil
}

// Stop drains and halts the worker goroutine. Idempotent with the underlying
// queue's own idempotent Stop.
func (t *Thread) Stop() {
	t.queue.Stop()
}

// Join blocks until the worker goroutine has exited after Stop.
func (t *Thread) Join() {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return
	}
	<-done
}

// Enqueue forwards cmd to this thread's queue for serialized execution.
func (t *Thread) Enqueue(cmd queue.Command) error {
	return t.queue.Enqueue(cmd)
}

// Schedule arms cmd to run once, after delay, on this thread's queue - via
// the shared timer.Thread.
func (t *Thread) Schedule(cmd queue.Command, delay time.Duration) (timer.Control, error) {
	return t.timer.Schedule(t.queue, cmd, delay)
}

// ScheduleOnInterval arms cmd to run repeatedly on this thread's queue,
// starting after first and then every interval, via the shared timer.Thread.
func (t *Thread) ScheduleOnInterval(cmd queue.Command, first, interval time.Duration) (timer.Control, error) {
	return t.timer.ScheduleOnInterval(t.queue, cmd, first, interval)
}

// ScheduleCron arms cmd to run at every occurrence of a standard cron
// expression, via the shared timer.Thread.
func (t *Thread) ScheduleCron(cmd queue.Command, expr string) (*timer.CronSchedule, error) {
	return t.timer.ScheduleCron(t.queue, cmd, expr)
}

// Queue exposes the underlying CommandQueue for callers that need to target
// it directly, e.g. to register it with diagnostics to report depth.
func (t *Thread) Queue() *queue.CommandQueue {
	return t.queue
}
