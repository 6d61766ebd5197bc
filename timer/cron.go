package timer

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shibukraj/retlang/queue"
)

// CronSchedule is a convenience built strictly atop Thread.Schedule: it
// never runs a parallel scheduling path. It parses a standard 5-field cron
// expression, computes the delay to its next fire time from wall-clock
// "now" (cron expressions are inherently wall-clock, unlike the TimerThread's
// own monotonic clock), arms a one-shot Schedule for that delay, and - on
// each fire - re-arms itself for the following occurrence. This mirrors the
// teacher's registerWithCron (modules/scheduler/scheduler.go), ported from
// "cron triggers a job-store read + queue push" to "cron computes a delay and
// calls Thread.Schedule".
type CronSchedule struct {
	thread   *Thread
	target   *queue.CommandQueue
	cmd      queue.Command
	schedule cron.Schedule

	mu        sync.Mutex
	cancelled bool
	current   Control
}

// ScheduleCron parses expr (standard 5-field cron syntax) and arms cmd to run
// on target's queue at every future occurrence, until Cancel is called.
func (t *Thread) ScheduleCron(target *queue.CommandQueue, cmd queue.Command, expr string) (*CronSchedule, error) {
	schedule, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, err
	}

	cs := &CronSchedule{
		thread:   t,
		target:   target,
		cmd:      cmd,
		schedule: schedule,
	}
	cs.armNext()
	return cs, nil
}

func (cs *CronSchedule) armNext() {
	cs.mu.Lock()
	if cs.cancelled {
		cs.mu.Unlock()
		return
	}
	cs.mu.Unlock()

	now := time.Now()
	next := cs.schedule.Next(now)
	delay := next.Sub(now)

	ctrl, err := cs.thread.Schedule(cs.target, func() {
		cs.cmd()
		cs.armNext()
	}, delay)
	if err != nil {
		return
	}

	cs.mu.Lock()
	cs.current = ctrl
	cs.mu.Unlock()
}

// Cancel stops future cron occurrences. The currently-armed occurrence (if
// any) is cancelled too; idempotent like timer.Control.Cancel.
func (cs *CronSchedule) Cancel() {
	cs.mu.Lock()
	cs.cancelled = true
	current := cs.current
	cs.mu.Unlock()
	if current.ev != nil {
		current.Cancel()
	}
}
