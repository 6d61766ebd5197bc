package timer

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScheduleCron_ParsesAndArms exercises the wiring rather than waiting
// for a fire (standard cron granularity is one minute): a valid expression
// arms without error and returns a schedule that can be cancelled.
func TestScheduleCron_ParsesAndArms(t *testing.T) {
	th := NewThread(DefaultConfig(), nil, nil)
	defer th.Stop()
	target := newTarget(t)

	cs, err := th.ScheduleCron(target, func() {}, "* * * * *")
	require.NoError(t, err)
	require.NotNil(t, cs)

	cs.Cancel()
}

// TestScheduleCron_InvalidExpression covers the error path for a malformed
// cron expression.
func TestScheduleCron_InvalidExpression(t *testing.T) {
	th := NewThread(DefaultConfig(), nil, nil)
	defer th.Stop()
	target := newTarget(t)

	_, err := th.ScheduleCron(target, func() {}, "not a cron expression")
	assert.Error(t, err)
}

// TestScheduleCron_CancelStopsReArming cancels a schedule before its first
// occurrence (rather than waiting on wall-clock cron minute boundaries):
// Cancel flips the cancelled flag and cancels the armed one-shot Control, so
// the command does not fire, and a second Cancel is harmless.
func TestScheduleCron_CancelStopsReArming(t *testing.T) {
	th := NewThread(DefaultConfig(), nil, nil)
	defer th.Stop()
	target := newTarget(t)

	var fires int32
	cs, err := th.ScheduleCron(target, func() { atomic.AddInt32(&fires, 1) }, "* * * * *")
	require.NoError(t, err)

	cs.Cancel()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&fires))

	// Cancel is idempotent.
	cs.Cancel()
}
