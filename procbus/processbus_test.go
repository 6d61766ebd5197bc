package procbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibukraj/retlang/bus"
	"github.com/shibukraj/retlang/timer"
)

func newTestRig(t *testing.T) (*timer.Thread, *bus.MessageBus) {
	th := timer.NewThread(timer.DefaultConfig(), nil, nil)
	t.Cleanup(th.Stop)
	b := bus.New(bus.DefaultConfig(), nil, nil, th)
	require.NoError(t, b.Start())
	t.Cleanup(b.Stop)
	return th, b
}

func newTestProcessBus(t *testing.T, th *timer.Thread, b *bus.MessageBus) *ProcessBus {
	pb := New(DefaultConfig(), nil, nil, b, th)
	require.NoError(t, pb.Start())
	t.Cleanup(pb.Stop)
	return pb
}

// TestProcessBus_PublishReachesOwnSubscription covers the local loopback
// case: a ProcessBus publishes through the shared bus and its own
// subscription (registered only on its internal registry) receives the
// delivery.
func TestProcessBus_PublishReachesOwnSubscription(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	received := make(chan string, 1)
	pb.Subscribe(bus.ExactTopic{Topic: "greeting"}, func(env bus.TransferEnvelope) {
		received <- env.Message.(string)
	})

	require.NoError(t, pb.Publish(bus.NewTransferEnvelope("greeting", "hello", "")))

	select {
	case msg := <-received:
		assert.Equal(t, "hello", msg)
	case <-time.After(time.Second):
		t.Fatal("own subscription never received its own publish")
	}
}

// TestProcessBus_TwoContextsBothReceive covers cross-context fan-out: two
// independent ProcessBus instances sharing one MessageBus both see a
// publish made by one of them.
func TestProcessBus_TwoContextsBothReceive(t *testing.T) {
	th, b := newTestRig(t)
	a := newTestProcessBus(t, th, b)
	c := newTestProcessBus(t, th, b)

	var wg sync.WaitGroup
	wg.Add(2)
	a.Subscribe(bus.ExactTopic{Topic: "broadcast"}, func(bus.TransferEnvelope) { wg.Done() })
	c.Subscribe(bus.ExactTopic{Topic: "broadcast"}, func(bus.TransferEnvelope) { wg.Done() })

	require.NoError(t, a.Publish(bus.NewTransferEnvelope("broadcast", nil, "")))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("not all contexts received the broadcast")
	}
}

// TestProcessBus_QueueFullFansOutToListeners covers the QueueFullEvent
// listener fan-out: when this context's own process thread queue is
// saturated, a bus delivery that cannot be enqueued notifies listeners
// instead of propagating an error across the bus boundary.
func TestProcessBus_QueueFullFansOutToListeners(t *testing.T) {
	th := timer.NewThread(timer.DefaultConfig(), nil, nil)
	defer th.Stop()
	b := bus.New(bus.DefaultConfig(), nil, nil, th)
	require.NoError(t, b.Start())
	defer b.Stop()

	pb := New(Config{MaxQueueDepth: 1, Source: "bounded"}, nil, nil, b, th)
	require.NoError(t, pb.Start())
	defer pb.Stop()

	block := make(chan struct{})
	running := make(chan struct{})
	require.NoError(t, pb.Enqueue(func() { close(running); <-block }))
	<-running

	notified := make(chan struct{}, 4)
	pb.AddQueueFullListener(func(bus.TransferEnvelope) {
		notified <- struct{}{}
	})

	// Saturate the one remaining slot, then publish enough more that at
	// least one delivery finds the queue full.
	require.NoError(t, pb.Enqueue(func() {}))
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Publish(bus.NewTransferEnvelope("x", i, "")))
	}

	select {
	case <-notified:
	case <-time.After(time.Second):
		t.Fatal("expected at least one QueueFull notification")
	}
	close(block)
}

func TestProcessBus_StartTwiceErrors(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)
	assert.ErrorIs(t, pb.Start(), ErrAlreadyStarted)
}

func TestProcessBus_CreateUniqueTopicsAreDistinct(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)
	assert.NotEqual(t, pb.CreateUniqueTopic(), pb.CreateUniqueTopic())
}
