package procbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shibukraj/retlang/bus"
)

// TestRequestReply_RoundTrip covers the round-trip case: a request is
// published, a responder replies to the correlated reply topic, and Wait
// returns that value.
func TestRequestReply_RoundTrip(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	pb.Subscribe(bus.ExactTopic{Topic: "ping"}, func(env bus.TransferEnvelope) {
		require.NoError(t, pb.Publish(bus.NewTransferEnvelope(env.Header.ReplyTo(), "pong", "")))
	})

	rr := SendRequest[string](pb, "ping", "hello")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := rr.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", reply)
}

// TestRequestReply_CancelIsTerminal covers that Cancel makes the handle
// terminal; a subsequent reply delivered to the (already unsubscribed)
// reply topic has nothing left to complete.
func TestRequestReply_CancelIsTerminal(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	rr := SendRequest[string](pb, "no-responder", "hello")
	rr.Cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := rr.Wait(ctx)
	assert.ErrorIs(t, err, ErrRequestCancelled)

	// Idempotent.
	rr.Cancel()
}

// TestRequestReply_TryGetNonBlocking covers the non-blocking accessor.
func TestRequestReply_TryGetNonBlocking(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	pb.Subscribe(bus.ExactTopic{Topic: "ping"}, func(env bus.TransferEnvelope) {
		require.NoError(t, pb.Publish(bus.NewTransferEnvelope(env.Header.ReplyTo(), 42, "")))
	})

	rr := SendRequest[int](pb, "ping", nil)

	_, ready := rr.TryGet()
	assert.False(t, ready, "reply should not be instantaneous")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := rr.Wait(ctx)
	require.NoError(t, err)

	val, ready := rr.TryGet()
	assert.True(t, ready)
	assert.Equal(t, 42, val)
}

// TestRequestReply_TimeoutWhenNoReply covers the no-responder case: Wait
// returns when ctx ends, not forever.
func TestRequestReply_TimeoutWhenNoReply(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	rr := SendRequest[string](pb, "nobody-listens", "hello")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := rr.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
