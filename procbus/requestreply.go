package procbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/shibukraj/retlang/bus"
)

// RequestReply is the handle returned by SendRequest. It is terminal after
// its first reply or an explicit Cancel; later deliveries to the same reply
// topic (a slow or duplicate responder) are not possible because the reply
// subscription is torn down before the handle becomes terminal -
// unsubscribe-before-terminal, so a late reply has nowhere left to land.
type RequestReply[T any] struct {
	pb  *ProcessBus
	sub bus.Subscription

	mu       sync.Mutex
	done     chan struct{}
	value    T
	err      error
	terminal bool
}

// SendRequest creates a unique reply topic, installs a one-shot subscription
// for it on pb, publishes an envelope for topic carrying message with that
// reply topic attached, and returns the handle. Go has no generic methods, so
// this is a package-level generic function rather than a ProcessBus method.
func SendRequest[T any](pb *ProcessBus, topic bus.Topic, message any) *RequestReply[T] {
	rr := &RequestReply[T]{pb: pb, done: make(chan struct{})}

	replyTopic := pb.CreateUniqueTopic()
	rr.sub = pb.Subscribe(bus.ExactTopic{Topic: replyTopic}, rr.complete)

	if err := pb.Publish(bus.NewTransferEnvelope(topic, message, replyTopic)); err != nil {
		rr.fail(err)
	}
	return rr
}

func (r *RequestReply[T]) complete(env bus.TransferEnvelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminal {
		return
	}
	if v, ok := env.Message.(T); ok {
		r.value = v
	}
	r.terminal = true
	r.pb.Unsubscribe(r.sub)
	close(r.done)
}

func (r *RequestReply[T]) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.terminal {
		return
	}
	r.err = err
	r.terminal = true
	r.pb.Unsubscribe(r.sub)
	close(r.done)
}

// Wait blocks until a reply arrives, Cancel is called, or ctx ends, whichever
// comes first. If ctx carries no deadline, the owning ProcessBus's
// Config.DefaultRequestTimeout (when positive) bounds the wait. When ctx ends
// first, the error wraps both ErrRequestTimeout and ctx.Err().
func (r *RequestReply[T]) Wait(ctx context.Context) (T, error) {
	if _, ok := ctx.Deadline(); !ok && r.pb.cfg.DefaultRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.pb.cfg.DefaultRequestTimeout)
		defer cancel()
	}
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.value, r.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrRequestTimeout, ctx.Err())
	}
}

// TryGet returns the reply value and true if a reply has already arrived,
// without blocking. It returns false if nothing has arrived yet or the
// request was cancelled or failed.
func (r *RequestReply[T]) TryGet() (T, bool) {
	select {
	case <-r.done:
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.value, r.err == nil
	default:
		var zero T
		return zero, false
	}
}

// Cancel terminates the request early. Idempotent; when a reply is in flight
// at the same time, whichever of the two takes the handle's own lock first
// decides the outcome, and the other becomes a no-op.
func (r *RequestReply[T]) Cancel() {
	r.fail(ErrRequestCancelled)
}
