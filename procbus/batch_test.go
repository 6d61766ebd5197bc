package procbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBatchSubscriber_CoalescesWithinWindow covers BatchSubscriber's core
// contract: messages received within one MinBatchInterval window are
// delivered together, in a single handler call.
func TestBatchSubscriber_CoalescesWithinWindow(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	var mu sync.Mutex
	var batches [][]int
	done := make(chan struct{})

	bs := NewBatchSubscriber[int](pb, 30*time.Millisecond, func(batch []int) {
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		close(done)
	})

	bs.ReceiveMessage(1)
	bs.ReceiveMessage(2)
	bs.ReceiveMessage(3)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("batch never flushed")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	assert.Equal(t, []int{1, 2, 3}, batches[0])
}

// TestBatchSubscriber_SecondWindowIsIndependent covers window reset: once a
// window has flushed, the next message arms a fresh window whose batch holds
// only that message.
func TestBatchSubscriber_SecondWindowIsIndependent(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	var mu sync.Mutex
	var batches [][]int
	flushed := make(chan struct{}, 2)

	bs := NewBatchSubscriber[int](pb, 20*time.Millisecond, func(batch []int) {
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		flushed <- struct{}{}
	})

	bs.ReceiveMessage(1)
	<-flushed

	bs.ReceiveMessage(2)
	<-flushed

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 2)
	assert.Equal(t, []int{1}, batches[0])
	assert.Equal(t, []int{2}, batches[1])
}
