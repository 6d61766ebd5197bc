package procbus

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestKeyedBatchSubscriber_LastWriteWinsPerKey covers KeyedBatchSubscriber's
// core contract: multiple messages for the same key within one window
// collapse to the last value received.
func TestKeyedBatchSubscriber_LastWriteWinsPerKey(t *testing.T) {
	th, b := newTestRig(t)
	pb := newTestProcessBus(t, th, b)

	var mu sync.Mutex
	var batches []map[string]int
	done := make(chan struct{})

	kb := NewKeyedBatchSubscriber[string, int](pb, 30*time.Millisecond, func(batch map[string]int) {
		mu.Lock()
		batches = append(batches, batch)
		mu.Unlock()
		close(done)
	})

	kb.ReceiveMessage("a", 1)
	kb.ReceiveMessage("a", 2)
	kb.ReceiveMessage("b", 10)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keyed batch never flushed")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, batches, 1)
	assert.Equal(t, map[string]int{"a": 2, "b": 10}, batches[0])
}
