package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_PublishReportsWhetherAnyoneMatched(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Publish(NewTransferEnvelope("a", nil, "")))

	r.Subscribe(ExactTopic{Topic: "a"}, func(TransferEnvelope) {})
	assert.True(t, r.Publish(NewTransferEnvelope("a", nil, "")))
	assert.False(t, r.Publish(NewTransferEnvelope("b", nil, "")))
}

func TestRegistry_UnsubscribeRemovesOnlyThatSubscription(t *testing.T) {
	r := NewRegistry()
	var fired int
	keep := r.Subscribe(ExactTopic{Topic: "t"}, func(TransferEnvelope) { fired++ })
	drop := r.Subscribe(ExactTopic{Topic: "t"}, func(TransferEnvelope) { fired++ })

	r.Unsubscribe(drop)
	r.Publish(NewTransferEnvelope("t", nil, ""))

	assert.Equal(t, 1, fired)
	assert.Equal(t, 1, r.Count())
	_ = keep
}

func TestNewMatcher_TrailingStarIsPrefix(t *testing.T) {
	m := NewMatcher("orders.*")
	_, ok := m.(PrefixTopic)
	assert.True(t, ok)
	assert.True(t, m.IsMatch("orders.created"))
	assert.False(t, m.IsMatch("users.created"))
}

func TestNewMatcher_NoStarIsExact(t *testing.T) {
	m := NewMatcher("orders.created")
	_, ok := m.(ExactTopic)
	assert.True(t, ok)
	assert.True(t, m.IsMatch("orders.created"))
	assert.False(t, m.IsMatch("orders.shipped"))
}
