// Package bus implements the shared pub/sub layer: topic-matched delivery
// over a single dedicated dispatch thread, so every subscriber observes
// publishes to overlapping topics in the same order.
package bus

// Topic is an opaque, comparable topic value. Plain strings satisfy every
// operation here; the type exists so call sites read as "this is a topic",
// not "this is an arbitrary string".
type Topic string

// MessageHeader carries a message's topic and, optionally, a reply-to topic
// for request/reply correlation (procbus.RequestReply). Immutable once built.
type MessageHeader struct {
	topic   Topic
	replyTo Topic
}

// Topic returns the topic this message was published to.
func (h MessageHeader) Topic() Topic { return h.topic }

// ReplyTo returns the topic a reply should be published to, or "" if none
// was set.
func (h MessageHeader) ReplyTo() Topic { return h.replyTo }

// TransferEnvelope is the unit carried through SubscriberRegistry/MessageBus:
// a header plus an opaque payload. Immutable once built via
// NewTransferEnvelope.
type TransferEnvelope struct {
	Header  MessageHeader
	Message any
}

// NewTransferEnvelope builds an envelope for topic carrying msg, optionally
// correlated to replyTo for a request/reply round trip.
func NewTransferEnvelope(topic Topic, msg any, replyTo Topic) TransferEnvelope {
	return TransferEnvelope{
		Header:  MessageHeader{topic: topic, replyTo: replyTo},
		Message: msg,
	}
}
