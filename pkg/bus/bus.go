package bus

import (
	"context"
	"sync"
)

// Header keys attached to retry-lane messages.
const (
	HeaderRetryCount = "x-retry-count"
	HeaderLastError  = "x-last-error"
)

// InboundMessage is one request payload pulled off the request lane.
type InboundMessage struct {
	Key     string
	Payload []byte
	Headers map[string]string
}

// OutboundMessage is one response payload, keyed by request identifier so a
// partitioned transport preserves per-request delivery order.
type OutboundMessage struct {
	Destination string
	Key         string
	Payload     []byte
	Headers     map[string]string
}

// MessageBus is an in-process transport with one inbound request lane, one
// outbound response lane, and named delay-tiered retry lanes. It stands in
// for the real broker; the orchestrator only ever sees the narrow consume/
// publish contracts it exposes.
type MessageBus struct {
	inbound  chan InboundMessage
	outbound chan OutboundMessage

	mu         sync.Mutex
	retryLanes map[string][]OutboundMessage
}

// NewMessageBus creates a bus with bounded lanes.
func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:    make(chan InboundMessage, 100),
		outbound:   make(chan OutboundMessage, 100),
		retryLanes: make(map[string][]OutboundMessage),
	}
}

// PublishInbound enqueues a request message.
func (b *MessageBus) PublishInbound(msg InboundMessage) {
	b.inbound <- msg
}

// ConsumeInbound blocks until a request message is available or the context
// is cancelled. The second return value is false on cancellation.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (InboundMessage, bool) {
	select {
	case <-ctx.Done():
		return InboundMessage{}, false
	case msg, ok := <-b.inbound:
		return msg, ok
	}
}

// PublishOutbound enqueues a response message.
func (b *MessageBus) PublishOutbound(ctx context.Context, msg OutboundMessage) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case b.outbound <- msg:
		return nil
	}
}

// ConsumeOutbound blocks until a response message is available or the
// context is cancelled.
func (b *MessageBus) ConsumeOutbound(ctx context.Context) (OutboundMessage, bool) {
	select {
	case <-ctx.Done():
		return OutboundMessage{}, false
	case msg, ok := <-b.outbound:
		return msg, ok
	}
}

// PublishRetry appends a message to the named retry lane. A broker-backed
// transport would publish to a delay-tier topic; in process the lanes are
// just inspectable queues.
func (b *MessageBus) PublishRetry(ctx context.Context, msg OutboundMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.retryLanes[msg.Destination] = append(b.retryLanes[msg.Destination], msg)
	return nil
}

// RetryLane returns a copy of the messages queued on a retry lane.
func (b *MessageBus) RetryLane(destination string) []OutboundMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	lane := b.retryLanes[destination]
	out := make([]OutboundMessage, len(lane))
	copy(out, lane)
	return out
}

// Close shuts the inbound lane so consumers drain and stop.
func (b *MessageBus) Close() {
	close(b.inbound)
}
