// Package bus provides the in-process message bus connecting channels and
// the message router.
package bus

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// InboundMessage is an abstract inbound chat event from any channel.
type InboundMessage struct {
	Channel        string
	SenderID       string
	SenderIsBot    bool
	ChatID         string
	MessageID      string
	Content        string
	ReferencedText string
	MentionsBot    bool
	IsPrivate      bool
	TraceID        string
	Timestamp      time.Time
}

// OutboundMessage is a reply or send destined for a channel. ReplyToID quotes
// the triggering message; when empty the message is a plain send.
type OutboundMessage struct {
	Channel       string
	ChatID        string
	ReplyToID     string
	ReplyToSender string
	Content       string
	TraceID       string
}

// MessageBus fans inbound events to the router and outbound messages to the
// subscribed channels.
type MessageBus struct {
	inbound     chan *InboundMessage
	outbound    chan *OutboundMessage
	subscribers map[string]func(*OutboundMessage)
	mu          sync.RWMutex
}

// NewMessageBus creates a message bus with buffered queues.
func NewMessageBus() *MessageBus {
	return &MessageBus{
		inbound:     make(chan *InboundMessage, 100),
		outbound:    make(chan *OutboundMessage, 100),
		subscribers: make(map[string]func(*OutboundMessage)),
	}
}

// PublishInbound queues an inbound message for the router.
func (b *MessageBus) PublishInbound(msg *InboundMessage) {
	b.inbound <- msg
}

// ConsumeInbound blocks until an inbound message is available or the context
// is cancelled.
func (b *MessageBus) ConsumeInbound(ctx context.Context) (*InboundMessage, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg := <-b.inbound:
		return msg, nil
	}
}

// PublishOutbound queues an outbound message for dispatch.
func (b *MessageBus) PublishOutbound(msg *OutboundMessage) {
	b.outbound <- msg
}

// Subscribe registers a handler for outbound messages addressed to the named
// channel. Handlers run on the dispatcher goroutine so per-channel delivery
// order is preserved.
func (b *MessageBus) Subscribe(channel string, handler func(*OutboundMessage)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[channel] = handler
}

// DispatchOutbound delivers queued outbound messages to their channel
// handlers. Blocks until the context is cancelled.
func (b *MessageBus) DispatchOutbound(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-b.outbound:
			b.mu.RLock()
			handler, ok := b.subscribers[msg.Channel]
			b.mu.RUnlock()
			if !ok {
				slog.Warn("No subscriber for outbound channel", "channel", msg.Channel)
				continue
			}
			handler(msg)
		}
	}
}
