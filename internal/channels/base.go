// Package channels contains the transport adapters that bridge a chat
// platform to the message bus.
package channels

import (
	"context"

	"github.com/kamir/trubot/internal/bus"
)

// Channel is a transport adapter: it feeds inbound messages to the bus and
// delivers outbound messages for its name.
type Channel interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
	Send(ctx context.Context, msg *bus.OutboundMessage) error
}

// BaseChannel carries the bus handle shared by all channel implementations.
type BaseChannel struct {
	Bus *bus.MessageBus
}
