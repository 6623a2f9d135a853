package transport

import (
	"errors"

	"smartgarden/internal/models"
)

// Handler receives a decoded state payload from a subscribed topic.
// Malformed payloads are dropped inside the adapter and never reach it.
type Handler func(msg models.StateMessage)

// Subscription is an opaque handle for one active topic subscription.
type Subscription struct {
	Topic string
}

// ErrNotConnected is returned by Subscribe while no connection is active.
// Subscriptions are not queued; the caller re-subscribes from onConnected.
var ErrNotConnected = errors.New("transport: not connected")

// Adapter is the message-channel boundary: connect/disconnect lifecycle plus
// topic subscribe. Reconnection after an unexpected drop is automatic;
// onConnected fires once per successful (re)connection so the call site can
// re-establish its subscriptions.
type Adapter interface {
	Connect(onConnected func(), onError func(error)) error
	Subscribe(topic string, h Handler) (*Subscription, error)
	Disconnect()
	IsConnected() bool
}
