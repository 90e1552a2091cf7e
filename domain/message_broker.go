package domain

import (
	"context"
	"time"
)

// MessageBroker defines the interface for message broker operations
type MessageBroker interface {
	// Publish sends a message to a specific topic/channel with a routing key
	Publish(ctx context.Context, topic string, routingKey string, message []byte) error

	// Subscribe listens for messages on a specific topic/channel and routing key
	Subscribe(ctx context.Context, topic string, routingKey string) (<-chan Message, error)

	// Close closes the message broker connection
	Close() error
}

// Message represents a message received from the broker
type Message struct {
	Topic      string
	RoutingKey string
	Payload    []byte
	Timestamp  time.Time
}

// Kinds of outbound chat frames carried over the broker.
const (
	OutboundText      = "text"
	OutboundMenu      = "menu"
	OutboundCloseMenu = "close_menu"
)

// OutboundChatMessage is one frame on its way from the core to the chat
// transport: a text reply, a style menu, or a menu-close instruction.
type OutboundChatMessage struct {
	ChatID    string        `json:"chat_id"`
	Kind      string        `json:"kind"`
	Text      string        `json:"text,omitempty"`
	Options   []StyleOption `json:"options,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
