package message_broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"chatrelay/domain"
	"chatrelay/utils/log"
)

// ChannelMessageBroker implements MessageBroker using Go channels. It is
// the in-process decoupling between the core (which publishes outbound
// chat frames) and the transport (which subscribes and delivers them).
type ChannelMessageBroker struct {
	topics map[string]chan domain.Message
	mu     sync.RWMutex
	closed bool
}

// NewChannelMessageBroker creates a new channel-based message broker
func NewChannelMessageBroker() *ChannelMessageBroker {
	return &ChannelMessageBroker{
		topics: make(map[string]chan domain.Message),
	}
}

// makeKey creates a unique key for topic and routingKey
func makeKey(topic, routingKey string) string {
	return topic + ":" + routingKey
}

// channel returns the channel for topic/routingKey, creating it when
// missing.
func (b *ChannelMessageBroker) channel(topic, routingKey string) (chan domain.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, fmt.Errorf("message broker is closed")
	}

	key := makeKey(topic, routingKey)
	ch, exists := b.topics[key]
	if !exists {
		ch = make(chan domain.Message, 100)
		b.topics[key] = ch
	}
	return ch, nil
}

// Publish sends a message to a specific topic and routing key
func (b *ChannelMessageBroker) Publish(ctx context.Context, topic string, routingKey string, message []byte) error {
	ch, err := b.channel(topic, routingKey)
	if err != nil {
		return err
	}

	msg := domain.Message{
		Topic:      topic,
		RoutingKey: routingKey,
		Payload:    message,
		Timestamp:  time.Now(),
	}

	select {
	case ch <- msg:
		log.WithCtx(ctx).Debug("message published",
			zap.String("topic", topic),
			zap.String("routingKey", routingKey),
			zap.Int("payload_size", len(message)))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("topic channel is full: %s:%s", topic, routingKey)
	}
}

// Subscribe listens for messages on a specific topic and routing key
func (b *ChannelMessageBroker) Subscribe(ctx context.Context, topic string, routingKey string) (<-chan domain.Message, error) {
	ch, err := b.channel(topic, routingKey)
	if err != nil {
		return nil, err
	}

	log.WithCtx(ctx).Info("subscribed to topic", zap.String("topic", topic), zap.String("routingKey", routingKey))
	return ch, nil
}

// Close closes the message broker and all topic channels
func (b *ChannelMessageBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}

	b.closed = true

	for key, ch := range b.topics {
		close(ch)
		log.WithCtx(context.Background()).Debug("closed topic channel", zap.String("key", key))
	}
	b.topics = make(map[string]chan domain.Message)

	log.WithCtx(context.Background()).Info("message broker closed")
	return nil
}

// TopicCount returns the number of active topics (useful for monitoring)
func (b *ChannelMessageBroker) TopicCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics)
}

// IsClosed returns whether the broker is closed
func (b *ChannelMessageBroker) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}
