package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatrelay/domain"
)

// OutboundTopic carries chat frames from the core to whatever transport
// is subscribed.
const OutboundTopic = "chat.outbound"

// BrokerGateway implements domain.ChatGateway by publishing outbound
// frames to the message broker. The core never sees the transport; the
// websocket server (or any other subscriber) picks frames up and
// delivers them to the right chat.
type BrokerGateway struct {
	broker domain.MessageBroker
}

func New(broker domain.MessageBroker) *BrokerGateway {
	return &BrokerGateway{broker: broker}
}

func (g *BrokerGateway) SendText(ctx context.Context, chatID string, text string) error {
	return g.publish(ctx, domain.OutboundChatMessage{
		ChatID: chatID,
		Kind:   domain.OutboundText,
		Text:   text,
	})
}

func (g *BrokerGateway) RenderMenu(ctx context.Context, chatID string, prompt string, options []domain.StyleOption) error {
	return g.publish(ctx, domain.OutboundChatMessage{
		ChatID:  chatID,
		Kind:    domain.OutboundMenu,
		Text:    prompt,
		Options: options,
	})
}

func (g *BrokerGateway) CloseMenu(ctx context.Context, chatID string) error {
	return g.publish(ctx, domain.OutboundChatMessage{
		ChatID: chatID,
		Kind:   domain.OutboundCloseMenu,
	})
}

func (g *BrokerGateway) publish(ctx context.Context, msg domain.OutboundChatMessage) error {
	msg.Timestamp = time.Now()
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling outbound frame: %w", err)
	}
	if err := g.broker.Publish(ctx, OutboundTopic, "", payload); err != nil {
		return fmt.Errorf("publishing outbound frame for chat %s: %w", msg.ChatID, err)
	}
	return nil
}
