package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chatrelay/adapters/gateway"
	"chatrelay/domain"
	"chatrelay/usecase"
	"chatrelay/utils/log"
)

// inboundFrame is the wire shape a chat client sends. Data rides as
// base64, which encoding/json gives us for free on []byte.
type inboundFrame struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Key      string `json:"key,omitempty"`
	MIMEType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`
}

type Server struct {
	upgrader  websocket.Upgrader
	router    *usecase.Router
	broker    domain.MessageBroker
	hub       *Hub
	jwtSecret []byte
}

func NewServer(router *usecase.Router, broker domain.MessageBroker, jwtSecret []byte) *Server {
	hub := NewHub()

	server := &Server{
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		router:    router,
		broker:    broker,
		hub:       hub,
		jwtSecret: jwtSecret,
	}

	// Deliver outbound frames published by the core.
	go server.startOutboundListener()

	return server
}

func (s *Server) RunWebsocketHub() {
	s.hub.Run()
}

func (s *Server) GetHub() *Hub {
	return s.hub
}

// startOutboundListener subscribes to the outbound chat topic and routes
// each frame to the connection of its chat. A chat that is no longer
// connected just loses the frame; publishers already treat delivery as
// best-effort.
func (s *Server) startOutboundListener() {
	ctx := context.Background()

	messageChan, err := s.broker.Subscribe(ctx, gateway.OutboundTopic, "")
	if err != nil {
		log.WithCtx(ctx).Error("Failed to subscribe to outbound topic", zap.Error(err))
		return
	}

	log.WithCtx(ctx).Info("WebSocket server listening for outbound chat frames")

	for {
		select {
		case msg, ok := <-messageChan:
			if !ok {
				log.WithCtx(ctx).Info("Outbound topic closed, listener stopping")
				return
			}

			var out domain.OutboundChatMessage
			if err := json.Unmarshal(msg.Payload, &out); err != nil {
				log.WithCtx(ctx).Error("Failed to unmarshal outbound frame", zap.Error(err))
				continue
			}

			if err := s.hub.SendToChat(out.ChatID, msg.Payload); err != nil {
				log.WithCtx(ctx).Warn("Dropping outbound frame",
					zap.String("chat_id", out.ChatID),
					zap.String("kind", out.Kind),
					zap.Error(err))
			}

		case <-ctx.Done():
			log.WithCtx(ctx).Info("Outbound listener stopped")
			return
		}
	}
}

// handleFrame parses one inbound frame into a chat event and runs it
// through the router. Runs on the client's read pump, so events from the
// same chat stay in arrival order.
func (s *Server) handleFrame(ctx context.Context, c *Client, frame []byte) {
	var in inboundFrame
	if err := json.Unmarshal(frame, &in); err != nil {
		log.WithCtx(ctx).Warn("Dropping malformed frame", zap.Error(err))
		return
	}

	ev := domain.InboundEvent{
		ChatID:    c.chatID,
		Username:  c.username,
		Text:      in.Text,
		Selection: in.Key,
		MIMEType:  in.MIMEType,
		Data:      in.Data,
	}

	switch in.Type {
	case "text":
		ev.Kind = kindForText(in.Text)
	case "select":
		ev.Kind = domain.EventSelect
	case "voice":
		ev.Kind = domain.EventVoice
	case "photo":
		ev.Kind = domain.EventPhoto
	default:
		log.WithCtx(ctx).Warn("Dropping frame of unknown type", zap.String("type", in.Type))
		return
	}

	s.router.Handle(ctx, ev)
}

// kindForText resolves slash commands; anything else is a plain message.
func kindForText(text string) domain.EventKind {
	switch strings.TrimSpace(text) {
	case "/start":
		return domain.EventStart
	case "/imagine":
		return domain.EventImagine
	case "/cancel":
		return domain.EventCancel
	}
	return domain.EventText
}
