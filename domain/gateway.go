package domain

import "context"

// ChatGateway delivers messages and menus into a chat. Implementations
// own the transport; the engine only knows chat ids.
type ChatGateway interface {
	SendText(ctx context.Context, chatID string, text string) error
	RenderMenu(ctx context.Context, chatID string, prompt string, options []StyleOption) error
	CloseMenu(ctx context.Context, chatID string) error
}

// EventKind tags an inbound chat event.
type EventKind string

const (
	// EventStart is the greeting command (/start).
	EventStart EventKind = "start"
	// EventImagine opens a guided request dialogue (/imagine).
	EventImagine EventKind = "imagine"
	EventText    EventKind = "text"
	EventSelect  EventKind = "select"
	EventCancel  EventKind = "cancel"
	EventVoice   EventKind = "voice"
	EventPhoto   EventKind = "photo"
)

// InboundEvent is one chat event as the gateway hands it to the core.
// Exactly which fields are set depends on Kind.
type InboundEvent struct {
	Kind     EventKind
	ChatID   string
	Username string
	// Text is the message body for EventText, or the caption for EventPhoto.
	Text string
	// Selection is the tapped menu key for EventSelect.
	Selection string
	// MIMEType and Data carry inline media for EventVoice and EventPhoto.
	MIMEType string
	Data     []byte
}
