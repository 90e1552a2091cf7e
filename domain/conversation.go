package domain

// ConversationState is the lifecycle of one guided request dialogue.
type ConversationState string

const (
	StateIdle           ConversationState = "IDLE"
	StateAwaitingPrompt ConversationState = "AWAITING_PROMPT"
	StateAwaitingStyle  ConversationState = "AWAITING_STYLE"
	StateDispatched     ConversationState = "DISPATCHED"
	StateCancelled      ConversationState = "CANCELLED"
)

// Terminal reports whether the state ends the dialogue.
func (s ConversationState) Terminal() bool {
	return s == StateDispatched || s == StateCancelled
}

// Session is the per-chat record of a dialogue in flight. At most one
// non-terminal Session exists per chat at any time.
type Session struct {
	ChatID string
	State  ConversationState
	Prompt string
	Style  string
}

// StyleOption is one entry of the fixed style menu.
type StyleOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// CancelKey is the menu control that aborts the dialogue instead of
// picking a style.
const CancelKey = "cancel"

// DefaultStyleOptions is the static menu. Selection is exactly one of
// these keys, or CancelKey.
var DefaultStyleOptions = []StyleOption{
	{Key: "anime", Label: "Anime"},
	{Key: "photorealistic", Label: "Photorealistic"},
	{Key: "watercolor", Label: "Watercolor"},
	{Key: "pixel", Label: "Pixel Art"},
	{Key: "sketch", Label: "Sketch"},
}
