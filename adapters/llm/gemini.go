package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"chatrelay/domain"
)

const systemInstruction = "You are Alex, a chat assistant. Maintain a friendly tone. " +
	"Keep responses one paragraph short unless told otherwise. " +
	"You have the ability to respond to audio and images."

type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(model string) domain.Llm {
	ctx := context.TODO()

	client, err := genai.NewClient(
		ctx,
		&genai.ClientConfig{
			HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
		},
	)
	if err != nil {
		panic(fmt.Errorf("creating genai client: %w", err))
	}

	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	return &GeminiClient{client: client, model: model}
}

func (g *GeminiClient) StartChat(ctx context.Context, history []domain.ChatMessage) (domain.ChatSession, error) {
	geminiHistory := make([]*genai.Content, len(history))
	for i, msg := range history {
		role := genai.RoleModel
		if msg.Role == domain.UserRole {
			role = genai.RoleUser
		}
		geminiHistory[i] = &genai.Content{
			Role: role,
			Parts: []*genai.Part{
				{Text: msg.Content},
			},
		}
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}

	chat, err := g.client.Chats.Create(ctx, g.model, config, geminiHistory)
	if err != nil {
		return nil, fmt.Errorf("creating chat: %w", err)
	}

	return &GeminiChatSession{client: g.client, chat: chat}, nil
}

type GeminiChatSession struct {
	client *genai.Client
	chat   *genai.Chat
}

// Send implements domain.ChatSession.
func (g *GeminiChatSession) Send(ctx context.Context, parts []domain.Part) (string, error) {
	geminiParts := make([]genai.Part, len(parts))
	for i, part := range parts {
		if part.MIMEType != "" {
			geminiParts[i] = genai.Part{
				InlineData: &genai.Blob{MIMEType: part.MIMEType, Data: part.Data},
			}
			continue
		}
		geminiParts[i] = genai.Part{Text: part.Text}
	}

	resp, err := g.chat.SendMessage(ctx, geminiParts...)
	if err != nil {
		return "", fmt.Errorf("send message: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", domain.ErrNoOutput
	}
	return text, nil
}

func (g *GeminiChatSession) History() ([]domain.ChatMessage, error) {
	resp := g.chat.History(false)
	history := make([]domain.ChatMessage, len(resp))
	for i, content := range resp {
		var text string
		for _, p := range content.Parts {
			text += p.Text
		}
		role := domain.ModelRole
		if content.Role == genai.RoleUser {
			role = domain.UserRole
		}
		history[i] = domain.ChatMessage{
			Role:    role,
			Content: text,
		}
	}
	return history, nil
}
