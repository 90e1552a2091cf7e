package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"chatrelay/domain"
)

const (
	voiceInstruction   = "Please respond to the audio prompt."
	photoInstruction   = "Describe what you see in the photo"
	noOutputText       = "I have nothing to say to that. Try rephrasing?"
	somethingWentWrong = "Something went wrong. Try again!"
)

// ChatService handles everything outside the guided dialogue: the
// /start greeting and free-form text, voice, and photo chitchat against
// the generative backend. One model session per chat, opened lazily.
type ChatService struct {
	llm domain.Llm

	mu       sync.Mutex
	sessions map[string]domain.ChatSession
}

func NewChatService(gen domain.Llm) *ChatService {
	return &ChatService{
		llm:      gen,
		sessions: make(map[string]domain.ChatSession),
	}
}

func (s *ChatService) session(ctx context.Context, chatID string) (domain.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[chatID]; ok {
		return sess, nil
	}
	sess, err := s.llm.StartChat(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("starting chat session: %w", err)
	}
	s.sessions[chatID] = sess
	return sess, nil
}

// Welcome greets a newly arrived user by name.
func (s *ChatService) Welcome(ctx context.Context, chatID, username string) (string, error) {
	prompt := fmt.Sprintf("Welcome user with the fullname %s in one sentence.", username)
	return s.send(ctx, chatID, []domain.Part{domain.TextPart(prompt)})
}

// Reply answers a plain text message.
func (s *ChatService) Reply(ctx context.Context, chatID, text string) (string, error) {
	return s.send(ctx, chatID, []domain.Part{domain.TextPart(text)})
}

// ReplyVoice answers a voice note delivered as inline audio bytes.
func (s *ChatService) ReplyVoice(ctx context.Context, chatID, mime string, data []byte) (string, error) {
	if !domain.SupportedMIME(mime) {
		return "", domain.NewError(domain.ErrorValidation, "unsupported media kind "+mime, nil)
	}
	return s.send(ctx, chatID, []domain.Part{
		domain.DataPart(mime, data),
		domain.TextPart(voiceInstruction),
	})
}

// ReplyPhoto answers a photo, using its caption as the instruction when
// one was provided.
func (s *ChatService) ReplyPhoto(ctx context.Context, chatID, mime string, data []byte, caption string) (string, error) {
	if !domain.SupportedMIME(mime) {
		return "", domain.NewError(domain.ErrorValidation, "unsupported media kind "+mime, nil)
	}
	instruction := caption
	if instruction == "" {
		instruction = photoInstruction
	}
	return s.send(ctx, chatID, []domain.Part{
		domain.DataPart(mime, data),
		domain.TextPart(instruction),
	})
}

func (s *ChatService) send(ctx context.Context, chatID string, parts []domain.Part) (string, error) {
	sess, err := s.session(ctx, chatID)
	if err != nil {
		return "", err
	}

	reply, err := sess.Send(ctx, parts)
	if errors.Is(err, domain.ErrNoOutput) {
		return noOutputText, nil
	}
	if err != nil {
		return "", fmt.Errorf("sending message: %w", err)
	}
	return reply, nil
}
