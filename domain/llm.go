package domain

import (
	"context"
	"errors"
)

// ErrNoOutput signals that the model produced no text for a well-formed
// request. It is a result, not a failure of the provider call.
var ErrNoOutput = errors.New("model produced no text")

// Recognized inline media kinds. Anything else is rejected upstream
// before it reaches the Llm port.
const (
	MIMEAudioOgg  = "audio/ogg"
	MIMEImageJpeg = "image/jpeg"
	MIMEImagePng  = "image/png"
)

// SupportedMIME reports whether the relay accepts mime as inline data.
func SupportedMIME(mime string) bool {
	switch mime {
	case MIMEAudioOgg, MIMEImageJpeg, MIMEImagePng:
		return true
	}
	return false
}

// Part is one element of a multimodal message: plain text, or inline
// binary data tagged with its MIME type.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

func TextPart(text string) Part { return Part{Text: text} }

func DataPart(mime string, data []byte) Part { return Part{MIMEType: mime, Data: data} }

// Llm abstracts the generative backend.
type Llm interface {
	// StartChat opens a multi-turn session seeded with history.
	StartChat(ctx context.Context, history []ChatMessage) (ChatSession, error)
}

// ChatSession is one ongoing exchange with the model.
type ChatSession interface {
	// Send submits an ordered sequence of parts and returns the reply
	// text, or ErrNoOutput when the model had nothing to say.
	Send(ctx context.Context, parts []Part) (string, error)
	History() ([]ChatMessage, error)
}

type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type Role string

const (
	UserRole  Role = "user"
	ModelRole Role = "model"
)
