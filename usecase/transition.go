package usecase

import (
	"strings"

	"chatrelay/domain"
)

// Reply texts for the guided dialogue.
const (
	askPromptText  = "Describe your request."
	pickStyleText  = "Pick a style:"
	cancelledText  = "Cancelled. Nothing was sent."
	acceptedText   = "Processing your request."
	dispatchSorry  = "Sorry, your request could not be handed off. Please try again later."
	emptyPromptNag = "I need a few words to work with. Describe your request."
)

type effectKind int

const (
	effectSendText effectKind = iota
	effectRenderMenu
	effectCloseMenu
	effectDispatch
)

// effect is one side effect a transition asks the executor to perform.
// The transition function itself touches nothing but the session.
type effect struct {
	kind    effectKind
	text    string
	options []domain.StyleOption
	job     domain.JobRequest
}

type conversationEvent struct {
	kind      domain.EventKind
	text      string
	selection string
}

// transition applies one event to a session and returns the next session
// plus the effects to perform. Pure: no I/O, no clock, no locks. A nil
// error with next.State terminal means the session record is done and
// should be dropped by the caller.
func transition(sess domain.Session, options []domain.StyleOption, ev conversationEvent) (domain.Session, []effect, error) {
	switch ev.kind {
	case domain.EventImagine:
		if sess.State != domain.StateIdle && !sess.State.Terminal() {
			return sess, nil, domain.NewError(domain.ErrorConflict,
				"a dialogue is already in progress for this chat", nil)
		}
		next := domain.Session{ChatID: sess.ChatID, State: domain.StateAwaitingPrompt}
		return next, []effect{{kind: effectSendText, text: askPromptText}}, nil

	case domain.EventText:
		if sess.State != domain.StateAwaitingPrompt {
			return sess, nil, domain.NewError(domain.ErrorInvalidState,
				"not waiting for a description", nil)
		}
		text := strings.TrimSpace(ev.text)
		if text == "" {
			return sess, nil, domain.NewError(domain.ErrorValidation,
				"description must not be empty", nil)
		}
		next := sess
		next.Prompt = text
		next.State = domain.StateAwaitingStyle
		return next, []effect{{kind: effectRenderMenu, text: pickStyleText, options: options}}, nil

	case domain.EventSelect:
		if sess.State != domain.StateAwaitingStyle {
			return sess, nil, domain.NewError(domain.ErrorInvalidState,
				"not waiting for a style selection", nil)
		}
		if ev.selection == domain.CancelKey {
			next := sess
			next.State = domain.StateCancelled
			return next, []effect{
				{kind: effectCloseMenu},
				{kind: effectSendText, text: cancelledText},
			}, nil
		}
		if !validStyle(options, ev.selection) {
			return sess, nil, domain.NewError(domain.ErrorInvalidChoice,
				"unknown style "+ev.selection, nil)
		}
		next := sess
		next.Style = ev.selection
		next.State = domain.StateDispatched
		job := domain.JobRequest{Prompt: next.Prompt, Style: next.Style, ChatID: next.ChatID}
		return next, []effect{
			{kind: effectCloseMenu},
			{kind: effectDispatch, job: job},
		}, nil

	case domain.EventCancel:
		next := sess
		next.State = domain.StateCancelled
		effects := []effect{}
		if sess.State == domain.StateAwaitingStyle {
			effects = append(effects, effect{kind: effectCloseMenu})
		}
		effects = append(effects, effect{kind: effectSendText, text: cancelledText})
		return next, effects, nil
	}

	return sess, nil, domain.NewError(domain.ErrorInvalidState,
		"event "+string(ev.kind)+" is not a dialogue event", nil)
}

func validStyle(options []domain.StyleOption, key string) bool {
	for _, opt := range options {
		if opt.Key == key {
			return true
		}
	}
	return false
}
