package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"chatrelay/domain"
	"chatrelay/utils/log"
)

// ConversationEngine runs the guided request dialogue, one state record
// per chat. It never blocks waiting for the user: every inbound event
// looks up the current state, applies the one valid transition, and
// returns. The session map is the only shared state and every
// read-modify-write happens under the lock, so events for the same chat
// never interleave even when gateways deliver them from different
// goroutines.
type ConversationEngine struct {
	gateway    domain.ChatGateway
	dispatcher domain.JobDispatcher
	options    []domain.StyleOption

	mu       sync.Mutex
	sessions map[string]*domain.Session
}

func NewConversationEngine(gateway domain.ChatGateway, dispatcher domain.JobDispatcher, options []domain.StyleOption) *ConversationEngine {
	if len(options) == 0 {
		options = domain.DefaultStyleOptions
	}
	return &ConversationEngine{
		gateway:    gateway,
		dispatcher: dispatcher,
		options:    options,
		sessions:   make(map[string]*domain.Session),
	}
}

// Options returns the configured style menu.
func (e *ConversationEngine) Options() []domain.StyleOption {
	return e.options
}

// HasActive reports whether chatID has a dialogue in flight.
func (e *ConversationEngine) HasActive(chatID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.sessions[chatID]
	return ok
}

// Enter starts a dialogue for chatID. Fails with ErrorConflict when a
// non-terminal session already exists.
func (e *ConversationEngine) Enter(ctx context.Context, chatID string) error {
	return e.step(ctx, chatID, conversationEvent{kind: domain.EventImagine})
}

// SubmitText captures the free-form description while the dialogue is
// in AWAITING_PROMPT.
func (e *ConversationEngine) SubmitText(ctx context.Context, chatID, text string) error {
	return e.step(ctx, chatID, conversationEvent{kind: domain.EventText, text: text})
}

// SubmitSelection applies a menu tap. A tap arriving after the menu was
// closed (no session left) is a duplicate and no-ops rather than
// re-dispatching.
func (e *ConversationEngine) SubmitSelection(ctx context.Context, chatID, key string) error {
	e.mu.Lock()
	if _, ok := e.sessions[chatID]; !ok {
		e.mu.Unlock()
		log.WithCtx(ctx).Debug("ignoring stray selection", zap.String("chat_id", chatID), zap.String("key", key))
		return nil
	}
	e.mu.Unlock()
	return e.step(ctx, chatID, conversationEvent{kind: domain.EventSelect, selection: key})
}

// Cancel aborts the dialogue. No-op when nothing is in flight.
func (e *ConversationEngine) Cancel(ctx context.Context, chatID string) error {
	e.mu.Lock()
	if _, ok := e.sessions[chatID]; !ok {
		e.mu.Unlock()
		return nil
	}
	e.mu.Unlock()
	return e.step(ctx, chatID, conversationEvent{kind: domain.EventCancel})
}

// step runs one transition under the lock, then performs the effects
// outside it so a slow gateway or worker never stalls other chats.
func (e *ConversationEngine) step(ctx context.Context, chatID string, ev conversationEvent) error {
	e.mu.Lock()
	cur := domain.Session{ChatID: chatID, State: domain.StateIdle}
	if sess, ok := e.sessions[chatID]; ok {
		cur = *sess
	}

	next, effects, err := transition(cur, e.options, ev)
	if err != nil {
		e.mu.Unlock()
		return err
	}

	if next.State.Terminal() {
		// The dialogue is finished; dropping the record is what makes a
		// duplicate menu tap a no-op.
		delete(e.sessions, chatID)
	} else {
		e.sessions[chatID] = &next
	}
	e.mu.Unlock()

	log.WithCtx(ctx).Debug("conversation transition",
		zap.String("chat_id", chatID),
		zap.String("event", string(ev.kind)),
		zap.String("from", string(cur.State)),
		zap.String("to", string(next.State)))

	return e.apply(ctx, chatID, effects)
}

func (e *ConversationEngine) apply(ctx context.Context, chatID string, effects []effect) error {
	for _, eff := range effects {
		switch eff.kind {
		case effectSendText:
			if err := e.gateway.SendText(ctx, chatID, eff.text); err != nil {
				log.WithCtx(ctx).Warn("sending reply failed", zap.String("chat_id", chatID), zap.Error(err))
			}
		case effectRenderMenu:
			if err := e.gateway.RenderMenu(ctx, chatID, eff.text, eff.options); err != nil {
				log.WithCtx(ctx).Warn("rendering menu failed", zap.String("chat_id", chatID), zap.Error(err))
			}
		case effectCloseMenu:
			if err := e.gateway.CloseMenu(ctx, chatID); err != nil {
				log.WithCtx(ctx).Warn("closing menu failed", zap.String("chat_id", chatID), zap.Error(err))
			}
		case effectDispatch:
			e.dispatch(ctx, chatID, eff.job)
		}
	}
	return nil
}

// dispatch hands the finalized request to the worker, exactly once. A
// rejection or transport failure ends the dialogue with an apology
// instead of leaving it dangling.
func (e *ConversationEngine) dispatch(ctx context.Context, chatID string, job domain.JobRequest) {
	outcome := e.dispatcher.Dispatch(ctx, job)
	switch outcome.Status {
	case domain.DispatchAccepted:
		ack := outcome.Ack
		if ack == "" {
			ack = acceptedText
		}
		if err := e.gateway.SendText(ctx, chatID, ack); err != nil {
			log.WithCtx(ctx).Warn("sending dispatch ack failed", zap.String("chat_id", chatID), zap.Error(err))
		}
	case domain.DispatchRejected:
		log.WithCtx(ctx).Warn("worker rejected job",
			zap.String("chat_id", chatID), zap.String("reason", outcome.Reason))
		e.gateway.SendText(ctx, chatID, dispatchSorry)
	case domain.DispatchTransportFailure:
		log.WithCtx(ctx).Error("job dispatch failed",
			zap.String("chat_id", chatID), zap.Error(outcome.Cause))
		e.gateway.SendText(ctx, chatID, dispatchSorry)
	}
}
