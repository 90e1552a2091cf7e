package usecase

import (
	"context"

	"go.uber.org/zap"

	"chatrelay/domain"
	"chatrelay/utils/log"
)

const conflictText = "You already have a request in progress. Finish it or send cancel first."

// Router fans inbound gateway events out to the conversation engine or
// the chitchat service. State-machine violations come back to the user
// as a re-prompt; nothing that happens here may take the event loop
// down.
type Router struct {
	engine  *ConversationEngine
	chat    *ChatService
	gateway domain.ChatGateway
}

func NewRouter(engine *ConversationEngine, chat *ChatService, gateway domain.ChatGateway) *Router {
	return &Router{engine: engine, chat: chat, gateway: gateway}
}

// Handle processes one inbound event to completion. It never returns an
// error to the transport; failures end up in the log and, where useful,
// as a message back to the user.
func (r *Router) Handle(ctx context.Context, ev domain.InboundEvent) {
	defer func() {
		if rec := recover(); rec != nil {
			log.WithCtx(ctx).Error("event handler panicked",
				zap.String("chat_id", ev.ChatID), zap.Any("panic", rec))
			r.gateway.SendText(ctx, ev.ChatID, somethingWentWrong)
		}
	}()

	switch ev.Kind {
	case domain.EventStart:
		r.chitchat(ctx, ev.ChatID, func() (string, error) {
			return r.chat.Welcome(ctx, ev.ChatID, ev.Username)
		})

	case domain.EventImagine:
		if err := r.engine.Enter(ctx, ev.ChatID); err != nil {
			r.replyForError(ctx, ev.ChatID, err)
		}

	case domain.EventSelect:
		if err := r.engine.SubmitSelection(ctx, ev.ChatID, ev.Selection); err != nil {
			r.replyForError(ctx, ev.ChatID, err)
		}

	case domain.EventCancel:
		if err := r.engine.Cancel(ctx, ev.ChatID); err != nil {
			r.replyForError(ctx, ev.ChatID, err)
		}

	case domain.EventText:
		// Text belongs to the dialogue only while one is collecting; the
		// rest goes to the model.
		if r.engine.HasActive(ev.ChatID) {
			if err := r.engine.SubmitText(ctx, ev.ChatID, ev.Text); err != nil {
				r.replyForError(ctx, ev.ChatID, err)
			}
			return
		}
		r.chitchat(ctx, ev.ChatID, func() (string, error) {
			return r.chat.Reply(ctx, ev.ChatID, ev.Text)
		})

	case domain.EventVoice:
		r.chitchat(ctx, ev.ChatID, func() (string, error) {
			return r.chat.ReplyVoice(ctx, ev.ChatID, ev.MIMEType, ev.Data)
		})

	case domain.EventPhoto:
		r.chitchat(ctx, ev.ChatID, func() (string, error) {
			return r.chat.ReplyPhoto(ctx, ev.ChatID, ev.MIMEType, ev.Data, ev.Text)
		})

	default:
		log.WithCtx(ctx).Warn("dropping event of unknown kind",
			zap.String("chat_id", ev.ChatID), zap.String("kind", string(ev.Kind)))
	}
}

func (r *Router) chitchat(ctx context.Context, chatID string, fn func() (string, error)) {
	reply, err := fn()
	if err != nil {
		log.WithCtx(ctx).Error("chitchat failed", zap.String("chat_id", chatID), zap.Error(err))
		r.gateway.SendText(ctx, chatID, somethingWentWrong)
		return
	}
	if err := r.gateway.SendText(ctx, chatID, reply); err != nil {
		log.WithCtx(ctx).Warn("sending reply failed", zap.String("chat_id", chatID), zap.Error(err))
	}
}

// replyForError turns a taxonomy error into the user-facing re-prompt.
func (r *Router) replyForError(ctx context.Context, chatID string, err error) {
	var text string
	switch domain.CodeOf(err) {
	case domain.ErrorConflict:
		text = conflictText
	case domain.ErrorValidation:
		text = emptyPromptNag
	case domain.ErrorInvalidChoice:
		text = "That style is not on the menu. " + pickStyleText
	case domain.ErrorInvalidState:
		// Out-of-order event, e.g. a selection while idle. Say nothing;
		// the user is likely replaying an old control.
		log.WithCtx(ctx).Debug("out-of-order event", zap.String("chat_id", chatID), zap.Error(err))
		return
	default:
		text = somethingWentWrong
	}

	log.WithCtx(ctx).Info("dialogue re-prompt",
		zap.String("chat_id", chatID), zap.String("code", string(domain.CodeOf(err))))
	if err := r.gateway.SendText(ctx, chatID, text); err != nil {
		log.WithCtx(ctx).Warn("sending re-prompt failed", zap.String("chat_id", chatID), zap.Error(err))
	}
}
