package usecase

import (
	"context"

	"go.uber.org/zap"

	"chatrelay/domain"
	"chatrelay/utils/log"
)

const (
	resultReadyText  = "Your result is ready: "
	resultFailedText = "Your request could not be completed: "
)

// ResultReceiver reunites an out-of-band job completion with the chat
// that asked for it. The correlation id IS the chat address, so there is
// no lookup table and no dependency on the session still existing — the
// dialogue record is usually long gone by the time the worker calls back.
type ResultReceiver struct {
	gateway domain.ChatGateway
}

func NewResultReceiver(gateway domain.ChatGateway) *ResultReceiver {
	return &ResultReceiver{gateway: gateway}
}

// Receive forwards the outcome into the chat. It always returns an
// acknowledgement for the worker: the job itself completed, and a
// failure to deliver the notification is our problem, not the worker's.
// The returned error, when non-nil, is the DELIVERY_FAILURE for the
// caller to log; the ack string is valid either way.
func (r *ResultReceiver) Receive(ctx context.Context, result domain.JobResult) (string, error) {
	text := resultReadyText + result.ResultURL
	if result.Failed() {
		text = resultFailedText + result.Error
	}

	if err := r.gateway.SendText(ctx, result.ChatID, text); err != nil {
		log.WithCtx(ctx).Warn("result delivery failed",
			zap.String("chat_id", result.ChatID), zap.Error(err))
		return "result accepted, delivery failed", domain.NewError(domain.ErrorDeliveryFailure,
			"forwarding result to chat "+result.ChatID, err)
	}

	return "result delivered", nil
}
