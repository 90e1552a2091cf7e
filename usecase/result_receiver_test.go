package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"chatrelay/domain"
)

func TestReceiveForwardsResultURL(t *testing.T) {
	gw := &fakeGateway{}
	receiver := NewResultReceiver(gw)

	ack, err := receiver.Receive(context.Background(), domain.JobResult{
		ChatID:    "42",
		ResultURL: "https://cdn.example.com/out/1.png",
	})
	require.NoError(t, err)
	require.Equal(t, "result delivered", ack)
	require.Len(t, gw.texts, 1)
	require.Equal(t, "42", gw.texts[0].chatID)
	require.Contains(t, gw.texts[0].text, "https://cdn.example.com/out/1.png")
}

func TestReceiveForwardsFailure(t *testing.T) {
	gw := &fakeGateway{}
	receiver := NewResultReceiver(gw)

	ack, err := receiver.Receive(context.Background(), domain.JobResult{
		ChatID: "42",
		Error:  "prompt violated content policy",
	})
	require.NoError(t, err)
	require.Equal(t, "result delivered", ack)
	require.Contains(t, gw.texts[0].text, "prompt violated content policy")
}

func TestReceiveAcksDespiteDeliveryFailure(t *testing.T) {
	// The chat no longer exists; the worker still deserves its ack.
	gw := &fakeGateway{sendErr: errors.New("chat 42 is not connected")}
	receiver := NewResultReceiver(gw)

	ack, err := receiver.Receive(context.Background(), domain.JobResult{
		ChatID:    "42",
		ResultURL: "https://cdn.example.com/out/1.png",
	})
	require.Equal(t, domain.ErrorDeliveryFailure, domain.CodeOf(err))
	require.NotEmpty(t, ack)
}

func TestReceiveWithoutSession(t *testing.T) {
	// No engine, no session record: correlation id alone addresses the
	// chat.
	gw := &fakeGateway{}
	receiver := NewResultReceiver(gw)

	ack, err := receiver.Receive(context.Background(), domain.JobResult{
		ChatID:    "no-session-ever-existed",
		ResultURL: "https://cdn.example.com/out/2.png",
	})
	require.NoError(t, err)
	require.Equal(t, "result delivered", ack)
	require.Equal(t, "no-session-ever-existed", gw.texts[0].chatID)
}
