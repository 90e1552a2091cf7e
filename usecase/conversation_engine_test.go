package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"chatrelay/domain"
)

type sentText struct {
	chatID string
	text   string
}

type fakeGateway struct {
	mu       sync.Mutex
	texts    []sentText
	menus    [][]domain.StyleOption
	closes   []string
	sendErr  error
	closeErr error
}

func (g *fakeGateway) SendText(_ context.Context, chatID, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.sendErr != nil {
		return g.sendErr
	}
	g.texts = append(g.texts, sentText{chatID: chatID, text: text})
	return nil
}

func (g *fakeGateway) RenderMenu(_ context.Context, chatID, _ string, options []domain.StyleOption) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.menus = append(g.menus, options)
	return nil
}

func (g *fakeGateway) CloseMenu(_ context.Context, chatID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closeErr != nil {
		return g.closeErr
	}
	g.closes = append(g.closes, chatID)
	return nil
}

func (g *fakeGateway) lastText() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.texts) == 0 {
		return ""
	}
	return g.texts[len(g.texts)-1].text
}

type fakeDispatcher struct {
	mu      sync.Mutex
	jobs    []domain.JobRequest
	outcome domain.DispatchOutcome
}

func (d *fakeDispatcher) Dispatch(_ context.Context, req domain.JobRequest) domain.DispatchOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = append(d.jobs, req)
	return d.outcome
}

func newTestEngine(outcome domain.DispatchOutcome) (*ConversationEngine, *fakeGateway, *fakeDispatcher) {
	gw := &fakeGateway{}
	disp := &fakeDispatcher{outcome: outcome}
	engine := NewConversationEngine(gw, disp, domain.DefaultStyleOptions)
	return engine, gw, disp
}

func accepted() domain.DispatchOutcome {
	return domain.DispatchOutcome{Status: domain.DispatchAccepted}
}

func TestEnterStartsDialogue(t *testing.T) {
	engine, gw, _ := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.True(t, engine.HasActive("42"))
	require.Equal(t, askPromptText, gw.lastText())
}

func TestEnterConflictsWhileDialogueOpen(t *testing.T) {
	engine, _, _ := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	err := engine.Enter(ctx, "42")
	require.Equal(t, domain.ErrorConflict, domain.CodeOf(err))

	// Still conflicting after the prompt is captured.
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	err = engine.Enter(ctx, "42")
	require.Equal(t, domain.ErrorConflict, domain.CodeOf(err))

	// Other chats are unaffected.
	require.NoError(t, engine.Enter(ctx, "43"))
}

func TestSubmitTextOutsideAwaitingPrompt(t *testing.T) {
	engine, _, disp := newTestEngine(accepted())
	ctx := context.Background()

	err := engine.SubmitText(ctx, "42", "a cat")
	require.Equal(t, domain.ErrorInvalidState, domain.CodeOf(err))
	require.False(t, engine.HasActive("42"))

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))

	// Already in AWAITING_STYLE; more text is rejected and the captured
	// prompt stays intact.
	err = engine.SubmitText(ctx, "42", "a dog")
	require.Equal(t, domain.ErrorInvalidState, domain.CodeOf(err))

	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))
	require.Equal(t, "a cat", disp.jobs[0].Prompt)
}

func TestSubmitTextRejectsEmpty(t *testing.T) {
	engine, gw, _ := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	err := engine.SubmitText(ctx, "42", "   ")
	require.Equal(t, domain.ErrorValidation, domain.CodeOf(err))

	// Still waiting for the description, no menu rendered.
	require.Empty(t, gw.menus)
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.Len(t, gw.menus, 1)
}

func TestSubmitSelectionUnknownKey(t *testing.T) {
	engine, gw, disp := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))

	err := engine.SubmitSelection(ctx, "42", "cubist")
	require.Equal(t, domain.ErrorInvalidChoice, domain.CodeOf(err))

	// State is unchanged: the menu is still open and a valid selection
	// still dispatches.
	require.Empty(t, gw.closes)
	require.Empty(t, disp.jobs)
	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))
	require.Len(t, disp.jobs, 1)
}

func TestScenarioHappyPath(t *testing.T) {
	engine, gw, disp := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.Len(t, gw.menus, 1)
	require.Len(t, gw.menus[0], 5)

	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))

	require.Equal(t, []domain.JobRequest{{Prompt: "a cat", Style: "anime", ChatID: "42"}}, disp.jobs)
	require.Equal(t, []string{"42"}, gw.closes)
	require.Equal(t, acceptedText, gw.lastText())
	require.False(t, engine.HasActive("42"))
}

func TestWorkerAckIsEchoed(t *testing.T) {
	engine, gw, _ := newTestEngine(domain.DispatchOutcome{
		Status: domain.DispatchAccepted,
		Ack:    "Queued as job 7.",
	})
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))
	require.Equal(t, "Queued as job 7.", gw.lastText())
}

func TestDuplicateSelectionNoOps(t *testing.T) {
	engine, _, disp := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))

	// Double tap after the menu closed: no error, no second dispatch.
	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))
	require.Len(t, disp.jobs, 1)
}

func TestScenarioCancelAtMenu(t *testing.T) {
	engine, gw, disp := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.NoError(t, engine.SubmitSelection(ctx, "42", domain.CancelKey))

	require.Empty(t, disp.jobs)
	require.Equal(t, []string{"42"}, gw.closes)
	require.Equal(t, cancelledText, gw.lastText())
	require.False(t, engine.HasActive("42"))
}

func TestCancelCommand(t *testing.T) {
	engine, gw, _ := newTestEngine(accepted())
	ctx := context.Background()

	// Nothing in flight: silently a no-op.
	require.NoError(t, engine.Cancel(ctx, "42"))
	require.Empty(t, gw.texts)

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.Cancel(ctx, "42"))
	require.Equal(t, cancelledText, gw.lastText())
	require.False(t, engine.HasActive("42"))
}

func TestDispatchRejectionCancelsDialogue(t *testing.T) {
	engine, gw, disp := newTestEngine(domain.DispatchOutcome{
		Status: domain.DispatchRejected,
		Reason: "worker responded 503",
	})
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))

	require.Len(t, disp.jobs, 1)
	require.Equal(t, dispatchSorry, gw.lastText())
	require.False(t, engine.HasActive("42"))

	// The chat is free to start over.
	require.NoError(t, engine.Enter(ctx, "42"))
}

func TestDispatchTransportFailureCancelsDialogue(t *testing.T) {
	engine, gw, _ := newTestEngine(domain.DispatchOutcome{
		Status: domain.DispatchTransportFailure,
		Cause:  errors.New("connection refused"),
	})
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))

	require.Equal(t, dispatchSorry, gw.lastText())
	require.False(t, engine.HasActive("42"))
}

func TestChatsAreIndependent(t *testing.T) {
	engine, _, disp := newTestEngine(accepted())
	ctx := context.Background()

	require.NoError(t, engine.Enter(ctx, "42"))
	require.NoError(t, engine.Enter(ctx, "43"))
	require.NoError(t, engine.SubmitText(ctx, "42", "a cat"))
	require.NoError(t, engine.SubmitText(ctx, "43", "a dog"))
	require.NoError(t, engine.SubmitSelection(ctx, "43", "sketch"))
	require.NoError(t, engine.SubmitSelection(ctx, "42", "anime"))

	require.Len(t, disp.jobs, 2)
	require.Equal(t, domain.JobRequest{Prompt: "a dog", Style: "sketch", ChatID: "43"}, disp.jobs[0])
	require.Equal(t, domain.JobRequest{Prompt: "a cat", Style: "anime", ChatID: "42"}, disp.jobs[1])
}
