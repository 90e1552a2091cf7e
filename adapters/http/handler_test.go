package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"chatrelay/adapters/signer"
	"chatrelay/domain"
	"chatrelay/usecase"
)

type recordingGateway struct {
	texts   map[string][]string
	sendErr error
}

func (g *recordingGateway) SendText(_ context.Context, chatID, text string) error {
	if g.sendErr != nil {
		return g.sendErr
	}
	if g.texts == nil {
		g.texts = make(map[string][]string)
	}
	g.texts[chatID] = append(g.texts[chatID], text)
	return nil
}

func (g *recordingGateway) RenderMenu(context.Context, string, string, []domain.StyleOption) error {
	return nil
}

func (g *recordingGateway) CloseMenu(context.Context, string) error { return nil }

const testSecret = "callback-secret"

func newCallbackContext(t *testing.T, gw domain.ChatGateway, body string, sign bool, timestamp string) (echo.Context, *httptest.ResponseRecorder, *CallbackHandler) {
	t.Helper()

	sig := signer.New([]byte(testSecret))
	handler := NewCallbackHandler(usecase.NewResultReceiver(gw), sig, 5*time.Minute,
		[]byte("jwt-secret"), "key", "secret")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/callback", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if sign {
		req.Header.Set(headerTimestamp, timestamp)
		req.Header.Set(headerSignature, sig.Sign(timestamp, []byte(body)))
	}

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)
	return c, rec, handler
}

func nowStamp() string {
	return strconv.FormatInt(time.Now().Unix(), 10)
}

func TestJobCallbackDeliversResult(t *testing.T) {
	gw := &recordingGateway{}
	body := `{"chatId":"42","resultUrl":"https://cdn.example.com/out/1.png"}`
	c, rec, handler := newCallbackContext(t, gw, body, true, nowStamp())

	require.NoError(t, handler.JobCallback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CallbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	require.Len(t, gw.texts["42"], 1)
	require.Contains(t, gw.texts["42"][0], "https://cdn.example.com/out/1.png")
}

func TestJobCallbackAcksWhenForwardingFails(t *testing.T) {
	gw := &recordingGateway{sendErr: errors.New("chat 42 is not connected")}
	body := `{"chatId":"42","resultUrl":"https://cdn.example.com/out/1.png"}`
	c, rec, handler := newCallbackContext(t, gw, body, true, nowStamp())

	require.NoError(t, handler.JobCallback(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CallbackResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
}

func TestJobCallbackRejectsMissingSignature(t *testing.T) {
	c, _, handler := newCallbackContext(t, &recordingGateway{}, `{"chatId":"42"}`, false, "")

	err := handler.JobCallback(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJobCallbackRejectsBadSignature(t *testing.T) {
	gw := &recordingGateway{}
	body := `{"chatId":"42","resultUrl":"https://x"}`
	c, _, handler := newCallbackContext(t, gw, body, true, nowStamp())
	c.Request().Header.Set(headerSignature, "deadbeef")

	err := handler.JobCallback(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
	require.Empty(t, gw.texts)
}

func TestJobCallbackRejectsStaleTimestamp(t *testing.T) {
	stale := strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	c, _, handler := newCallbackContext(t, &recordingGateway{}, `{"chatId":"42"}`, true, stale)

	err := handler.JobCallback(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestJobCallbackRejectsMissingChatID(t *testing.T) {
	c, _, handler := newCallbackContext(t, &recordingGateway{}, `{"resultUrl":"https://x"}`, true, nowStamp())

	err := handler.JobCallback(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestJobCallbackRejectsMalformedBody(t *testing.T) {
	c, _, handler := newCallbackContext(t, &recordingGateway{}, `{not json`, true, nowStamp())

	err := handler.JobCallback(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusBadRequest, httpErr.Code)
}

func TestGenerateJWTRequiresCredentials(t *testing.T) {
	_, _, handler := newCallbackContext(t, &recordingGateway{}, "", false, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token", nil)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	err := handler.GenerateJWT(c)
	var httpErr *echo.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestGenerateJWTIssuesToken(t *testing.T) {
	_, _, handler := newCallbackContext(t, &recordingGateway{}, "", false, "")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/token?chat_id=42&username=alice", nil)
	req.Header.Set("X-API-Key", "key")
	req.Header.Set("X-API-Secret", "secret")
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(req, rec)

	require.NoError(t, handler.GenerateJWT(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	require.Equal(t, "Bearer", resp["type"])
	require.Equal(t, "42", resp["chat_id"])
}
