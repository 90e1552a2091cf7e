package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"chatrelay/adapters/signer"
	"chatrelay/domain"
	"chatrelay/usecase"
	"chatrelay/utils/log"
)

const (
	headerSignature = "X-Signature"
	headerTimestamp = "X-Timestamp"

	// JWT settings for gateway tokens.
	jwtExpiry = 24 * time.Hour

	maxCallbackBody = 64 * 1024
)

// CallbackHandler owns the inbound HTTP surface: the worker's result
// callback, gateway token issuance, and health.
type CallbackHandler struct {
	receiver  *usecase.ResultReceiver
	signer    domain.Signer
	freshness time.Duration
	jwtSecret []byte
	apiKey    string
	apiSecret string
}

type CallbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewCallbackHandler(receiver *usecase.ResultReceiver, sig domain.Signer, freshness time.Duration, jwtSecret []byte, apiKey, apiSecret string) *CallbackHandler {
	if freshness <= 0 {
		freshness = 5 * time.Minute
	}
	return &CallbackHandler{
		receiver:  receiver,
		signer:    sig,
		freshness: freshness,
		jwtSecret: jwtSecret,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// JobCallback accepts the worker's completion notice. The body is
// authenticated with the same HMAC scheme used on the outbound dispatch;
// once authenticated the response is 200 with success:true no matter
// what happens to the chat forwarding, because the job itself is done.
func (h *CallbackHandler) JobCallback(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxCallbackBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable body")
	}

	if err := h.authenticate(c.Request().Header, body); err != nil {
		log.WithCtx(c.Request().Context()).Warn("rejected callback", zap.Error(err))
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid callback signature")
	}

	var result domain.JobResult
	if err := json.Unmarshal(body, &result); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Malformed callback body")
	}
	if result.ChatID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing chatId")
	}

	ctx := c.Request().Context()
	ack, err := h.receiver.Receive(ctx, result)
	if err != nil {
		// Delivery failure is ours to log; the worker still gets its ack.
		log.WithCtx(ctx).Warn("callback delivery failure",
			zap.String("chat_id", result.ChatID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, CallbackResponse{Success: true, Message: ack})
}

// authenticate verifies the callback signature and its freshness window.
func (h *CallbackHandler) authenticate(header http.Header, body []byte) error {
	signature := header.Get(headerSignature)
	timestamp := header.Get(headerTimestamp)
	if signature == "" || timestamp == "" {
		return fmt.Errorf("missing signature headers")
	}

	issued, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("malformed timestamp %q", timestamp)
	}
	age := time.Since(time.Unix(issued, 0))
	if age > h.freshness || age < -h.freshness {
		return fmt.Errorf("timestamp outside freshness window: %s", age)
	}

	if !signer.Verify(h.signer, timestamp, body, signature) {
		return fmt.Errorf("signature mismatch")
	}
	return nil
}

// GenerateJWT creates a gateway token for an authenticated chat client.
func (h *CallbackHandler) GenerateJWT(c echo.Context) error {
	apiKey := c.Request().Header.Get("X-API-Key")
	apiSecret := c.Request().Header.Get("X-API-Secret")

	if apiKey != h.apiKey || apiSecret != h.apiSecret {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	chatID := strings.TrimSpace(c.QueryParam("chat_id"))
	if chatID == "" {
		chatID = uuid.NewString()
	}
	username := strings.TrimSpace(c.QueryParam("username"))

	claims := jwt.MapClaims{
		"chat_id":  chatID,
		"username": username,
		"exp":      jwt.NewNumericDate(time.Now().Add(jwtExpiry)),
		"iat":      jwt.NewNumericDate(time.Now()),
		"nbf":      jwt.NewNumericDate(time.Now()),
		"iss":      "chatrelay",
		"sub":      "chat-gateway",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.jwtSecret)
	if err != nil {
		log.WithCtx(c.Request().Context()).Error("signing JWT failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token":   tokenString,
		"type":    "Bearer",
		"chat_id": chatID,
	})
}

// HealthCheck endpoint
func (h *CallbackHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "chat-relay",
	})
}
