package websocket

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"chatrelay/utils/log"
)

// Claims carried by a gateway token. ChatID is the correlation id used
// everywhere downstream.
type Claims struct {
	ChatID   string `json:"chat_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTMiddleware authenticates the websocket upgrade request with a
// bearer token and stashes the chat identity in the echo context.
func (s *Server) JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.jwtSecret, nil
		})
		if err != nil {
			log.With(zap.Error(err)).Debug("JWT validation failed")
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid || claims.ChatID == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token claims")
		}

		c.Set("chat_id", claims.ChatID)
		c.Set("username", claims.Username)
		return next(c)
	}
}

// Handler upgrades the connection and pumps events until the chat
// disconnects.
func (s *Server) Handler(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	chatID := c.Get("chat_id").(string)
	username, _ := c.Get("username").(string)

	client := NewClient(conn, chatID, username, s.handleFrame)
	s.hub.Register(client)

	client.Run()

	defer s.hub.Unregister(client)

	// Wait for the client context to be done (connection closed)
	<-client.Context().Done()

	return nil
}
