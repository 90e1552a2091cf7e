package main

import (
	stdlog "log"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	relayhttp "chatrelay/adapters/http"
	"chatrelay/adapters/gateway"
	"chatrelay/adapters/llm"
	"chatrelay/adapters/message_broker"
	"chatrelay/adapters/signer"
	"chatrelay/adapters/websocket"
	"chatrelay/adapters/worker"
	"chatrelay/domain"
	"chatrelay/usecase"
	"chatrelay/utils/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		stdlog.Fatal(err)
	}

	hmacSigner := signer.New([]byte(cfg.SigningSecret))
	broker := message_broker.NewChannelMessageBroker()
	chatGateway := gateway.New(broker)

	workerClient := worker.NewClient(cfg.WorkerURL, hmacSigner, cfg.DispatchTimeout)
	engine := usecase.NewConversationEngine(chatGateway, workerClient, domain.DefaultStyleOptions)

	geminiLlm := llm.NewGeminiClient(cfg.GeminiModel)
	chatSvc := usecase.NewChatService(geminiLlm)

	router := usecase.NewRouter(engine, chatSvc, chatGateway)
	receiver := usecase.NewResultReceiver(chatGateway)

	server := websocket.NewServer(router, broker, []byte(cfg.JWTSecret))
	go server.RunWebsocketHub()

	callbackHandler := relayhttp.NewCallbackHandler(
		receiver, hmacSigner, cfg.CallbackFreshness,
		[]byte(cfg.JWTSecret), cfg.APIKey, cfg.APISecret,
	)

	e := echo.New()

	// Security middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20))) // 20 requests per minute

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"}, // In production, specify exact origins
		AllowMethods: []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"X-API-Key",
			"X-API-Secret",
			"X-Signature",
			"X-Timestamp",
			"Content-Length",
		},
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	e.Use(middleware.BodyLimit("10MB"))

	// JWT auth for the chat WebSocket
	wsGroup := e.Group("/ws")
	wsGroup.Use(server.JWTMiddleware)
	wsGroup.GET("", server.Handler)

	// HTTP API routes
	api := e.Group("/api/v1")

	// Public endpoints (no auth required)
	api.GET("/health", callbackHandler.HealthCheck)
	api.POST("/auth/token", callbackHandler.GenerateJWT)

	// Worker callback, authenticated by HMAC signature inside the handler
	api.POST("/jobs/callback", callbackHandler.JobCallback)

	stdlog.Println("Starting server on " + cfg.ListenAddr)
	stdlog.Println("Available endpoints:")
	stdlog.Println("  GET  /api/v1/health              - Health check")
	stdlog.Println("  POST /api/v1/auth/token          - Get gateway JWT token")
	stdlog.Println("  POST /api/v1/jobs/callback       - Worker result callback (signed)")
	stdlog.Println("  GET  /ws                         - Chat WebSocket (JWT required)")
	stdlog.Fatal(e.Start(cfg.ListenAddr))
}
