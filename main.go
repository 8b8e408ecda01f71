package main

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"messenger-service/internal/config"
	"messenger-service/internal/db"
	"messenger-service/internal/handlers"
	"messenger-service/internal/logging"
	"messenger-service/internal/middleware"
	"messenger-service/internal/observability"
	"messenger-service/internal/repositories"
	"messenger-service/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := logging.New(cfg.Log)

	database, err := db.Connect(cfg.Database.DSN)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to db")
	}

	if cfg.AMQP.URL != "" {
		publisher, err := observability.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
		if err != nil {
			logger.Warn().Err(err).Msg("amqp publisher unavailable, events disabled")
		} else {
			observability.SetPublisher(publisher)
			defer publisher.Close()
		}
	}

	if cfg.Otel.Enabled {
		shutdown, err := observability.InitTracing(context.Background(), cfg.Otel.ServiceName)
		if err != nil {
			logger.Warn().Err(err).Msg("otel tracing unavailable")
		} else {
			defer shutdown(context.Background())
		}
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create uploads dir")
	}

	userRepo := repositories.NewUserRepo(database)
	messageRepo := repositories.NewMessageRepo(database)

	registry := ws.NewRegistry()
	hub := ws.NewHub(registry, logger)
	tracker := ws.NewTracker(registry, userRepo, hub, cfg.Presence.OfflineDebounce, logger)
	pipeline := ws.NewPipeline(messageRepo, userRepo, registry, hub, logger)
	acks := ws.NewAckEngine(messageRepo, registry, hub, logger)
	typing := ws.NewTyping(registry, hub)
	hub.Attach(tracker, pipeline, acks, typing)

	verifier := middleware.NewJWTVerifier(cfg.Auth.Secret)
	socket := ws.NewSocketHandler(hub, verifier, logger)

	userHandler := handlers.NewUserHandler(userRepo, tracker)
	messageHandler := handlers.NewMessageHandler(messageRepo, pipeline, acks, hub)
	uploadHandler := handlers.NewUploadHandler(cfg.Uploads.Dir, cfg.Uploads.MaxSizeBytes)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Otel.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(verifier)

	router.GET("/users", authMiddleware, userHandler.ListUsers)
	router.POST("/messages", authMiddleware, messageHandler.SendMessage)
	router.GET("/conversations/:user_id", authMiddleware, messageHandler.GetConversation)
	router.GET("/conversations/:user_id/unread", authMiddleware, messageHandler.UnreadCount)
	router.PATCH("/messages/:message_id/status", authMiddleware, messageHandler.UpdateStatus)
	router.POST("/messages/seen", authMiddleware, messageHandler.MarkAllSeen)
	router.DELETE("/messages/:message_id/me", authMiddleware, messageHandler.DeleteForMe)
	router.DELETE("/messages/:message_id/all", authMiddleware, messageHandler.DeleteForAll)
	router.POST("/uploads", authMiddleware, uploadHandler.Upload)
	router.Static("/uploads", cfg.Uploads.Dir)

	router.GET("/ws", socket.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	logger.Info().Str("port", cfg.Server.Port).Msg("messenger service listening")
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
