package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Prag-18/Reviva/internal/cache"
	"github.com/Prag-18/Reviva/internal/config"
	"github.com/Prag-18/Reviva/internal/domain"
	"github.com/Prag-18/Reviva/internal/handler"
	"github.com/Prag-18/Reviva/internal/hub"
	"github.com/Prag-18/Reviva/internal/identity"
	"github.com/Prag-18/Reviva/internal/metrics"
	"github.com/Prag-18/Reviva/internal/presence"
	"github.com/Prag-18/Reviva/internal/repository"
	"github.com/Prag-18/Reviva/internal/service"
	"github.com/Prag-18/Reviva/pkg/database"
	"github.com/Prag-18/Reviva/pkg/jwt"
	pkglog "github.com/Prag-18/Reviva/pkg/log"
	"github.com/Prag-18/Reviva/pkg/middleware"
	"github.com/Prag-18/Reviva/pkg/pubsub"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize structured logger
	pkglog.Init(pkglog.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, ServiceName: "chat-service"})
	logger := pkglog.L()

	logger.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting chat-service")

	metrics.Register()

	// Connect to database using GORM
	db, err := database.New(cfg.Database.Gorm())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close(db)

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db, &domain.UserModel{}, &domain.MessageModel{}); err != nil {
			logger.Fatal().Err(err).Msg("failed to auto-migrate")
		}
		logger.Info().Msg("database migration completed")
	}

	// Initialize repositories
	messageRepo := repository.NewGormMessageRepository(db)
	var userRepo repository.UserRepository = repository.NewGormUserRepository(db)

	if cfg.Redis.Enabled {
		userCache, err := cache.NewRedisUserCache(cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create redis user cache")
		}
		defer userCache.Close()
		userRepo = repository.NewCachedUserRepository(userRepo, userCache, cfg.Redis.UserCacheTTL)
		logger.Info().Str("address", cfg.Redis.Address).Msg("user cache enabled")
	}

	// Initialize event bus publisher
	publisher, err := pubsub.NewPublisher(cfg.Events)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create event publisher")
	}
	defer publisher.Close()
	logger.Info().Str("driver", cfg.Events.Driver).Msg("event publisher ready")

	// Token decoding
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Algorithm, cfg.Auth.TokenDuration, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create jwt manager")
	}
	verifier := identity.NewVerifier(tokens, userRepo)

	// Create hub and presence broadcaster
	h := hub.NewHub()
	broadcaster, err := presence.NewBroadcaster(h, cfg.Presence.BroadcastMode)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create presence broadcaster")
	}
	h.SetPresenceListener(broadcaster)

	// Create service
	chatSvc := service.NewChatService(h, userRepo, messageRepo, publisher, cfg.History)

	// Create handlers
	wsHandler := handler.NewWSHandler(h, chatSvc, verifier, cfg.WebSocket)
	httpHandler := handler.NewHTTPHandler(chatSvc, middleware.NewAuthMiddleware(verifier), cfg.History)

	// Setup Gin router
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(pkglog.GinMiddleware(logger, "/health", "/metrics"))

	wsHandler.RegisterRoutes(router)
	httpHandler.RegisterRoutes(router)

	// Websocket handlers run for the life of the channel, so no write timeout.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().Str("addr", addr).Msg("chat-service listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down chat-service")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		h.Stop() // 1. close every chat channel

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil { // 2. drain HTTP requests
			logger.Error().Err(err).Msg("server shutdown error")
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("chat-service stopped")
	case <-time.After(cfg.Server.ShutdownTimeout):
		logger.Warn().Dur("timeout", cfg.Server.ShutdownTimeout).Msg("shutdown timed out")
	}
}
