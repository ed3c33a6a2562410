package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"messaging/internal/config"
	"messaging/internal/events"
	"messaging/internal/httpserver"
	"messaging/internal/identity"
	"messaging/internal/security"
	"messaging/internal/service"
	"messaging/internal/store/sqlite"
	"messaging/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Debug || cfg.Env == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := sqlite.Open(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	if err := sqlite.Migrate(db); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// Repositories
	userRepo := sqlite.NewUserRepo(db)
	convRepo := sqlite.NewConversationRepo(db)
	msgRepo := sqlite.NewMessageRepo(db)
	partRepo := sqlite.NewParticipantRepo(db)

	// Identity
	tokenSvc := security.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTokenMinutes)*time.Minute)
	hasher := security.NewPasswordHasher(0)
	gate := identity.NewGate(tokenSvc, userRepo)

	// Realtime: the bus sits between the write path and the hub so a slow
	// socket can never stall an append or create.
	hub := ws.NewHub(logger)
	bus := events.NewBus(cfg.EventBufferSize, logger)

	busCtx, stopBus := context.WithCancel(context.Background())
	defer stopBus()
	go bus.Run(busCtx, hub)

	// Services
	authSvc := service.NewAuthService(userRepo, tokenSvc, hasher)
	userSvc := service.NewUserService(userRepo)
	convSvc := service.NewConversationService(convRepo, partRepo, userRepo, bus)
	msgSvc := service.NewMessageService(convRepo, partRepo, msgRepo, userRepo, bus)
	messagingSvc := service.NewMessagingService(convSvc, msgSvc)

	router := httpserver.NewRouter(httpserver.Deps{
		Config:        cfg,
		Gate:          gate,
		Hub:           hub,
		Publisher:     bus,
		Auth:          authSvc,
		Users:         userSvc,
		Conversations: convSvc,
		Messages:      msgSvc,
		Messaging:     messagingSvc,
		Log:           logger,
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting messaging server", zap.String("addr", cfg.HTTPAddr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
	}
	stopBus()
}
