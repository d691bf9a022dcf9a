package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quizfolio/sync-service/internal/attempts"
	"github.com/quizfolio/sync-service/internal/auth"
	"github.com/quizfolio/sync-service/internal/cloudsync"
	"github.com/quizfolio/sync-service/internal/config"
	"github.com/quizfolio/sync-service/internal/handlers"
	"github.com/quizfolio/sync-service/internal/remote"
	"github.com/quizfolio/sync-service/internal/storage"
	"github.com/quizfolio/sync-service/internal/transfer"
	"github.com/quizfolio/sync-service/internal/utils"
	"github.com/quizfolio/sync-service/internal/validator"
	"github.com/quizfolio/sync-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}

	ctx := context.Background()

	// Local attempt slot.
	var store storage.Store
	switch cfg.StorageBackend {
	case "redis":
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			logger.LogError(err, "failed to connect to redis")
			os.Exit(1)
		}
		defer client.Close()
		store = storage.NewRedisStore(client, cfg.SlotKey, logger)
	default:
		store = storage.NewFileStore(cfg.StoragePath, logger)
	}

	history := attempts.NewHistory(ctx, store, logger)
	logger.Info("attempt history loaded", "count", history.Len())

	bus, err := cfg.Events.CreateBus(utils.ToSlogLogger(logger))
	if err != nil {
		logger.LogError(err, "failed to create event bus")
		os.Exit(1)
	}
	defer bus.Close()

	// Remote sync is available only when a database is configured; the app
	// runs fine without it, just in the disabled state.
	var remoteStore remote.AttemptStore
	var verifier auth.TokenVerifier
	if cfg.DatabaseURL != "" {
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			logger.LogError(err, "failed to connect to database")
			os.Exit(1)
		}
		pgStore := remote.NewPostgresStore(db, bus, logger)
		if err := pgStore.Migrate(); err != nil {
			logger.LogError(err, "failed to migrate attempt documents")
			os.Exit(1)
		}
		remoteStore = pgStore

		if cfg.Casdoor.Configured() {
			verifier = auth.NewCasdoorVerifier(auth.CasdoorConfig{
				Endpoint:     cfg.Casdoor.Endpoint,
				ClientID:     cfg.Casdoor.ClientID,
				ClientSecret: cfg.Casdoor.ClientSecret,
				Certificate:  cfg.Casdoor.Certificate,
				Organization: cfg.Casdoor.Organization,
				Application:  cfg.Casdoor.Application,
			})
		}
	} else {
		logger.Info("no DATABASE_URL configured, cloud sync disabled")
		remoteStore = remote.NewMemoryStore()
	}

	session := auth.NewSession(verifier)

	orchestrator := cloudsync.New(history, remoteStore, session, bus, logger)
	orchestrator.Start()
	defer orchestrator.Close()

	codec := transfer.NewCodec(validator.New())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(history, orchestrator, codec, session, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("sync service listening", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.LogError(err, "server stopped unexpectedly")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "graceful shutdown failed")
	}
}
