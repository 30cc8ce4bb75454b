package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dosada05/matchday/config"
	"github.com/Dosada05/matchday/db"
	"github.com/Dosada05/matchday/handlers"
	"github.com/Dosada05/matchday/live"
	"github.com/Dosada05/matchday/repositories"
	api "github.com/Dosada05/matchday/routes"
	"github.com/Dosada05/matchday/services"
	"github.com/Dosada05/matchday/storage"
	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	uploader, err := storage.NewCloudflareR2Uploader(storage.CloudflareR2Config{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		BucketName:      cfg.R2BucketName,
		PublicBaseURL:   cfg.R2PublicBaseURL,
	})
	if err != nil {
		logger.Error("failed to initialize Cloudflare R2 uploader", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Cloudflare R2 uploader initialized")

	hub := live.NewHub(logger)

	userRepo := repositories.NewPostgresUserRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRequestRepo := repositories.NewPostgresMatchRequestRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	requestRepo := repositories.NewPostgresRequestRepository(dbConn)
	notificationRepo := repositories.NewPostgresNotificationRepository(dbConn)
	txRunner := repositories.NewSQLTxRunner(dbConn)
	logger.Info("repositories initialized")

	notificationService := services.NewNotificationService(notificationRepo, hub, logger)
	dispatcher := services.NewDispatcher(notificationService, logger)
	matchService := services.NewMatchService(txRunner, matchRepo, teamRepo, userRepo, hub, logger)
	matchRequestService := services.NewMatchRequestService(matchRequestRepo, matchRepo, teamRepo, dispatcher, hub, logger)
	requestService := services.NewRequestService(requestRepo, teamRepo, userRepo, dispatcher, logger)
	teamService := services.NewTeamService(teamRepo, userRepo, uploader, dispatcher, logger)
	logger.Info("services initialized")

	teamHandler := handlers.NewTeamHandler(teamService)
	matchRequestHandler := handlers.NewMatchRequestHandler(matchRequestService)
	matchHandler := handlers.NewMatchHandler(matchService)
	requestHandler := handlers.NewRequestHandler(requestService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, dispatcher)
	webSocketHandler := handlers.NewWebSocketHandler(hub, matchService, notificationService, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		teamHandler,
		matchRequestHandler,
		matchHandler,
		requestHandler,
		notificationHandler,
		webSocketHandler,
		cfg.JWTSecretKey,
	)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
