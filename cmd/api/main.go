package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/preventivo-app/preventivo/internal/auth"
	"github.com/preventivo-app/preventivo/internal/config"
	"github.com/preventivo-app/preventivo/internal/database"
	"github.com/preventivo-app/preventivo/internal/http/handler"
	"github.com/preventivo-app/preventivo/internal/http/middleware"
	"github.com/preventivo-app/preventivo/internal/http/router"
	"github.com/preventivo-app/preventivo/internal/logger"
	"github.com/preventivo-app/preventivo/internal/repository"
	"github.com/preventivo-app/preventivo/internal/service"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.NewLogger(&cfg.Logging, &cfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Environment),
		zap.Int("port", cfg.App.Port),
	)

	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.Database.Driver == "sqlite" {
		// Postgres schemas are managed by goose; sqlite gets the schema in-process
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	// Services
	tokenIssuer := auth.NewTokenIssuer(&cfg.Auth)
	authService := service.NewAuthService(userRepo, tokenIssuer, cfg.Auth.BcryptCost, log)
	offerService := service.NewOfferService(offerRepo, log)
	settingsService := service.NewSettingsService(settingsRepo, log)

	// Middleware
	authMiddleware := auth.NewMiddleware(tokenIssuer, userRepo, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Handlers
	authHandler := handler.NewAuthHandler(authService, log)
	offerHandler := handler.NewOfferHandler(offerService, log)
	settingsHandler := handler.NewSettingsHandler(settingsService, log)

	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		authHandler,
		offerHandler,
		settingsHandler,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
