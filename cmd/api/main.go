package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aetheria-app/aetheria/internal/api/handlers"
	"github.com/aetheria-app/aetheria/internal/api/router"
	"github.com/aetheria-app/aetheria/internal/config"
	"github.com/aetheria-app/aetheria/internal/generator"
	"github.com/aetheria-app/aetheria/internal/integrations"
	"github.com/aetheria-app/aetheria/internal/pkg/logger"
	"github.com/aetheria-app/aetheria/internal/pkg/validator"
	"github.com/aetheria-app/aetheria/internal/providers"
	"github.com/aetheria-app/aetheria/internal/repository/postgres"
	"github.com/aetheria-app/aetheria/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)

	// Generation backend: configured provider, or simulation-only when no
	// credential is set.
	backend := buildBackend(cfg, log)
	client := generator.NewClient(backend, generator.NewMock(), cfg.Generation.SurfaceErrors, log)

	// Services
	userService := services.NewUserService(userRepo, cfg.Auth.BCryptCost, log)
	entitlement := services.NewEntitlementService(profileRepo, cfg.Generation.FreeLimit, log)
	historyService := services.NewHistoryService(historyRepo, log)
	sessions := services.NewSessionManager(entitlement, historyService, client, cfg.Generation.Timeout, log)

	// Handlers
	val := validator.New()
	h := &router.Handlers{
		Health:      handlers.NewHealthHandler(db, log),
		Auth:        handlers.NewAuthHandler(userService, entitlement, cfg, log, val),
		Horoscope:   handlers.NewHoroscopeHandler(sessions, log, val),
		History:     handlers.NewHistoryHandler(historyService, log),
		Entitlement: handlers.NewEntitlementHandler(entitlement, log),
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("Server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.ErrorWithErr(err, "forced shutdown")
	}
	log.Info("Server stopped")
}

func buildBackend(cfg *config.Config, log *logger.Logger) generator.Backend {
	switch cfg.Generation.Provider {
	case "openai":
		if cfg.Generation.OpenAIAPIKey == "" {
			log.Warn("OPENAI_API_KEY not set, predictions will be simulated")
			return nil
		}
		return providers.NewOpenAIBackend(cfg.Generation.OpenAIAPIKey)
	default:
		if cfg.Generation.GeminiAPIKey == "" {
			log.Warn("GEMINI_API_KEY not set, predictions will be simulated")
			return nil
		}
		return integrations.NewGeminiClient(cfg.Generation.GeminiAPIKey, cfg.Generation.GeminiModel)
	}
}
