package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/kuisku-participant/internal/ai"
	"github.com/stemsi/kuisku-participant/internal/backend"
	"github.com/stemsi/kuisku-participant/internal/config"
	"github.com/stemsi/kuisku-participant/internal/database"
	"github.com/stemsi/kuisku-participant/internal/executor"
	"github.com/stemsi/kuisku-participant/internal/handler"
	"github.com/stemsi/kuisku-participant/internal/logger"
	"github.com/stemsi/kuisku-participant/internal/router"
	"github.com/stemsi/kuisku-participant/internal/service"
	"github.com/stemsi/kuisku-participant/internal/session"
	"github.com/stemsi/kuisku-participant/internal/store"
	"github.com/stemsi/kuisku-participant/internal/validator"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Msg("Starting Kuisku Participant Gateway")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Initialize Collaborator Clients ───────────────────────────────
	backendClient := backend.NewClient(cfg.QuizBackendURL, cfg.CollabTimeout, log)
	runnerClient := executor.NewClient(cfg.CodeExecutorURL, cfg.CollabTimeout, log)
	aiClient := ai.NewClient(cfg.AICollabURL, cfg.AICollabKey, cfg.AITimeout, log)

	// ─── Initialize Services ───────────────────────────────────────────
	identityService := service.NewIdentityService(cfg, rdb)
	progressStore := store.NewProgressStore(rdb, 24*time.Hour)
	peers := session.NewSimulatedDiscussant(aiClient, 2*time.Second, log)

	// ─── Initialize Runtime Manager ────────────────────────────────────
	// Runtimes outlive any single HTTP request; they hang off the process
	// context and are torn down by Shutdown or the idle reaper.
	manager := session.NewManager(ctx, cfg.RuntimeIdleTTL, log)

	// ─── Initialize Handlers ───────────────────────────────────────────
	handlers := &router.Handlers{
		Participant: handler.NewParticipantHandler(
			cfg,
			identityService,
			manager,
			backendClient,
			runnerClient,
			aiClient,
			peers,
			progressStore,
			log,
		),
		WS: handler.NewWSHandler(manager, log, cfg.AllowedOrigins),
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(identityService, handlers, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop every participant runtime and its poller.
	manager.Shutdown()

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
