package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"FitPulse_V0.1/config"
	"FitPulse_V0.1/internal/assistant"
	"FitPulse_V0.1/internal/database"
	"FitPulse_V0.1/internal/geminiservice"
	"FitPulse_V0.1/internal/server"
)

func gracefulShutdown(apiServer *http.Server, timeout time.Duration, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Info().Msg("shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	// Give in-flight requests a bounded window to finish.
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		// A missing AI credential lands here, before any network call.
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx := context.Background()

	db, err := database.NewService(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	client, err := geminiservice.NewClient(cfg.Gemini.APIKey)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build gemini client")
	}
	primary := client.WithModel(cfg.Gemini.Model)
	fallback := client.WithModel(cfg.Gemini.FallbackModel)

	invoker := geminiservice.NewInvoker(cfg.Gemini.MaxRetries, cfg.Gemini.InitialDelay)

	chat := assistant.NewChat(db, primary, fallback, invoker)
	analyzer, err := assistant.NewAnalyzer(primary, fallback, invoker)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build analyzer")
	}
	planner := assistant.NewPlanner(db, primary, fallback, invoker)

	apiServer := server.NewServer(cfg, db, chat, analyzer, planner)

	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(apiServer, cfg.ShutdownTimeout, done)

	log.Info().Int("port", cfg.Server.Port).Str("model", primary.Model()).Msg("starting server")
	if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(os.Stderr, "http server error: %s\n", err)
		os.Exit(1)
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Info().Msg("graceful shutdown complete")
}
