package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"github.com/knightsri/sarvam-explorer/internal/api"
	"github.com/knightsri/sarvam-explorer/internal/audio"
	"github.com/knightsri/sarvam-explorer/internal/config"
	"github.com/knightsri/sarvam-explorer/internal/pipeline"
	"github.com/knightsri/sarvam-explorer/internal/sarvam"
	"github.com/knightsri/sarvam-explorer/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("sarvam-explorer starting",
		"port", cfg.Port,
		"chunk_seconds", cfg.ChunkSeconds,
		"max_duration", cfg.MaxAudioDuration,
		"concurrency", cfg.TranscribeConcurrent,
	)

	if cfg.SarvamAPIKey == "" {
		slog.Error("SARVAM_API_KEY is required")
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	for _, dir := range []string{cfg.UploadsDir, cfg.OutputsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("failed to create directory", "dir", dir, "error", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Step 1: Connect to the database.
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		slog.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database connected")

	// Step 2: Build the pipeline stages over the Sarvam client.
	client := sarvam.NewClient(cfg.SarvamAPIKey, cfg.SarvamBaseURL)
	retry := pipeline.RetryPolicy{
		MaxAttempts: uint64(cfg.RetryAttempts),
		CallTimeout: cfg.RequestTimeout,
	}

	splitter := audio.NewSplitter(float64(cfg.ChunkSeconds))
	assembler := pipeline.NewAssembler(client, cfg.TranscribeConcurrent, retry)
	analysis := pipeline.NewAnalysisStage(client, retry)
	translation := pipeline.NewTranslationStage(client, retry)
	speech := pipeline.NewSpeechStage(client, retry)

	orch := pipeline.NewOrchestrator(splitter, assembler, analysis, translation, speech, db,
		pipeline.OrchestratorConfig{
			OutputsDir: cfg.OutputsDir,
			MaxSeconds: float64(cfg.MaxAudioDuration),
		})

	// Step 3: Optionally connect to NATS for lifecycle events.
	var nc *nats.Conn
	if cfg.NatsURL != "" {
		nc, err = nats.Connect(cfg.NatsURL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				slog.Warn("NATS disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(_ *nats.Conn) {
				slog.Info("NATS reconnected")
			}),
		)
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer nc.Drain()
		orch.SetPublisher(nc.Publish)
		slog.Info("session event publisher enabled", "nats_url", cfg.NatsURL)
	}

	// Step 4: Start the HTTP API.
	srv := api.NewServer(orch, db, cfg.Port, cfg.UploadsDir, cfg.OutputsDir)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("sarvam-explorer ready", "port", cfg.Port)

	// Wait for shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	slog.Info("shutting down", "signal", sig)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), api.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP shutdown error", "error", err)
	}
	cancel()
	slog.Info("sarvam-explorer stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
