package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/aerodesk/call-intake/internal/aggregation"
	"github.com/aerodesk/call-intake/internal/analysis"
	"github.com/aerodesk/call-intake/internal/api"
	"github.com/aerodesk/call-intake/internal/config"
	"github.com/aerodesk/call-intake/internal/intake"
	"github.com/aerodesk/call-intake/internal/storage/sqlite"
	"github.com/aerodesk/call-intake/internal/transcription"
	"github.com/aerodesk/call-intake/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "config.toml", "path to the configuration file")
	flag.Parse()

	// .env is optional; the environment may already carry the API key
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Sync()

	log.Info("Starting call intake service",
		logger.String("config", *configPath),
		logger.String("storage", cfg.Storage.Path))

	db, err := sqlite.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	airportStorage, err := sqlite.NewAirportStorage(db, log)
	if err != nil {
		return err
	}
	categoryStorage, err := sqlite.NewCategoryStorage(db, log)
	if err != nil {
		return err
	}
	callStorage, err := sqlite.NewCallStorage(db, log)
	if err != nil {
		return err
	}
	summaryStorage, err := sqlite.NewDailySummaryStorage(db, log)
	if err != nil {
		return err
	}

	seedAirports := make([]sqlite.Airport, 0, len(cfg.Airports))
	for _, a := range cfg.Airports {
		seedAirports = append(seedAirports, sqlite.Airport{Code: a.Code, Name: a.Name})
	}
	if _, err := airportStorage.Seed(seedAirports); err != nil {
		return fmt.Errorf("failed to seed airports: %w", err)
	}

	transcriber, err := newTranscriber(cfg.Transcription, log)
	if err != nil {
		return err
	}

	analyzer, err := analysis.NewService(cfg.Analysis, log)
	if err != nil {
		return err
	}

	resolver := intake.NewResolver(airportStorage, categoryStorage, cfg.Analysis.DefaultAirport, log)
	intakeService := intake.NewService(
		transcriber,
		analyzer,
		resolver,
		callStorage,
		cfg.Transcription.MinAudioBytes,
		cfg.Transcription.SpoolDir,
		log,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	aggregationJob := aggregation.NewJob(ctx, callStorage, summaryStorage, analyzer, cfg.Aggregation, log)
	if err := aggregationJob.Start(); err != nil {
		return fmt.Errorf("failed to start aggregation job: %w", err)
	}
	defer aggregationJob.Stop()

	handler := api.NewHandler(
		intakeService,
		analyzer,
		aggregationJob,
		airportStorage,
		callStorage,
		summaryStorage,
		seedAirports,
		int64(cfg.Server.MaxUploadMB)<<20,
		log,
	)
	router := api.NewRouter(handler, cfg, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Routes(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", logger.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server failed: %w", err)
	case sig := <-sigCh:
		log.Info("Shutting down", logger.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}

// newTranscriber creates the transcription backend selected by configuration
func newTranscriber(cfg config.TranscriptionConfig, log *logger.Logger) (transcription.Transcriber, error) {
	switch cfg.Backend {
	case "openai":
		return transcription.NewOpenAIClient(cfg, log)
	case "local":
		return transcription.NewLocalClient(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown transcription backend: %s", cfg.Backend)
	}
}
