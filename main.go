package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	database "github.com/FACorreiaa/go-poi-enrichment/app/db"
	appLogger "github.com/FACorreiaa/go-poi-enrichment/app/logger"
	"github.com/FACorreiaa/go-poi-enrichment/app/observability/metrics"
	"github.com/FACorreiaa/go-poi-enrichment/app/tracer"
	"github.com/FACorreiaa/go-poi-enrichment/config"
	"github.com/FACorreiaa/go-poi-enrichment/internal/api/enrichment"
	"github.com/FACorreiaa/go-poi-enrichment/internal/api/placedata"

	"github.com/joho/godotenv"
)

func main() {
	// --- Initial Loading ---
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	// --- Logger Setup ---
	logger := appLogger.Setup(cfg.Mode)
	slog.SetDefault(logger)

	// --- Application Context & Shutdown ---
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Database Setup ---
	dbConfig, err := database.NewDatabaseConfig(&cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		os.Exit(1)
	}

	// Run migrations *before* initializing the main pool
	err = database.RunMigrations(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		os.Exit(1)
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if !database.WaitForDB(ctx, pool, logger) {
		logger.Error("Database not ready after waiting, exiting.")
		os.Exit(1)
	}

	// --- Dependency Injection ---
	foursquare := placedata.NewFoursquareClient(cfg.Providers.Foursquare.BaseURL, cfg.Providers.Foursquare.Timeout, logger)
	tripadvisor := placedata.NewTripAdvisorClient(cfg.Providers.TripAdvisor.BaseURL, cfg.Providers.TripAdvisor.Timeout, logger)

	repo := enrichment.NewRepository(pool, logger)
	fetcher := enrichment.NewFetcher(foursquare, tripadvisor, logger)
	service := enrichment.NewService(repo, fetcher, &enrichment.ActivityPOIExtractor{}, cfg.Enrichment, metrics.Get(), logger)

	// --- Expiry Sweeper ---
	// Out-of-band reclamation; the read path handles expiry lazily on its own.
	go runSweeper(ctx, service, cfg.Enrichment.SweeperInterval, logger)

	logger.Info("POI enrichment engine started",
		slog.Int("cache_expiry_days", cfg.Enrichment.CacheExpiryDays),
		slog.Int("window_size", cfg.Enrichment.MaxParallelRequests),
		slog.Duration("sweeper_interval", cfg.Enrichment.SweeperInterval))

	// --- Wait for Shutdown Signal ---
	<-ctx.Done()

	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// One last reclamation pass before the pool closes.
	if deleted, err := service.CleanupExpired(shutdownCtx); err != nil {
		logger.Warn("Final cleanup pass failed", slog.Any("error", err))
	} else {
		logger.Info("Final cleanup pass complete", slog.Int64("deleted", deleted))
	}

	logger.Info("Application shut down complete.")
}

// runSweeper invokes the expiry sweeper on a fixed interval until the
// application context is cancelled.
func runSweeper(ctx context.Context, service enrichment.Service, interval time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deleted, err := service.CleanupExpired(ctx)
			if err != nil {
				logger.Error("Expiry sweep failed", slog.Any("error", err))
				continue
			}
			logger.Info("Expiry sweep complete", slog.Int64("deleted", deleted))
		}
	}
}
