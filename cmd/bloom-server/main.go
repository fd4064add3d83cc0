// Package main is the entrypoint for the Bloom server, the backend for the
// Bloom design-tool plugin: it stores generation history and redeems
// single-use license keys for flowers.
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

	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/api"
	"github.com/petalworks/bloom-server/internal/config"
	"github.com/petalworks/bloom-server/internal/db"
	"github.com/petalworks/bloom-server/internal/httpclient"
	"github.com/petalworks/bloom-server/internal/license"
	"github.com/petalworks/bloom-server/internal/maintenance"
	"github.com/petalworks/bloom-server/internal/metrics"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	sweepNow := flag.Bool("sweep-now", false, "run a retention sweep immediately and exit")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("version", Version).Logger()
	if os.Getenv("ENVIRONMENT") != string(config.EnvProduction) {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	logger.Info().
		Str("version", Version).
		Str("commit", Commit).
		Str("build_date", BuildDate).
		Msg("Starting Bloom server")

	// Load configuration
	cfg := config.LoadServerConfig()

	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		logger.Warn().Str("log_level", cfg.LogLevel).Msg("Unknown LOG_LEVEL, using info")
	}

	// Connect to database
	if cfg.DatabaseURL == "" {
		logger.Fatal().Msg("DATABASE_URL environment variable is required")
		return 1
	}

	database, err := db.New(ctx, db.DefaultConfig(cfg.DatabaseURL), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
		return 1
	}
	defer database.Close()

	// Run migrations
	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run database migrations")
		return 1
	}

	// Retention sweeper trims history that slipped past the per-save cap
	sweeper := maintenance.NewRetentionSweeper(database, cfg.RetentionSchedule, db.MaxHistoryItemsPerUser, logger)
	if *sweepNow {
		sweeper.RunNow()
		return 0
	}

	// Load the product catalog mapping product IDs to tiers and flower grants
	catalog := license.DefaultCatalog()
	if cfg.CatalogPath != "" {
		catalog, err = license.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load product catalog")
			return 1
		}
		logger.Info().Str("path", cfg.CatalogPath).Int("products", catalog.Size()).Msg("Product catalog loaded")
	}

	// Build the license verifier client, optionally through an egress proxy
	verifierClient, err := httpclient.New(httpclient.Options{
		Timeout:  time.Duration(cfg.LicenseVerifierTimeout) * time.Second,
		ProxyURL: cfg.LicenseVerifierProxy,
		NoProxy:  cfg.NoProxy,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to configure license verifier client")
		return 1
	}
	if cfg.LicenseVerifierProxy != "" {
		logger.Info().
			Str("proxy", httpclient.MaskCredentials(cfg.LicenseVerifierProxy)).
			Msg("License verifier traffic routed through proxy")
	}

	verifier := license.NewHTTPVerifierWithClient(cfg.LicenseVerifierURL, verifierClient, logger)
	redeemer := license.NewService(database, verifier, catalog, logger)

	// Ensure the images directory exists before serving it
	if cfg.ImagesDir != "" {
		if err := os.MkdirAll(cfg.ImagesDir, 0o755); err != nil {
			logger.Fatal().Err(err).Str("dir", cfg.ImagesDir).Msg("Failed to create images directory")
			return 1
		}
	}

	// Prometheus registry with store-backed gauges
	registry := metrics.NewRegistry(database, logger)

	routerCfg := api.Config{
		AllowedOrigins:    cfg.AllowedOrigins,
		Environment:       cfg.Environment,
		RateLimitRequests: cfg.RateLimitRequests,
		RateLimitPeriod:   cfg.RateLimitPeriod,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		ImagesDir:         cfg.ImagesDir,
		Version:           Version,
		Commit:            Commit,
		BuildDate:         BuildDate,
	}

	router, err := api.NewRouter(routerCfg, database, redeemer, registry, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize router")
		return 1
	}

	// Start HTTP server
	listenAddr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           router.Engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", listenAddr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Start retention sweeper
	if err := sweeper.Start(); err != nil {
		logger.Error().Err(err).Msg("Failed to start retention sweeper")
	}
	defer sweeper.Stop()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info().Str("signal", sig.String()).Msg("Shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server shutdown error")
		return 1
	}

	logger.Info().Msg("Server stopped gracefully")
	return 0
}
