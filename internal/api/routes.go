// Package api provides the HTTP API for the Bloom server.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/api/handlers"
	"github.com/petalworks/bloom-server/internal/api/middleware"
	"github.com/petalworks/bloom-server/internal/config"
	"github.com/petalworks/bloom-server/internal/db"
	"github.com/petalworks/bloom-server/internal/license"
	"github.com/petalworks/bloom-server/internal/metrics"
)

// Config holds configuration for the API router.
type Config struct {
	// AllowedOrigins for CORS. Empty means all origins allowed outside production.
	AllowedOrigins []string
	// Environment controls CORS strictness and error verbosity.
	Environment config.Environment
	// RateLimitRequests is the number of requests allowed per period.
	RateLimitRequests int64
	// RateLimitPeriod is the duration string for rate limiting (e.g. "1m", "1h").
	RateLimitPeriod string
	// MaxBodyBytes caps the size of request bodies on API endpoints.
	MaxBodyBytes int64
	// ImagesDir is served read-only under /images. Empty disables static serving.
	ImagesDir string
	// Version information for the version endpoint.
	Version   string
	Commit    string
	BuildDate string
}

// DefaultConfig returns a Config with sensible defaults for development.
func DefaultConfig() Config {
	return Config{
		AllowedOrigins:    []string{},
		Environment:       config.EnvDevelopment,
		RateLimitRequests: 100,
		RateLimitPeriod:   "1m",
		MaxBodyBytes:      10 << 20,
		ImagesDir:         "./images",
		Version:           "dev",
		Commit:            "unknown",
		BuildDate:         "unknown",
	}
}

// Router wraps a Gin engine with configured middleware and routes.
type Router struct {
	Engine *gin.Engine
	logger zerolog.Logger
	db     *db.DB
}

// NewRouter creates a new Router with the given dependencies. The metrics
// registry may be nil to disable instrumentation.
func NewRouter(
	cfg Config,
	database *db.DB,
	redeemer *license.Service,
	registry *metrics.Registry,
	logger zerolog.Logger,
) (*Router, error) {
	r := &Router{
		Engine: gin.New(),
		logger: logger.With().Str("component", "router").Logger(),
		db:     database,
	}

	// Global middleware
	r.Engine.Use(gin.Recovery())
	r.Engine.Use(middleware.RequestLogger(logger))
	r.Engine.Use(middleware.CORS(cfg.AllowedOrigins, cfg.Environment))
	if registry != nil {
		r.Engine.Use(middleware.Metrics(registry))
	}

	// Health check endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(database, logger)
	healthHandler.RegisterPublicRoutes(r.Engine)

	// Prometheus metrics endpoint (no auth required)
	if registry != nil {
		r.Engine.GET("/metrics", gin.WrapH(registry.Handler()))
	}

	// Version endpoint (no auth required)
	versionHandler := handlers.NewVersionHandler(cfg.Version, cfg.Commit, cfg.BuildDate)
	versionHandler.RegisterPublicRoutes(r.Engine)

	// Generated artwork files
	if cfg.ImagesDir != "" {
		r.Engine.Static("/images", cfg.ImagesDir)
	}

	// API routes
	apiGroup := r.Engine.Group("/api")

	rateLimiter, err := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitPeriod)
	if err != nil {
		return nil, err
	}
	apiGroup.Use(rateLimiter)
	if cfg.MaxBodyBytes > 0 {
		apiGroup.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	}

	historyHandler := handlers.NewHistoryHandler(database, logger)
	historyHandler.RegisterRoutes(apiGroup)

	licenseHandler := handlers.NewLicenseHandler(redeemer, logger)
	licenseHandler.RegisterRoutes(apiGroup)

	adminHandler := handlers.NewAdminHandler(database, logger)
	adminHandler.RegisterRoutes(apiGroup)

	r.logger.Info().Msg("API router initialized")
	return r, nil
}
