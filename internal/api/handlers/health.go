package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	// HealthStatusHealthy indicates the component is functioning normally.
	HealthStatusHealthy HealthStatus = "healthy"
	// HealthStatusUnhealthy indicates the component is not functioning.
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// healthCheckTimeout bounds how long a single dependency probe may take.
const healthCheckTimeout = 5 * time.Second

// HealthCheckResult contains the result of a single health check.
type HealthCheckResult struct {
	Status   HealthStatus   `json:"status"`
	Duration string         `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// HealthResponse is the response body for health check endpoints.
type HealthResponse struct {
	Status HealthStatus                 `json:"status"`
	Checks map[string]HealthCheckResult `json:"checks"`
	Error  string                       `json:"error,omitempty"`
}

// DatabaseHealthChecker defines the interface for checking database health.
type DatabaseHealthChecker interface {
	Ping(ctx context.Context) error
	Health() map[string]any
}

// HealthHandler handles health check HTTP endpoints.
type HealthHandler struct {
	db     DatabaseHealthChecker
	logger zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DatabaseHealthChecker, logger zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		db:     db,
		logger: logger.With().Str("component", "health_handler").Logger(),
	}
}

// RegisterPublicRoutes registers health endpoints that do not require authentication.
func (h *HealthHandler) RegisterPublicRoutes(r *gin.Engine) {
	health := r.Group("/health")
	{
		health.GET("", h.Health)
		health.GET("/db", h.DatabaseHealth)
	}
}

// Health returns the overall service health including all dependencies.
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	checks := map[string]HealthCheckResult{
		"database": h.checkDatabase(c.Request.Context()),
	}

	status := HealthStatusHealthy
	for _, check := range checks {
		if check.Status != HealthStatusHealthy {
			status = HealthStatusUnhealthy
			break
		}
	}

	code := http.StatusOK
	if status != HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, HealthResponse{
		Status: status,
		Checks: checks,
	})
}

// DatabaseHealth returns the health of the database connection only.
// GET /health/db
func (h *HealthHandler) DatabaseHealth(c *gin.Context) {
	check := h.checkDatabase(c.Request.Context())

	code := http.StatusOK
	if check.Status != HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, check)
}

func (h *HealthHandler) checkDatabase(ctx context.Context) HealthCheckResult {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	result := HealthCheckResult{
		Status: HealthStatusHealthy,
	}

	if h.db == nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "database not configured"
		result.Duration = time.Since(start).String()
		return result
	}

	err := h.db.Ping(ctx)
	result.Duration = time.Since(start).String()

	if err != nil {
		result.Status = HealthStatusUnhealthy
		result.Error = "database ping failed"
		h.logger.Warn().Err(err).Msg("database health check failed")
		return result
	}

	result.Details = h.db.Health()
	return result
}
