package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/models"
)

// ActivationStore defines the interface for license activation listing.
type ActivationStore interface {
	ListActivations(ctx context.Context, limit, offset int) ([]*models.Activation, error)
	CountActivations(ctx context.Context) (int64, error)
}

// AdminHandler handles administrative HTTP endpoints.
type AdminHandler struct {
	store  ActivationStore
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(store ActivationStore, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		logger: logger.With().Str("component", "admin_handler").Logger(),
	}
}

// RegisterRoutes registers admin routes on the given router group.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("/admin")
	{
		admin.GET("/licenses", h.ListLicenses)
	}
}

// LicenseListResponse is the response for listing license activations.
type LicenseListResponse struct {
	Licenses    []*models.Activation `json:"licenses"`
	TotalItems  int64                `json:"totalItems"`
	TotalPages  int64                `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
}

// ListLicenses returns a page of license activations, newest first.
// GET /api/admin/licenses
// Query params: page, limit
func (h *AdminHandler) ListLicenses(c *gin.Context) {
	page, limit := parsePagination(c)

	activations, err := h.store.ListActivations(c.Request.Context(), limit, page*limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list license activations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load licenses"})
		return
	}
	if activations == nil {
		activations = []*models.Activation{}
	}

	total, err := h.store.CountActivations(c.Request.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to count license activations")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load licenses"})
		return
	}

	c.JSON(http.StatusOK, LicenseListResponse{
		Licenses:    activations,
		TotalItems:  total,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
	})
}
