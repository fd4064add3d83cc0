package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/license"
	"github.com/petalworks/bloom-server/internal/models"
)

// LicenseRedeemer defines the interface for redeeming license keys.
type LicenseRedeemer interface {
	Redeem(ctx context.Context, productID, licenseKey, userID string) (*license.RedemptionResult, error)
}

// LicenseHandler handles license verification HTTP endpoints.
type LicenseHandler struct {
	redeemer LicenseRedeemer
	logger   zerolog.Logger
}

// NewLicenseHandler creates a new LicenseHandler.
func NewLicenseHandler(redeemer LicenseRedeemer, logger zerolog.Logger) *LicenseHandler {
	return &LicenseHandler{
		redeemer: redeemer,
		logger:   logger.With().Str("component", "license_handler").Logger(),
	}
}

// RegisterRoutes registers license routes on the given router group.
func (h *LicenseHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/verify-license", h.Verify)
}

// VerifyLicenseRequest is the request body for license verification.
type VerifyLicenseRequest struct {
	ProductID  string `json:"productId" binding:"required"`
	LicenseKey string `json:"licenseKey" binding:"required"`
	UserID     string `json:"userId" binding:"required"`
}

// VerifyLicenseResponse is the response for a successful redemption.
type VerifyLicenseResponse struct {
	Success  bool                   `json:"success"`
	Message  string                 `json:"message,omitempty"`
	Tier     models.Tier            `json:"tier"`
	Flowers  int                    `json:"flowers"`
	Purchase map[string]interface{} `json:"purchase,omitempty"`
}

// Verify validates a license key against the upstream verifier and grants
// flowers on first use.
// POST /api/verify-license
func (h *LicenseHandler) Verify(c *gin.Context) {
	var req VerifyLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId, licenseKey and userId are required"})
		return
	}

	result, err := h.redeemer.Redeem(c.Request.Context(), req.ProductID, req.LicenseKey, req.UserID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("product_id", req.ProductID).
			Str("user_id", req.UserID).
			Msg("license redemption failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "License verification is temporarily unavailable",
		})
		return
	}

	if !result.Success {
		resp := gin.H{
			"success": false,
			"message": result.Message,
		}
		if result.AlreadyUsed {
			resp["alreadyUsed"] = true
			resp["userId"] = result.UserID
			resp["activatedAt"] = result.ActivatedAt
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusOK, VerifyLicenseResponse{
		Success:  true,
		Message:  result.Message,
		Tier:     result.Tier,
		Flowers:  result.Flowers,
		Purchase: result.Purchase,
	})
}
