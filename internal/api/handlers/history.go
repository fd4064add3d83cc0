package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/petalworks/bloom-server/internal/db"
	"github.com/petalworks/bloom-server/internal/models"
)

// HistoryStore defines the interface for history persistence operations.
type HistoryStore interface {
	UpsertHistoryItem(ctx context.Context, item *models.HistoryItem) (int64, error)
	ListHistoryItems(ctx context.Context, userID string, filter db.HistoryFilter) ([]*models.HistoryItem, error)
	CountHistoryItems(ctx context.Context, userID string, filter db.HistoryFilter) (int64, error)
	UpdateHistoryFrame(ctx context.Context, userID, itemID, frameID string) (int64, error)
}

// HistoryHandler handles generation history HTTP endpoints.
type HistoryHandler struct {
	store  HistoryStore
	logger zerolog.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(store HistoryStore, logger zerolog.Logger) *HistoryHandler {
	return &HistoryHandler{
		store:  store,
		logger: logger.With().Str("component", "history_handler").Logger(),
	}
}

// RegisterRoutes registers history routes on the given router group.
func (h *HistoryHandler) RegisterRoutes(r *gin.RouterGroup) {
	history := r.Group("/history")
	{
		history.GET("/:userId", h.List)
		history.POST("/:userId", h.Save)
		history.POST("/:userId/update-frame", h.UpdateFrame)
	}
}

// HistoryListResponse is the response for listing history items.
type HistoryListResponse struct {
	Items       []*models.HistoryItem `json:"items"`
	TotalPages  int64                 `json:"totalPages"`
	CurrentPage int                   `json:"currentPage"`
	TotalItems  int64                 `json:"totalItems"`
}

// SaveHistoryRequest is the request body for saving a history item.
type SaveHistoryRequest struct {
	ItemID           string     `json:"itemId" binding:"required"`
	Prompt           string     `json:"prompt" binding:"required"`
	ImageURL         string     `json:"imageUrl"`
	OriginalImageURL string     `json:"originalImageUrl"`
	FrameID          string     `json:"frameId"`
	FrameName        string     `json:"frameName"`
	Quality          string     `json:"quality"`
	Width            int        `json:"width"`
	Height           int        `json:"height"`
	Timestamp        *time.Time `json:"timestamp"`
}

// SaveHistoryResponse is the response for saving a history item.
type SaveHistoryResponse struct {
	Success    bool  `json:"success"`
	TotalItems int64 `json:"totalItems"`
}

// UpdateFrameRequest is the request body for updating a history item's frame.
type UpdateFrameRequest struct {
	ItemID  string `json:"itemId" binding:"required"`
	FrameID string `json:"frameId" binding:"required"`
}

// UpdateFrameResponse is the response for updating a history item's frame.
type UpdateFrameResponse struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	UpdatedRows int64  `json:"updatedRows"`
}

// List returns a page of the user's generation history, newest first.
// GET /api/history/:userId
// Query params: page, limit, search
func (h *HistoryHandler) List(c *gin.Context) {
	userID := c.Param("userId")
	page, limit := parsePagination(c)
	search := c.Query("search")

	filter := db.HistoryFilter{
		Search: search,
		Limit:  limit,
		Offset: page * limit,
	}

	items, err := h.store.ListHistoryItems(c.Request.Context(), userID, filter)
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list history items")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	if items == nil {
		items = []*models.HistoryItem{}
	}

	total, err := h.store.CountHistoryItems(c.Request.Context(), userID, db.HistoryFilter{Search: search})
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", userID).Msg("failed to count history items")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}

	c.JSON(http.StatusOK, HistoryListResponse{
		Items:       items,
		TotalPages:  totalPages(total, limit),
		CurrentPage: page,
		TotalItems:  total,
	})
}

// Save inserts a history item, or refreshes it if the item already exists.
// POST /api/history/:userId
func (h *HistoryHandler) Save(c *gin.Context) {
	userID := c.Param("userId")

	var req SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId and prompt are required"})
		return
	}

	item := models.NewHistoryItem(userID, req.ItemID, req.Prompt).
		WithImage(req.ImageURL, req.OriginalImageURL).
		WithFrame(req.FrameID, req.FrameName).
		WithDimensions(req.Width, req.Height, req.Quality)
	if req.Timestamp != nil {
		item.Timestamp = *req.Timestamp
	}

	total, err := h.store.UpsertHistoryItem(c.Request.Context(), item)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", userID).
			Str("item_id", req.ItemID).
			Msg("failed to save history item")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save history item"})
		return
	}

	c.JSON(http.StatusOK, SaveHistoryResponse{
		Success:    true,
		TotalItems: total,
	})
}

// UpdateFrame sets the frame on a single history item owned by the user.
// POST /api/history/:userId/update-frame
func (h *HistoryHandler) UpdateFrame(c *gin.Context) {
	userID := c.Param("userId")

	var req UpdateFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "itemId and frameId are required"})
		return
	}

	updated, err := h.store.UpdateHistoryFrame(c.Request.Context(), userID, req.ItemID, req.FrameID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", userID).
			Str("item_id", req.ItemID).
			Msg("failed to update history frame")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update frame"})
		return
	}

	if updated == 0 {
		c.JSON(http.StatusNotFound, UpdateFrameResponse{
			Success:     false,
			Message:     "History item not found",
			UpdatedRows: 0,
		})
		return
	}

	c.JSON(http.StatusOK, UpdateFrameResponse{
		Success:     true,
		Message:     "Frame updated",
		UpdatedRows: updated,
	})
}
