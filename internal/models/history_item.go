package models

import (
	"time"

	"github.com/google/uuid"
)

// HistoryItem represents one generated artwork in a user's history.
// ItemID is assigned by the plugin client and is unique across all users;
// resubmitting an existing ItemID updates the stored record in place.
type HistoryItem struct {
	ID               uuid.UUID `json:"id"`
	UserID           string    `json:"userId"`
	ItemID           string    `json:"itemId"`
	Prompt           string    `json:"prompt"`
	ImageURL         string    `json:"imageUrl,omitempty"`
	OriginalImageURL string    `json:"originalImageUrl,omitempty"`
	FrameID          string    `json:"frameId,omitempty"`
	FrameName        string    `json:"frameName,omitempty"`
	Quality          string    `json:"quality,omitempty"`
	Width            int       `json:"width,omitempty"`
	Height           int       `json:"height,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewHistoryItem creates a new HistoryItem for the given user.
func NewHistoryItem(userID, itemID, prompt string) *HistoryItem {
	now := time.Now()
	return &HistoryItem{
		ID:        uuid.New(),
		UserID:    userID,
		ItemID:    itemID,
		Prompt:    prompt,
		Timestamp: now,
		CreatedAt: now,
	}
}

// WithImage sets the rendered and original image URLs.
func (h *HistoryItem) WithImage(imageURL, originalImageURL string) *HistoryItem {
	h.ImageURL = imageURL
	h.OriginalImageURL = originalImageURL
	return h
}

// WithFrame sets the frame the item was placed into.
func (h *HistoryItem) WithFrame(frameID, frameName string) *HistoryItem {
	h.FrameID = frameID
	h.FrameName = frameName
	return h
}

// WithDimensions sets the rendered size and quality preset.
func (h *HistoryItem) WithDimensions(width, height int, quality string) *HistoryItem {
	h.Width = width
	h.Height = height
	h.Quality = quality
	return h
}
