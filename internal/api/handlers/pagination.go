package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultPageSize is used when the client does not specify a limit.
	DefaultPageSize = 20
	// MaxPageSize caps the number of records a single page may return.
	// A limit of 0 bypasses the cap and returns all matching records.
	MaxPageSize = 100
)

// parsePagination reads zero-based page and limit query parameters.
// Invalid values fall back to the defaults rather than failing the request.
func parsePagination(c *gin.Context) (page, limit int) {
	limit = DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			limit = v
		}
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if raw := c.Query("page"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			page = v
		}
	}

	return page, limit
}

// totalPages computes the page count for a result set. A limit of 0 means
// the whole set fits on one page.
func totalPages(total int64, limit int) int64 {
	if total <= 0 {
		return 0
	}
	if limit <= 0 {
		return 1
	}
	return (total + int64(limit) - 1) / int64(limit)
}
