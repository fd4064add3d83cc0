package handlers

import (
	"net/http"
	"runtime"

	"github.com/gin-gonic/gin"
)

// VersionInfo contains build version details.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// VersionHandler handles version HTTP endpoints.
type VersionHandler struct {
	info VersionInfo
}

// NewVersionHandler creates a new VersionHandler.
func NewVersionHandler(version, commit, buildDate string) *VersionHandler {
	return &VersionHandler{
		info: VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
			GoVersion: runtime.Version(),
		},
	}
}

// RegisterPublicRoutes registers version endpoints that do not require authentication.
func (h *VersionHandler) RegisterPublicRoutes(r *gin.Engine) {
	r.GET("/version", h.Version)
}

// Version returns build version information.
// GET /version
func (h *VersionHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, h.info)
}
