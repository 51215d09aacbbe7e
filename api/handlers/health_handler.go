package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/audio-extract-go/internal/app"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	service *app.ExtractService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service *app.ExtractService) *HealthHandler {
	return &HealthHandler{
		service: service,
	}
}

// Health handles GET /api/health
func (h *HealthHandler) Health(c *gin.Context) {
	response := gin.H{
		"status":  "ok",
		"message": "Server is running",
	}
	if binary, err := h.service.ResolvedBinary(); err == nil {
		response["downloader"] = binary
	}

	c.JSON(http.StatusOK, response)
}
