package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/app"
	"github.com/yourusername/audio-extract-go/internal/domain"
)

// VideoHandler handles video resolution, extraction and progress requests
type VideoHandler struct {
	service *app.ExtractService
	logger  *zap.Logger
}

// NewVideoHandler creates a new video handler
func NewVideoHandler(service *app.ExtractService, logger *zap.Logger) *VideoHandler {
	return &VideoHandler{
		service: service,
		logger:  logger,
	}
}

// Info handles GET /api/video/info
func (h *VideoHandler) Info(c *gin.Context) {
	videoURL := c.Query("url")
	if videoURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL parameter is required"})
		return
	}

	info, err := h.service.Info(c.Request.Context(), videoURL)
	if err != nil {
		h.writeError(c, "Failed to get video info", err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Progress handles GET /api/video/progress. Unknown ids answer with the idle
// default rather than an error.
func (h *VideoHandler) Progress(c *gin.Context) {
	taskID := c.Query("taskId")
	if taskID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "taskId parameter is required"})
		return
	}

	c.JSON(http.StatusOK, h.service.Progress(taskID))
}

// Download handles GET /api/video/download. The produced file is streamed as
// an attachment and scheduled for deletion once the response is written.
func (h *VideoHandler) Download(c *gin.Context) {
	videoURL := c.Query("url")
	if videoURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL parameter is required"})
		return
	}

	format := domain.AudioFormat(c.DefaultQuery("format", string(domain.FormatMP3)))
	bitrate := c.DefaultQuery("bitrate", "128k")
	taskID := c.Query("taskId")

	result, err := h.service.Download(c.Request.Context(), videoURL, format, bitrate, taskID)
	if err != nil {
		h.writeError(c, "Failed to download video", err)
		return
	}

	c.Header("Content-Type", format.MIMEType())
	c.Header("X-Task-Id", result.TaskID)
	c.FileAttachment(result.Path, result.FileName)

	h.service.ScheduleCleanup(result.Path)
}

// History handles GET /api/video/history
func (h *VideoHandler) History(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}

	records, err := h.service.History(limit)
	if err != nil {
		h.logger.Error("Failed to fetch history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []*domain.ConversionRecord{}
	}

	c.JSON(http.StatusOK, records)
}

// writeError maps the error taxonomy onto the HTTP contract.
func (h *VideoHandler) writeError(c *gin.Context, message string, err error) {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}

	var toolErr *domain.ToolNotFoundError
	if errors.As(err, &toolErr) {
		h.logger.Error("Downloader binary missing", zap.Strings("paths", toolErr.PathsTried))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "yt-dlp not found. Please install yt-dlp: pip install yt-dlp",
			"details": toolErr.Error(),
		})
		return
	}

	var procErr *domain.ExternalProcessError
	if errors.As(err, &procErr) {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":     message,
			"details":   procErr.Details,
			"fullError": procErr.FullLog,
		})
		return
	}

	var parseErr *domain.ParseError
	if errors.As(err, &parseErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse video info"})
		return
	}

	if errors.Is(err, domain.ErrOutputMissing) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Downloaded file not found"})
		return
	}

	h.logger.Error("Unclassified request failure", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":   "Internal server error",
		"details": err.Error(),
	})
}
