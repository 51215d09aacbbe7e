package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/app"
	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	config := &domain.DownloadConfig{
		TempDir:       t.TempDir(),
		MaxFileAge:    time.Hour,
		SweepInterval: time.Minute,
		MaxConcurrent: 2,
		TaskGrace:     time.Second,
		CleanupDelay:  100 * time.Millisecond,
		MaxTasks:      16,
	}
	ytdlp := infrastructure.NewYTDLP(&domain.YTDLPConfig{}, zap.NewNop())
	service := app.NewExtractService(app.NewMemoryTaskStore(16), ytdlp, nil, config, zap.NewNop())

	handler := NewVideoHandler(service, zap.NewNop())
	healthHandler := NewHealthHandler(service)

	router := gin.New()
	router.GET("/api/health", healthHandler.Health)
	router.GET("/api/video/info", handler.Info)
	router.GET("/api/video/progress", handler.Progress)
	router.GET("/api/video/download", handler.Download)
	router.GET("/api/video/history", handler.History)
	return router
}

func installFakeDownloader(t *testing.T, script string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	t.Setenv("YTDLP_PATH", path)
}

func TestInfoMissingURL(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/video/info", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "URL parameter is required", body["error"])
}

func TestProgressMissingTaskID(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/video/progress", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProgressUnknownTaskReportsIdle(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/video/progress?taskId=nope", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var task domain.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &task))
	assert.Equal(t, domain.StatusIdle, task.Status)
	assert.Equal(t, 0, task.Progress)
}

func TestDownloadMissingURL(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/video/download", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDownloadStreamsFile(t *testing.T) {
	installFakeDownloader(t, `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--output" ]; then out="$a"; fi
  prev="$a"
done
printf 'audio payload' > "$out"
`)
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/video/download?url=https%3A%2F%2Fwww.youtube.com%2Fwatch%3Fv%3Dabc&format=mp3&taskId=task-9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "task-9", w.Header().Get("X-Task-Id"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "abc.mp3")
	assert.Equal(t, "audio payload", w.Body.String())
}

func TestDownloadProcessFailureResponse(t *testing.T) {
	installFakeDownloader(t, `#!/bin/sh
echo "ERROR: Sign in to confirm" >&2
exit 1
`)
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/video/download?url=https%3A%2F%2Fwww.youtube.com%2Fwatch%3Fv%3Dabc", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to download video", body["error"])
	assert.Contains(t, body["details"], "ERROR: Sign in to confirm")
	assert.NotEmpty(t, body["fullError"])
}

func TestHistoryWithoutRepository(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/video/history", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "Server is running", body["message"])
}
