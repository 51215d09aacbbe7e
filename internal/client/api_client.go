package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// Hostnames accepted as video sources.
var allowedHosts = map[string]bool{
	"www.youtube.com": true,
	"youtube.com":     true,
	"m.youtube.com":   true,
	"youtu.be":        true,
	"www.youtu.be":    true,
}

// IsValidVideoURL reports whether the given string is a well-formed URL on
// a supported video host.
func IsValidVideoURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return allowedHosts[u.Hostname()]
}

var unsafeTitleChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// SafeTitle sanitizes a video title into a filename-safe stem.
func SafeTitle(title string) string {
	safe := unsafeTitleChars.ReplaceAllString(title, "_")
	if len(safe) > 50 {
		safe = safe[:50]
	}
	return safe
}

// DownloadedAudio is the outcome of one server-side extraction: the audio
// bytes plus a suggested local filename.
type DownloadedAudio struct {
	Data     []byte
	FileName string
	TaskID   string
}

// APIClient talks to the extraction server's HTTP API.
type APIClient struct {
	baseURL      string
	client       *http.Client
	pollInterval time.Duration
	logger       *zap.Logger
}

// NewAPIClient creates a client for the server at baseURL.
func NewAPIClient(baseURL string, logger *zap.Logger) *APIClient {
	return &APIClient{
		baseURL:      strings.TrimRight(baseURL, "/"),
		client:       &http.Client{Timeout: 10 * time.Minute},
		pollInterval: time.Second,
		logger:       logger,
	}
}

// Info fetches video metadata without downloading anything.
func (c *APIClient) Info(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	if !IsValidVideoURL(videoURL) {
		return nil, &domain.ValidationError{Param: "url"}
	}

	endpoint := fmt.Sprintf("%s/api/video/info?url=%s", c.baseURL, url.QueryEscape(videoURL))
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var info domain.VideoInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("failed to decode video info: %w", err)
	}
	return &info, nil
}

// Progress fetches the server-side progress snapshot for a task.
func (c *APIClient) Progress(ctx context.Context, taskID string) (*domain.Task, error) {
	endpoint := fmt.Sprintf("%s/api/video/progress?taskId=%s", c.baseURL, url.QueryEscape(taskID))
	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	var task domain.Task
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return nil, fmt.Errorf("failed to decode progress: %w", err)
	}
	return &task, nil
}

// Download asks the server to extract audio and streams the result back.
// A task id is synthesized up front so server progress can be polled while
// the long request is in flight; onProgress receives each polled value and
// the poller stops as soon as the download resolves either way.
func (c *APIClient) Download(ctx context.Context, videoURL string, settings domain.ConversionSettings, onProgress func(int)) (*DownloadedAudio, error) {
	if !IsValidVideoURL(videoURL) {
		return nil, &domain.ValidationError{Param: "url"}
	}
	if !domain.ValidateFormat(settings.Format) {
		return nil, domain.NewValidationError("format")
	}

	taskID := domain.SynthesizeTaskID(domain.ExtractVideoID(videoURL))

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	if onProgress != nil {
		go c.pollProgress(pollCtx, taskID, onProgress)
	}

	endpoint := fmt.Sprintf("%s/api/video/download?url=%s&format=%s&bitrate=%s&taskId=%s",
		c.baseURL,
		url.QueryEscape(videoURL),
		url.QueryEscape(string(settings.Format)),
		url.QueryEscape(settings.Bitrate),
		url.QueryEscape(taskID))

	resp, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	stopPolling()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeAPIError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio stream: %w", err)
	}

	if onProgress != nil {
		onProgress(100)
	}

	return &DownloadedAudio{
		Data:     data,
		FileName: fileNameFromResponse(resp, settings),
		TaskID:   taskID,
	}, nil
}

func (c *APIClient) pollProgress(ctx context.Context, taskID string, onProgress func(int)) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task, err := c.Progress(ctx, taskID)
			if err != nil {
				continue
			}
			onProgress(task.Progress)
		}
	}
}

func (c *APIClient) get(ctx context.Context, endpoint string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	return c.client.Do(req)
}

var contentDispositionName = regexp.MustCompile(`filename="?([^";]+)"?`)

func fileNameFromResponse(resp *http.Response, settings domain.ConversionSettings) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if m := contentDispositionName.FindStringSubmatch(cd); m != nil {
			return m[1]
		}
	}
	return fmt.Sprintf("audio.%s", settings.Format)
}

func decodeAPIError(resp *http.Response) error {
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil || body.Error == "" {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	if body.Details != "" {
		return fmt.Errorf("%s: %s", body.Error, body.Details)
	}
	return fmt.Errorf("%s", body.Error)
}
