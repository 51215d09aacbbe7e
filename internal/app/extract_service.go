package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
)

// ExtractService orchestrates metadata resolution and audio extraction.
// Concurrent extractions are admission-controlled by a semaphore sized from
// config; requests past the limit queue until a slot frees or their context
// is cancelled.
type ExtractService struct {
	tasks   domain.TaskStore
	ytdlp   *infrastructure.YTDLP
	history domain.HistoryRepository // optional, may be nil
	config  *domain.DownloadConfig
	logger  *zap.Logger
	sem     chan struct{}
}

// NewExtractService creates a new extract service
func NewExtractService(
	tasks domain.TaskStore,
	ytdlp *infrastructure.YTDLP,
	history domain.HistoryRepository,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *ExtractService {
	limit := config.MaxConcurrent
	if limit < 1 {
		limit = 1
	}
	return &ExtractService{
		tasks:   tasks,
		ytdlp:   ytdlp,
		history: history,
		config:  config,
		logger:  logger,
		sem:     make(chan struct{}, limit),
	}
}

// Info resolves video metadata for a URL.
func (s *ExtractService) Info(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	if videoURL == "" {
		return nil, domain.NewValidationError("url")
	}
	return s.ytdlp.Info(ctx, videoURL)
}

// Progress is a pure lookup. Unknown ids report the idle default; an absent
// entry means the task has not started or is already gone.
func (s *ExtractService) Progress(taskID string) domain.Task {
	if task, ok := s.tasks.Get(taskID); ok {
		return task
	}
	return domain.IdleTask()
}

// DownloadResult describes a finished extraction ready for streaming.
type DownloadResult struct {
	Path     string
	FileName string
	Size     int64
	TaskID   string
}

// Download runs one extraction end to end: registers the task, invokes the
// downloader with progress scraping, marks completion, and verifies the
// output file. The caller streams the file and must call ScheduleCleanup
// once the stream ends. The external process is never retried here.
func (s *ExtractService) Download(ctx context.Context, videoURL string, format domain.AudioFormat, bitrate, taskID string) (*DownloadResult, error) {
	if videoURL == "" {
		return nil, domain.NewValidationError("url")
	}
	if !domain.ValidateFormat(format) {
		format = domain.FormatMP3
	}
	if bitrate == "" {
		bitrate = "128k"
	}

	videoID := domain.ExtractVideoID(videoURL)
	if taskID == "" {
		taskID = domain.SynthesizeTaskID(videoID)
	}
	outputPath := filepath.Join(s.config.TempDir, fmt.Sprintf("%s.%s", videoID, format))

	if err := os.MkdirAll(s.config.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	s.tasks.Set(taskID, domain.Task{Progress: 0, Status: domain.StatusDownloading})

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.tasks.Delete(taskID)
		return nil, ctx.Err()
	}

	started := time.Now()
	err := s.ytdlp.Download(ctx, videoURL, format, bitrate, outputPath, func(percent float64) {
		s.tasks.Set(taskID, domain.Task{
			Progress: domain.ClampProgress(percent),
			Status:   domain.StatusDownloading,
		})
	})
	if err != nil {
		s.tasks.Delete(taskID)
		return nil, err
	}

	s.tasks.Set(taskID, domain.Task{Progress: 100, Status: domain.StatusCompleted})
	// keep the completed state visible so a final poll can observe it
	time.AfterFunc(s.config.TaskGrace, func() { s.tasks.Delete(taskID) })

	stat, statErr := os.Stat(outputPath)
	if statErr != nil {
		return nil, domain.ErrOutputMissing
	}

	s.logger.Info("Extraction completed",
		zap.String("task_id", taskID),
		zap.String("file", filepath.Base(outputPath)),
		zap.Int64("size", stat.Size()),
		zap.Duration("elapsed", time.Since(started)))

	s.recordHistory(videoURL, videoID, format, bitrate, stat.Size(), time.Since(started))

	return &DownloadResult{
		Path:     outputPath,
		FileName: filepath.Base(outputPath),
		Size:     stat.Size(),
		TaskID:   taskID,
	}, nil
}

// ScheduleCleanup deletes a temp file after the configured delay. The delay
// avoids truncating an in-flight stream on slow clients; the sweeper catches
// anything this misses.
func (s *ExtractService) ScheduleCleanup(path string) {
	time.AfterFunc(s.config.CleanupDelay, func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to delete temp file", zap.String("path", path), zap.Error(err))
			return
		}
		s.logger.Info("Deleted temporary file", zap.String("path", path))
	})
}

// History returns the most recent conversion records.
func (s *ExtractService) History(limit int) ([]*domain.ConversionRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.Recent(limit)
}

// ResolvedBinary exposes the downloader path for health diagnostics.
func (s *ExtractService) ResolvedBinary() (string, error) {
	return s.ytdlp.Resolve()
}

func (s *ExtractService) recordHistory(videoURL, videoID string, format domain.AudioFormat, bitrate string, size int64, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	record := &domain.ConversionRecord{
		ID:        uuid.New().String(),
		VideoID:   videoID,
		URL:       videoURL,
		Format:    format,
		Bitrate:   bitrate,
		SizeBytes: size,
		Elapsed:   elapsed.Seconds(),
	}
	if err := s.history.Record(record); err != nil {
		s.logger.Warn("Failed to record conversion history", zap.Error(err))
	}
}
