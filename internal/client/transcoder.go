package client

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// Transcoder runs one item at a time through the shared engine. The job
// mutex is what enforces the one-conversion-at-a-time rule: the engine's
// virtual filesystem is private to the job holding the lock.
type Transcoder struct {
	jobMu  sync.Mutex
	engine *Engine
	logger *zap.Logger
}

// NewTranscoder wraps an engine for serialized transcoding.
func NewTranscoder(engine *Engine, logger *zap.Logger) *Transcoder {
	return &Transcoder{engine: engine, logger: logger}
}

// Transcode converts one item's bytes to the target format. Input and
// output names are derived from the item id so concurrent callers blocked
// on the job mutex can never collide. Both virtual files are removed before
// returning, success or not.
func (t *Transcoder) Transcode(ctx context.Context, item *FileItem, settings domain.ConversionSettings) (*Blob, error) {
	t.jobMu.Lock()
	defer t.jobMu.Unlock()

	ext := filepath.Ext(item.File.Name)
	if ext == "" {
		ext = ".bin"
	}
	inputName := fmt.Sprintf("input_%s%s", item.ID, ext)
	outputName := fmt.Sprintf("output_%s.%s", item.ID, settings.Format)

	defer func() {
		t.engine.RemoveFile(inputName)
		t.engine.RemoveFile(outputName)
	}()

	if err := t.engine.WriteFile(inputName, item.File.Data); err != nil {
		return nil, fmt.Errorf("failed to stage input: %w", err)
	}

	args := []string{"-i", inputName}
	if settings.Format.TakesBitrate() {
		args = append(args, "-b:a", settings.Bitrate)
	}
	args = append(args, outputName)

	t.logger.Debug("Transcoding item",
		zap.String("item_id", item.ID),
		zap.String("file", item.File.Name),
		zap.String("format", string(settings.Format)))

	if err := t.engine.Exec(ctx, args); err != nil {
		return nil, err
	}

	data, err := t.engine.ReadFile(outputName)
	if err != nil {
		return nil, fmt.Errorf("failed to read output: %w", err)
	}

	return &Blob{Data: data, MIME: settings.Format.MIMEType()}, nil
}
