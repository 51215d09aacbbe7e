package client

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// Archive packaging names.
const (
	archiveFolder = "converted_audio"
	archiveName   = "audio_converted.zip"
)

// BatchResult is the outcome of one sequencer run: how many items
// converted, how many failed, and the packaged archive when at least one
// item succeeded.
type BatchResult struct {
	Converted   int
	Failed      int
	ArchiveName string
	Archive     []byte
	Errors      []error
}

// Sequencer drains a queue of file items through the transcoder, strictly
// one at a time, and zips the successful outputs. Progress is reported as
// an overall percentage across the batch.
type Sequencer struct {
	transcoder *Transcoder
	estimator  *Estimator
	logger     *zap.Logger
}

// NewSequencer creates a sequencer over a transcoder and a progress
// estimator.
func NewSequencer(transcoder *Transcoder, estimator *Estimator, logger *zap.Logger) *Sequencer {
	return &Sequencer{transcoder: transcoder, estimator: estimator, logger: logger}
}

// Run converts every idle item in the queue. Items already done, errored,
// or in flight are skipped, so re-invoking after a partial failure only
// retries nothing and converts newly queued items. A failing item is
// marked, recorded, and does not stop the batch. When no item succeeds the
// returned error summarizes the failures; otherwise the archive bytes are
// populated.
func (s *Sequencer) Run(ctx context.Context, items []*FileItem, settings domain.ConversionSettings, onProgress func(int)) (*BatchResult, error) {
	var targets []*FileItem
	for _, item := range items {
		if item.Status == ItemIdle {
			targets = append(targets, item)
		}
	}
	if len(targets) == 0 {
		return nil, &domain.ValidationError{Param: "items"}
	}

	result := &BatchResult{}
	total := len(targets)

	for i, item := range targets {
		item.Status = ItemProcessing
		base := i * 100 / total

		if s.estimator != nil {
			s.estimator.Start(ctx, func(v int) {
				if onProgress != nil {
					onProgress(base + v/total)
				}
			})
		}

		blob, err := s.transcoder.Transcode(ctx, item, settings)

		if s.estimator != nil {
			s.estimator.Stop()
		}

		if err != nil {
			item.Status = ItemError
			result.Failed++
			convErr := &domain.ConversionError{ItemID: item.ID, FileName: item.File.Name, Err: err}
			result.Errors = append(result.Errors, convErr)
			s.logger.Error("Conversion failed",
				zap.String("item_id", item.ID),
				zap.String("file", item.File.Name),
				zap.Error(err))
			continue
		}

		item.Status = ItemDone
		item.OutputBlob = blob
		item.OutputSize = blob.Size()
		result.Converted++

		if onProgress != nil {
			onProgress((i + 1) * 100 / total)
		}
	}

	if result.Converted == 0 {
		return result, fmt.Errorf("all %d conversions failed: %v", total, result.Errors)
	}

	archive, err := packageArchive(targets, settings)
	if err != nil {
		return result, fmt.Errorf("failed to package archive: %w", err)
	}
	result.Archive = archive
	result.ArchiveName = archiveName

	if onProgress != nil {
		onProgress(100)
	}
	return result, nil
}

// packageArchive zips all successful outputs under a single folder, each
// entry named after the source file with the bitrate annotated.
func packageArchive(items []*FileItem, settings domain.ConversionSettings) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, item := range items {
		if item.Status != ItemDone || item.OutputBlob == nil {
			continue
		}
		entry := fmt.Sprintf("%s/%s", archiveFolder, entryName(item.File.Name, settings))
		w, err := zw.Create(entry)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(item.OutputBlob.Data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func entryName(fileName string, settings domain.ConversionSettings) string {
	stem := fileName
	if idx := strings.LastIndex(stem, "."); idx >= 0 {
		stem = stem[:idx]
	}
	if stem == "" {
		stem = "audio"
	}
	return fmt.Sprintf("%s_(%s).%s", stem, settings.Bitrate, settings.Format)
}
