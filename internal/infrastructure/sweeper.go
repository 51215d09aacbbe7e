package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Sweeper periodically deletes temp files older than a maximum age. It races
// with the post-stream cleanup by design; a file that is already gone counts
// as swept.
type Sweeper struct {
	dir      string
	maxAge   time.Duration
	interval time.Duration
	logger   *zap.Logger
}

// NewSweeper creates a sweeper for the given temp directory
func NewSweeper(dir string, maxAge, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		dir:      dir,
		maxAge:   maxAge,
		interval: interval,
		logger:   logger,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("Sweeper stopped")
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Sweep performs a single pass and returns how many files were removed.
func (s *Sweeper) Sweep() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("Failed to list temp directory", zap.String("dir", s.dir), zap.Error(err))
		return 0
	}

	removed := 0
	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// entry vanished between ReadDir and Info
			continue
		}
		if now.Sub(info.ModTime()) <= s.maxAge {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			if !os.IsNotExist(err) {
				s.logger.Warn("Failed to delete old file", zap.String("path", path), zap.Error(err))
			}
			continue
		}
		removed++
		s.logger.Info("Deleted old file", zap.String("file", entry.Name()))
	}
	return removed
}
