package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
	"github.com/yourusername/audio-extract-go/internal/infrastructure"
)

// writeFakeDownloader drops an executable shell script standing in for the
// downloader binary and points YTDLP_PATH at it.
func writeFakeDownloader(t *testing.T, script string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yt-dlp")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	t.Setenv("YTDLP_PATH", path)
	return path
}

func newTestService(t *testing.T, config *domain.DownloadConfig) *ExtractService {
	t.Helper()
	ytdlp := infrastructure.NewYTDLP(&domain.YTDLPConfig{}, zap.NewNop())
	return NewExtractService(NewMemoryTaskStore(16), ytdlp, nil, config, zap.NewNop())
}

func testDownloadConfig(t *testing.T) *domain.DownloadConfig {
	return &domain.DownloadConfig{
		TempDir:       t.TempDir(),
		MaxFileAge:    time.Hour,
		SweepInterval: time.Minute,
		MaxConcurrent: 2,
		TaskGrace:     100 * time.Millisecond,
		CleanupDelay:  10 * time.Millisecond,
		MaxTasks:      16,
	}
}

func TestDownloadSuccess(t *testing.T) {
	writeFakeDownloader(t, `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--output" ]; then out="$a"; fi
  prev="$a"
done
echo "[download]  10.5% of ~3MiB"
echo "[download] 100.0% of ~3MiB"
printf 'fake audio bytes' > "$out"
`)

	config := testDownloadConfig(t)
	service := newTestService(t, config)

	result, err := service.Download(context.Background(),
		"https://www.youtube.com/watch?v=abc123", domain.FormatMP3, "128k", "task-1")
	require.NoError(t, err)

	assert.Equal(t, "abc123.mp3", result.FileName)
	assert.Equal(t, int64(16), result.Size)
	assert.Equal(t, "task-1", result.TaskID)
	assert.FileExists(t, result.Path)

	// completed state stays visible through the grace window
	task := service.Progress("task-1")
	assert.Equal(t, domain.StatusCompleted, task.Status)
	assert.Equal(t, 100, task.Progress)

	// then the entry is gone and polling reports idle again
	assert.Eventually(t, func() bool {
		return service.Progress("task-1").Status == domain.StatusIdle
	}, time.Second, 10*time.Millisecond)
}

func TestDownloadSynthesizesTaskID(t *testing.T) {
	writeFakeDownloader(t, `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "--output" ]; then out="$a"; fi
  prev="$a"
done
printf 'x' > "$out"
`)

	service := newTestService(t, testDownloadConfig(t))

	result, err := service.Download(context.Background(),
		"https://youtu.be/xyz789", domain.FormatM4A, "192k", "")
	require.NoError(t, err)
	assert.Contains(t, result.TaskID, "download_xyz789_")
}

func TestDownloadProcessFailure(t *testing.T) {
	writeFakeDownloader(t, `#!/bin/sh
echo "WARNING: something noisy" >&2
echo "ERROR: Video unavailable" >&2
exit 1
`)

	service := newTestService(t, testDownloadConfig(t))

	_, err := service.Download(context.Background(),
		"https://www.youtube.com/watch?v=gone", domain.FormatMP3, "128k", "task-fail")
	require.Error(t, err)

	var procErr *domain.ExternalProcessError
	require.ErrorAs(t, err, &procErr)
	assert.Equal(t, 1, procErr.ExitCode)
	assert.Contains(t, procErr.Details, "ERROR: Video unavailable")
	assert.NotContains(t, procErr.Details, "WARNING")

	// failed task leaves no progress entry behind
	assert.Equal(t, domain.StatusIdle, service.Progress("task-fail").Status)
}

func TestDownloadOutputMissing(t *testing.T) {
	// exits zero without producing the file
	writeFakeDownloader(t, "#!/bin/sh\nexit 0\n")

	service := newTestService(t, testDownloadConfig(t))

	_, err := service.Download(context.Background(),
		"https://www.youtube.com/watch?v=empty", domain.FormatMP3, "128k", "task-2")
	assert.ErrorIs(t, err, domain.ErrOutputMissing)
}

func TestDownloadRejectsEmptyURL(t *testing.T) {
	service := newTestService(t, testDownloadConfig(t))

	_, err := service.Download(context.Background(), "", domain.FormatMP3, "128k", "")
	var valErr *domain.ValidationError
	assert.ErrorAs(t, err, &valErr)
}

func TestProgressUnknownTaskIsIdle(t *testing.T) {
	service := newTestService(t, testDownloadConfig(t))

	task := service.Progress("never-seen")
	assert.Equal(t, domain.StatusIdle, task.Status)
	assert.Equal(t, 0, task.Progress)
}

func TestScheduleCleanup(t *testing.T) {
	config := testDownloadConfig(t)
	service := newTestService(t, config)

	path := filepath.Join(config.TempDir, "leftover.mp3")
	require.NoError(t, os.WriteFile(path, []byte("audio"), 0644))

	service.ScheduleCleanup(path)

	assert.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return os.IsNotExist(err)
	}, time.Second, 10*time.Millisecond)
}
