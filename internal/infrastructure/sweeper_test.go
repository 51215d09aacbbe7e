package infrastructure

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSweepDeletesOnlyOldFiles(t *testing.T) {
	dir := t.TempDir()

	oldFile := filepath.Join(dir, "old.mp3")
	require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0644))
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

	freshFile := filepath.Join(dir, "fresh.mp3")
	require.NoError(t, os.WriteFile(freshFile, []byte("fresh"), 0644))

	sweeper := NewSweeper(dir, time.Hour, time.Minute, zap.NewNop())
	removed := sweeper.Sweep()

	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, oldFile)
	assert.FileExists(t, freshFile)
}

func TestSweepSkipsDirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "subdir")
	require.NoError(t, os.Mkdir(sub, 0755))
	oldTime := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(sub, oldTime, oldTime))

	sweeper := NewSweeper(dir, time.Hour, time.Minute, zap.NewNop())
	removed := sweeper.Sweep()

	assert.Equal(t, 0, removed)
	assert.DirExists(t, sub)
}

func TestSweepMissingDirectory(t *testing.T) {
	sweeper := NewSweeper("/nonexistent/path", time.Hour, time.Minute, zap.NewNop())
	assert.Equal(t, 0, sweeper.Sweep())
}
