package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(Config{Level: "debug", Format: "json", OutputPath: path})
	require.NoError(t, err)

	log.Info("hello")
	log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "timestamp")
}

func TestNewUnknownLevelFallsBack(t *testing.T) {
	log, err := New(Config{Level: "verbose", Format: "console", OutputPath: "stdout"})
	require.NoError(t, err)
	assert.NotNil(t, log)
}

func TestNewBadOutputPath(t *testing.T) {
	_, err := New(Config{Level: "info", Format: "json", OutputPath: "/nonexistent/dir/app.log"})
	assert.Error(t, err)
}

func TestNewDefault(t *testing.T) {
	assert.NotNil(t, NewDefault())
}
