package client

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// captureRunner records args and fabricates the expected output file.
type captureRunner struct {
	args []string
	err  error
}

func (r *captureRunner) Run(ctx context.Context, vfsDir string, args []string) error {
	r.args = args
	if r.err != nil {
		return r.err
	}
	// last arg is the output name
	out := args[len(args)-1]
	return os.WriteFile(filepath.Join(vfsDir, out), []byte("converted"), 0644)
}

func readyEngine(t *testing.T, runner Runner) *Engine {
	t.Helper()
	srv := serveAssets(t)
	engine := NewEngine(NewAssetFetcher(srv.URL, "", zap.NewNop()), runner, zap.NewNop())
	t.Cleanup(func() { engine.Close() })
	require.NoError(t, engine.Load(context.Background()))
	return engine
}

func TestTranscodeBuildsArgsWithBitrate(t *testing.T) {
	runner := &captureRunner{}
	tc := NewTranscoder(readyEngine(t, runner), zap.NewNop())

	item := NewFileItem("clip.mp4", []byte("video"))
	settings := domain.ConversionSettings{Bitrate: "192k", Format: domain.FormatMP3}

	blob, err := tc.Transcode(context.Background(), item, settings)
	require.NoError(t, err)

	assert.Equal(t, []byte("converted"), blob.Data)
	assert.Equal(t, "audio/mp3", blob.MIME)

	require.Len(t, runner.args, 5)
	assert.Equal(t, "-i", runner.args[0])
	assert.Equal(t, "input_"+item.ID+".mp4", runner.args[1])
	assert.Equal(t, "-b:a", runner.args[2])
	assert.Equal(t, "192k", runner.args[3])
	assert.Equal(t, "output_"+item.ID+".mp3", runner.args[4])
}

func TestTranscodeOmitsBitrateForWAV(t *testing.T) {
	runner := &captureRunner{}
	tc := NewTranscoder(readyEngine(t, runner), zap.NewNop())

	item := NewFileItem("clip.mp4", []byte("video"))
	settings := domain.ConversionSettings{Bitrate: "192k", Format: domain.FormatWAV}

	_, err := tc.Transcode(context.Background(), item, settings)
	require.NoError(t, err)

	joined := strings.Join(runner.args, " ")
	assert.NotContains(t, joined, "-b:a")
	assert.Contains(t, joined, "output_"+item.ID+".wav")
}

func TestTranscodeCleansUpVirtualFiles(t *testing.T) {
	runner := &captureRunner{}
	engine := readyEngine(t, runner)
	tc := NewTranscoder(engine, zap.NewNop())

	item := NewFileItem("clip.mp4", []byte("video"))
	_, err := tc.Transcode(context.Background(), item, domain.DefaultSettings())
	require.NoError(t, err)

	_, err = engine.ReadFile("input_" + item.ID + ".mp4")
	assert.Error(t, err)
	_, err = engine.ReadFile("output_" + item.ID + ".mp3")
	assert.Error(t, err)
}

func TestTranscodeRunnerFailure(t *testing.T) {
	runner := &captureRunner{err: errors.New("codec exploded")}
	engine := readyEngine(t, runner)
	tc := NewTranscoder(engine, zap.NewNop())

	item := NewFileItem("clip.mp4", []byte("video"))
	_, err := tc.Transcode(context.Background(), item, domain.DefaultSettings())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codec exploded")

	// staged input must not linger after a failure
	_, err = engine.ReadFile("input_" + item.ID + ".mp4")
	assert.Error(t, err)
}

func TestTranscodeExtensionlessInput(t *testing.T) {
	runner := &captureRunner{}
	tc := NewTranscoder(readyEngine(t, runner), zap.NewNop())

	item := NewFileItem("rawclip", []byte("video"))
	_, err := tc.Transcode(context.Background(), item, domain.DefaultSettings())
	require.NoError(t, err)
	assert.Equal(t, "input_"+item.ID+".bin", runner.args[1])
}
