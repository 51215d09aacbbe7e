package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

// EngineState tracks the load state machine:
// unloaded -> loading -> ready, or loading -> failed (retried) -> ... ->
// terminal failure once retries are exhausted.
type EngineState int

const (
	StateUnloaded EngineState = iota
	StateLoading
	StateReady
	StateFailed
)

func (s EngineState) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unloaded"
	}
}

// Engine asset names at the distribution point.
const (
	runtimeAsset = "ffmpeg-core.js"
	coreAsset    = "ffmpeg-core.wasm"
)

// EngineAssets holds the two engine blobs fetched from the distribution
// point: the runtime script and the binary payload.
type EngineAssets struct {
	Runtime []byte
	Core    []byte
}

// Runner executes one transcode invocation inside the engine's virtual
// filesystem directory. It is an opaque collaborator: all codec behavior
// lives behind it.
type Runner interface {
	Run(ctx context.Context, vfsDir string, args []string) error
}

// AssetFetcher downloads the engine assets, falling back to a secondary
// distribution format when the primary fetch fails.
type AssetFetcher struct {
	client      *http.Client
	baseURL     string
	fallbackURL string
	logger      *zap.Logger
}

// NewAssetFetcher creates an asset fetcher for the given distribution URLs.
func NewAssetFetcher(baseURL, fallbackURL string, logger *zap.Logger) *AssetFetcher {
	return &AssetFetcher{
		client:      &http.Client{Timeout: 2 * time.Minute},
		baseURL:     baseURL,
		fallbackURL: fallbackURL,
		logger:      logger,
	}
}

// Fetch downloads both engine blobs.
func (f *AssetFetcher) Fetch(ctx context.Context) (*EngineAssets, error) {
	runtime, err := f.fetchAsset(ctx, runtimeAsset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch engine runtime: %w", err)
	}
	core, err := f.fetchAsset(ctx, coreAsset)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch engine payload: %w", err)
	}
	return &EngineAssets{Runtime: runtime, Core: core}, nil
}

func (f *AssetFetcher) fetchAsset(ctx context.Context, name string) ([]byte, error) {
	data, err := f.get(ctx, f.baseURL+"/"+name)
	if err == nil {
		return data, nil
	}
	if f.fallbackURL == "" {
		return nil, err
	}
	f.logger.Warn("Primary asset fetch failed, trying fallback distribution",
		zap.String("asset", name),
		zap.Error(err))
	data, fallbackErr := f.get(ctx, f.fallbackURL+"/"+name)
	if fallbackErr != nil {
		return nil, fmt.Errorf("%v (fallback: %v)", err, fallbackErr)
	}
	return data, nil
}

func (f *AssetFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d for %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}

// Engine adapts the opaque transcoding engine: it bootstraps the engine
// assets, owns a private virtual-filesystem directory for passing bytes
// across the invocation boundary, and serializes execution. A single Engine
// instance is shared by all jobs and is NOT safe for concurrent Exec calls;
// callers serialize through Transcoder.
type Engine struct {
	mu      sync.Mutex // guards state, assets, vfsDir
	loadMu  sync.Mutex // serializes load attempts
	state   EngineState
	fetcher *AssetFetcher
	runner  Runner
	assets  *EngineAssets
	vfsDir  string
	logger  *zap.Logger
}

// NewEngine creates an engine around a fetcher and an opaque runner.
func NewEngine(fetcher *AssetFetcher, runner Runner, logger *zap.Logger) *Engine {
	return &Engine{
		state:   StateUnloaded,
		fetcher: fetcher,
		runner:  runner,
		logger:  logger,
	}
}

// State returns the current load state.
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Load performs a single load attempt: fetch both assets and prepare the
// virtual filesystem. Concurrent calls serialize; a call that finds the
// engine already ready returns immediately. Use LoadWithRetry for the
// retrying entry point.
func (e *Engine) Load(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.mu.Lock()
	if e.state == StateReady {
		e.mu.Unlock()
		return nil
	}
	e.state = StateLoading
	e.mu.Unlock()

	assets, err := e.fetcher.Fetch(ctx)
	if err != nil {
		e.setState(StateFailed)
		return err
	}

	vfsDir, err := os.MkdirTemp("", "engine-vfs-*")
	if err != nil {
		e.setState(StateFailed)
		return fmt.Errorf("failed to create virtual filesystem: %w", err)
	}

	e.mu.Lock()
	e.assets = assets
	e.vfsDir = vfsDir
	e.state = StateReady
	e.mu.Unlock()

	e.logger.Info("Engine loaded",
		zap.Int("runtime_bytes", len(assets.Runtime)),
		zap.Int("core_bytes", len(assets.Core)))
	return nil
}

// LoadWithRetry attempts Load up to 1+retries times with a fixed backoff
// between attempts. After exhausting retries the failure is terminal and
// carries the last underlying error.
func (e *Engine) LoadWithRetry(ctx context.Context, retries int, backoff time.Duration) error {
	var lastErr error
	attempts := 0
	for attempt := 0; attempt <= retries; attempt++ {
		attempts++
		if attempt > 0 {
			e.logger.Warn("Engine load failed, retrying",
				zap.Int("attempt", attempt),
				zap.Int("max_retries", retries),
				zap.Error(lastErr))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := e.Load(ctx); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return &domain.EngineLoadError{Attempts: attempts, Last: lastErr}
}

// WriteFile places input bytes into the virtual filesystem.
func (e *Engine) WriteFile(name string, data []byte) error {
	dir, err := e.readyDir()
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, filepath.Base(name)), data, 0644)
}

// ReadFile reads output bytes back from the virtual filesystem.
func (e *Engine) ReadFile(name string) ([]byte, error) {
	dir, err := e.readyDir()
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(dir, filepath.Base(name)))
}

// RemoveFile deletes a virtual file. Removing an absent file is a no-op so
// cleanup can run unconditionally.
func (e *Engine) RemoveFile(name string) {
	dir, err := e.readyDir()
	if err != nil {
		return
	}
	_ = os.Remove(filepath.Join(dir, filepath.Base(name)))
}

// Exec runs one invocation through the opaque runner.
func (e *Engine) Exec(ctx context.Context, args []string) error {
	dir, err := e.readyDir()
	if err != nil {
		return err
	}
	return e.runner.Run(ctx, dir, args)
}

// Close removes the virtual filesystem.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.vfsDir == "" {
		return nil
	}
	dir := e.vfsDir
	e.vfsDir = ""
	e.state = StateUnloaded
	return os.RemoveAll(dir)
}

func (e *Engine) readyDir() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != StateReady {
		return "", fmt.Errorf("engine not ready (state: %s)", e.state)
	}
	return e.vfsDir, nil
}

func (e *Engine) setState(state EngineState) {
	e.mu.Lock()
	e.state = state
	e.mu.Unlock()
}
