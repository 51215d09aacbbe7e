package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/audio-extract-go/internal/domain"
)

const (
	toolName     = "yt-dlp"
	rawLogLimit  = 1000
	infoTailLen  = 3
	errorTailLen = 5
)

// percentPattern matches the downloader's textual progress, e.g. "42.3%".
// This is the only progress channel the tool offers; matches are best-effort
// and not guaranteed monotonic.
var percentPattern = regexp.MustCompile(`(\d+\.\d+)%`)

// YTDLP wraps the external downloader binary. The binary path is resolved
// once on first use and cached for the process lifetime.
type YTDLP struct {
	config *domain.YTDLPConfig
	logger *zap.Logger

	resolveOnce sync.Once
	resolved    string
	resolveErr  error

	// overridden in tests
	lookPath func(string) (string, error)
}

// NewYTDLP creates a new downloader adapter
func NewYTDLP(config *domain.YTDLPConfig, logger *zap.Logger) *YTDLP {
	return &YTDLP{
		config:   config,
		logger:   logger,
		lookPath: exec.LookPath,
	}
}

// candidates returns binary paths in resolution priority order: environment
// override, configured path, bare command name, fixed system paths.
func (y *YTDLP) candidates() []string {
	paths := []string{}
	if env := os.Getenv("YTDLP_PATH"); env != "" {
		paths = append(paths, env)
	}
	if y.config.Binary != "" {
		paths = append(paths, y.config.Binary)
	}
	paths = append(paths, toolName, "/usr/local/bin/yt-dlp", "/usr/bin/yt-dlp")
	return paths
}

// Resolve finds the downloader binary, preferring a PATH lookup and falling
// back to a plain existence check for absolute candidates.
func (y *YTDLP) Resolve() (string, error) {
	y.resolveOnce.Do(func() {
		candidates := y.candidates()
		for _, p := range candidates {
			if resolved, err := y.lookPath(p); err == nil {
				y.resolved = resolved
				y.logger.Info("Resolved downloader binary",
					zap.String("path", resolved),
					zap.String("via", "lookup"))
				return
			}
			if _, err := os.Stat(p); err == nil {
				y.resolved = p
				y.logger.Info("Resolved downloader binary",
					zap.String("path", p),
					zap.String("via", "filesystem"))
				return
			}
		}
		y.resolveErr = &domain.ToolNotFoundError{Tool: toolName, PathsTried: candidates}
	})
	return y.resolved, y.resolveErr
}

// Info fetches video metadata in dump-json mode.
func (y *YTDLP) Info(ctx context.Context, videoURL string) (*domain.VideoInfo, error) {
	binary, err := y.Resolve()
	if err != nil {
		return nil, err
	}

	args := []string{
		"--dump-json",
		"--no-playlist",
		"--user-agent", y.config.UserAgent,
		"--extractor-args", y.config.ExtractorArgs,
		videoURL,
	}

	y.logger.Debug("Fetching video info", zap.String("cmd", ShellEscapeCommand(binary, args...)))

	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, y.processError(err, stderr.String(), infoTailLen)
	}

	var raw struct {
		ID        string  `json:"id"`
		Title     string  `json:"title"`
		Duration  float64 `json:"duration"`
		Thumbnail string  `json:"thumbnail"`
		Uploader  string  `json:"uploader"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &raw); err != nil {
		return nil, &domain.ParseError{Err: err}
	}

	return &domain.VideoInfo{
		ID:        raw.ID,
		Title:     raw.Title,
		Duration:  raw.Duration,
		Thumbnail: raw.Thumbnail,
		Uploader:  raw.Uploader,
		URL:       videoURL,
	}, nil
}

// Download extracts audio for a URL into outputPath, reporting scraped
// percentages through onProgress. The process runs to completion or failure;
// there is no mid-flight abort beyond context cancellation.
func (y *YTDLP) Download(ctx context.Context, videoURL string, format domain.AudioFormat, bitrate, outputPath string, onProgress func(float64)) error {
	binary, err := y.Resolve()
	if err != nil {
		return err
	}

	args := []string{
		"--extract-audio",
		"--audio-format", string(format),
		"--postprocessor-args", fmt.Sprintf("ffmpeg:-b:a %s", bitrate),
		"--output", outputPath,
		"--no-warnings",
		"--no-playlist",
		"--user-agent", y.config.UserAgent,
		"--extractor-args", y.config.ExtractorArgs,
		"--no-check-certificate",
		videoURL,
	}

	y.logger.Info("Starting audio extraction",
		zap.String("url", videoURL),
		zap.String("format", string(format)),
		zap.String("cmd", ShellEscapeCommand(binary, args...)))

	cmd := exec.CommandContext(ctx, binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", toolName, err)
	}

	// Progress lines show up on either stream depending on the tool version.
	var stderrBuf bytes.Buffer
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		y.scanProgress(stdout, nil, onProgress)
	}()
	go func() {
		defer wg.Done()
		y.scanProgress(stderr, &stderrBuf, onProgress)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		return y.processError(err, stderrBuf.String(), errorTailLen)
	}
	return nil
}

// scanProgress reads a process stream update by update, capturing it into
// sink (when non-nil) and reporting every percentage match. In-flight
// progress arrives as carriage-return-separated rewrites of the same
// terminal line, so \r is a boundary too; splitting on \n alone would sit
// on the whole stream until the process exits.
func (y *YTDLP) scanProgress(r io.Reader, sink *bytes.Buffer, onProgress func(float64)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(scanTerminalLines)
	for scanner.Scan() {
		line := scanner.Text()
		if sink != nil {
			sink.WriteString(line)
			sink.WriteString("\n")
		}
		if onProgress == nil {
			continue
		}
		if m := percentPattern.FindStringSubmatch(line); m != nil {
			if value, err := strconv.ParseFloat(m[1], 64); err == nil {
				onProgress(value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		y.logger.Warn("Truncated downloader output stream", zap.Error(err))
	}
}

// scanTerminalLines is a bufio.SplitFunc treating \r, \n and \r\n as line
// terminators.
func scanTerminalLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' && i+1 < len(data) && data[i+1] == '\n' {
			return i + 2, data[:i], nil
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// processError classifies a failed run, condensing the diagnostic output.
func (y *YTDLP) processError(err error, stderr string, tailLen int) error {
	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}

	details := CondenseOutput(stderr, tailLen)
	if details == "" {
		details = "Unknown error"
	}

	y.logger.Error("Downloader failed",
		zap.Int("exit_code", exitCode),
		zap.String("details", details))

	return &domain.ExternalProcessError{
		ExitCode: exitCode,
		Details:  details,
		FullLog:  Truncate(stderr, rawLogLimit),
	}
}

// CondenseOutput filters verbose tool output down to the lines a user can
// act on: warnings and deprecation notices are dropped, lines with explicit
// failure markers are preferred, otherwise the last few non-empty lines win.
func CondenseOutput(output string, tailLen int) string {
	var kept []string
	for _, line := range strings.Split(output, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		lower := strings.ToLower(trimmed)
		if strings.Contains(lower, "warning") || strings.Contains(lower, "deprecated feature") {
			continue
		}
		kept = append(kept, trimmed)
	}

	var critical []string
	for _, line := range kept {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "error") ||
			strings.Contains(lower, "failed") ||
			strings.Contains(lower, "forbidden") ||
			strings.Contains(lower, "403") {
			critical = append(critical, line)
		}
	}

	if len(critical) > 0 {
		return strings.Join(critical, "\n")
	}
	if len(kept) > tailLen {
		kept = kept[len(kept)-tailLen:]
	}
	if len(kept) > 0 {
		return strings.Join(kept, "\n")
	}
	return Truncate(output, 500)
}

// Truncate bounds a log payload to max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
