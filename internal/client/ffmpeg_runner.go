package client

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecRunner runs invocations by shelling out to a local ffmpeg binary with
// the virtual filesystem directory as its working directory. It is the
// default Runner; tests substitute their own.
type ExecRunner struct {
	Binary string
}

// NewExecRunner creates a runner around the given binary name or path.
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &ExecRunner{Binary: binary}
}

// Run executes one invocation. All file arguments are names relative to
// vfsDir, so the process is confined to the private directory.
func (r *ExecRunner) Run(ctx context.Context, vfsDir string, args []string) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = vfsDir

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", r.Binary, err, stderrTail(stderr.String()))
	}
	return nil
}

// stderrTail keeps the last few lines of process output, which is where the
// actual failure reason tends to land.
func stderrTail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 3 {
		lines = lines[len(lines)-3:]
	}
	return strings.Join(lines, " | ")
}
