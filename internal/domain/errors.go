package domain

import (
	"errors"
	"fmt"
)

// ErrOutputMissing signals that the downloader exited successfully but the
// expected output file is not on disk.
var ErrOutputMissing = errors.New("downloaded file not found")

// ValidationError reports a missing or malformed request parameter.
type ValidationError struct {
	Param string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s parameter is required", e.Param)
}

// NewValidationError creates a validation error for a request parameter.
func NewValidationError(param string) *ValidationError {
	return &ValidationError{Param: param}
}

// ToolNotFoundError reports that the external downloader binary could not be
// resolved from any candidate path.
type ToolNotFoundError struct {
	Tool       string
	PathsTried []string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("%s not found. Please install %s (paths tried: %v)", e.Tool, e.Tool, e.PathsTried)
}

// ExternalProcessError reports a non-zero exit from the downloader binary.
// Details carries the condensed diagnostic; FullLog the truncated raw output.
type ExternalProcessError struct {
	ExitCode int
	Details  string
	FullLog  string
}

func (e *ExternalProcessError) Error() string {
	return fmt.Sprintf("downloader exited with code %d: %s", e.ExitCode, e.Details)
}

// ParseError reports malformed JSON on the downloader's stdout. It is
// distinct from ExternalProcessError: the process succeeded but its output
// could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse video info: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// EngineLoadError is the terminal failure after the transcoding engine
// exhausted its load retries. Last preserves the underlying cause.
type EngineLoadError struct {
	Attempts int
	Last     error
}

func (e *EngineLoadError) Error() string {
	return fmt.Sprintf("engine failed to load after %d attempts: %v", e.Attempts, e.Last)
}

func (e *EngineLoadError) Unwrap() error {
	return e.Last
}

// ConversionError reports a single item's transcode failure. It is contained
// to that item; a batch continues past it.
type ConversionError struct {
	ItemID   string
	FileName string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion failed for %s: %v", e.FileName, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
