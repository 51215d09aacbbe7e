package domain

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// AudioFormat is a supported output container.
type AudioFormat string

const (
	FormatMP3 AudioFormat = "mp3"
	FormatM4A AudioFormat = "m4a"
	FormatWAV AudioFormat = "wav"
)

// ValidateFormat checks if an output format is supported.
func ValidateFormat(format AudioFormat) bool {
	return format == FormatMP3 || format == FormatM4A || format == FormatWAV
}

// TakesBitrate reports whether the format accepts a bitrate argument.
// WAV is lossless PCM and ignores bitrate entirely.
func (f AudioFormat) TakesBitrate() bool {
	return f != FormatWAV
}

// MIMEType returns the audio MIME type for the format.
func (f AudioFormat) MIMEType() string {
	return "audio/" + string(f)
}

// VideoInfo is the metadata resolved for a remote video URL.
type VideoInfo struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Duration  float64 `json:"duration"`
	Thumbnail string  `json:"thumbnail"`
	Uploader  string  `json:"uploader"`
	URL       string  `json:"url"`
}

// ConversionSettings is the user-chosen output configuration, immutable for
// the duration of a single batch run.
type ConversionSettings struct {
	Bitrate string      `json:"bitrate"`
	Format  AudioFormat `json:"format"`
}

// DefaultSettings returns the conversion defaults of the service.
func DefaultSettings() ConversionSettings {
	return ConversionSettings{Bitrate: "128k", Format: FormatMP3}
}

// ExtractVideoID derives a best-effort identifier from a video URL: the "v"
// query parameter, else the last path segment, else the current time.
func ExtractVideoID(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		segments := strings.Split(strings.Trim(u.Path, "/"), "/")
		if last := segments[len(segments)-1]; last != "" {
			return last
		}
	}
	return fmt.Sprintf("%d", time.Now().UnixMilli())
}

// SynthesizeTaskID builds a task id for callers that did not supply one.
// Callers should supply their own id to poll progress reliably.
func SynthesizeTaskID(videoID string) string {
	return fmt.Sprintf("download_%s_%d", videoID, time.Now().UnixMilli())
}
