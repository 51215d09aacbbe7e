package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Download DownloadConfig `mapstructure:"download"`
	YTDLP    YTDLPConfig    `mapstructure:"ytdlp"`
	Engine   EngineConfig   `mapstructure:"engine"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	FrontendBaseURL string `mapstructure:"frontend_base_url"` // link generation only
}

// DownloadConfig contains download and temp-file configuration
type DownloadConfig struct {
	TempDir       string        `mapstructure:"temp_dir"`
	MaxFileAge    time.Duration `mapstructure:"max_file_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
	TaskGrace     time.Duration `mapstructure:"task_grace"`    // completed task kept visible this long
	CleanupDelay  time.Duration `mapstructure:"cleanup_delay"` // temp file deleted this long after streaming
	MaxTasks      int           `mapstructure:"max_tasks"`
}

// YTDLPConfig contains external downloader configuration.
// Binary may be empty; the YTDLP_PATH environment variable takes precedence
// over everything during resolution.
type YTDLPConfig struct {
	Binary        string `mapstructure:"binary"`
	UserAgent     string `mapstructure:"user_agent"`
	ExtractorArgs string `mapstructure:"extractor_args"`
}

// EngineConfig contains transcoding engine configuration
type EngineConfig struct {
	BaseURL         string        `mapstructure:"base_url"`
	FallbackBaseURL string        `mapstructure:"fallback_base_url"`
	LoadRetries     int           `mapstructure:"load_retries"`
	RetryDelay      time.Duration `mapstructure:"retry_delay"`
	TickInterval    time.Duration `mapstructure:"tick_interval"`
	ProgressCeiling int           `mapstructure:"progress_ceiling"`
	FFmpegBinary    string        `mapstructure:"ffmpeg_binary"`
}

// HistoryConfig contains conversion-history configuration
type HistoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3001,
			FrontendBaseURL: "",
		},
		Download: DownloadConfig{
			TempDir:       "$HOME/.audio-extract/temp",
			MaxFileAge:    time.Hour,
			SweepInterval: 10 * time.Minute,
			MaxConcurrent: 4,
			TaskGrace:     5 * time.Second,
			CleanupDelay:  time.Second,
			MaxTasks:      1024,
		},
		YTDLP: YTDLPConfig{
			Binary:        "",
			UserAgent:     "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ExtractorArgs: "youtube:player_client=android",
		},
		Engine: EngineConfig{
			BaseURL:         "https://unpkg.com/@ffmpeg/core@0.12.6/dist/esm",
			FallbackBaseURL: "https://unpkg.com/@ffmpeg/core@0.12.6/dist/umd",
			LoadRetries:     2,
			RetryDelay:      2 * time.Second,
			TickInterval:    500 * time.Millisecond,
			ProgressCeiling: 85,
			FFmpegBinary:    "ffmpeg",
		},
		History: HistoryConfig{
			Enabled:      true,
			DatabasePath: "$HOME/.audio-extract/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
