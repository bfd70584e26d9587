package domain

import (
	"path/filepath"
	"time"
)

// Config represents the application configuration
type Config struct {
	Bot      BotConfig      `mapstructure:"bot" yaml:"bot"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Download DownloadConfig `mapstructure:"download" yaml:"download"`
	Fetcher  FetcherConfig  `mapstructure:"fetcher" yaml:"fetcher"`
	Queue    QueueConfig    `mapstructure:"queue" yaml:"queue"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// BotConfig contains Telegram bot configuration
type BotConfig struct {
	Token       string `mapstructure:"token" yaml:"token"`
	PollTimeout int    `mapstructure:"poll_timeout" yaml:"poll_timeout"` // long polling timeout in seconds
	Debug       bool   `mapstructure:"debug" yaml:"debug"`
}

// ServerConfig contains the admin HTTP server configuration
type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Host    string `mapstructure:"host" yaml:"host"`
	Port    int    `mapstructure:"port" yaml:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	BaseDir         string        `mapstructure:"base_dir" yaml:"base_dir"`
	OutputDir       string        `mapstructure:"output_dir" yaml:"output_dir"`
	LogsDir         string        `mapstructure:"logs_dir" yaml:"logs_dir"`
	RetentionWindow time.Duration `mapstructure:"retention_window" yaml:"retention_window"`
	MaxUploadMB     float64       `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	LargeFileHint   string        `mapstructure:"large_file_hint" yaml:"large_file_hint"`
}

// FetcherConfig contains yt-dlp configuration
type FetcherConfig struct {
	Binary         string        `mapstructure:"binary" yaml:"binary"`
	ProbeTimeout   time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	Container      string        `mapstructure:"container" yaml:"container"`
	SubLangs       []string      `mapstructure:"sub_langs" yaml:"sub_langs"`
	ExcludedVCodec string        `mapstructure:"excluded_vcodec" yaml:"excluded_vcodec"`
}

// QueueConfig contains download queue configuration
type QueueConfig struct {
	DatabasePath string `mapstructure:"database_path" yaml:"database_path"`
	Workers      int    `mapstructure:"workers" yaml:"workers"`
	Capacity     int    `mapstructure:"capacity" yaml:"capacity"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`             // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"`           // json, console
	OutputPath string `mapstructure:"output_path" yaml:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			PollTimeout: 60,
			Debug:       false,
		},
		Server: ServerConfig{
			Enabled: true,
			Host:    "localhost",
			Port:    8080,
		},
		Download: DownloadConfig{
			BaseDir:         "./YTMM",
			OutputDir:       "./YTMM/downloads",
			LogsDir:         "./YTMM/logs",
			RetentionWindow: time.Hour,
			MaxUploadMB:     50,
			LargeFileHint:   "MEGA",
		},
		Fetcher: FetcherConfig{
			Binary:         "yt-dlp",
			ProbeTimeout:   60 * time.Second,
			FetchTimeout:   1800 * time.Second,
			Container:      "mp4",
			SubLangs:       []string{"fr", "en", "es", "it", "pt", "ru", "zh", "ja"},
			ExcludedVCodec: "vp9",
		},
		Queue: QueueConfig{
			DatabasePath: "./YTMM/ytmm.db",
			Workers:      2,
			Capacity:     32,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}

// RequestDir returns the scratch directory used by a single request
func (c DownloadConfig) RequestDir(requestID string) string {
	return filepath.Join(c.OutputDir, requestID)
}
