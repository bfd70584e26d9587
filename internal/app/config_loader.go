package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/yourusername/ytmm-go/internal/domain"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	defaults := domain.DefaultConfig()

	// Set up viper
	v := viper.New()
	v.SetConfigType("yaml")

	// If config path is provided, use it
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in standard locations
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.ytmm")
		v.AddConfigPath("/etc/ytmm")
	}

	// Register defaults so AutomaticEnv can see every key
	setDefaults(v, defaults)

	// Read environment variables
	v.SetEnvPrefix("YTMM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("bot.token", "YTMM_BOT_TOKEN", "BOT_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind token variable: %w", err)
	}

	// Try to read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	// Decode into a zero value: defaults come from viper, and decoding into a
	// pre-filled slice would merge a configured list with the default one
	config := &domain.Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand environment variables in paths
	config = expandPaths(config)

	// Validate config
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadBotConfig loads configuration and requires the bot token
func LoadBotConfig(configPath string) (*domain.Config, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(config.Bot.Token) == "" {
		return nil, fmt.Errorf("%w: set BOT_TOKEN", domain.ErrMissingToken)
	}
	return config, nil
}

// setDefaults registers every default value with viper
func setDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("bot.token", config.Bot.Token)
	v.SetDefault("bot.poll_timeout", config.Bot.PollTimeout)
	v.SetDefault("bot.debug", config.Bot.Debug)

	v.SetDefault("server.enabled", config.Server.Enabled)
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)

	v.SetDefault("download.base_dir", config.Download.BaseDir)
	v.SetDefault("download.output_dir", config.Download.OutputDir)
	v.SetDefault("download.logs_dir", config.Download.LogsDir)
	v.SetDefault("download.retention_window", config.Download.RetentionWindow)
	v.SetDefault("download.max_upload_mb", config.Download.MaxUploadMB)
	v.SetDefault("download.large_file_hint", config.Download.LargeFileHint)

	v.SetDefault("fetcher.binary", config.Fetcher.Binary)
	v.SetDefault("fetcher.probe_timeout", config.Fetcher.ProbeTimeout)
	v.SetDefault("fetcher.fetch_timeout", config.Fetcher.FetchTimeout)
	v.SetDefault("fetcher.container", config.Fetcher.Container)
	v.SetDefault("fetcher.sub_langs", config.Fetcher.SubLangs)
	v.SetDefault("fetcher.excluded_vcodec", config.Fetcher.ExcludedVCodec)

	v.SetDefault("queue.database_path", config.Queue.DatabasePath)
	v.SetDefault("queue.workers", config.Queue.Workers)
	v.SetDefault("queue.capacity", config.Queue.Capacity)

	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Download.BaseDir = expandPath(config.Download.BaseDir)
	config.Download.OutputDir = expandPath(config.Download.OutputDir)
	config.Download.LogsDir = expandPath(config.Download.LogsDir)
	config.Queue.DatabasePath = expandPath(config.Queue.DatabasePath)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	// Expand home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Download.OutputDir == "" {
		return fmt.Errorf("download output directory not configured")
	}

	if config.Download.RetentionWindow <= 0 {
		return fmt.Errorf("retention window must be positive")
	}

	if config.Download.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	if config.Fetcher.Binary == "" {
		return fmt.Errorf("fetcher binary not configured")
	}

	if config.Fetcher.ProbeTimeout <= 0 || config.Fetcher.FetchTimeout <= 0 {
		return fmt.Errorf("fetcher timeouts must be positive")
	}

	if config.Queue.Workers < 1 {
		return fmt.Errorf("queue workers must be at least 1")
	}

	if config.Queue.Capacity < 1 {
		return fmt.Errorf("queue capacity must be at least 1")
	}

	if config.Queue.DatabasePath == "" {
		return fmt.Errorf("queue database path not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig writes configuration as YAML, leaving the token out
func SaveConfig(config *domain.Config, path string) error {
	data, err := MarshalConfig(config)
	if err != nil {
		return err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MarshalConfig renders configuration as YAML with the token redacted
func MarshalConfig(config *domain.Config) ([]byte, error) {
	redacted := *config
	redacted.Bot.Token = ""

	data, err := yaml.Marshal(&redacted)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}
