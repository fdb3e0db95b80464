package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the complete application configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Tracker TrackerConfig `mapstructure:"tracker"`
}

// StorageConfig locates the interval database
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"` // used by the TUI, which owns the terminal
}

// CacheConfig sizes the parsed-period cache
type CacheConfig struct {
	Periods int `mapstructure:"periods"`
}

// MetricsConfig enables the Prometheus endpoint when Addr is set
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// TrackerConfig holds defaults for starting the tracker
type TrackerConfig struct {
	DefaultTags []string `mapstructure:"default_tags"`
}

// DefaultPath returns ~/.config/worklog/config.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "worklog", "config.yaml")
}

// Load loads configuration from file and environment variables. A missing
// config file is not an error.
func Load(configPath string) (*Config, error) {
	// .env values only fill variables that are not already set.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetEnvPrefix("WORKLOG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	base := filepath.Join(dir, "worklog")

	v.SetDefault("storage.path", filepath.Join(base, "worklog.db"))

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", filepath.Join(base, "worklog.log"))

	v.SetDefault("cache.periods", 24)

	v.SetDefault("metrics.addr", "")

	v.SetDefault("tracker.default_tags", []string{})
}

// validate validates the configuration
func validate(cfg *Config) error {
	if cfg.Storage.Path == "" {
		return fmt.Errorf("storage path is required")
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", cfg.Logging.Format)
	}

	if cfg.Cache.Periods <= 0 {
		return fmt.Errorf("invalid cache size: %d", cfg.Cache.Periods)
	}

	return nil
}
