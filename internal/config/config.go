package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jask/gvoss/internal/vqa"
)

// Config holds application configuration.
type Config struct {
	Inference InferenceConfig `mapstructure:"inference"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Presets   PresetsConfig   `mapstructure:"presets"`
	Log       LogConfig       `mapstructure:"log"`
}

// InferenceConfig holds endpoint settings. The API key here only pre-fills
// the form; it is never written back.
type InferenceConfig struct {
	Endpoint          string `mapstructure:"endpoint"`
	APIKeyEnv         string `mapstructure:"api_key_env"`
	APIKey            string `mapstructure:"api_key"`
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// Timeout returns the per-request timeout.
func (c InferenceConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// PresetsConfig points at an optional TOML file of example questions.
type PresetsConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logger settings. The terminal belongs to the UI, so logs
// always go to a file.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Path  string `mapstructure:"path"`
}

// Load reads configuration from file and env. Env var overrides use prefix GVOSS_.
func Load() (Config, error) {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("inference.endpoint", vqa.DefaultEndpoint)
	v.SetDefault("inference.api_key_env", "HF_API_KEY")
	v.SetDefault("inference.api_key", "")
	v.SetDefault("inference.timeout_seconds", 30)
	v.SetDefault("inference.requests_per_minute", 0)
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "gvoss", "gvoss.db"))
	v.SetDefault("presets.path", filepath.Join(home, ".config", "gvoss", "questions.toml"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "gvoss", "gvoss.log"))

	v.SetConfigType("toml")

	cfgPath := os.Getenv("GVOSS_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "gvoss"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GVOSS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine; a broken one is not
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// ResolveAPIKey returns the key to pre-fill: the configured env var wins over
// the config file value.
func ResolveAPIKey(cfg Config) string {
	env := strings.TrimSpace(cfg.Inference.APIKeyEnv)
	if env == "" {
		env = "HF_API_KEY"
	}
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v
	}
	return strings.TrimSpace(cfg.Inference.APIKey)
}
