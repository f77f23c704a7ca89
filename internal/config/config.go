// Package config loads application settings from a config file,
// environment variables and defaults, in that order of precedence
// reversed: environment wins over the file, the file over defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"fable/internal/story"
)

// RetryConfig tunes the upstream retry policy.
type RetryConfig struct {
	MaxRetries int           `mapstructure:"max_retries"`
	BaseDelay  time.Duration `mapstructure:"base_delay"`
	Multiplier float64       `mapstructure:"multiplier"`
	MaxDelay   time.Duration `mapstructure:"max_delay"`
}

// ModelConfig selects the upstream models.
type ModelConfig struct {
	APIKey      string `mapstructure:"api_key"`
	BaseURL     string `mapstructure:"base_url"`
	Text        string `mapstructure:"text"`
	Image       string `mapstructure:"image"`
	Speech      string `mapstructure:"speech"`
	Voice       string `mapstructure:"voice"`
	TimeoutSecs int    `mapstructure:"timeout_seconds"`
}

// Config is the full application configuration.
type Config struct {
	DataDir  string      `mapstructure:"data_dir"`
	Language string      `mapstructure:"language"`
	Debug    bool        `mapstructure:"debug"`
	Backfill bool        `mapstructure:"backfill"`
	Models   ModelConfig `mapstructure:"models"`
	Retry    RetryConfig `mapstructure:"retry"`
}

// DefaultLanguage returns the configured language as a story.Language.
func (c *Config) DefaultLanguage() story.Language {
	if strings.EqualFold(c.Language, string(story.LanguageTurkish)) {
		return story.LanguageTurkish
	}
	return story.LanguageEnglish
}

// Timeout returns the per-call model timeout.
func (c *Config) Timeout() time.Duration {
	if c.Models.TimeoutSecs <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.Models.TimeoutSecs) * time.Second
}

// Load reads fable.yaml from the working directory or ~/.config/fable,
// overlays FABLE_* environment variables and fills the rest with
// defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("fable")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "fable"))
	}

	v.SetEnvPrefix("FABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Keys without defaults still need explicit env bindings.
	_ = v.BindEnv("models.api_key")
	_ = v.BindEnv("models.base_url")

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// OPENAI_API_KEY works as a fallback when no key is configured.
	if cfg.Models.APIKey == "" {
		cfg.Models.APIKey = os.Getenv("OPENAI_API_KEY")
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	home, _ := os.UserHomeDir()
	v.SetDefault("data_dir", filepath.Join(home, ".fable"))
	v.SetDefault("language", string(story.LanguageEnglish))
	v.SetDefault("debug", false)
	v.SetDefault("backfill", true)

	v.SetDefault("models.text", "gpt-4o-mini")
	v.SetDefault("models.image", "dall-e-3")
	v.SetDefault("models.speech", "tts-1")
	v.SetDefault("models.voice", "alloy")
	v.SetDefault("models.timeout_seconds", 120)

	v.SetDefault("retry.max_retries", 4)
	v.SetDefault("retry.base_delay", "4s")
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.max_delay", "0s")
}
