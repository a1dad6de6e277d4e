// Package config loads settings from the config file and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/rcliao/personal-assistant/internal/llm"
)

// Event sinks.
const (
	SinkJSONL  = "jsonl"
	SinkSQLite = "sqlite"
	SinkNone   = "none"
)

// Config holds every setting. File values are overridden by the environment;
// command-line flags override both.
type Config struct {
	StorageDir  string `toml:"storage_dir" env:"PA_STORAGE_DIR"`
	LogDir      string `toml:"log_dir" env:"PA_LOG_DIR"`
	EventSink   string `toml:"event_sink" env:"PA_EVENT_SINK"`
	Provider    string `toml:"provider" env:"PA_PROVIDER"`
	Model       string `toml:"model" env:"PA_MODEL"`
	Strict      bool   `toml:"strict" env:"PA_STRICT"`
	AutoExtract bool   `toml:"auto_extract" env:"PA_AUTO_EXTRACT"`

	Keys KeysConfig `toml:"keys"`
}

type KeysConfig struct {
	Anthropic string `toml:"anthropic" env:"ANTHROPIC_API_KEY"`
	OpenAI    string `toml:"openai" env:"OPENAI_API_KEY"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() *Config {
	return &Config{
		StorageDir:  "data",
		LogDir:      "logs",
		EventSink:   SinkJSONL,
		Provider:    llm.ProviderAnthropic,
		AutoExtract: true,
	}
}

// Path returns the config file location: $PA_CONFIG, or
// ~/.config/personal-assistant/config.toml.
func Path() (string, error) {
	if p := os.Getenv("PA_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: home dir: %w", err)
	}
	return filepath.Join(home, ".config", "personal-assistant", "config.toml"), nil
}

// Load reads path on top of the defaults and then applies the environment.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate rejects settings no component understands.
func (c *Config) Validate() error {
	switch c.EventSink {
	case SinkJSONL, SinkSQLite, SinkNone:
	default:
		return fmt.Errorf("config: unknown event_sink %q (want %s)", c.EventSink,
			strings.Join([]string{SinkJSONL, SinkSQLite, SinkNone}, ", "))
	}
	switch c.Provider {
	case llm.ProviderAnthropic, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config: unknown provider %q", c.Provider)
	}
	if c.StorageDir == "" {
		return errors.New("config: storage_dir is empty")
	}
	return nil
}

// APIKey returns the key for the configured provider.
func (c *Config) APIKey() string {
	if c.Provider == llm.ProviderOpenAI {
		return c.Keys.OpenAI
	}
	return c.Keys.Anthropic
}

// Save writes cfg as TOML, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: mkdir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}
