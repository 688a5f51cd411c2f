// Package config loads the rolodex configuration file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds tunable settings. Everything has a working default so a
// missing config file is not an error; API keys come from the environment.
type Config struct {
	DBPath string `yaml:"db_path"`

	Model          string  `yaml:"model"`
	Temperature    float64 `yaml:"temperature"`
	AnalysisTokens int     `yaml:"analysis_max_tokens"`

	AudioSampleRate int `yaml:"audio_sample_rate"`

	ServerAddr string `yaml:"server_addr"`
}

// Default returns the built-in configuration.
func Default() Config {
	home, _ := os.UserHomeDir()
	return Config{
		DBPath:          filepath.Join(home, ".rolodex", "rolodex.db"),
		Model:           "claude-sonnet-4-20250514",
		Temperature:     0.3,
		AnalysisTokens:  16384,
		AudioSampleRate: 16000,
		ServerAddr:      ":8080",
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".rolodex", "config.yaml")
}

// Load reads the config file at path, layered over the defaults, and loads a
// .env file if one is present. A missing config file yields the defaults.
func Load(path string) (Config, error) {
	// API keys live in the environment; .env is optional.
	godotenv.Load()

	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
