// Package config provides configuration file parsing for uassist.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// FileName is the configuration file inside Dir.
const FileName = "config.toml"

// Config holds user defaults. Command-line flags take precedence over every
// field.
type Config struct {
	GUIDs     string `toml:"guids"`
	OutputDir string `toml:"output_dir"`
	DB        string `toml:"db"`
	Format    string `toml:"format"`
	Compress  bool   `toml:"compress"`
	LogLevel  string `toml:"log_level"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		OutputDir: "outputs",
		Format:    "csv",
		LogLevel:  "info",
	}
}

// Dir returns the uassist config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/uassist if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "uassist"), nil
}

// DataDir returns ~/.uassist, creating it if needed.
func DataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	dir := filepath.Join(home, ".uassist")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create uassist directory: %w", err)
	}
	return dir, nil
}

// Load reads the TOML file at path over the defaults. If the file does not
// exist the defaults are returned without an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads {Dir}/config.toml.
func LoadDefault() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return Default(), err
	}
	return Load(filepath.Join(dir, FileName))
}
