// Package config provides configuration loading and structs for the
// Book Whisperer daemon and CLI.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/bookwhisperer/bookwhisperer/internal/recommend"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool             `yaml:"debug"`
	Server    ServerConfig     `yaml:"server"`
	Storage   StorageConfig    `yaml:"storage"`
	Calibre   CalibreConfig    `yaml:"calibre"`
	Recommend recommend.Config `yaml:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the cache database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// CalibreConfig holds the Calibre content server connection settings.
// Credentials are usually left empty here and supplied through the
// environment instead.
type CalibreConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Library  string `yaml:"library"`
}

// Load reads and parses the config file at path, applies environment
// overrides and defaults, and expands the database path.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// applyEnv overlays Calibre connection settings from the environment.
// A .env file next to the working directory is honored when present.
func applyEnv(cfg *Config) {
	_ = godotenv.Load()

	if v := os.Getenv("CALIBRE_URL"); v != "" {
		cfg.Calibre.URL = v
	}
	if v := os.Getenv("CALIBRE_USER"); v != "" {
		cfg.Calibre.Username = v
	}
	if v := os.Getenv("CALIBRE_PASS"); v != "" {
		cfg.Calibre.Password = v
	}
	if v := os.Getenv("CALIBRE_LIBRARY"); v != "" {
		cfg.Calibre.Library = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
