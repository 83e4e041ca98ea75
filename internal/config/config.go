// Package config loads consolekit settings from the user config file
// and environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trainsphere/consolekit/internal/apperr"
)

const (
	// DefaultAPIURL is used when no API endpoint is configured.
	DefaultAPIURL = "http://localhost:8080"

	configDirName  = ".consolekit"
	configFileName = "config.yaml"
)

// Config holds the settings consolekit needs to reach the platform API
// and to shape the local session.
type Config struct {
	// APIURL is the base URL of the platform API.
	APIURL string `yaml:"api_url"`

	// WorkspaceID, when set, is preferred over automatic workspace
	// selection from the token.
	WorkspaceID string `yaml:"workspace_id"`

	// TimeZone is an IANA zone name used for display purposes.
	TimeZone string `yaml:"timezone"`

	// LogLevel controls diagnostic verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log encoding (text or json).
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Path returns the location of the user config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Load reads the user config file, if present, and applies environment
// overrides on top. A missing file is not an error; the defaults apply.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if err := loadFile(cfg, path); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFrom reads configuration from an explicit file path plus
// environment overrides. Unlike Load, a missing file is an error.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); err != nil {
		return nil, apperr.Wrap(apperr.CodeConfigInvalid, "config file not readable", err,
			map[string]any{"path": path})
	}
	if err := loadFile(cfg, path); err != nil {
		return nil, err
	}
	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return apperr.Wrap(apperr.CodeConfigInvalid, "reading config file", err,
			map[string]any{"path": path})
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return apperr.Wrap(apperr.CodeConfigInvalid, "parsing config file", err,
			map[string]any{"path": path})
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("CONSOLEKIT_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("CONSOLEKIT_WORKSPACE_ID"); v != "" {
		cfg.WorkspaceID = v
	}
	if v := os.Getenv("CONSOLEKIT_TIMEZONE"); v != "" {
		cfg.TimeZone = v
	}
	if v := os.Getenv("CONSOLEKIT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CONSOLEKIT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.APIURL) == "" {
		return apperr.New(apperr.CodeConfigInvalid, "api_url must not be empty", nil)
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return apperr.New(apperr.CodeConfigInvalid, "api_url must be an http or https URL",
			map[string]any{"api_url": c.APIURL})
	}
	return nil
}
