// Package config provides the configuration system for the taf CLI.
//
// Configuration is stored under os.UserConfigDir()/taf/config.yaml:
//
//	~/Library/Application Support/taf/config.yaml   (macOS)
//	~/.config/taf/config.yaml                       (Linux)
//	%AppData%/taf/config.yaml                       (Windows)
//
// Every field is optional; command-line flags override file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	// appDir is the directory name under os.UserConfigDir().
	appDir = "taf"

	// configFile is the configuration file name inside appDir.
	configFile = "config.yaml"
)

// Config holds persistent defaults for the convert pipeline.
type Config struct {
	// FFmpeg is the ffmpeg executable path.
	FFmpeg string `yaml:"ffmpeg,omitempty"`

	// Opusenc is the opusenc executable path.
	Opusenc string `yaml:"opusenc,omitempty"`

	// Bitrate is the default opusenc bitrate in kbit/s.
	Bitrate int `yaml:"bitrate,omitempty"`

	// CBR selects constant bitrate encoding by default.
	CBR bool `yaml:"cbr,omitempty"`

	// PageSize is the maximum serialized audio page size in bytes.
	PageSize int `yaml:"page_size,omitempty"`

	// Path is where the config was loaded from, for diagnostics.
	// Not serialized.
	Path string `yaml:"-"`
}

// Load loads the configuration from the default location. A missing
// file is not an error: defaults apply.
func Load() (*Config, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(filepath.Join(base, appDir, configFile))
}

// LoadFrom loads the configuration from a specific file path.
func LoadFrom(path string) (*Config, error) {
	cfg := &Config{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration back to its path, creating the
// directory if needed.
func (c *Config) Save() error {
	if c.Path == "" {
		return fmt.Errorf("config has no path")
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(c.Path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
