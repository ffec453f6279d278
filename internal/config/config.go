// Package config provides configuration management for the recordstream
// CLI tools.
package config

import (
	"encoding/json"
	"os"

	"github.com/corestream/recordstream/recordstream"
)

// Config holds shared defaults for the recordstream CLI tools.
type Config struct {
	// LogLevel controls CLI log verbosity: debug, info, warn, error.
	LogLevel string `json:"log_level"`

	// DefaultMaxPayload is the payload size cmd/recordstream-bench uses
	// when no -size flag is given.
	DefaultMaxPayload int `json:"default_max_payload"`

	// DefaultReadBufSize is surfaced to callers that want to report the
	// configured read-buffer bound alongside recordstream.ReadBufLen.
	DefaultReadBufSize int `json:"default_read_buf_size"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:           "info",
		DefaultMaxPayload:  recordstream.MaxPayload,
		DefaultReadBufSize: recordstream.ReadBufLen,
	}
}

// Load loads configuration from a JSON file. A missing file is not an
// error: Load returns the default configuration instead.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save saves the configuration to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
