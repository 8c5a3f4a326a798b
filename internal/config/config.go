// Package config loads the monitor's JSON configuration file. All fields are
// optional pointers so a partial file is safe: anything omitted falls back to
// the built-in default through the Get* accessors.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/wycontir/rocketviewer/internal/serialport"
	"github.com/wycontir/rocketviewer/internal/telemetry"
)

// Defaults applied when the config file omits a value.
const (
	DefaultListen       = ":8080"
	DefaultDatabasePath = "telemetry.db"
	DefaultPollInterval = 16 * time.Millisecond
	DefaultChunkSize    = 128
)

// Config is the root configuration for the telemetry monitor.
type Config struct {
	// Serial transport
	PortPath *string `json:"port_path,omitempty"`
	BaudRate *int    `json:"baud_rate,omitempty"`
	DataBits *int    `json:"data_bits,omitempty"`
	StopBits *int    `json:"stop_bits,omitempty"`
	Parity   *string `json:"parity,omitempty"`

	// Poll loop
	PollInterval  *string `json:"poll_interval,omitempty"` // duration string like "16ms"
	ChunkSize     *int    `json:"chunk_size,omitempty"`
	MaxFrameBytes *int    `json:"max_frame_bytes,omitempty"`

	// Host surfaces
	Listen       *string `json:"listen,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"`
}

// Empty returns a Config with every field unset.
func Empty() *Config {
	return &Config{}
}

// Load reads and validates a Config from a JSON file. The file must have a
// .json extension and stay under a small size cap; fields left out of the
// file keep their defaults.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks every set field for sanity.
func (c *Config) Validate() error {
	if c.BaudRate != nil && !serialport.IsSupportedBaudRate(*c.BaudRate) {
		return fmt.Errorf("unsupported baud_rate %d", *c.BaudRate)
	}
	if _, err := c.PortOptions().Normalize(); err != nil {
		return err
	}
	if c.PollInterval != nil {
		d, err := time.ParseDuration(*c.PollInterval)
		if err != nil {
			return fmt.Errorf("invalid poll_interval %q: %w", *c.PollInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("poll_interval must be positive, got %q", *c.PollInterval)
		}
	}
	if c.ChunkSize != nil && *c.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", *c.ChunkSize)
	}
	if c.MaxFrameBytes != nil && *c.MaxFrameBytes <= 0 {
		return fmt.Errorf("max_frame_bytes must be positive, got %d", *c.MaxFrameBytes)
	}
	return nil
}

// GetPortPath returns the configured port path, or "" when unset.
func (c *Config) GetPortPath() string {
	if c.PortPath != nil {
		return *c.PortPath
	}
	return ""
}

// PortOptions assembles the serial connection parameters.
func (c *Config) PortOptions() serialport.PortOptions {
	opts := serialport.PortOptions{}
	if c.BaudRate != nil {
		opts.BaudRate = *c.BaudRate
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts
}

// GetPollInterval returns the poll loop tick period.
func (c *Config) GetPollInterval() time.Duration {
	if c.PollInterval != nil {
		if d, err := time.ParseDuration(*c.PollInterval); err == nil && d > 0 {
			return d
		}
	}
	return DefaultPollInterval
}

// GetChunkSize returns the per-poll read buffer size.
func (c *Config) GetChunkSize() int {
	if c.ChunkSize != nil && *c.ChunkSize > 0 {
		return *c.ChunkSize
	}
	return DefaultChunkSize
}

// GetMaxFrameBytes returns the partial-frame cap.
func (c *Config) GetMaxFrameBytes() int {
	if c.MaxFrameBytes != nil && *c.MaxFrameBytes > 0 {
		return *c.MaxFrameBytes
	}
	return telemetry.DefaultMaxFrameBytes
}

// GetListen returns the HTTP listen address.
func (c *Config) GetListen() string {
	if c.Listen != nil && *c.Listen != "" {
		return *c.Listen
	}
	return DefaultListen
}

// GetDatabasePath returns the sqlite database path.
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath != nil && *c.DatabasePath != "" {
		return *c.DatabasePath
	}
	return DefaultDatabasePath
}
