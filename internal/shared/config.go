package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Stream   StreamConfig   `toml:"stream"`
	Client   ClientConfig   `toml:"client"`
	Database DatabaseConfig `toml:"database"`
	Debug    DebugConfig    `toml:"debug"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host  string `toml:"host"`
	Port  int    `toml:"port"`
	Token string `toml:"token"`
}

// StreamConfig contains flush thresholds for the progress channel.
type StreamConfig struct {
	FlushEveryN  int `toml:"flush_every_n"`
	FlushEveryMs int `toml:"flush_every_ms"`
}

// FlushInterval returns the time threshold as a [time.Duration].
func (c StreamConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushEveryMs) * time.Millisecond
}

// ClientConfig contains settings for the SSE console client.
type ClientConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// DebugConfig contains client-side debug console settings.
type DebugConfig struct {
	HistoryCapacity int `toml:"history_capacity"`
}

// Validate checks the loaded configuration for values the pipeline cannot
// operate with.
func (c *Config) Validate() error {
	if c.Stream.FlushEveryN < 0 {
		return fmt.Errorf("%w: stream.flush_every_n must be positive", ErrInvalidConfig)
	}
	if c.Stream.FlushEveryMs < 0 {
		return fmt.Errorf("%w: stream.flush_every_ms must be positive", ErrInvalidConfig)
	}
	if c.Debug.HistoryCapacity < 0 {
		return fmt.Errorf("%w: debug.history_capacity must be positive", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", ErrInvalidConfig)
	}
	return nil
}

// Addr returns the host:port pair the server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
