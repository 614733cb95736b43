package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all mailmirror configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Sync   SyncConfig   `toml:"sync"`
	Auth   AuthConfig   `toml:"auth"`
}

// ServerConfig holds the remote API settings.
type ServerConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// SyncConfig holds synchronization settings.
type SyncConfig struct {
	Interval string `toml:"interval"`
	// CoalesceWindow is how long after a completed sync a new sync
	// request is answered from the previous result instead of hitting
	// the network again.
	CoalesceWindow string `toml:"coalesce_window"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	DeviceName string `toml:"device_name"`
}

func defaults() Config {
	host, _ := os.Hostname()
	return Config{
		Server: ServerConfig{
			BaseURL: "https://api.mailmirror.dev",
			Timeout: "30s",
		},
		Sync: SyncConfig{
			Interval:       "5m",
			CoalesceWindow: "2s",
		},
		Auth: AuthConfig{
			DeviceName: host,
		},
	}
}

// Load reads config from path. If path is empty or the file does not
// exist, it returns defaults. MAILMIRROR_SERVER overrides the base URL.
func Load(path string) (*Config, error) {
	cfg := defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}
	if url := os.Getenv("MAILMIRROR_SERVER"); url != "" {
		cfg.Server.BaseURL = url
	}
	return &cfg, nil
}

// ServerTimeout parses the configured request timeout.
func (c *Config) ServerTimeout() (time.Duration, error) {
	d, err := time.ParseDuration(c.Server.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server timeout %q: %w", c.Server.Timeout, err)
	}
	return d, nil
}

// SyncInterval parses the configured background sync interval.
func (c *Config) SyncInterval() (time.Duration, error) {
	d, err := time.ParseDuration(c.Sync.Interval)
	if err != nil {
		return 0, fmt.Errorf("invalid sync interval %q: %w", c.Sync.Interval, err)
	}
	return d, nil
}

// CoalesceWindow parses the configured sync coalescing window.
func (c *Config) CoalesceWindow() (time.Duration, error) {
	d, err := time.ParseDuration(c.Sync.CoalesceWindow)
	if err != nil {
		return 0, fmt.Errorf("invalid coalesce window %q: %w", c.Sync.CoalesceWindow, err)
	}
	return d, nil
}

// ConfigDir returns the mailmirror config directory path.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailmirror")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "mailmirror")
}

// DataDir returns the mailmirror data directory path.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mailmirror")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mailmirror")
}
