package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all configuration options for the downloader.
type Config struct {
	// X/Twitter session credentials, pre-obtained by the operator.
	AuthToken string `toml:"auth_token"`
	CT0       string `toml:"ct0"`

	// Download settings
	ConcurrentDownloads int      `toml:"concurrent_downloads"`
	DownloadTimeout     Duration `toml:"download_timeout"`
	RequestsPerMinute   int      `toml:"requests_per_minute"`

	// DatabasePath is where the media catalog lives. Empty means txd.db next
	// to the config file.
	DatabasePath string `toml:"database_path"`

	// APIBaseURL overrides the default API host, mainly for testing.
	APIBaseURL string `toml:"api_base_url"`

	LogLevel string `toml:"log_level"`

	Accounts []AccountConfig `toml:"accounts"`
}

// AccountConfig describes one account to harvest.
type AccountConfig struct {
	ScreenName string `toml:"screen_name"`
	// SavePath overrides the default downloads/<screen_name> directory.
	SavePath string `toml:"save_path"`
}

// Duration wraps time.Duration so TOML values can be written as "60s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns a Config instance with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		ConcurrentDownloads: 4,
		DownloadTimeout:     Duration(60 * time.Second),
		RequestsPerMinute:   60,
		LogLevel:            "info",
	}
}

// Load reads the TOML config file at path, applies environment overrides and
// validates the result. DatabasePath defaults to txd.db in the config file's
// directory.
func Load(path string) (*Config, error) {
	// Pick up a .env if one exists, so tokens can stay out of the config file.
	_ = godotenv.Load(".env")

	cfg := DefaultConfig()

	if err := cfg.loadFromFile(path); err != nil {
		return nil, err
	}
	cfg.loadFromEnv()

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(filepath.Dir(path), "txd.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// loadFromEnv overrides file values with TXD_* environment variables.
func (c *Config) loadFromEnv() {
	if v := os.Getenv("TXD_AUTH_TOKEN"); v != "" {
		c.AuthToken = v
	}
	if v := os.Getenv("TXD_CT0"); v != "" {
		c.CT0 = v
	}
	if v := os.Getenv("TXD_CONCURRENT_DOWNLOADS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ConcurrentDownloads = n
		}
	}
	if v := os.Getenv("TXD_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.AuthToken == "" {
		errs = append(errs, errors.New("auth_token is required"))
	}
	if c.CT0 == "" {
		errs = append(errs, errors.New("ct0 is required"))
	}
	if c.ConcurrentDownloads <= 0 {
		errs = append(errs, errors.New("concurrent_downloads must be positive"))
	}
	if c.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download_timeout must be positive"))
	}
	if c.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests_per_minute must be positive"))
	}
	if len(c.Accounts) == 0 {
		errs = append(errs, errors.New("at least one account is required"))
	}
	for i, acct := range c.Accounts {
		if acct.ScreenName == "" {
			errs = append(errs, fmt.Errorf("accounts[%d]: screen_name is required", i))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}
