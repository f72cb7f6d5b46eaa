// ABOUTME: Configuration for the cookbook CLI and MCP server.
// ABOUTME: Merges COOKBOOK_* env vars over the XDG config file over built-in defaults.

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/harper/cookbook/internal/imaging"
	"github.com/harper/cookbook/internal/kv"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "COOKBOOK_"

// DefaultQuotaBytes approximates a browser's per-origin storage budget.
const DefaultQuotaBytes = 5 * 1024 * 1024

var ErrInvalidConfig = errors.New("invalid config")

// Config holds cookbook settings.
type Config struct {
	// DataDir holds the database and log file (default: $XDG_DATA_HOME/cookbook)
	DataDir string `json:"data_dir,omitempty" env:"DATA_DIR"`

	// Backend is badger, sqlite, or memory (default: badger)
	Backend string `json:"backend,omitempty" env:"BACKEND"`

	// QuotaBytes caps stored bytes; -1 means unlimited (default: 5 MiB)
	QuotaBytes int64 `json:"quota_bytes,omitempty" env:"QUOTA_BYTES"`

	Image Image `json:"image" envPrefix:"IMAGE_"`

	// AutosaveSeconds is the draft autosave interval (default: 30)
	AutosaveSeconds int `json:"autosave_seconds,omitempty" env:"AUTOSAVE_SECONDS"`

	LogLevel string `json:"log_level,omitempty" env:"LOG_LEVEL"`
}

// Image holds the photo normalization budget.
type Image struct {
	MaxDimension   int     `json:"max_dimension,omitempty" env:"MAX_DIMENSION"`
	MaxBytes       int     `json:"max_bytes,omitempty" env:"MAX_BYTES"`
	Quality        float64 `json:"quality,omitempty" env:"QUALITY"`
	OversizePolicy string  `json:"oversize_policy,omitempty" env:"OVERSIZE_POLICY"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	img := imaging.DefaultOptions()
	return &Config{
		DataDir:    DefaultDataDir(),
		Backend:    kv.BackendBadger,
		QuotaBytes: DefaultQuotaBytes,
		Image: Image{
			MaxDimension:   img.MaxDimension,
			MaxBytes:       img.MaxBytes,
			Quality:        img.InitialQuality,
			OversizePolicy: string(img.Policy),
		},
		AutosaveSeconds: 30,
		LogLevel:        "info",
	}
}

// ConfigDir returns the configuration directory path.
func ConfigDir() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "cookbook")
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DefaultDataDir returns the XDG data directory for cookbook.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "cookbook")
}

// LoadConfig builds the effective config. Environment variables win over
// the config file, and anything left unset falls back to DefaultConfig.
func LoadConfig() (*Config, error) {
	envCfg := &Config{}
	if err := env.ParseWithOptions(envCfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("read env config: %w", err)
	}

	fileCfg, err := readFile(ConfigPath())
	if err != nil {
		return nil, err
	}

	cfg := new(Config)
	for _, layer := range []*Config{envCfg, fileCfg, DefaultConfig()} {
		if err := mergo.Merge(cfg, layer); err != nil {
			return nil, fmt.Errorf("merge config: %w", err)
		}
	}

	return cfg, cfg.Validate()
}

func readFile(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path) //nolint:gosec // Path comes from XDG_CONFIG_HOME
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes configuration to disk.
func SaveConfig(cfg *Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(ConfigPath(), data, 0600)
}

// ConfigExists returns true if a config file exists.
func ConfigExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Validate rejects values the store and normalizer cannot use.
func (c *Config) Validate() error {
	switch c.Backend {
	case kv.BackendBadger, kv.BackendSQLite, kv.BackendMemory:
	default:
		return fmt.Errorf("%w: backend %q", ErrInvalidConfig, c.Backend)
	}
	if _, err := imaging.ParsePolicy(c.Image.OversizePolicy); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Image.Quality < 0 || c.Image.Quality > 1 {
		return fmt.Errorf("%w: image quality %.2f outside 0..1", ErrInvalidConfig, c.Image.Quality)
	}
	if c.Image.MaxDimension < 0 || c.Image.MaxBytes < 0 {
		return fmt.Errorf("%w: image limits must be positive", ErrInvalidConfig)
	}
	if c.QuotaBytes < -1 {
		return fmt.Errorf("%w: quota_bytes must be -1 or positive", ErrInvalidConfig)
	}
	return nil
}

// AutosaveInterval returns the autosave period.
func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.AutosaveSeconds) * time.Second
}

// QuotaLimit returns the byte budget for kv.NewQuota; <= 0 means unlimited.
func (c *Config) QuotaLimit() int64 {
	if c.QuotaBytes < 0 {
		return 0
	}
	return c.QuotaBytes
}

// ImageOptions returns normalizer options for this config.
func (c *Config) ImageOptions() imaging.Options {
	policy, _ := imaging.ParsePolicy(c.Image.OversizePolicy)
	return imaging.Options{
		MaxDimension:   c.Image.MaxDimension,
		MaxBytes:       c.Image.MaxBytes,
		InitialQuality: c.Image.Quality,
		Policy:         policy,
	}
}

// LogPath returns the log file location inside the data directory.
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "cookbook.log")
}
