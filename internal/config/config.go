package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions.

const (
	// DriverFile stores events as a JSON array in a single file.
	DriverFile = "file"
	// DriverSQLite stores events in a local SQLite database.
	DriverSQLite = "sqlite"

	defaultListen   = "127.0.0.1:8080"
	defaultTimezone = "UTC"
	defaultRefresh  = "@every 1s"
	defaultLogLevel = "info"
)

// StoreConfig selects where the event list lives.
type StoreConfig struct {
	// Driver is "file" (default) or "sqlite".
	Driver string `yaml:"driver" json:"driver"`
	// Path is the JSON file or database path. Relative paths resolve
	// against the config file's directory.
	Path string `yaml:"path" json:"path"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the zone preselected in the UI and used for floating
	// times on ICS import.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Refresh is the cron schedule that drives the "now" view
	// (e.g. "@every 1s", "* * * * *").
	Refresh string `yaml:"refresh" json:"refresh"`

	// ZoneInfoDir overrides the platform zoneinfo directory for the zone
	// catalog. Empty means $ZONEINFO or the usual system locations.
	ZoneInfoDir string `yaml:"zoneinfo_dir,omitempty" json:"zoneinfo_dir,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// StrictCivilTime rejects wall times that fall in a DST gap or overlap
	// instead of resolving them.
	StrictCivilTime bool `yaml:"strict_civil_time" json:"strict_civil_time"`

	Store StoreConfig `yaml:"store" json:"store"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:   defaultListen,
		Timezone: defaultTimezone,
		Refresh:  defaultRefresh,
		LogLevel: defaultLogLevel,
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   defaultStorePath(DriverFile),
		},
	}
}

func defaultStorePath(driver string) string {
	if driver == DriverSQLite {
		return "chronos.db"
	}
	return "chronos-events.json"
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Refresh == "" {
		c.Refresh = defaultRefresh
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	if c.Store.Driver == "" {
		c.Store.Driver = DriverFile
	}
	if c.Store.Path == "" {
		c.Store.Path = defaultStorePath(c.Store.Driver)
	}
}

// Validate reports values Normalize cannot repair.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	if _, err := cron.ParseStandard(c.Refresh); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.Refresh, err)
	}
	return nil
}

// StorePath resolves Store.Path relative to the directory holding the
// config file at configPath.
func (c *Config) StorePath(configPath string) string {
	if c.Store.Path == ":memory:" || filepath.IsAbs(c.Store.Path) {
		return c.Store.Path
	}
	return filepath.Join(filepath.Dir(configPath), c.Store.Path)
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults and validate
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".chronos-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
