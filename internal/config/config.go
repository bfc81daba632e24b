package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir"`
	LogDir  string `toml:"log_dir"`
}

// Scan contains scanner pool and discovery configuration.
type Scan struct {
	Workers         int      `toml:"workers"`
	PluginTimeoutMs int      `toml:"plugin_timeout_ms"`
	Formats         []string `toml:"formats"`
	ExtraDirs       []string `toml:"extra_dirs"`
	ScannerBinary   string   `toml:"scanner_binary"`
}

// Watch contains watch-mode configuration.
type Watch struct {
	DebounceSeconds int    `toml:"debounce_seconds"`
	Schedule        string `toml:"schedule"`
}

// Logging contains log output configuration.
type Logging struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	FileMaxSizeMB  int    `toml:"file_max_size_mb"`
	FileMaxFiles   int    `toml:"file_max_files"`
	FileMaxAgeDays int    `toml:"file_max_age_days"`
}

// Config is the root configuration document.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Scan    Scan    `toml:"scan"`
	Watch   Watch   `toml:"watch"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "magda", "config.toml"), nil
}

// Load reads the config at path, falling back to the default location when
// path is empty. A missing file yields defaults. The returned bool reports
// whether a file was actually read.
func Load(path string) (*Config, bool, error) {
	if path == "" {
		var err error
		path, err = DefaultConfigPath()
		if err != nil {
			return nil, false, err
		}
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	loaded := false
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, false, fmt.Errorf("parse %s: %w", path, err)
		}
		loaded = true
	case errors.Is(err, fs.ErrNotExist):
		// defaults
	default:
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, loaded, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, loaded, err
	}
	return &cfg, loaded, nil
}

// WriteSample writes the embedded sample config to path, refusing to clobber
// an existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.DataDir}
	if c.Paths.LogDir != "" {
		dirs = append(dirs, c.Paths.LogDir)
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ExclusionFile returns the path of the persisted exclusion list.
func (c *Config) ExclusionFile() string {
	return filepath.Join(c.Paths.DataDir, "plugin_exclusions.txt")
}

// ReportFile returns the path of the last scan report.
func (c *Config) ReportFile() string {
	return filepath.Join(c.Paths.DataDir, "last_scan_report.txt")
}

// CatalogDB returns the path of the plugin catalog database.
func (c *Config) CatalogDB() string {
	return filepath.Join(c.Paths.DataDir, "catalog.db")
}

// LockFile returns the path of the single-instance scan lock.
func (c *Config) LockFile() string {
	return filepath.Join(c.Paths.DataDir, "magda.lock")
}
