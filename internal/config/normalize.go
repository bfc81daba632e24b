package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	if c.Scan.Workers <= 0 {
		c.Scan.Workers = defaultWorkers
	}
	if c.Scan.PluginTimeoutMs <= 0 {
		c.Scan.PluginTimeoutMs = defaultPluginTimeoutMs
	}
	if len(c.Scan.Formats) == 0 {
		c.Scan.Formats = []string{"VST3", "AudioUnit"}
	}
	for i, dir := range c.Scan.ExtraDirs {
		if c.Scan.ExtraDirs[i], err = expandPath(dir); err != nil {
			return fmt.Errorf("scan.extra_dirs[%d]: %w", i, err)
		}
	}
	if c.Scan.ScannerBinary, err = expandPath(strings.TrimSpace(c.Scan.ScannerBinary)); err != nil {
		return fmt.Errorf("scan.scanner_binary: %w", err)
	}

	if c.Watch.DebounceSeconds <= 0 {
		c.Watch.DebounceSeconds = defaultDebounceSeconds
	}
	c.Watch.Schedule = strings.TrimSpace(c.Watch.Schedule)

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.FileMaxSizeMB <= 0 {
		c.Logging.FileMaxSizeMB = defaultFileMaxSizeMB
	}
	if c.Logging.FileMaxFiles <= 0 {
		c.Logging.FileMaxFiles = defaultFileMaxFiles
	}
	if c.Logging.FileMaxAgeDays <= 0 {
		c.Logging.FileMaxAgeDays = defaultFileMaxAgeDays
	}
	return nil
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
