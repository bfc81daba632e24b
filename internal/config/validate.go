package config

import (
	"fmt"
	"strings"
)

const maxWorkers = 16

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Scan.Workers > maxWorkers {
		return fmt.Errorf("scan.workers: %d exceeds maximum of %d", c.Scan.Workers, maxWorkers)
	}
	for _, format := range c.Scan.Formats {
		if strings.TrimSpace(format) == "" {
			return fmt.Errorf("scan.formats: empty format name")
		}
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
