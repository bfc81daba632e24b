// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"magda/internal/config"
)

// ConfigOption customizes the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Scan.Workers = 4

	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithWorkers sets the scanner pool size.
func WithWorkers(n int) ConfigOption {
	return func(c *config.Config) { c.Scan.Workers = n }
}

// WithPluginTimeoutMs sets the per-plugin scan timeout.
func WithPluginTimeoutMs(ms int) ConfigOption {
	return func(c *config.Config) { c.Scan.PluginTimeoutMs = ms }
}

// WithExtraDirs adds plugin search directories.
func WithExtraDirs(dirs ...string) ConfigOption {
	return func(c *config.Config) { c.Scan.ExtraDirs = append(c.Scan.ExtraDirs, dirs...) }
}
