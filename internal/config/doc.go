// Package config loads, normalizes, and validates magda configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads the TOML config file. The Config type centralizes
// every knob the scanner and CLI need: plugin search directories, worker pool
// size, per-plugin timeout, watch-mode behavior, and logging shape.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
