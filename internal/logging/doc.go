// Package logging assembles the structured slog loggers used across magda.
//
// It owns the console and JSON handlers, centralizes level plumbing, and
// wires optional rotated file output so the scanner and CLI emit log lines
// with the same shape. Components tag themselves with a "component" attribute
// which the console handler promotes into the line prefix.
//
// Prefer these constructors over hand-rolled slog setup; NewNop exists for
// tests and wiring code that cannot fail.
package logging
