// Package plugin defines the descriptor model and format providers for
// third-party audio plugins.
//
// A FormatProvider knows where a plugin format lives on disk, how to walk
// those directories for candidate bundles, and how to read descriptors out of
// a single candidate. The shipped VST3 and AudioUnit providers probe bundle
// metadata only; heavier probing strategies plug in behind the same
// interface.
//
// Both the scan coordinator (discovery) and the scanner subprocess (probing)
// consume providers through this package so the two sides always agree on
// format names.
package plugin
