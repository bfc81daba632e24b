// Package catalog persists the plugins a scan discovered, plus a short scan
// history, in SQLite.
//
// The exclusion list answers "what must never be probed again"; the catalog
// answers "what did the last successful probe find". The plugin table is
// replaced wholesale after each completed scan so it always mirrors the most
// recent results, while scan summaries accumulate as an audit trail next to
// the text report.
package catalog
