// Package scanner implements the crash-isolated plugin scan pipeline: a pool
// of workers that farm candidate plugins out to disposable subprocesses, and
// the coordinator that assigns work, supervises timeouts, and aggregates
// results.
//
// Each Worker owns exactly one subprocess slot and turns subprocess messages
// or channel loss into exactly one Result per assignment. The Coordinator is
// event-driven: all scan state is owned by a single per-scan goroutine, so
// results, timeout checks, and aborts never race on shared state. A plugin
// that crashes, hangs, or errors is recorded, excluded from future scans, and
// never takes the host down.
//
// The subprocess side of the protocol lives in internal/scanproc.
package scanner
