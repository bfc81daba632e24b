// Package scanproc implements the scanner-subprocess side of the scan
// protocol.
//
// Run decodes commands off the inherited stdin pipe on a dedicated reader
// goroutine but executes every probe on the main loop, mirroring hosts where
// plugin factories must run on the main thread. A probe that panics is
// converted into an error reply followed by the normal completion message, so
// the coordinator's sequencing never breaks.
//
// The process serves one scan command, then waits for quit; losing the
// channel exits immediately.
package scanproc
