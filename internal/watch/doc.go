// Package watch triggers rescans while magda runs in watch mode.
//
// It watches plugin search directories for changes, coalescing bursts of
// filesystem events behind a debounce window, and optionally fires on a cron
// schedule as well. The package only decides when to rescan; the caller
// supplies the trigger that actually starts one.
package watch
