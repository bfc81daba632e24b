// Command magda-scanner is the disposable scan subprocess. It is launched by
// the coordinator with piped stdin/stdout, serves one scan command, and
// exits. If a plugin takes this process down, only this process dies.
package main

import (
	"fmt"
	"os"

	"magda/internal/logging"
	"magda/internal/plugin"
	"magda/internal/scanproc"
)

func main() {
	// Logs go to stderr, which the parent forwards into its own journal.
	logger, err := logging.New(logging.Options{Level: "debug", Format: "console", Writer: os.Stderr})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := scanproc.Run(os.Stdin, os.Stdout, plugin.DefaultProviders(), logger); err != nil {
		logger.Error("scanner failed", "error", err)
		os.Exit(1)
	}
}
