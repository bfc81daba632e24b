package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// An interrupt already reads as intentional; don't echo it back.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "magda:", err)
		}
		os.Exit(1)
	}
}
