package scanner

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveScannerBinaryConfigured(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "magda-scanner")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	resolved, err := ResolveScannerBinary(bin)
	if err != nil {
		t.Fatalf("ResolveScannerBinary: %v", err)
	}
	if resolved != bin {
		t.Fatalf("expected %q, got %q", bin, resolved)
	}
}

func TestResolveScannerBinaryConfiguredMissing(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	if _, err := ResolveScannerBinary(missing); err == nil {
		t.Fatal("expected error for missing configured binary")
	}
}
