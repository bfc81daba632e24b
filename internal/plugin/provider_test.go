package plugin_test

import (
	"testing"

	"magda/internal/plugin"
)

func TestFindIgnoresCase(t *testing.T) {
	providers := plugin.DefaultProviders()
	if p := plugin.Find(providers, "vst3"); p == nil || p.Name() != "VST3" {
		t.Fatalf("expected VST3 provider, got %v", p)
	}
	if p := plugin.Find(providers, "audiounit"); p == nil || p.Name() != "AudioUnit" {
		t.Fatalf("expected AudioUnit provider, got %v", p)
	}
	if p := plugin.Find(providers, "LADSPA"); p != nil {
		t.Fatalf("expected nil for unknown format, got %v", p)
	}
}

func TestSearchRootsDeduplicates(t *testing.T) {
	providers := plugin.DefaultProviders()
	extra := []string{"/opt/plugins", "/opt/plugins"}

	roots := plugin.SearchRoots(providers, extra)
	seen := make(map[string]int)
	for _, root := range roots {
		seen[root]++
	}
	for root, n := range seen {
		if n > 1 {
			t.Fatalf("root %q appears %d times", root, n)
		}
	}
	if seen["/opt/plugins"] != 1 {
		t.Fatalf("extra dir missing from roots: %v", roots)
	}
}
