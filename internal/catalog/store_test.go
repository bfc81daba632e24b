package catalog_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"magda/internal/catalog"
	"magda/internal/plugin"
)

func openStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestReplacePluginsRoundTrip(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	first := []plugin.Descriptor{
		{Name: "Zebra", FormatName: "VST3", Manufacturer: "u-he", Version: "2.9", FileOrIdentifier: "/p/Zebra.vst3", UniqueID: 42, IsInstrument: true, Category: "Instrument|Synth"},
		{Name: "Pro-C", FormatName: "VST3", Manufacturer: "FabFilter", Version: "2.1", FileOrIdentifier: "/p/ProC.vst3", UniqueID: 7, Category: "Fx|Dynamics"},
	}
	if err := store.ReplacePlugins(ctx, first); err != nil {
		t.Fatalf("ReplacePlugins: %v", err)
	}

	got, err := store.Plugins(ctx)
	if err != nil {
		t.Fatalf("Plugins: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(got))
	}
	// Ordered by format then name.
	if got[0].Name != "Pro-C" || got[1].Name != "Zebra" {
		t.Fatalf("unexpected order: %s, %s", got[0].Name, got[1].Name)
	}
	if !got[1].IsInstrument || got[1].UniqueID != 42 {
		t.Fatalf("descriptor fields lost: %+v", got[1])
	}

	// A second scan replaces, never merges.
	second := []plugin.Descriptor{
		{Name: "Diva", FormatName: "VST3", FileOrIdentifier: "/p/Diva.vst3", IsInstrument: true},
	}
	if err := store.ReplacePlugins(ctx, second); err != nil {
		t.Fatalf("ReplacePlugins: %v", err)
	}
	got, err = store.Plugins(ctx)
	if err != nil {
		t.Fatalf("Plugins: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Diva" {
		t.Fatalf("expected only the new scan's plugins, got %+v", got)
	}
}

func TestRecordScanHistory(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		err := store.RecordScan(ctx, catalog.ScanSummary{
			StartedAt:  base.Add(time.Duration(i) * time.Hour),
			DurationMs: int64(1000 * (i + 1)),
			Found:      10 + i,
			Failed:     i,
		})
		if err != nil {
			t.Fatalf("RecordScan: %v", err)
		}
	}

	scans, err := store.Scans(ctx, 2)
	if err != nil {
		t.Fatalf("Scans: %v", err)
	}
	if len(scans) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(scans))
	}
	// Newest first.
	if scans[0].Found != 12 || scans[1].Found != 11 {
		t.Fatalf("unexpected ordering: %+v", scans)
	}
	if !scans[0].StartedAt.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("timestamp did not round trip: %v", scans[0].StartedAt)
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")
	store, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	ctx := context.Background()
	if err := store.ReplacePlugins(ctx, []plugin.Descriptor{{Name: "Keep", FormatName: "VST3"}}); err != nil {
		t.Fatalf("ReplacePlugins: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := catalog.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	plugins, err := reopened.Plugins(ctx)
	if err != nil {
		t.Fatalf("Plugins: %v", err)
	}
	if len(plugins) != 1 || plugins[0].Name != "Keep" {
		t.Fatalf("catalog lost across reopen: %+v", plugins)
	}
}
