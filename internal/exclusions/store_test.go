package exclusions_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"magda/internal/exclusions"
	"magda/internal/logging"
)

func TestStoreExcludePersistsAndReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, exclusions.FileName)

	store := exclusions.NewStore(path, logging.NewNop())
	store.Exclude("/Library/Audio/Plug-Ins/VST3/Broken.vst3", exclusions.ReasonCrash)
	store.Exclude("/Library/Audio/Plug-Ins/VST3/Slow.vst3", exclusions.ReasonTimeout)

	reloaded := exclusions.NewStore(path, logging.NewNop())
	entries := reloaded.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", len(entries))
	}
	if entries[0].Path != "/Library/Audio/Plug-Ins/VST3/Broken.vst3" || entries[0].Reason != exclusions.ReasonCrash {
		t.Fatalf("unexpected first entry: %+v", entries[0])
	}
	if entries[0].Timestamp == "" {
		t.Fatal("expected timestamp on persisted entry")
	}
	if !reloaded.Contains("/Library/Audio/Plug-Ins/VST3/Slow.vst3") {
		t.Fatal("expected Contains to report excluded path")
	}
	if reloaded.Contains("/Library/Audio/Plug-Ins/VST3/Fine.vst3") {
		t.Fatal("Contains reported a path that was never excluded")
	}
}

func TestStoreFirstReasonWins(t *testing.T) {
	path := filepath.Join(t.TempDir(), exclusions.FileName)
	store := exclusions.NewStore(path, logging.NewNop())

	store.Exclude("/plugins/Dup.vst3", exclusions.ReasonCrash)
	store.Exclude("/plugins/Dup.vst3", exclusions.ReasonTimeout)

	entries := store.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Reason != exclusions.ReasonCrash {
		t.Fatalf("expected first reason to stick, got %q", entries[0].Reason)
	}
}

func TestStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), exclusions.FileName)
	store := exclusions.NewStore(path, logging.NewNop())
	store.Exclude("/plugins/A.vst3", exclusions.ReasonCrash)
	store.Clear()

	if entries := store.Entries(); len(entries) != 0 {
		t.Fatalf("expected empty list after clear, got %d entries", len(entries))
	}
	reloaded := exclusions.NewStore(path, logging.NewNop())
	if entries := reloaded.Entries(); len(entries) != 0 {
		t.Fatalf("expected empty persisted list, got %d entries", len(entries))
	}
}

func TestLoadParsesLegacyFormats(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, exclusions.FileName)
	content := strings.Join([]string{
		"/plugins/Tabbed.vst3\tcrash\t2024-01-02T03:04:05Z",
		"/plugins/Piped.vst3|timeout|",
		"/plugins/Bare.vst3",
		"",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := exclusions.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Reason != "crash" || entries[0].Timestamp != "2024-01-02T03:04:05Z" {
		t.Fatalf("unexpected tab entry: %+v", entries[0])
	}
	if entries[1].Path != "/plugins/Piped.vst3" || entries[1].Reason != "timeout" {
		t.Fatalf("unexpected pipe entry: %+v", entries[1])
	}
	if entries[2].Reason != exclusions.ReasonUnknown {
		t.Fatalf("bare path should get unknown reason, got %q", entries[2].Reason)
	}
}

func TestLoadFallsBackToLegacyFile(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, exclusions.LegacyFileName)
	if err := os.WriteFile(legacy, []byte("/plugins/Old.vst3|crash|\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	entries, err := exclusions.Load(filepath.Join(dir, exclusions.FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 || entries[0].Path != "/plugins/Old.vst3" {
		t.Fatalf("expected legacy entry, got %+v", entries)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	entries, err := exclusions.Load(filepath.Join(t.TempDir(), exclusions.FileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(entries))
	}
}
