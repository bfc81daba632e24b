package exclusions

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Exclusion reasons. Reason is free-form on disk (legacy files carry raw
// error messages), but new entries should use one of these or a specific
// scanner error message.
const (
	ReasonCrash      = "crash"
	ReasonTimeout    = "timeout"
	ReasonScanFailed = "scan_failed"
	ReasonUnknown    = "unknown"
)

// FileName is the current exclusion file name; LegacyFileName is read as a
// migration fallback when FileName does not exist yet.
const (
	FileName       = "plugin_exclusions.txt"
	LegacyFileName = "plugin_blacklist.txt"
)

// Entry records one excluded plugin.
type Entry struct {
	Path      string
	Reason    string
	Timestamp string
}

// Store keeps the exclusion list in memory and persists every mutation
// synchronously. The scan coordinator is the sole writer during a scan; the
// mutex exists because CLI commands read the list concurrently.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.Mutex
	entries []Entry
}

// NewStore loads (or migrates) the exclusion file at path. A missing file is
// not an error; the store starts empty.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	entries, err := Load(path)
	if err != nil {
		logger.Warn("load exclusion list", "path", path, "error", err)
	}
	logger.Info("loaded excluded plugins", "count", len(entries))
	return &Store{path: path, logger: logger, entries: entries}
}

// Entries returns a copy of the current list.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Contains reports whether path is excluded.
func (s *Store) Contains(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(path) >= 0
}

// Exclude records path with the given reason and persists. Re-excluding an
// already listed path is a no-op: the first reason sticks.
func (s *Store) Exclude(path, reason string) {
	path = strings.TrimSpace(path)
	if path == "" {
		return
	}
	if strings.TrimSpace(reason) == "" {
		reason = ReasonUnknown
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(path) >= 0 {
		return
	}
	s.entries = append(s.entries, Entry{
		Path:      path,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	s.persistLocked()
}

// Clear empties the list and persists the empty list.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.persistLocked()
}

func (s *Store) indexOf(path string) int {
	for i, entry := range s.entries {
		if entry.Path == path {
			return i
		}
	}
	return -1
}

func (s *Store) persistLocked() {
	if err := Save(s.path, s.entries); err != nil {
		s.logger.Warn("save exclusion list", "path", s.path, "error", err)
	}
}

// Load parses the exclusion file at path. When path does not exist, the
// legacy filename in the same directory is tried before giving up.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		legacy := filepath.Join(filepath.Dir(path), LegacyFileName)
		data, err = os.ReadFile(legacy)
		if os.IsNotExist(err) {
			return nil, nil
		}
	}
	if err != nil {
		return nil, fmt.Errorf("read exclusion list: %w", err)
	}

	var entries []Entry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		entries = append(entries, parseLine(line))
	}
	return entries, nil
}

// parseLine accepts the current tab-delimited format, the legacy
// pipe-delimited format, and bare paths.
func parseLine(line string) Entry {
	delimiter := ""
	if strings.Contains(line, "\t") {
		delimiter = "\t"
	} else if strings.Contains(line, "|") {
		delimiter = "|"
	}
	if delimiter == "" {
		return Entry{Path: line, Reason: ReasonUnknown}
	}

	parts := strings.Split(line, delimiter)
	entry := Entry{Path: strings.TrimSpace(parts[0]), Reason: ReasonUnknown}
	if len(parts) > 1 && strings.TrimSpace(parts[1]) != "" {
		entry.Reason = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		entry.Timestamp = strings.TrimSpace(parts[2])
	}
	return entry
}

// Save writes entries tab-delimited to path, creating the parent directory
// if needed. The file is overwritten, never merged.
func Save(path string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create exclusion dir: %w", err)
	}
	var sb strings.Builder
	for _, entry := range entries {
		sb.WriteString(entry.Path)
		sb.WriteByte('\t')
		sb.WriteString(entry.Reason)
		sb.WriteByte('\t')
		sb.WriteString(entry.Timestamp)
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
		return fmt.Errorf("write exclusion list: %w", err)
	}
	return nil
}
