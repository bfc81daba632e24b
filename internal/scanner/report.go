package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ReportEntry is one line of the human-readable scan report.
type ReportEntry struct {
	Path         string
	FormatName   string
	Success      bool
	ErrorMessage string
	DurationMs   int64
	WorkerIndex  int
	FoundNames   []string
}

// failureTag classifies a failure by its error message. Exit codes are not
// uniformly available across platforms, so the message is the signal.
func failureTag(errorMessage string) string {
	lower := strings.ToLower(errorMessage)
	switch {
	case strings.Contains(lower, "timeout"):
		return "TIMEOUT"
	case strings.Contains(lower, "crash"):
		return "CRASH"
	default:
		return "ERROR"
	}
}

func renderReport(st *scanState) string {
	succeeded := 0
	failed := 0
	totalFound := 0
	for _, r := range st.results {
		if r.Success {
			succeeded++
			totalFound += len(r.FoundNames)
		} else {
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== MAGDA Plugin Scan Report ===\n")
	fmt.Fprintf(&b, "Session: %s\n", st.sessionID)
	fmt.Fprintf(&b, "Date: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Duration: %.1fs\n", time.Since(st.started).Seconds())
	fmt.Fprintf(&b, "Workers: %d\n", len(st.slots))
	fmt.Fprintf(&b, "Plugins scanned: %d\n", len(st.results))
	fmt.Fprintf(&b, "Succeeded: %d (found %d plugins)\n", succeeded, totalFound)
	fmt.Fprintf(&b, "Failed: %d\n\n", failed)

	if failed > 0 {
		b.WriteString("--- Failed Plugins ---\n")
		for _, r := range st.results {
			if r.Success {
				continue
			}
			writeFailureLine(&b, r)
		}
		b.WriteByte('\n')
	}

	b.WriteString("--- All Results ---\n")
	for _, r := range st.results {
		if r.Success {
			fmt.Fprintf(&b, "%-9s %s (%s) - %s (worker %d, %.1fs)\n",
				"[OK]",
				strings.Join(r.FoundNames, ", "),
				r.FormatName,
				r.Path,
				r.WorkerIndex,
				float64(r.DurationMs)/1000.0)
			continue
		}
		writeFailureLine(&b, r)
	}
	return b.String()
}

func writeFailureLine(b *strings.Builder, r ReportEntry) {
	tag := failureTag(r.ErrorMessage)
	fmt.Fprintf(b, "%-9s %s", "["+tag+"]", r.Path)
	if tag == "ERROR" && r.ErrorMessage != "" {
		fmt.Fprintf(b, " - %s", r.ErrorMessage)
	}
	fmt.Fprintf(b, " (worker %d, %.1fs)\n", r.WorkerIndex, float64(r.DurationMs)/1000.0)
}

func writeReport(path string, st *scanState) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(renderReport(st)), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
