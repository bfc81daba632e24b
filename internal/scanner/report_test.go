package scanner

import (
	"strings"
	"testing"
	"time"
)

func TestFailureTagClassification(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"timeout (120s)", "TIMEOUT"},
		{"Timeout waiting", "TIMEOUT"},
		{"crash", "CRASH"},
		{"Subprocess crashed", "CRASH"},
		{"No plugins found in file", "ERROR"},
		{"", "ERROR"},
	}
	for _, tc := range cases {
		if got := failureTag(tc.message); got != tc.want {
			t.Errorf("failureTag(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestRenderReportSections(t *testing.T) {
	st := &scanState{
		sessionID: "test-session",
		started:   time.Now().Add(-3 * time.Second),
		slots:     make([]*workerSlot, 4),
		results: []ReportEntry{
			{
				Path:        "/p/Duo.vst3",
				FormatName:  "VST3",
				Success:     true,
				FoundNames:  []string{"DuoSynth", "DuoFX"},
				DurationMs:  1500,
				WorkerIndex: 0,
			},
			{
				Path:         "/p/Hung.vst3",
				FormatName:   "VST3",
				Success:      false,
				ErrorMessage: "timeout (120s)",
				DurationMs:   120000,
				WorkerIndex:  1,
			},
			{
				Path:         "/p/Odd.vst3",
				FormatName:   "VST3",
				Success:      false,
				ErrorMessage: "No plugins found in file",
				DurationMs:   200,
				WorkerIndex:  2,
			},
		},
	}

	report := renderReport(st)
	if !strings.Contains(report, "Succeeded: 1 (found 2 plugins)") {
		t.Fatalf("missing success summary:\n%s", report)
	}
	if !strings.Contains(report, "Failed: 2") {
		t.Fatalf("missing failure count:\n%s", report)
	}
	if !strings.Contains(report, "DuoSynth, DuoFX (VST3) - /p/Duo.vst3 (worker 0, 1.5s)") {
		t.Fatalf("missing success line:\n%s", report)
	}
	if !strings.Contains(report, "[TIMEOUT]") {
		t.Fatalf("missing timeout tag:\n%s", report)
	}
	// Timeout lines omit the message; only plain errors carry one.
	if strings.Contains(report, "[TIMEOUT] /p/Hung.vst3 - timeout") {
		t.Fatalf("timeout line should not repeat the message:\n%s", report)
	}
	if !strings.Contains(report, "/p/Odd.vst3 - No plugins found in file") {
		t.Fatalf("missing error message on ERROR line:\n%s", report)
	}
}
