package scanproc_test

import (
	"bytes"
	"errors"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"magda/internal/ipc"
	"magda/internal/logging"
	"magda/internal/plugin"
	"magda/internal/scanproc"
)

type fakeProvider struct {
	name        string
	descriptors []plugin.Descriptor
	probeErr    error
	panicWith   any
}

func (p *fakeProvider) Name() string                 { return p.name }
func (p *fakeProvider) DefaultSearchPaths() []string { return nil }
func (p *fakeProvider) Candidates(roots []string) ([]string, error) {
	return nil, nil
}

func (p *fakeProvider) Probe(path string) ([]plugin.Descriptor, error) {
	if p.panicWith != nil {
		panic(p.panicWith)
	}
	return p.descriptors, p.probeErr
}

// runSession feeds commands through Run and returns the replies in order.
func runSession(t *testing.T, providers []plugin.FormatProvider, commands ...ipc.Message) []ipc.Message {
	t.Helper()

	var in bytes.Buffer
	enc := ipc.NewEncoder(&in)
	for _, cmd := range commands {
		if err := enc.Send(cmd); err != nil {
			t.Fatalf("queue command: %v", err)
		}
	}

	var out bytes.Buffer
	if err := scanproc.Run(&in, &out, providers, logging.NewNop()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	dec := ipc.NewDecoder(&out)
	var replies []ipc.Message
	for {
		msg, err := dec.Next()
		if err != nil {
			return replies
		}
		replies = append(replies, msg)
	}
}

func replyTypes(replies []ipc.Message) string {
	types := make([]string, len(replies))
	for i, msg := range replies {
		types[i] = msg.Type
	}
	return strings.Join(types, " ")
}

func TestRunScanEmitsFoundThenComplete(t *testing.T) {
	provider := &fakeProvider{
		name: "VST3",
		descriptors: []plugin.Descriptor{
			{Name: "Comp", FormatName: "VST3"},
			{Name: "Limiter", FormatName: "VST3"},
		},
	}
	replies := runSession(t, []plugin.FormatProvider{provider},
		ipc.ScanOne("VST3", "/plugins/Dynamics.vst3"),
		ipc.Quit(),
	)
	if got := replyTypes(replies); got != "PLUG PLUG DONE" {
		t.Fatalf("unexpected reply sequence: %s", got)
	}
	if replies[0].Plugin == nil || replies[0].Plugin.Name != "Comp" {
		t.Fatalf("unexpected first descriptor: %+v", replies[0].Plugin)
	}
}

func TestRunEmptyProbeReportsNoPlugins(t *testing.T) {
	provider := &fakeProvider{name: "VST3"}
	replies := runSession(t, []plugin.FormatProvider{provider},
		ipc.ScanOne("VST3", "/plugins/Empty.vst3"),
		ipc.Quit(),
	)
	if got := replyTypes(replies); got != "ERR DONE" {
		t.Fatalf("unexpected reply sequence: %s", got)
	}
	if replies[0].ErrorMessage != "No plugins found in file" {
		t.Fatalf("unexpected error message: %q", replies[0].ErrorMessage)
	}
}

func TestRunProbeErrorReportsMessage(t *testing.T) {
	provider := &fakeProvider{name: "VST3", probeErr: errors.New("moduleinfo.json missing")}
	replies := runSession(t, []plugin.FormatProvider{provider},
		ipc.ScanOne("VST3", "/plugins/Broken.vst3"),
		ipc.Quit(),
	)
	if got := replyTypes(replies); got != "ERR DONE" {
		t.Fatalf("unexpected reply sequence: %s", got)
	}
	if replies[0].ErrorMessage != "moduleinfo.json missing" {
		t.Fatalf("unexpected error message: %q", replies[0].ErrorMessage)
	}
}

func TestRunUnknownFormat(t *testing.T) {
	replies := runSession(t, []plugin.FormatProvider{&fakeProvider{name: "VST3"}},
		ipc.ScanOne("LADSPA", "/plugins/Old.so"),
		ipc.Quit(),
	)
	if got := replyTypes(replies); got != "ERR DONE" {
		t.Fatalf("unexpected reply sequence: %s", got)
	}
	if replies[0].ErrorMessage != "Format not found: LADSPA" {
		t.Fatalf("unexpected error message: %q", replies[0].ErrorMessage)
	}
}

func TestRunRecoversFromProbePanic(t *testing.T) {
	provider := &fakeProvider{name: "VST3", panicWith: "bad pointer"}
	replies := runSession(t, []plugin.FormatProvider{provider},
		ipc.ScanOne("VST3", "/plugins/Cursed.vst3"),
		ipc.Quit(),
	)
	if got := replyTypes(replies); got != "ERR DONE" {
		t.Fatalf("unexpected reply sequence: %s", got)
	}
	if !strings.Contains(replies[0].ErrorMessage, "panic while scanning") {
		t.Fatalf("unexpected error message: %q", replies[0].ErrorMessage)
	}
}

func TestReaderGoroutineExitsAfterQuit(t *testing.T) {
	// A command queued behind the quit must not leave the reader goroutine
	// blocked handing it over after Run has returned.
	var in bytes.Buffer
	enc := ipc.NewEncoder(&in)
	if err := enc.Send(ipc.Quit()); err != nil {
		t.Fatal(err)
	}
	if err := enc.Send(ipc.ScanOne("VST3", "/p/Straggler.vst3")); err != nil {
		t.Fatal(err)
	}

	before := runtime.NumGoroutine()
	if err := scanproc.Run(&in, io.Discard, nil, logging.NewNop()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for runtime.NumGoroutine() > before {
		select {
		case <-deadline:
			t.Fatalf("reader goroutine still alive: %d goroutines, started with %d",
				runtime.NumGoroutine(), before)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestRunExitsOnChannelLoss(t *testing.T) {
	// No QUIT queued; the command stream just ends, as it does when the
	// coordinator kills the process group.
	replies := runSession(t, []plugin.FormatProvider{&fakeProvider{name: "VST3"}})
	if len(replies) != 0 {
		t.Fatalf("expected no replies, got %s", replyTypes(replies))
	}
}
