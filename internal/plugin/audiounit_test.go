package plugin_test

import (
	"os"
	"path/filepath"
	"testing"

	"magda/internal/plugin"
)

const sampleInfoPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>com.acme.duosynth</string>
	<key>AudioComponents</key>
	<array>
		<dict>
			<key>name</key>
			<string>Acme: DuoSynth</string>
			<key>type</key>
			<string>aumu</string>
			<key>subtype</key>
			<string>duos</string>
			<key>manufacturer</key>
			<string>Acme</string>
			<key>version</key>
			<integer>131841</integer>
			<key>sandboxSafe</key>
			<true/>
		</dict>
		<dict>
			<key>name</key>
			<string>Acme: DuoVerb</string>
			<key>type</key>
			<string>aufx</string>
			<key>subtype</key>
			<string>duov</string>
			<key>manufacturer</key>
			<string>Acme</string>
			<key>version</key>
			<integer>65536</integer>
		</dict>
	</array>
</dict>
</plist>
`

func writeComponentBundle(t *testing.T, dir, name, plist string) string {
	t.Helper()
	bundle := filepath.Join(dir, name)
	contents := filepath.Join(bundle, "Contents")
	if err := os.MkdirAll(contents, 0o755); err != nil {
		t.Fatal(err)
	}
	if plist != "" {
		if err := os.WriteFile(filepath.Join(contents, "Info.plist"), []byte(plist), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return bundle
}

func TestAudioUnitProbeReadsComponents(t *testing.T) {
	bundle := writeComponentBundle(t, t.TempDir(), "Duo.component", sampleInfoPlist)

	descriptors, err := plugin.NewAudioUnitProvider().Probe(bundle)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(descriptors) != 2 {
		t.Fatalf("expected 2 components, got %d", len(descriptors))
	}

	synth := descriptors[0]
	if synth.Name != "DuoSynth" || synth.Manufacturer != "Acme" {
		t.Fatalf("name split failed: %+v", synth)
	}
	if synth.FormatName != "AudioUnit" {
		t.Fatalf("unexpected format %q", synth.FormatName)
	}
	// 131841 = 2<<16 | 3<<8 | 1
	if synth.Version != "2.3.1" {
		t.Fatalf("unexpected version %q", synth.Version)
	}
	if !synth.IsInstrument || synth.Category != "Instrument" {
		t.Fatalf("aumu component must be an instrument: %+v", synth)
	}

	verb := descriptors[1]
	if verb.IsInstrument || verb.Category != "Effect" {
		t.Fatalf("aufx component must be an effect: %+v", verb)
	}
	if verb.Version != "1.0.0" {
		t.Fatalf("unexpected version %q", verb.Version)
	}
	if verb.UniqueID == synth.UniqueID {
		t.Fatal("distinct components must produce distinct unique ids")
	}
}

func TestAudioUnitProbeNoComponentsSection(t *testing.T) {
	plist := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>CFBundleIdentifier</key>
	<string>com.acme.empty</string>
</dict>
</plist>
`
	bundle := writeComponentBundle(t, t.TempDir(), "Empty.component", plist)
	descriptors, err := plugin.NewAudioUnitProvider().Probe(bundle)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if len(descriptors) != 0 {
		t.Fatalf("expected no descriptors, got %+v", descriptors)
	}
}

func TestAudioUnitProbeMissingPlist(t *testing.T) {
	bundle := writeComponentBundle(t, t.TempDir(), "Bare.component", "")
	if _, err := plugin.NewAudioUnitProvider().Probe(bundle); err == nil {
		t.Fatal("expected error for bundle without Info.plist")
	}
}

func TestAudioUnitProbeMalformedPlist(t *testing.T) {
	bundle := writeComponentBundle(t, t.TempDir(), "Broken.component", "<plist><dict>")
	if _, err := plugin.NewAudioUnitProvider().Probe(bundle); err == nil {
		t.Fatal("expected error for malformed Info.plist")
	}
}
