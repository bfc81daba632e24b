package plugin

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// vst3Provider handles VST3 bundles. Probing reads the moduleinfo.json that
// VST 3.7+ bundles ship; bundles without one cannot be described from
// metadata alone and are reported as empty.
type vst3Provider struct{}

// NewVST3Provider returns the VST3 format provider.
func NewVST3Provider() FormatProvider { return vst3Provider{} }

func (vst3Provider) Name() string { return "VST3" }

func (vst3Provider) DefaultSearchPaths() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/Library/Audio/Plug-Ins/VST3", "~/Library/Audio/Plug-Ins/VST3"}
	case "windows":
		return []string{`C:\Program Files\Common Files\VST3`}
	default:
		return []string{"~/.vst3", "/usr/lib/vst3", "/usr/local/lib/vst3"}
	}
}

func (vst3Provider) Candidates(roots []string) ([]string, error) {
	return findBundles(roots, ".vst3")
}

// moduleInfo mirrors the subset of moduleinfo.json the scanner needs. Field
// names with spaces follow the VST3 SDK's serialization.
type moduleInfo struct {
	Name        string `json:"Name"`
	Version     string `json:"Version"`
	FactoryInfo struct {
		Vendor string `json:"Vendor"`
	} `json:"Factory Info"`
	Classes []struct {
		CID           string   `json:"CID"`
		Category      string   `json:"Category"`
		Name          string   `json:"Name"`
		Vendor        string   `json:"Vendor"`
		Version       string   `json:"Version"`
		SubCategories []string `json:"Sub Categories"`
	} `json:"Classes"`
}

func (vst3Provider) Probe(path string) ([]Descriptor, error) {
	data, err := readModuleInfo(path)
	if err != nil {
		return nil, err
	}
	var info moduleInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("parse moduleinfo.json: %w", err)
	}

	var out []Descriptor
	for _, class := range info.Classes {
		if class.Category != "Audio Module Class" {
			continue
		}
		name := class.Name
		if name == "" {
			name = info.Name
		}
		vendor := class.Vendor
		if vendor == "" {
			vendor = info.FactoryInfo.Vendor
		}
		version := class.Version
		if version == "" {
			version = info.Version
		}
		out = append(out, Descriptor{
			Name:             name,
			FormatName:       "VST3",
			Manufacturer:     vendor,
			Version:          version,
			FileOrIdentifier: path,
			UniqueID:         hashID(class.CID),
			IsInstrument:     containsFold(class.SubCategories, "Instrument"),
			Category:         strings.Join(class.SubCategories, "|"),
		})
	}
	return out, nil
}

func readModuleInfo(bundle string) ([]byte, error) {
	candidates := []string{
		filepath.Join(bundle, "Contents", "moduleinfo.json"),
		filepath.Join(bundle, "Contents", "Resources", "moduleinfo.json"),
	}
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err == nil {
			return data, nil
		}
	}
	return nil, fmt.Errorf("no moduleinfo.json in %s", filepath.Base(bundle))
}

func hashID(id string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return int32(h.Sum32())
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}
