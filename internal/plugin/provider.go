package plugin

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FormatProvider describes one plugin format (VST3, AudioUnit, ...).
// Candidates enumerates plugin files under the given roots without opening
// them; Probe reads the descriptors out of a single candidate and is the
// crash-prone half, so it only ever runs inside the scanner subprocess.
type FormatProvider interface {
	Name() string
	DefaultSearchPaths() []string
	Candidates(roots []string) ([]string, error)
	Probe(path string) ([]Descriptor, error)
}

// DefaultProviders returns the providers built into this binary.
func DefaultProviders() []FormatProvider {
	return []FormatProvider{NewVST3Provider(), NewAudioUnitProvider()}
}

// Find returns the provider whose name matches, ignoring case.
func Find(providers []FormatProvider, name string) FormatProvider {
	for _, p := range providers {
		if strings.EqualFold(p.Name(), name) {
			return p
		}
	}
	return nil
}

// SearchRoots collects every directory the given providers would search,
// plus the extra directories, home-expanded and deduplicated. Watch mode
// uses this to know what to observe.
func SearchRoots(providers []FormatProvider, extra []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(path string) {
		path = expandHome(path)
		if path == "" {
			return
		}
		if _, dup := seen[path]; dup {
			return
		}
		seen[path] = struct{}{}
		out = append(out, path)
	}
	for _, p := range providers {
		for _, root := range p.DefaultSearchPaths() {
			add(root)
		}
	}
	for _, root := range extra {
		add(root)
	}
	return out
}

// findBundles walks each root for entries carrying the given extension.
// Bundles are directories on most platforms, so matching directories are
// recorded and not descended into. Missing roots are skipped silently;
// plugin directories routinely do not exist.
func findBundles(roots []string, ext string) ([]string, error) {
	seen := make(map[string]struct{})
	var found []string
	for _, root := range roots {
		root = expandHome(root)
		if root == "" {
			continue
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(d.Name()), ext) {
				return nil
			}
			if _, dup := seen[path]; !dup {
				seen[path] = struct{}{}
				found = append(found, path)
			}
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}
	sort.Strings(found)
	return found, nil
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
