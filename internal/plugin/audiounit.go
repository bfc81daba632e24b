package plugin

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// audioUnitProvider handles AudioUnit component bundles. Probing reads the
// AudioComponents array out of the bundle's Info.plist.
type audioUnitProvider struct{}

// NewAudioUnitProvider returns the AudioUnit format provider.
func NewAudioUnitProvider() FormatProvider { return audioUnitProvider{} }

func (audioUnitProvider) Name() string { return "AudioUnit" }

func (audioUnitProvider) DefaultSearchPaths() []string {
	if runtime.GOOS != "darwin" {
		return nil
	}
	return []string{
		"/Library/Audio/Plug-Ins/Components",
		"~/Library/Audio/Plug-Ins/Components",
	}
}

func (audioUnitProvider) Candidates(roots []string) ([]string, error) {
	return findBundles(roots, ".component")
}

func (audioUnitProvider) Probe(path string) ([]Descriptor, error) {
	plistPath := filepath.Join(path, "Contents", "Info.plist")
	file, err := os.Open(plistPath)
	if err != nil {
		return nil, fmt.Errorf("no Info.plist in %s", filepath.Base(path))
	}
	defer file.Close()

	root, err := parsePlist(file)
	if err != nil {
		return nil, fmt.Errorf("parse Info.plist: %w", err)
	}
	dict, ok := root.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("Info.plist root is not a dict")
	}
	components, ok := dict["AudioComponents"].([]any)
	if !ok {
		return nil, nil
	}

	var out []Descriptor
	for _, raw := range components {
		comp, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := comp["name"].(string)
		manufacturer := name
		if pre, post, found := strings.Cut(name, ": "); found {
			manufacturer = pre
			name = post
		}
		ctype, _ := comp["type"].(string)
		subtype, _ := comp["subtype"].(string)
		manu4, _ := comp["manufacturer"].(string)
		version := ""
		if v, ok := comp["version"].(int64); ok {
			version = formatAUVersion(v)
		}
		out = append(out, Descriptor{
			Name:             name,
			FormatName:       "AudioUnit",
			Manufacturer:     manufacturer,
			Version:          version,
			FileOrIdentifier: path,
			UniqueID:         hashID(ctype + subtype + manu4),
			IsInstrument:     ctype == "aumu",
			Category:         auCategory(ctype),
		})
	}
	return out, nil
}

func auCategory(componentType string) string {
	switch componentType {
	case "aumu":
		return "Instrument"
	case "aufx":
		return "Effect"
	case "aumf":
		return "MusicEffect"
	case "augn":
		return "Generator"
	case "aumx":
		return "Mixer"
	default:
		return componentType
	}
}

// AudioComponent versions pack major.minor.patch into a 32-bit integer.
func formatAUVersion(v int64) string {
	return fmt.Sprintf("%d.%d.%d", (v>>16)&0xffff, (v>>8)&0xff, v&0xff)
}

// parsePlist decodes an XML property list into maps, slices, and scalars.
// Only the node kinds AudioUnit Info.plists actually use are handled.
func parsePlist(r io.Reader) (any, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "plist" {
			return nil, fmt.Errorf("unexpected root element %q", start.Name.Local)
		}
		return parsePlistValue(dec)
	}
}

func parsePlistValue(dec *xml.Decoder) (any, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return parsePlistNode(dec, t)
		case xml.EndElement:
			return nil, io.EOF
		}
	}
}

func parsePlistNode(dec *xml.Decoder, start xml.StartElement) (any, error) {
	switch start.Name.Local {
	case "dict":
		return parsePlistDict(dec)
	case "array":
		return parsePlistArray(dec)
	case "string", "date", "data":
		return elementText(dec, start)
	case "integer":
		text, err := elementText(dec, start)
		if err != nil {
			return nil, err
		}
		var v int64
		_, err = fmt.Sscanf(text, "%d", &v)
		return v, err
	case "real":
		text, err := elementText(dec, start)
		if err != nil {
			return nil, err
		}
		var v float64
		_, err = fmt.Sscanf(text, "%g", &v)
		return v, err
	case "true":
		return true, dec.Skip()
	case "false":
		return false, dec.Skip()
	default:
		return nil, dec.Skip()
	}
}

func parsePlistDict(dec *xml.Decoder) (map[string]any, error) {
	result := make(map[string]any)
	var key string
	haveKey := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "key" {
				key, err = elementText(dec, t)
				if err != nil {
					return nil, err
				}
				haveKey = true
				continue
			}
			value, err := parsePlistNode(dec, t)
			if err != nil {
				return nil, err
			}
			if haveKey {
				result[key] = value
				haveKey = false
			}
		case xml.EndElement:
			return result, nil
		}
	}
}

func parsePlistArray(dec *xml.Decoder) ([]any, error) {
	var result []any
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			value, err := parsePlistNode(dec, t)
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		case xml.EndElement:
			return result, nil
		}
	}
}

func elementText(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			return strings.TrimSpace(text.String()), nil
		case xml.StartElement:
			if err := dec.Skip(); err != nil {
				return "", err
			}
		}
	}
}
