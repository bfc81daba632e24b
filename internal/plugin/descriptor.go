package plugin

// Descriptor identifies one plugin discovered inside a candidate file. It is
// an opaque payload as far as the scan pipeline is concerned: the subprocess
// produces descriptors, the coordinator aggregates them, and the catalog
// persists them.
type Descriptor struct {
	Name             string `json:"name"`
	FormatName       string `json:"formatName"`
	Manufacturer     string `json:"manufacturer"`
	Version          string `json:"version"`
	FileOrIdentifier string `json:"fileOrIdentifier"`
	UniqueID         int32  `json:"uniqueId"`
	IsInstrument     bool   `json:"isInstrument"`
	Category         string `json:"category"`
}
