package models

// SourceKind identifies which signal source produced a candidate.
type SourceKind string

const (
	SourceExifGPS        SourceKind = "exifGPS"
	SourceExifBinary     SourceKind = "exifBinary"
	SourceKnownLocation  SourceKind = "knownLocation"
	SourceAILandmark     SourceKind = "aiLandmark"
	SourceAILogo         SourceKind = "aiLogo"
	SourceAITextBusiness SourceKind = "aiTextBusiness"
	SourceAITextAddress  SourceKind = "aiTextAddress"
	SourceClaudeFreeText SourceKind = "claudeFreeText"
	SourceDeviceFallback SourceKind = "deviceFallback"
)

// AllSourceKinds lists every source in the system. Configuration must carry
// a confidence threshold for each of these.
var AllSourceKinds = []SourceKind{
	SourceExifGPS,
	SourceExifBinary,
	SourceKnownLocation,
	SourceAILandmark,
	SourceAILogo,
	SourceAITextBusiness,
	SourceAITextAddress,
	SourceClaudeFreeText,
	SourceDeviceFallback,
}

// sourcePriority ranks sources for tie-breaking. Embedded GPS outranks every
// statistical source: a confident-looking vision match must never displace
// ground truth when raw confidence numbers tie.
var sourcePriority = map[SourceKind]int{
	SourceExifGPS:        9,
	SourceExifBinary:     8,
	SourceKnownLocation:  7,
	SourceAILandmark:     6,
	SourceAILogo:         5,
	SourceAITextBusiness: 4,
	SourceAITextAddress:  3,
	SourceClaudeFreeText: 2,
	SourceDeviceFallback: 1,
}

// Priority returns the fixed tie-break rank of a source. Unknown sources
// rank below everything.
func (s SourceKind) Priority() int {
	return sourcePriority[s]
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Candidate is one source's proposed location for a single recognition
// request. Candidates are value types and are not mutated after creation.
type Candidate struct {
	Source        SourceKind        `json:"source"`
	Name          string            `json:"name,omitempty"`
	Address       string            `json:"address,omitempty"`
	Coordinates   *Coordinates      `json:"coordinates,omitempty"`
	RawConfidence float64           `json:"raw_confidence"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// KnownLocationEntry is a curated, hand-verified location override.
type KnownLocationEntry struct {
	ID           int64        `json:"id"`
	CanonicalKey string       `json:"canonical_key"`
	Name         string       `json:"name"`
	Address      string       `json:"address"`
	Coordinates  Coordinates  `json:"coordinates"`
	Aliases      []string     `json:"aliases"`
	Phone        string       `json:"phone,omitempty"`
}

// BusinessPriorityEntry ranks a business name for disambiguation when
// several known names appear in the same block of detected text.
type BusinessPriorityEntry struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
}
