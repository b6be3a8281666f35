package signals

import (
	"regexp"
	"strings"

	"recognition-api/internal/config"
	"recognition-api/internal/known"
	"recognition-api/internal/models"

	"github.com/rs/zerolog/log"
)

// Raw per-source payloads. Each source may be absent; a nil payload simply
// yields no candidate.

// ExifPayload carries GPS coordinates extracted from image metadata, either
// through the standard EXIF block or a raw binary scan.
type ExifPayload struct {
	Latitude  float64
	Longitude float64
}

// Detection is one scored vision-API hit (landmark or logo).
type Detection struct {
	Description string
	Score       float64
	Latitude    float64
	Longitude   float64
}

// VisionPayload is the vision service's output for one image.
type VisionPayload struct {
	Landmarks  []Detection
	Logos      []Detection
	TextBlocks []string
}

// FreeTextPayload is the parsed result of the free-text AI description.
type FreeTextPayload struct {
	BusinessName string
	Address      string
	PhoneNumber  string
	Confidence   float64
}

// Normalizer converts raw source payloads into candidates carrying a
// provenance tag and raw confidence. All transforms are pure; a malformed
// payload from one source never aborts normalization of the others.
type Normalizer struct {
	confidence config.ConfidenceConfig
	priorities *known.PriorityResolver
}

// NewNormalizer creates a normalizer bound to the configured thresholds.
func NewNormalizer(confidence config.ConfidenceConfig, priorities *known.PriorityResolver) *Normalizer {
	return &Normalizer{confidence: confidence, priorities: priorities}
}

// ExifGPS normalizes embedded GPS metadata. Coordinates are valid only when
// both components are present and non-zero; confidence is the configured
// exifGPS value since embedded GPS is ground truth.
func (n *Normalizer) ExifGPS(payload *ExifPayload) *models.Candidate {
	return n.exif(payload, models.SourceExifGPS, n.confidence.ExifGPS)
}

// ExifBinary normalizes GPS coordinates recovered by a raw binary scan of
// the image, used when the standard EXIF block is stripped or corrupt.
func (n *Normalizer) ExifBinary(payload *ExifPayload) *models.Candidate {
	return n.exif(payload, models.SourceExifBinary, n.confidence.ExifBinary)
}

func (n *Normalizer) exif(payload *ExifPayload, source models.SourceKind, confidence float64) *models.Candidate {
	if payload == nil {
		return nil
	}
	if payload.Latitude == 0 || payload.Longitude == 0 {
		log.Debug().Str("source", string(source)).Msg("skipping zero gps coordinates")
		return nil
	}
	return &models.Candidate{
		Source:        source,
		Coordinates:   &models.Coordinates{Latitude: payload.Latitude, Longitude: payload.Longitude},
		RawConfidence: confidence,
	}
}

// Vision normalizes landmark, logo and text detections. Detections below
// their source threshold produce no candidate at all; surviving detections
// are capped so a miscalibrated vision score cannot outrank GPS.
func (n *Normalizer) Vision(payload *VisionPayload) []models.Candidate {
	if payload == nil {
		return nil
	}

	var candidates []models.Candidate

	for _, d := range payload.Landmarks {
		if c := n.detection(d, models.SourceAILandmark, n.confidence.AILandmark); c != nil {
			candidates = append(candidates, *c)
		}
	}
	for _, d := range payload.Logos {
		if c := n.detection(d, models.SourceAILogo, n.confidence.AILogo); c != nil {
			candidates = append(candidates, *c)
		}
	}
	for _, block := range payload.TextBlocks {
		candidates = append(candidates, n.Text(block)...)
	}

	return candidates
}

func (n *Normalizer) detection(d Detection, source models.SourceKind, threshold float64) *models.Candidate {
	if d.Description == "" {
		log.Debug().Str("source", string(source)).Msg("skipping detection without description")
		return nil
	}
	if d.Score < threshold {
		return nil
	}

	candidate := models.Candidate{
		Source:        source,
		Name:          d.Description,
		RawConfidence: min(d.Score, confidenceCap(threshold)),
	}
	if d.Latitude != 0 && d.Longitude != 0 {
		candidate.Coordinates = &models.Coordinates{Latitude: d.Latitude, Longitude: d.Longitude}
	}
	return &candidate
}

// Text splits one detected text blob into address-like and
// business-name-like candidates, each against its own threshold.
func (n *Normalizer) Text(text string) []models.Candidate {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	var candidates []models.Candidate

	if address := extractAddress(trimmed); address != "" {
		candidates = append(candidates, models.Candidate{
			Source:        models.SourceAITextAddress,
			Address:       address,
			RawConfidence: n.confidence.AITextAddress,
			Metadata:      map[string]string{"text": trimmed},
		})
	}

	if name := n.priorities.Resolve(trimmed); name != "" {
		candidates = append(candidates, models.Candidate{
			Source:        models.SourceAITextBusiness,
			Name:          name,
			RawConfidence: n.confidence.AITextBusiness,
			Metadata:      map[string]string{"text": trimmed},
		})
	} else if name := extractBusinessName(trimmed); name != "" {
		candidates = append(candidates, models.Candidate{
			Source:        models.SourceAITextBusiness,
			Name:          name,
			RawConfidence: n.confidence.AITextBusiness,
			Metadata:      map[string]string{"text": trimmed},
		})
	}

	return candidates
}

// FreeText normalizes the AI describer's parsed output.
func (n *Normalizer) FreeText(payload *FreeTextPayload) *models.Candidate {
	if payload == nil {
		return nil
	}
	if payload.BusinessName == "" && payload.Address == "" {
		return nil
	}

	confidence := payload.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = n.confidence.ClaudeFreeText
	}

	return &models.Candidate{
		Source:        models.SourceClaudeFreeText,
		Name:          payload.BusinessName,
		Address:       payload.Address,
		RawConfidence: confidence,
	}
}

// DeviceFallback normalizes caller-supplied device coordinates, the
// lowest-priority signal in the system.
func (n *Normalizer) DeviceFallback(payload *ExifPayload) *models.Candidate {
	candidate := n.exif(payload, models.SourceDeviceFallback, n.confidence.DeviceFallback)
	if candidate != nil {
		candidate.Address = "Device location"
	}
	return candidate
}

// confidenceCap bounds a detection's usable confidence relative to its
// threshold, keeping runaway vision scores below certainty.
func confidenceCap(threshold float64) float64 {
	return min(threshold+0.25, 0.99)
}

var (
	postcodePattern     = regexp.MustCompile(`(?i)\b[A-Z]{1,2}\d[A-Z\d]?\s*\d[A-Z]{2}\b`)
	streetLinePattern   = regexp.MustCompile(`(?i)\b\d{1,5}[a-z]?\s+[A-Z][a-zA-Z'\s]{2,40}\s(?:Road|Rd|Street|St|Avenue|Ave|Lane|Ln|Drive|Dr|Boulevard|Blvd|Way|Place|Pl|Park|Court|Ct)\b`)
	businessPattern     = regexp.MustCompile(`\b([A-Z][a-zA-Z'&.\s]{2,40}?)\s+(Restaurant|Cafe|Coffee|Store|Shop|Bank|Hotel|Market|Center|Plaza|Pharmacy|Deli|Bakery|Grill|Bar|Wines)\b`)
	upperNamePattern    = regexp.MustCompile(`\b([A-Z]{2,}(?:\s+[A-Z&']{2,}){0,2})\b`)
)

// extractAddress picks an address-like fragment: a street line, or failing
// that a postcode.
func extractAddress(text string) string {
	if m := streetLinePattern.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	if m := postcodePattern.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	return ""
}

// extractBusinessName picks a business-name-like fragment when no configured
// priority name is present.
func extractBusinessName(text string) string {
	if m := businessPattern.FindString(text); m != "" {
		return strings.TrimSpace(m)
	}
	if m := upperNamePattern.FindString(text); m != "" && len(m) > 3 {
		return strings.TrimSpace(m)
	}
	return ""
}
