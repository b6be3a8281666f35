package known

import (
	"strings"

	"recognition-api/internal/models"
)

// Matcher performs deterministic lookups against the curated known-location
// table. A hit is authoritative and bypasses confidence arbitration: these
// entries exist precisely because the statistical pipeline got them wrong.
//
// This is a small explicit rule list on purpose. Its value is deterministic
// curation, so it must stay legible; do not generalize it into fuzzy
// matching.
type Matcher struct {
	entries []models.KnownLocationEntry
}

// NewMatcher creates a matcher over the curated entries. Entries are
// immutable at request time.
func NewMatcher(entries []models.KnownLocationEntry) *Matcher {
	return &Matcher{entries: entries}
}

// Find looks up a business name (and optionally a phone number) against the
// curated table. Rules run in strict order with first hit winning:
//
//  1. exact case-insensitive key match
//  2. any configured alias occurs as a substring of the cleaned input
//  3. the input contains the entry key's first word, and the key has more
//     than one word (single common words would over-match)
//  4. phone-number equality, digits-only compare
func (m *Matcher) Find(businessName, phoneNumber string) *models.KnownLocationEntry {
	cleaned := strings.ToLower(strings.TrimSpace(businessName))
	if cleaned == "" && phoneNumber == "" {
		return nil
	}

	if cleaned != "" {
		for i := range m.entries {
			if strings.ToLower(m.entries[i].CanonicalKey) == cleaned {
				return &m.entries[i]
			}
		}

		for i := range m.entries {
			for _, alias := range m.entries[i].Aliases {
				if alias == "" {
					continue
				}
				if strings.Contains(cleaned, strings.ToLower(alias)) {
					return &m.entries[i]
				}
			}
		}

		for i := range m.entries {
			keyWords := strings.Fields(strings.ToLower(m.entries[i].CanonicalKey))
			if len(keyWords) < 2 {
				continue
			}
			if strings.Contains(cleaned, keyWords[0]) {
				return &m.entries[i]
			}
		}
	}

	if phoneNumber != "" {
		wanted := digitsOnly(phoneNumber)
		if wanted != "" {
			for i := range m.entries {
				if m.entries[i].Phone != "" && digitsOnly(m.entries[i].Phone) == wanted {
					return &m.entries[i]
				}
			}
		}
	}

	return nil
}

// Candidate converts a matched entry into the authoritative candidate the
// arbiter short-circuits on.
func Candidate(entry *models.KnownLocationEntry) models.Candidate {
	coords := entry.Coordinates
	return models.Candidate{
		Source:        models.SourceKnownLocation,
		Name:          entry.Name,
		Address:       entry.Address,
		Coordinates:   &coords,
		RawConfidence: 1.0,
		Metadata:      map[string]string{"canonical_key": entry.CanonicalKey},
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
