package known

import (
	"strings"

	"recognition-api/internal/models"
)

// PriorityResolver disambiguates detected text that mentions several known
// business names. The configured table is scanned in order; the order is the
// tie-break for equal priorities and must never be re-sorted at runtime.
type PriorityResolver struct {
	entries []models.BusinessPriorityEntry
}

// NewPriorityResolver creates a resolver over the ranked list as configured.
func NewPriorityResolver(entries []models.BusinessPriorityEntry) *PriorityResolver {
	return &PriorityResolver{entries: entries}
}

// Resolve returns the highest-priority configured name contained in the
// text, or "" when none is present. Containment is case-insensitive.
func (r *PriorityResolver) Resolve(text string) string {
	lowered := strings.ToLower(text)

	best := ""
	bestPriority := 0
	for _, entry := range r.entries {
		if entry.Name == "" {
			continue
		}
		if !strings.Contains(lowered, strings.ToLower(entry.Name)) {
			continue
		}
		// Strict > keeps the first table entry on ties.
		if best == "" || entry.Priority > bestPriority {
			best = entry.Name
			bestPriority = entry.Priority
		}
	}

	return best
}

// HasPriority reports whether nameA's configured priority strictly exceeds
// nameB's. Unconfigured names rank as 0.
func (r *PriorityResolver) HasPriority(nameA, nameB string) bool {
	return r.priorityOf(nameA) > r.priorityOf(nameB)
}

func (r *PriorityResolver) priorityOf(name string) int {
	lowered := strings.ToLower(name)
	for _, entry := range r.entries {
		if strings.ToLower(entry.Name) == lowered {
			return entry.Priority
		}
	}
	return 0
}
