package known

import (
	"testing"

	"recognition-api/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPriorityResolver_Resolve(t *testing.T) {
	entries := []models.BusinessPriorityEntry{
		{Name: "Loon Fung", Priority: 100},
		{Name: "Fortune Cookie", Priority: 90},
		{Name: "Arin Wines", Priority: 90},
		{Name: "Vinum", Priority: 50},
	}
	resolver := NewPriorityResolver(entries)

	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "single configured name",
			text:     "VINUM ENOTECA fine wine",
			expected: "Vinum",
		},
		{
			name:     "highest priority wins over later lower",
			text:     "Fortune Cookie next door to Loon Fung Supermarket",
			expected: "Loon Fung",
		},
		{
			name:     "equal priority keeps table order",
			text:     "ARIN WINES opposite FORTUNE COOKIE",
			expected: "Fortune Cookie",
		},
		{
			name:     "containment is case-insensitive",
			text:     "loon fung",
			expected: "Loon Fung",
		},
		{
			name:     "no configured name present",
			text:     "High Street Pharmacy",
			expected: "",
		},
		{
			name:     "empty text",
			text:     "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, resolver.Resolve(tt.text))
		})
	}
}

func TestPriorityResolver_HasPriority(t *testing.T) {
	resolver := NewPriorityResolver([]models.BusinessPriorityEntry{
		{Name: "Loon Fung", Priority: 100},
		{Name: "Vinum", Priority: 50},
	})

	assert.True(t, resolver.HasPriority("Loon Fung", "Vinum"))
	assert.False(t, resolver.HasPriority("Vinum", "Loon Fung"))
	assert.False(t, resolver.HasPriority("Vinum", "Vinum"))
	// Unconfigured names rank as zero.
	assert.True(t, resolver.HasPriority("Vinum", "Unknown Shop"))
	assert.False(t, resolver.HasPriority("Unknown Shop", "Vinum"))
	assert.False(t, resolver.HasPriority("Unknown A", "Unknown B"))
}
