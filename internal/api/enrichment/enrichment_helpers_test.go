package enrichment

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

func TestNormalizePlaceKey(t *testing.T) {
	tests := []struct {
		name     string
		query    types.POIQuery
		expected string
	}{
		{
			name:     "simple query",
			query:    types.POIQuery{Name: "Eiffel Tower", City: "Paris", Country: "France"},
			expected: "eiffel-tower-paris-france",
		},
		{
			name:     "punctuation stripped",
			query:    types.POIQuery{Name: "St. Paul's Cathedral!", City: "London", Country: "U.K."},
			expected: "st-paul-s-cathedral-london-u-k",
		},
		{
			name:     "repeated separators collapse",
			query:    types.POIQuery{Name: "Sagrada   Família", City: "Barcelona", Country: "Spain"},
			expected: "sagrada-fam-lia-barcelona-spain",
		},
		{
			name:     "blank fields prune",
			query:    types.POIQuery{Name: "Sensoji Temple"},
			expected: "sensoji-temple",
		},
		{
			name:     "empty query",
			query:    types.POIQuery{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePlaceKey(tt.query))
		})
	}
}

func TestNormalizePlaceKey_IdempotentAcrossVariants(t *testing.T) {
	base := NormalizePlaceKey(types.POIQuery{Name: "Eiffel Tower", City: "Paris", Country: "France"})

	variants := []types.POIQuery{
		{Name: "EIFFEL TOWER", City: "PARIS", Country: "FRANCE"},
		{Name: "eiffel tower", City: "paris", Country: "france"},
		{Name: "Eiffel  Tower!", City: "Paris,", Country: "(France)"},
	}
	for _, variant := range variants {
		assert.Equal(t, base, NormalizePlaceKey(variant))
	}

	// Repeated application of the same input always yields the same key.
	assert.Equal(t, base, NormalizePlaceKey(types.POIQuery{Name: "Eiffel Tower", City: "Paris", Country: "France"}))
}

func TestPriceLevelFromSymbol(t *testing.T) {
	tests := []struct {
		symbol   string
		expected int
	}{
		{"$", 1},
		{"$$", 2},
		{"$$$", 3},
		{"$$$$", 4},
		{"$$ - $$$", 2},
		{"", 0},
		{"cheap", 0},
		{"$$$$$", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, priceLevelFromSymbol(tt.symbol), "symbol %q", tt.symbol)
	}
}

func TestParseCoordinate(t *testing.T) {
	val, ok := parseCoordinate(" 35.7148 ")
	assert.True(t, ok)
	assert.InDelta(t, 35.7148, val, 1e-9)

	_, ok = parseCoordinate("not-a-number")
	assert.False(t, ok)

	_, ok = parseCoordinate("")
	assert.False(t, ok)
}

func TestTextOverlap(t *testing.T) {
	assert.True(t, textOverlap("Visit the Eiffel Tower at sunset", "eiffel tower"))
	assert.True(t, textOverlap("Louvre", "Morning at the LOUVRE museum"))
	assert.False(t, textOverlap("Eiffel Tower", "Louvre"))
	assert.False(t, textOverlap("", "Louvre"))
	assert.False(t, textOverlap("Eiffel Tower", ""))
}
