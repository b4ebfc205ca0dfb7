package enrichment

import (
	"strconv"
	"strings"

	"github.com/FACorreiaa/go-poi-enrichment/internal/types"
)

// NormalizePlaceKey derives the deterministic cache key for a query:
// lower-cased "name-city-country" with everything outside [a-z0-9-]
// stripped, repeated dashes collapsed and edge dashes trimmed. Pure and
// total; blank fields just prune out of the slug.
func NormalizePlaceKey(query types.POIQuery) string {
	raw := strings.ToLower(query.Name + "-" + query.City + "-" + query.Country)

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}

	slug := b.String()
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// locationHint builds the "near" string handed to provider search calls.
func locationHint(query types.POIQuery) string {
	parts := make([]string, 0, 2)
	if query.City != "" {
		parts = append(parts, query.City)
	}
	if query.Country != "" {
		parts = append(parts, query.Country)
	}
	return strings.Join(parts, ", ")
}

// priceLevelFromSymbol maps TripAdvisor's $..$$$$ scale onto 1..4.
// Ranges like "$$ - $$$" count their cheaper end. Unknown symbols map to 0.
func priceLevelFromSymbol(symbol string) int {
	symbol = strings.TrimSpace(symbol)
	if idx := strings.IndexAny(symbol, " -"); idx > 0 {
		symbol = symbol[:idx]
	}
	n := strings.Count(symbol, "$")
	if n < 1 || n > 4 || n != len(symbol) {
		return 0
	}
	return n
}

// parseCoordinate safely parses a provider's string-typed coordinate.
func parseCoordinate(s string) (float64, bool) {
	val, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return val, true
}

// textOverlap reports whether one of the strings contains the other,
// case-insensitively. Used for the best-effort activity<->POI join.
func textOverlap(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
